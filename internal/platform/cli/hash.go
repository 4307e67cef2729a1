package cli

import (
	"fmt"
	"io"
	"passwordCrackerEngine/internal/adapter/hash"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/utils/random"
	"strings"

	"github.com/spf13/cobra"
)

const defaultRandomCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

func NewHashCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Create and identify hashes",
	}
	cmd.AddCommand(newHashGenerateCommand(opts))
	cmd.AddCommand(newHashIdentifyCommand(opts))
	return cmd
}

type generated struct {
	Type     domain.HashType `json:"type"`
	Hash     string          `json:"hash"`
	Password string          `json:"password,omitempty"`
}

func newHashGenerateCommand(opts *RootOptions) *cobra.Command {
	var (
		hashType string
		cost     int
		length   int
		charset  string
	)
	cmd := &cobra.Command{
		Use:   "generate [password]",
		Short: "Hash a password, or a random one with --random",
		Long: `Hash a password into a target line usable by the search commands.
With --random N a password of N characters from --charset is generated
and printed together with its hash.`,
		Example: `  cracker hash generate hunter2 --type sha256 > target.txt
  cracker hash generate --random 4 --charset 0123456789`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			var show bool
			switch {
			case len(args) == 1 && length > 0:
				return NewExitError(ExitFailure, "give a password or --random, not both")
			case len(args) == 1:
				password = args[0]
			case length > 0:
				password = random.Password(charset, length)
				show = true
			default:
				return NewExitError(ExitFailure, "a password or --random is required")
			}

			t := domain.HashType(strings.ToUpper(hashType))
			svc := hash.NewService()
			if cost > 0 {
				svc = svc.WithCost(cost)
			}
			value, err := svc.Generate([]byte(password), t)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to hash", err)
			}

			result := generated{Type: t, Hash: value}
			if show {
				result.Password = password
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(result, func(w io.Writer) error {
				if show {
					fmt.Fprintf(cmd.ErrOrStderr(), "password: %s\n", password)
				}
				_, err := fmt.Fprintf(w, "%s:%s\n", strings.ToLower(string(t)), value)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&hashType, "type", "t", "sha256", "md5, sha1, sha256, sha512 or bcrypt")
	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost")
	cmd.Flags().IntVar(&length, "random", 0, "generate a random password of this length")
	cmd.Flags().StringVar(&charset, "charset", defaultRandomCharset, "characters for --random")
	return cmd
}

func newHashIdentifyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <hash>",
		Short: "Guess the type of a hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := hash.NewService().Identify(args[0])
			if t == "" {
				return WrapExitError(ExitFailure, "unrecognised hash", domain.ErrInvalidHash)
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(map[string]domain.HashType{"type": t}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, t)
				return err
			})
		},
	}
}
