package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"passwordCrackerEngine/internal/adapter/report"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/core/service"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const dateFlagLayout = "2006-01-02"

func searchCommands(opts *RootOptions) []*cobra.Command {
	return []*cobra.Command{
		NewWordlistCommand(opts),
		NewRangeCommand(opts),
		NewDateCommand(opts),
		NewQueryCommand(opts),
		NewBruteCommand(opts),
	}
}

func NewWordlistCommand(opts *RootOptions) *cobra.Command {
	var rules []string
	cmd := &cobra.Command{
		Use:   "wordlist <hash-file> <wordlist>...",
		Short: "Try every line of one or more wordlists",
		Example: `  cracker wordlist target.txt rockyou.txt
  cracker wordlist target.txt words.txt --rules capitalize,append_numbers`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := domain.SourceSpec{
				Kind:     domain.SourceWordlist,
				Wordlist: &domain.WordlistSpec{Paths: args[1:], Rules: rules},
			}
			return runSearch(cmd, opts, args[0], spec)
		},
	}
	cmd.Flags().StringSliceVar(&rules, "rules", nil, "variants tried after each word (uppercase, capitalize, reverse, leet, append_numbers)")
	return cmd
}

func NewRangeCommand(opts *RootOptions) *cobra.Command {
	var r domain.RangeSpec
	cmd := &cobra.Command{
		Use:     "range <hash-file>",
		Short:   "Try every number between --lower and --upper",
		Example: "  cracker range target.txt --upper 9999 --pad",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := domain.SourceSpec{Kind: domain.SourceRange, Range: &r}
			return runSearch(cmd, opts, args[0], spec)
		},
	}
	cmd.Flags().Uint64Var(&r.Lower, "lower", 0, "first number")
	cmd.Flags().Uint64Var(&r.Upper, "upper", 0, "last number (inclusive)")
	cmd.Flags().BoolVar(&r.Pad, "pad", false, "zero pad to the width of --upper")
	_ = cmd.MarkFlagRequired("upper")
	return cmd
}

func NewDateCommand(opts *RootOptions) *cobra.Command {
	var start, end, layout string
	cmd := &cobra.Command{
		Use:   "date <hash-file>",
		Short: "Try every day between --start and --end",
		Long: `Try every day between --start and --end (both YYYY-MM-DD, inclusive),
formatted with a Go time layout. The default layout 02012006 renders
DDMMYYYY.`,
		Example: "  cracker date target.txt --start 1950-01-01 --end 2010-12-31 --layout 2006-01-02",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.Parse(dateFlagLayout, start)
			if err != nil {
				return WrapExitError(ExitFailure, "invalid --start", err)
			}
			to, err := time.Parse(dateFlagLayout, end)
			if err != nil {
				return WrapExitError(ExitFailure, "invalid --end", err)
			}
			spec := domain.SourceSpec{
				Kind: domain.SourceDate,
				Date: &domain.DateSpec{Start: from, End: to, Layout: layout},
			}
			return runSearch(cmd, opts, args[0], spec)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&layout, "layout", "", "Go time layout for candidates (default 02012006)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func NewQueryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <hash-file> <mask>",
		Short: "Try every expansion of a mask",
		Long: `Try every expansion of a mask. ?l ?u ?d ?s and ?a stand for lowercase,
uppercase, digits, symbols and all of them; ?? is a literal question mark
and any other character stands for itself. [lower]{3} is shorthand for
?l?l?l.`,
		Example: "  cracker query target.txt 'Summer?d?d?s'",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := domain.SourceSpec{Kind: domain.SourceQuery, Query: &domain.QuerySpec{Mask: args[1]}}
			return runSearch(cmd, opts, args[0], spec)
		},
	}
}

func NewBruteCommand(opts *RootOptions) *cobra.Command {
	var b domain.BruteSpec
	cmd := &cobra.Command{
		Use:     "brute <hash-file>",
		Short:   "Try every string over a charset, shortest first",
		Example: "  cracker brute target.txt --charset abc123 --min 1 --max 6",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := domain.SourceSpec{Kind: domain.SourceBrute, Brute: &b}
			return runSearch(cmd, opts, args[0], spec)
		},
	}
	cmd.Flags().StringVar(&b.Charset, "charset", "", "characters to combine (default lowercase, uppercase and digits)")
	cmd.Flags().IntVar(&b.MinLength, "min", 1, "shortest length")
	cmd.Flags().IntVar(&b.MaxLength, "max", 4, "longest length")
	return cmd
}

func runSearch(cmd *cobra.Command, opts *RootOptions, target string, spec domain.SourceSpec) error {
	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		session, outcome, err := a.svc.StartSession(ctx, service.StartRequest{
			TargetPath: target,
			Spec:       spec,
			Workers:    opts.Config.Workers,
		})
		return finish(cmd, opts, session, outcome, err)
	})
}

// withApp opens the store and services for the length of fn. The context
// passed to fn is cancelled on SIGINT or SIGTERM.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.close(); closeErr != nil {
			opts.Logger.Error("error closing session store", "error", closeErr)
		}
	}()
	if err := a.serveStatus(); err != nil {
		return err
	}
	return fn(ctx, a)
}

// finish prints the outcome of a search. A search that reached an outcome
// exits cleanly even if saving its record failed afterwards.
func finish(cmd *cobra.Command, opts *RootOptions, session *domain.Session, outcome domain.Outcome, err error) error {
	if outcome.Kind == "" {
		return classify(err)
	}
	if err != nil {
		opts.Logger.Warn("search finished but its record may be incomplete", "error", err)
	}

	summary := report.Summary{Outcome: outcome}
	if session != nil {
		summary.SessionID = session.ID
		summary.Target = session.TargetPath
	}
	if opts.Format == FormatJSON {
		return report.RenderJSON(cmd.OutOrStdout(), summary)
	}
	return report.Render(cmd.OutOrStdout(), summary)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrTargetOpen), errors.Is(err, domain.ErrOracle):
		return WrapExitError(ExitTargetError, "search failed", err)
	case errors.Is(err, domain.ErrInvalidSource), errors.Is(err, domain.ErrInvalidWordlist):
		return WrapExitError(ExitFailure, "invalid candidate source", err)
	case errors.Is(err, domain.ErrInvalidWorkers):
		return WrapExitError(ExitFailure, "invalid settings", err)
	default:
		return WrapExitError(ExitFailure, errKind(err), err)
	}
}

func errKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return "unknown session"
	case errors.Is(err, domain.ErrSessionComplete):
		return "session already complete"
	case errors.Is(err, domain.ErrSessionActive):
		return "session is running"
	default:
		return "search failed"
	}
}
