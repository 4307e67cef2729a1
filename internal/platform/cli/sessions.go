package cli

import (
	"fmt"
	"io"
	"passwordCrackerEngine/internal/adapter/report"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/port"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

func NewSessionsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and remove stored searches",
	}
	cmd.AddCommand(newSessionsListCommand(opts))
	cmd.AddCommand(newSessionsShowCommand(opts))
	cmd.AddCommand(newSessionsRemoveCommand(opts))
	return cmd
}

func newSessionsListCommand(opts *RootOptions) *cobra.Command {
	var filter port.SessionFilter
	var status string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored searches, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = domain.JobStatus(strings.ToUpper(status))
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			sessions, err := a.svc.ListSessions(cmd.Context(), filter)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list sessions", err)
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(sessions, func(w io.Writer) error {
				return writeSessionTable(w, sessions)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only sessions with this status (running, complete, cancelled, failed)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "at most this many sessions")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "skip this many sessions")
	return cmd
}

func newSessionsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one stored search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			session, err := a.svc.GetSession(cmd.Context(), args[0])
			if err != nil {
				return classify(err)
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(session, func(w io.Writer) error {
				return writeSession(w, session)
			})
		},
	}
}

func newSessionsRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <session-id>...",
		Aliases: []string{"delete"},
		Short:   "Delete stored searches",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			for _, id := range args {
				if err := a.svc.DeleteSession(cmd.Context(), id); err != nil {
					return classify(err)
				}
				opts.Logger.Debug("session deleted", "session", id)
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(map[string][]string{"deleted": args}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted %d session(s).\n", len(args))
				return err
			})
		},
	}
}

func writeSessionTable(w io.Writer, sessions []domain.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSOURCE\tATTEMPTS\tUPDATED\tTARGET")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Status, s.Spec.Kind, s.Attempts, s.UpdatedAt.Local().Format(time.DateTime), s.TargetPath)
	}
	return tw.Flush()
}

func writeSession(w io.Writer, s *domain.Session) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", s.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", s.Status)
	fmt.Fprintf(tw, "Target:\t%s\n", s.TargetPath)
	fmt.Fprintf(tw, "Source:\t%s\n", s.Spec.Kind)
	fmt.Fprintf(tw, "Workers:\t%d\n", s.Workers)
	fmt.Fprintf(tw, "Attempts:\t%d\n", s.Attempts)
	if s.Checkpoint != nil {
		fmt.Fprintf(tw, "Checkpoint:\tcandidate %d\n", s.Checkpoint.Position)
	}
	if s.Status == domain.StatusComplete {
		switch {
		case s.Password == nil:
			fmt.Fprintf(tw, "Password:\tnot found\n")
		case utf8.Valid(s.Password):
			fmt.Fprintf(tw, "Password:\t%s\n", s.Password)
		default:
			fmt.Fprintf(tw, "Password (hex):\t%s\n", report.Hex(s.Password))
		}
	}
	fmt.Fprintf(tw, "Created:\t%s\n", s.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "Updated:\t%s\n", s.UpdatedAt.Local().Format(time.DateTime))
	return tw.Flush()
}
