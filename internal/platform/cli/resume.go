package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func NewResumeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Continue an interrupted search from its checkpoint",
		Long: `Continue an interrupted search from its checkpoint. The search keeps its
target and candidate source; --workers changes the worker count.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workers := 0
			if cmd.Flags().Changed("workers") {
				workers = opts.Config.Workers
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				session, outcome, err := a.svc.ResumeSession(ctx, args[0], workers)
				return finish(cmd, opts, session, outcome, err)
			})
		},
	}
}
