package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"passwordCrackerEngine/internal/adapter/logging"
	"passwordCrackerEngine/internal/config"
	"passwordCrackerEngine/internal/core/domain"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Output formats for command results.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// RootOptions holds global flags for all commands. Flags that are set on the
// command line override the config file.
type RootOptions struct {
	ConfigPath  string
	Workers     int
	Mode        string
	BufferSize  int
	GracePeriod time.Duration
	StoreDriver string
	StorePath   string
	StatusAddr  string
	ReportPath  string
	LogFormat   string
	Verbose     bool
	Format      string

	// Resolved in PersistentPreRunE.
	Config config.Config
	Logger *slog.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cracker",
		Short: "Multi-threaded password search",
		Long: `cracker searches for the password behind a hash by trying candidates from
a wordlist, a number or date range, a mask or plain brute force on several
workers at once.

Interrupting a search (Ctrl-C) saves a checkpoint; "cracker resume <id>"
picks it up without skipping any candidate.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	flags.IntVarP(&opts.Workers, "workers", "j", 0, "number of workers (default from config, one per CPU)")
	flags.StringVar(&opts.Mode, "mode", "", "candidate distribution (queue|broadcast)")
	flags.IntVar(&opts.BufferSize, "buffer", 0, "candidates buffered per channel")
	flags.DurationVar(&opts.GracePeriod, "grace", 0, "how long an interrupted search waits for running attempts")
	flags.StringVar(&opts.StoreDriver, "store", "", "session store (sqlite|badger)")
	flags.StringVar(&opts.StorePath, "store-path", "", "session store location")
	flags.StringVar(&opts.StatusAddr, "status-addr", "", "serve the status API on this address while searching")
	flags.StringVar(&opts.ReportPath, "report", "", "append a JSON record per finished search to this file")
	flags.StringVar(&opts.LogFormat, "log-format", "", "log format (auto|text|json)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	flags.StringVarP(&opts.Format, "output", "o", FormatText, "result format (text|json)")

	cmd.AddCommand(searchCommands(opts)...)
	cmd.AddCommand(NewResumeCommand(opts))
	cmd.AddCommand(NewSessionsCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))

	return cmd
}

func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if o.Format != FormatText && o.Format != FormatJSON {
		return NewExitError(ExitFailure, fmt.Sprintf("invalid output format %q: must be text or json", o.Format))
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = o.Workers
	}
	if flags.Changed("mode") {
		cfg.Mode = domain.DistributionMode(o.Mode)
	}
	if flags.Changed("buffer") {
		cfg.BufferSize = o.BufferSize
	}
	if flags.Changed("grace") {
		cfg.GracePeriod = o.GracePeriod
	}
	if flags.Changed("store") {
		cfg.Store.Driver = o.StoreDriver
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = o.StorePath
	}
	if flags.Changed("status-addr") {
		cfg.Status.Addr = o.StatusAddr
	}
	if flags.Changed("report") {
		cfg.Metrics.ReportPath = o.ReportPath
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.LogFormat
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitFailure, "invalid settings", err)
	}

	o.Config = cfg
	o.Logger = newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(o.Logger)
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	format := cfg.Format
	if format == config.FormatAuto {
		format = config.FormatJSON
		if isTerminal(w) {
			format = config.FormatText
		}
	}
	return logging.NewLogger(w, format, logging.ParseLevel(cfg.Level))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
