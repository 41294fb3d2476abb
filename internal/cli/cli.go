package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/clubot/internal/config"
	"github.com/pfrederiksen/clubot/internal/logger"
	"github.com/pfrederiksen/clubot/internal/metrics"
	"github.com/pfrederiksen/clubot/internal/poller"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// StatusError carries a process exit status out of a command
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// loadConfig is replaced in tests
var loadConfig = config.Load

type options struct {
	configPath string
	verbose    bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "clubot",
		Short: "Watch club agenda pages for newly-added outings",
		Long: `A bot watching the agenda pages of an alpine club.
Keeps a per-activity history of every outing it has seen, marks the ones that
disappear as deleted, and notifies only what is new since the last check.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the YAML configuration file")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(newWatchCmd(opts), newCheckCmd(opts), newShowCmd(opts))

	return cmd
}

// setup loads the configuration and installs the default logger
func setup(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	return cfg, nil
}

func newWatchCmd(opts *options) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll every activity on the configured schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var m *metrics.Metrics
			if cfg.MetricsListen != "" {
				m = metrics.New()
				go func() {
					if err := metrics.Serve(ctx, cfg.MetricsListen, m); err != nil {
						logger.Error("Metrics server failed", logger.Fields{"listen": cfg.MetricsListen}, err)
					}
				}()
			}

			p, err := buildPoller(cfg, cmd.OutOrStdout(), m)
			if err != nil {
				return err
			}

			if once {
				_, err := p.RunCycle(ctx)
				return err
			}

			logger.Info("Watching activities", logger.Fields{
				"activities": strings.Join(cfg.Activities, ","),
				"schedule":   cfg.CronSpec(),
			})
			return poller.NewScheduler(p, cfg.CronSpec()).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single cycle and exit")

	return cmd
}

func newCheckCmd(opts *options) *cobra.Command {
	var flagFormat string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one cycle and report new events",
		Long: `Run one cycle over every activity and print the new events.
Exits with status 0 when nothing is new, 2 when new events were found and 1 on error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(flagFormat)
			if err != nil {
				return err
			}

			cfg, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			// Dry-run notifications go to stderr so JSON output stays parseable
			p, err := buildPoller(cfg, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}

			outcomes, cycleErr := p.RunCycle(cmd.Context())
			result := newCheckResult(outcomes, time.Now().UTC())

			if err := WriteCheck(cmd.OutOrStdout(), result, format); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if cycleErr != nil {
				return &StatusError{Code: ExitError, Err: cycleErr}
			}
			if result.EventCount > 0 {
				return &StatusError{Code: ExitNewEvents}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")

	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	var (
		flagFormat string
		flagSort   string
		flagAll    bool
	)

	cmd := &cobra.Command{
		Use:   "show ACTIVITY",
		Short: "Print the stored history of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(flagFormat)
			if err != nil {
				return err
			}
			order := SortOrder(strings.ToLower(flagSort))
			if !order.valid() {
				return fmt.Errorf("invalid sort: %s (must be 'store', 'title' or 'discovered')", flagSort)
			}

			cfg, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			backend, err := buildBackend(cfg)
			if err != nil {
				return err
			}

			activity := strings.ToLower(strings.TrimSpace(args[0]))
			store, err := backend.Load(cmd.Context(), activity)
			if err != nil {
				return fmt.Errorf("loading %s: %w", activity, err)
			}

			history := newHistory(activity, store, flagAll)
			sortEntries(history.Entries, order)

			return WriteHistory(cmd.OutOrStdout(), history, format)
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&flagSort, "sort", string(SortByStore), "Sort order: store, title or discovered")
	cmd.Flags().BoolVar(&flagAll, "all", false, "Include deleted events")

	return cmd
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// Execute runs the CLI
func Execute() {
	os.Exit(run(context.Background(), NewRootCmd()))
}

// run executes cmd and maps its error to an exit status
func run(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", statusErr.Err)
		}
		return statusErr.Code
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return ExitError
}
