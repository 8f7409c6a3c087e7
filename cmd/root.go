package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vaultwarden-retention/internal/application"
	"vaultwarden-retention/internal/config"
	"vaultwarden-retention/internal/confirmation"
	"vaultwarden-retention/internal/display"
	"vaultwarden-retention/internal/logging"
	"vaultwarden-retention/internal/retention"
)

// cliOptions holds the flag values of one command tree
type cliOptions struct {
	cfgFile     string
	verbose     bool
	quiet       bool
	output      string
	interactive bool
	loader      *config.Loader
}

// flagKeys maps persistent flags to configuration keys
var flagKeys = map[string]string{
	"remote":         "remote",
	"prefix":         "prefix",
	"mode":           "mode",
	"keep-days":      "keep_days",
	"keep-count":     "keep_count",
	"timeout":        "timeout",
	"dry-run":        "dry_run",
	"require-remote": "require_remote",
	"metrics-file":   "metrics_file",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-file":       "log.file",
}

// NewRootCommand builds the command tree. The root command runs one
// retention pass and exits.
func NewRootCommand() *cobra.Command {
	opts := &cliOptions{loader: config.NewLoader(viper.New())}

	rootCmd := &cobra.Command{
		Use:   "vaultwarden-retention",
		Short: "Prune old Vaultwarden backup archives from a remote store",
		Long: `vaultwarden-retention lists the backup archives stored at a remote location,
decides which ones to keep according to the retention mode, and deletes the rest
in a single batch. It runs one pass and exits; schedule it with cron or a timer.

Retention modes:
  forever   keep everything
  count     keep the newest BACKUP_RETAIN_COUNT archives
  days      keep archives from the last BACKUP_RETAIN_DAYS days (default)
  smart     keep one archive per day for 7 days, per week for 4 weeks
            and per month for 12 months

Examples:
  # Run with the container environment
  RCLONE_REMOTE=gdrive:vaultwarden RETENTION_MODE=smart vaultwarden-retention

  # Read the dashboard settings file and preview the result
  vaultwarden-retention --config /conf/env.conf plan

  # Prune an S3 bucket, keeping the newest 10 archives
  vaultwarden-retention --remote s3://backups/vaultwarden --mode count --keep-count 10`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetention(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (YAML, or KEY=\"value\" lines such as env.conf)")
	flags.String("remote", "", "remote location, e.g. gdrive:vaultwarden or s3://bucket/prefix (env RCLONE_REMOTE)")
	flags.String("prefix", retention.DefaultPrefix, "backup filename prefix (env BACKUP_FILENAME_PREFIX)")
	flags.String("mode", string(retention.ModeDays), fmt.Sprintf("retention mode: %s (env RETENTION_MODE)", modeNames()))
	flags.Int("keep-days", retention.DefaultKeepDays, "days to keep in days mode (env BACKUP_RETAIN_DAYS)")
	flags.Int("keep-count", retention.DefaultKeepCount, "archives to keep in count mode (env BACKUP_RETAIN_COUNT)")
	flags.String("timeout", retention.DefaultTimeout.String(), "timeout of each remote call (env RETENTION_TIMEOUT)")
	flags.Bool("dry-run", false, "decide and log but do not delete (env RETENTION_DRY_RUN)")
	flags.Bool("require-remote", false, "fail instead of skipping when no remote is configured")
	flags.String("metrics-file", "", "write Prometheus textfile metrics to this path (env RETENTION_METRICS_FILE)")
	flags.String("log-level", "normal", "log level: quiet, normal, verbose, debug (env LOG_LEVEL)")
	flags.String("log-format", "text", "log format: text or json (env LOG_FORMAT)")
	flags.String("log-file", "", "also append logs to this file (env LOG_FILE)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-error output")

	for flag, key := range flagKeys {
		cobra.CheckErr(opts.loader.Viper().BindPFlag(key, flags.Lookup(flag)))
	}

	rootCmd.Flags().StringVar(&opts.output, "output", "", "print a run summary: table, json or yaml")

	rootCmd.AddCommand(createRunCommand(opts))
	rootCmd.AddCommand(createPlanCommand(opts))
	rootCmd.AddCommand(createListCommand(opts))
	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createConfigCommand())

	return rootCmd
}

// Execute runs the command tree. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func closeApplication(app *application.Application, logger *logging.Logger) {
	if err := app.Close(); err != nil {
		logger.Warnf("Failed to close storage backend: %v", err)
	}
}

// modeNames lists the retention modes for help text
func modeNames() string {
	var names []string
	for _, mode := range retention.Modes() {
		names = append(names, string(mode))
	}
	return strings.Join(names, ", ")
}

// validateFlags validates CLI flags and their combinations
func validateFlags(opts *cliOptions) error {
	if opts.verbose && opts.quiet {
		return retention.NewConfigurationError("--verbose and --quiet flags are mutually exclusive", nil)
	}
	return nil
}

// setup loads the configuration and creates the logger writing to logOut
func setup(opts *cliOptions, logOut io.Writer) (*config.Config, *logging.Logger, error) {
	if err := validateFlags(opts); err != nil {
		return nil, nil, err
	}

	cfg, err := opts.loader.Load(opts.cfgFile)
	if err != nil {
		return nil, nil, err
	}

	level := logging.ParseLogLevel(cfg.Log.Level)
	switch {
	case opts.quiet:
		level = logging.LogLevelQuiet
	case opts.verbose:
		level = logging.LogLevelVerbose
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:   level,
		Output:  logOut,
		Format:  cfg.Log.Format,
		LogFile: cfg.Log.File,
	})
	if err != nil {
		return nil, nil, retention.NewConfigurationError("failed to create logger", err)
	}

	for _, warning := range opts.loader.Warnings() {
		logger.Warn(warning)
	}

	return cfg, logger, nil
}

// runRetention performs one retention pass. Listing and deletion failures
// are logged and left to the next scheduled run; only misconfiguration
// produces a non-zero exit.
func runRetention(cmd *cobra.Command, opts *cliOptions) error {
	var format display.OutputFormat
	if opts.output != "" {
		f, err := display.ParseOutputFormat(opts.output)
		if err != nil {
			return err
		}
		format = f
	}

	// A machine readable summary owns stdout
	logOut := cmd.OutOrStdout()
	if format == display.FormatJSON || format == display.FormatYAML {
		logOut = cmd.ErrOrStderr()
	}

	cfg, logger, err := setup(opts, logOut)
	if err != nil {
		return err
	}

	if !cfg.HasRemote() {
		logger.Warn("No remote location configured (RCLONE_REMOTE), skipping retention check")
		return nil
	}

	ctx, cancel := application.WithSignals(cmd.Context())
	defer cancel()

	appOpts := []application.Option{application.WithErrorOutput(cmd.ErrOrStderr())}
	if opts.interactive {
		prompter := confirmation.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr(), display.NewPalette(cmd.ErrOrStderr()))
		appOpts = append(appOpts, application.WithConfirm(prompter.Confirm))
	}

	app, err := application.NewApplication(ctx, cfg, logger, appOpts...)
	if err != nil {
		return err
	}
	defer closeApplication(app, logger)

	result, err := app.Run(ctx)

	if format != "" {
		if rerr := display.NewRenderer(cmd.OutOrStdout(), format).Result(result); rerr != nil {
			return fmt.Errorf("failed to render summary: %w", rerr)
		}
	}

	if err != nil {
		if retention.IsFatal(err) {
			return err
		}
		logger.Warnf("Retention check did not complete: %v", err)
	}
	return nil
}
