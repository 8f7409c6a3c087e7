package cmd

import (
	"github.com/spf13/cobra"

	"vaultwarden-retention/internal/application"
	"vaultwarden-retention/internal/display"
	"vaultwarden-retention/internal/logging"
)

// createPlanCommand creates the plan subcommand
func createPlanCommand(opts *cliOptions) *cobra.Command {
	var format string

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which archives the current policy keeps and deletes",
		Long: `List the remote and apply the retention policy without deleting anything.

Examples:
  # Table with keep/delete per archive
  vaultwarden-retention plan --mode smart

  # Machine readable plan
  vaultwarden-retention plan --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, renderer, logger, cancel, err := prepareReadOnly(cmd, opts, format)
			if err != nil || app == nil {
				return err
			}
			defer cancel()
			defer closeApplication(app, logger)

			view, err := app.Plan(cmd.Context())
			if err != nil {
				return err
			}
			return renderer.Plan(view)
		},
	}

	planCmd.Flags().StringVarP(&format, "format", "f", string(display.FormatTable), "output format: table, json, yaml")
	return planCmd
}

// createListCommand creates the list subcommand
func createListCommand(opts *cliOptions) *cobra.Command {
	var format string

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the backup archives at the remote location",
		Long: `List the backup archives the retention policy would consider, newest first,
with their parsed date and size. Archives without a parsable date are counted
separately; retention never deletes them.

Examples:
  vaultwarden-retention list
  vaultwarden-retention list --remote /srv/backups --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, renderer, logger, cancel, err := prepareReadOnly(cmd, opts, format)
			if err != nil || app == nil {
				return err
			}
			defer cancel()
			defer closeApplication(app, logger)

			view, err := app.List(cmd.Context())
			if err != nil {
				return err
			}
			return renderer.Catalog(view)
		},
	}

	listCmd.Flags().StringVarP(&format, "format", "f", string(display.FormatTable), "output format: table, json, yaml")
	return listCmd
}

// prepareReadOnly sets up the application for commands that never delete.
// Logs go to stderr so stdout carries only the rendered output. A nil
// application with a nil error means there is no remote to inspect.
func prepareReadOnly(cmd *cobra.Command, opts *cliOptions, format string) (*application.Application, *display.Renderer, *logging.Logger, func(), error) {
	outputFormat, err := display.ParseOutputFormat(format)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cfg, logger, err := setup(opts, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if !cfg.HasRemote() {
		logger.Warn("No remote location configured (RCLONE_REMOTE), nothing to show")
		return nil, nil, nil, nil, nil
	}

	ctx, cancel := application.WithSignals(cmd.Context())
	cmd.SetContext(ctx)

	app, err := application.NewApplication(ctx, cfg, logger, application.WithErrorOutput(cmd.ErrOrStderr()))
	if err != nil {
		cancel()
		return nil, nil, nil, nil, err
	}

	return app, display.NewRenderer(cmd.OutOrStdout(), outputFormat), logger, cancel, nil
}
