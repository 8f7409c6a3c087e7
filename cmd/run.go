package cmd

import (
	"github.com/spf13/cobra"
)

// createRunCommand creates the run subcommand, the explicit form of the root command
func createRunCommand(opts *cliOptions) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one retention pass",
		Long: `Run one retention pass: list the remote, decide, and delete the redundant
archives in a single batch. Same as running the root command.

Examples:
  # Preview deletions in the log without touching the remote
  vaultwarden-retention run --dry-run

  # Review the deletion set and answer y/N/d before anything is removed
  vaultwarden-retention run --interactive

  # Print a JSON summary for scripts; logs go to stderr
  vaultwarden-retention run --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetention(cmd, opts)
		},
	}

	runCmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "ask before deleting")
	runCmd.Flags().StringVar(&opts.output, "output", "", "print a run summary: table, json or yaml")
	return runCmd
}
