package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set by main package)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
	goVersion = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, bt, gc, gv string) {
	version = v
	buildTime = bt
	gitCommit = gc
	goVersion = gv
}

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Long:  "Print the version information for vaultwarden-retention",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vaultwarden-retention version %s\n", version)
			fmt.Fprintf(out, "Built: %s\n", buildTime)
			fmt.Fprintf(out, "Commit: %s\n", gitCommit)
			fmt.Fprintf(out, "Go version: %s\n", goVersion)
		},
	}
}

const sampleConfig = `# vaultwarden-retention configuration
# Every key can also be set through the environment variable in brackets.
# The dashboard's env.conf (KEY="value" lines) is accepted by --config as well.

remote: gdrive:vaultwarden  # [RCLONE_REMOTE] empty means nothing to do
prefix: vaultwarden         # [BACKUP_FILENAME_PREFIX]
mode: days                  # [RETENTION_MODE] forever, count, days, smart
keep_days: 14               # [BACKUP_RETAIN_DAYS] used by days mode
keep_count: 30              # [BACKUP_RETAIN_COUNT] used by count mode
timeout: 60s                # [RETENTION_TIMEOUT] per remote call
dry_run: false              # [RETENTION_DRY_RUN]
metrics_file: ""            # [RETENTION_METRICS_FILE] node exporter textfile

log:
  level: normal             # [LOG_LEVEL] quiet, normal, verbose, debug
  format: text              # [LOG_FORMAT] text or json
  file: ""                  # [LOG_FILE] e.g. /var/log/backup.log

# Credentials for object store remotes (s3://, azblob://, gs://, minio://)
storage:
  rclone:
    binary: rclone          # [RCLONE_BINARY]
    config: ""              # [RCLONE_CONFIG]
  s3:
    region: us-east-1       # [S3_REGION]
    access_key: ""          # [S3_ACCESS_KEY]
    secret_key: ""          # [S3_SECRET_KEY]
    endpoint: ""            # [S3_ENDPOINT]
  azure:
    account_name: ""        # [AZURE_STORAGE_ACCOUNT]
    account_key: ""         # [AZURE_STORAGE_KEY]
  gcs:
    credentials_path: ""    # [GCS_CREDENTIALS_FILE]
  minio:
    endpoint: ""            # [MINIO_ENDPOINT] host:port
    access_key: ""          # [MINIO_ACCESS_KEY]
    secret_key: ""          # [MINIO_SECRET_KEY]
    use_ssl: false          # [MINIO_USE_SSL]

# Sent after runs that deleted something or failed
notify:
  always: false             # [RETENTION_NOTIFY_ALWAYS]
  telegram:
    enabled: false          # [TELEGRAM_ENABLED]
    bot_token: ""           # [TELEGRAM_BOT_TOKEN]
    chat_id: ""             # [TELEGRAM_CHAT_ID]
  webhook:
    url: ""                 # [RETENTION_WEBHOOK_URL]
`

// createConfigCommand creates the config subcommand for generating sample config
func createConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Generate a sample configuration file",
		Long: `Generate a sample configuration file that can be used with the --config flag.

Examples:
  vaultwarden-retention config > retention.yaml`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), sampleConfig)
		},
	}
}
