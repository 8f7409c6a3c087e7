package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"vaultwarden-retention/internal/retention"
)

// envBindings maps configuration keys to the environment variables that set
// them, in order of preference. The names are the ones the container and
// the dashboard's env.conf use.
var envBindings = []struct {
	key  string
	envs []string
}{
	{"remote", []string{"RCLONE_REMOTE", "RETENTION_REMOTE"}},
	{"prefix", []string{"BACKUP_FILENAME_PREFIX"}},
	{"mode", []string{"RETENTION_MODE"}},
	{"keep_days", []string{"BACKUP_RETAIN_DAYS"}},
	{"keep_count", []string{"BACKUP_RETAIN_COUNT"}},
	{"timeout", []string{"RETENTION_TIMEOUT"}},
	{"dry_run", []string{"RETENTION_DRY_RUN"}},
	{"require_remote", []string{"RETENTION_REQUIRE_REMOTE"}},
	{"metrics_file", []string{"RETENTION_METRICS_FILE"}},

	{"log.level", []string{"LOG_LEVEL"}},
	{"log.format", []string{"LOG_FORMAT"}},
	{"log.file", []string{"LOG_FILE"}},

	{"storage.rclone.binary", []string{"RCLONE_BINARY"}},
	{"storage.rclone.config", []string{"RCLONE_CONFIG"}},
	{"storage.rclone.temp_dir", []string{"RCLONE_TEMP_DIR"}},
	{"storage.s3.region", []string{"S3_REGION", "AWS_REGION"}},
	{"storage.s3.access_key", []string{"S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID"}},
	{"storage.s3.secret_key", []string{"S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"}},
	{"storage.s3.endpoint", []string{"S3_ENDPOINT"}},
	{"storage.s3.force_path_style", []string{"S3_FORCE_PATH_STYLE"}},
	{"storage.azure.account_name", []string{"AZURE_STORAGE_ACCOUNT"}},
	{"storage.azure.account_key", []string{"AZURE_STORAGE_KEY"}},
	{"storage.gcs.credentials_path", []string{"GCS_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"}},
	{"storage.minio.endpoint", []string{"MINIO_ENDPOINT"}},
	{"storage.minio.access_key", []string{"MINIO_ACCESS_KEY"}},
	{"storage.minio.secret_key", []string{"MINIO_SECRET_KEY"}},
	{"storage.minio.use_ssl", []string{"MINIO_USE_SSL"}},

	{"notify.always", []string{"RETENTION_NOTIFY_ALWAYS"}},
	{"notify.telegram.enabled", []string{"TELEGRAM_ENABLED"}},
	{"notify.telegram.bot_token", []string{"TELEGRAM_BOT_TOKEN"}},
	{"notify.telegram.chat_id", []string{"TELEGRAM_CHAT_ID"}},
	{"notify.telegram.api_url", []string{"TELEGRAM_API_URL"}},
	{"notify.webhook.url", []string{"RETENTION_WEBHOOK_URL"}},
}

// EnvironmentVariables returns the names of every environment variable the
// loader reads
func EnvironmentVariables() []string {
	var names []string
	for _, b := range envBindings {
		names = append(names, b.envs...)
	}
	return names
}

// Loader reads the configuration from defaults, an optional config file,
// the environment and bound command line flags, in increasing precedence.
type Loader struct {
	v        *viper.Viper
	warnings []string
}

// NewLoader creates a Loader on v, or on a fresh viper instance when v is nil
func NewLoader(v *viper.Viper) *Loader {
	if v == nil {
		v = viper.New()
	}
	return &Loader{v: v}
}

// Viper returns the underlying viper instance, for binding flags
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Warnings returns the recoverable problems found by the last Load
func (l *Loader) Warnings() []string {
	return l.warnings
}

// Load reads and validates the configuration. configFile may be empty, a
// YAML/JSON/TOML file, or a dotenv style file such as env.conf.
func (l *Loader) Load(configFile string) (*Config, error) {
	l.warnings = nil
	l.setDefaults()

	for _, b := range envBindings {
		args := append([]string{b.key}, b.envs...)
		if err := l.v.BindEnv(args...); err != nil {
			return nil, retention.NewConfigurationError("failed to bind environment", err)
		}
	}

	if configFile != "" {
		if err := l.readConfigFile(configFile); err != nil {
			return nil, retention.NewConfigurationError(fmt.Sprintf("failed to read config file %s", configFile), err).
				WithContext("config_file", configFile)
		}
	}

	cfg, err := l.build()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("remote", "")
	l.v.SetDefault("prefix", retention.DefaultPrefix)
	l.v.SetDefault("mode", string(retention.ModeDays))
	l.v.SetDefault("keep_days", retention.DefaultKeepDays)
	l.v.SetDefault("keep_count", retention.DefaultKeepCount)
	l.v.SetDefault("timeout", retention.DefaultTimeout.String())
	l.v.SetDefault("dry_run", false)
	l.v.SetDefault("require_remote", false)

	l.v.SetDefault("log.level", "normal")
	l.v.SetDefault("log.format", "text")

	l.v.SetDefault("storage.rclone.binary", "rclone")
	l.v.SetDefault("storage.s3.region", "us-east-1")
}

// isDotenv reports whether a config file is KEY=value lines rather than a
// structured document
func isDotenv(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".toml":
		return false
	}
	return true
}

func (l *Loader) readConfigFile(path string) error {
	if !isDotenv(path) {
		l.v.SetConfigFile(path)
		return l.v.ReadInConfig()
	}

	// A dotenv file uses the environment variable names, so its values are
	// mapped onto the configuration keys. They land in the defaults layer,
	// which keeps the real environment and flags in front of them.
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("env")
	if err := file.ReadInConfig(); err != nil {
		return err
	}

	for _, b := range envBindings {
		for _, name := range b.envs {
			if file.IsSet(name) {
				l.v.SetDefault(b.key, file.Get(name))
				break
			}
		}
	}
	return nil
}

func (l *Loader) build() (*Config, error) {
	v := l.v

	timeout, err := parseTimeout(v.GetString("timeout"))
	if err != nil {
		return nil, retention.NewConfigurationError("invalid timeout", err).
			WithContext("timeout", v.GetString("timeout"))
	}

	cfg := &Config{
		Remote:        strings.TrimSpace(v.GetString("remote")),
		Prefix:        v.GetString("prefix"),
		Mode:          strings.TrimSpace(v.GetString("mode")),
		KeepDays:      l.positiveInt("keep_days", "BACKUP_RETAIN_DAYS", retention.DefaultKeepDays),
		KeepCount:     l.positiveInt("keep_count", "BACKUP_RETAIN_COUNT", retention.DefaultKeepCount),
		Timeout:       timeout,
		DryRun:        v.GetBool("dry_run"),
		RequireRemote: v.GetBool("require_remote"),
		MetricsFile:   v.GetString("metrics_file"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
	}

	cfg.Storage.Rclone.Binary = v.GetString("storage.rclone.binary")
	cfg.Storage.Rclone.ConfigPath = v.GetString("storage.rclone.config")
	cfg.Storage.Rclone.TempDir = v.GetString("storage.rclone.temp_dir")
	cfg.Storage.S3.Region = v.GetString("storage.s3.region")
	cfg.Storage.S3.AccessKey = v.GetString("storage.s3.access_key")
	cfg.Storage.S3.SecretKey = v.GetString("storage.s3.secret_key")
	cfg.Storage.S3.Endpoint = v.GetString("storage.s3.endpoint")
	cfg.Storage.S3.ForcePathStyle = v.GetBool("storage.s3.force_path_style")
	cfg.Storage.Azure.AccountName = v.GetString("storage.azure.account_name")
	cfg.Storage.Azure.AccountKey = v.GetString("storage.azure.account_key")
	cfg.Storage.GCS.CredentialsPath = v.GetString("storage.gcs.credentials_path")
	cfg.Storage.MinIO.Endpoint = v.GetString("storage.minio.endpoint")
	cfg.Storage.MinIO.AccessKey = v.GetString("storage.minio.access_key")
	cfg.Storage.MinIO.SecretKey = v.GetString("storage.minio.secret_key")
	cfg.Storage.MinIO.UseSSL = v.GetBool("storage.minio.use_ssl")

	cfg.Notify.Always = v.GetBool("notify.always")
	cfg.Notify.Telegram.Enabled = v.GetBool("notify.telegram.enabled")
	cfg.Notify.Telegram.BotToken = v.GetString("notify.telegram.bot_token")
	cfg.Notify.Telegram.ChatID = v.GetString("notify.telegram.chat_id")
	cfg.Notify.Telegram.APIURL = v.GetString("notify.telegram.api_url")
	cfg.Notify.Webhook.URL = v.GetString("notify.webhook.url")

	cfg.SetDefaults()
	return cfg, nil
}

// positiveInt reads an integer setting. Values that do not parse or are not
// positive are replaced by def and reported as a warning.
func (l *Loader) positiveInt(key, envName string, def int) int {
	raw := strings.TrimSpace(l.v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		l.warnings = append(l.warnings,
			fmt.Sprintf("%s=%q is not a positive integer, using %d", envName, raw, def))
		return def
	}
	return n
}

// parseTimeout accepts a Go duration ("90s", "2m") or a plain number of seconds
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.New("must be a duration such as 60s or a number of seconds")
	}
	return d, nil
}
