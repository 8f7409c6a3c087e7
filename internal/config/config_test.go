package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultwarden-retention/internal/retention"
)

// clearEnv blanks every variable the loader reads. Empty variables are
// treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range EnvironmentVariables() {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	clearEnv(t)

	loader := NewLoader(nil)
	cfg, err := loader.Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.Remote)
	assert.False(t, cfg.HasRemote())
	assert.Equal(t, "vaultwarden", cfg.Prefix)
	assert.Equal(t, "days", cfg.Mode)
	assert.Equal(t, 14, cfg.KeepDays)
	assert.Equal(t, 30, cfg.KeepCount)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, "normal", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "rclone", cfg.Storage.Rclone.Binary)
	assert.Equal(t, "us-east-1", cfg.Storage.S3.Region)
	assert.Empty(t, loader.Warnings())
}

func TestLoader_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("RCLONE_REMOTE", "gdrive:vaultwarden")
	t.Setenv("BACKUP_FILENAME_PREFIX", "vw")
	t.Setenv("RETENTION_MODE", "smart")
	t.Setenv("BACKUP_RETAIN_DAYS", "7")
	t.Setenv("BACKUP_RETAIN_COUNT", "10")
	t.Setenv("RETENTION_DRY_RUN", "true")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("TELEGRAM_ENABLED", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	loader := NewLoader(nil)
	cfg, err := loader.Load("")
	require.NoError(t, err)

	assert.Equal(t, "gdrive:vaultwarden", cfg.Remote)
	assert.True(t, cfg.HasRemote())
	assert.Equal(t, "vw", cfg.Prefix)
	assert.Equal(t, "smart", cfg.Mode)
	assert.Equal(t, 7, cfg.KeepDays)
	assert.Equal(t, 10, cfg.KeepCount)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	assert.True(t, cfg.Notify.Telegram.Enabled)
	assert.Equal(t, "42", cfg.Notify.Telegram.ChatID)

	assert.Equal(t, retention.Settings{Mode: "smart", KeepDays: 7, KeepCount: 10}, cfg.PolicySettings())
}

func TestLoader_PreferredEnvName(t *testing.T) {
	clearEnv(t)
	t.Setenv("RETENTION_REMOTE", "s3://other")
	t.Setenv("RCLONE_REMOTE", "gdrive:vaultwarden")

	cfg, err := NewLoader(nil).Load("")
	require.NoError(t, err)
	assert.Equal(t, "gdrive:vaultwarden", cfg.Remote)
}

func TestLoader_InvalidIntegersFallBack(t *testing.T) {
	tests := []struct {
		name      string
		days      string
		count     string
		wantDays  int
		wantCount int
		warnings  int
	}{
		{"not a number", "abc", "x", 14, 30, 2},
		{"zero", "0", "30", 14, 30, 1},
		{"negative", "-3", "-1", 14, 30, 2},
		{"padded", " 21 ", "5", 21, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("BACKUP_RETAIN_DAYS", tt.days)
			t.Setenv("BACKUP_RETAIN_COUNT", tt.count)

			loader := NewLoader(nil)
			cfg, err := loader.Load("")
			require.NoError(t, err)

			assert.Equal(t, tt.wantDays, cfg.KeepDays)
			assert.Equal(t, tt.wantCount, cfg.KeepCount)
			assert.Len(t, loader.Warnings(), tt.warnings)
		})
	}
}

func TestLoader_InvalidIntegerWarningNamesVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKUP_RETAIN_DAYS", "two weeks")

	loader := NewLoader(nil)
	_, err := loader.Load("")
	require.NoError(t, err)

	require.Len(t, loader.Warnings(), 1)
	assert.Contains(t, loader.Warnings()[0], `BACKUP_RETAIN_DAYS="two weeks"`)
	assert.Contains(t, loader.Warnings()[0], "using 14")
}

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"60s", 60 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"90", 90 * time.Second, false},
		{"", 0, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseTimeout(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoader_InvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("RETENTION_TIMEOUT", "soon")

	_, err := NewLoader(nil).Load("")
	require.Error(t, err)
	assert.True(t, retention.IsConfigurationError(err))
}

func TestLoader_DotenvFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "env.conf", `RCLONE_REMOTE="gdrive:vaultwarden"
RETENTION_MODE="count"
BACKUP_RETAIN_COUNT="5"
UNRELATED_SETTING="ignored"
`)

	cfg, err := NewLoader(nil).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gdrive:vaultwarden", cfg.Remote)
	assert.Equal(t, "count", cfg.Mode)
	assert.Equal(t, 5, cfg.KeepCount)
	assert.Equal(t, 14, cfg.KeepDays)
}

func TestLoader_EnvironmentOverridesDotenv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RETENTION_MODE", "smart")
	path := writeFile(t, "env.conf", "RETENTION_MODE=count\nBACKUP_RETAIN_COUNT=5\n")

	cfg, err := NewLoader(nil).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "smart", cfg.Mode)
	assert.Equal(t, 5, cfg.KeepCount)
}

func TestLoader_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "retention.yaml", `
remote: s3://backups/vaultwarden
mode: days
keep_days: 30
timeout: 2m
storage:
  s3:
    region: eu-central-1
log:
  format: json
`)

	cfg, err := NewLoader(nil).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3://backups/vaultwarden", cfg.Remote)
	assert.Equal(t, 30, cfg.KeepDays)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "eu-central-1", cfg.Storage.S3.Region)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoader_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, retention.IsConfigurationError(err))
}

func TestLoader_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("RETENTION_MODE", "days")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("mode", "", "")
	flags.Bool("dry-run", false, "")

	loader := NewLoader(nil)
	require.NoError(t, loader.Viper().BindPFlag("mode", flags.Lookup("mode")))
	require.NoError(t, loader.Viper().BindPFlag("dry_run", flags.Lookup("dry-run")))
	require.NoError(t, flags.Parse([]string{"--mode", "forever", "--dry-run"}))

	cfg, err := loader.Load("")
	require.NoError(t, err)
	assert.Equal(t, "forever", cfg.Mode)
	assert.True(t, cfg.DryRun)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"rclone remote", func(c *Config) { c.Remote = "gdrive:vaultwarden" }, false},
		{"unknown mode is not an error", func(c *Config) { c.Mode = "weekly" }, false},
		{"required remote missing", func(c *Config) { c.RequireRemote = true }, true},
		{"bad scheme", func(c *Config) { c.Remote = "ftp://host/dir" }, true},
		{"bucket missing", func(c *Config) { c.Remote = "s3:///prefix" }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"telegram without token", func(c *Config) {
			c.Notify.Telegram.Enabled = true
			c.Notify.Telegram.ChatID = "42"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, retention.IsConfigurationError(err))
			assert.True(t, retention.IsFatal(err))
		})
	}
}

func TestConfig_ValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.RequireRemote = true
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs retention.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "remote", verrs[0].Field)
	assert.Equal(t, "log.format", verrs[1].Field)
}
