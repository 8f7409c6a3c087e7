package config

import (
	"time"

	"vaultwarden-retention/internal/notify"
	"vaultwarden-retention/internal/retention"
	"vaultwarden-retention/internal/storage"
)

// Config holds the retention tool configuration
type Config struct {
	// Remote is the location listed and cleaned. Empty means nothing to do.
	Remote        string        `mapstructure:"remote" yaml:"remote"`
	Prefix        string        `mapstructure:"prefix" yaml:"prefix"`
	Mode          string        `mapstructure:"mode" yaml:"mode"`
	KeepDays      int           `mapstructure:"keep_days" yaml:"keep_days"`
	KeepCount     int           `mapstructure:"keep_count" yaml:"keep_count"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DryRun        bool          `mapstructure:"dry_run" yaml:"dry_run"`
	RequireRemote bool          `mapstructure:"require_remote" yaml:"require_remote"`
	MetricsFile   string        `mapstructure:"metrics_file" yaml:"metrics_file"`

	Log     LogConfig      `mapstructure:"log" yaml:"log"`
	Storage storage.Config `mapstructure:"storage" yaml:"storage"`
	Notify  notify.Config  `mapstructure:"notify" yaml:"notify"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills unset values with their defaults
func (c *Config) SetDefaults() {
	if c.Prefix == "" {
		c.Prefix = retention.DefaultPrefix
	}
	if c.Mode == "" {
		c.Mode = string(retention.ModeDays)
	}
	if c.KeepDays <= 0 {
		c.KeepDays = retention.DefaultKeepDays
	}
	if c.KeepCount <= 0 {
		c.KeepCount = retention.DefaultKeepCount
	}
	if c.Timeout == 0 {
		c.Timeout = retention.DefaultTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "normal"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate reports unrecoverable misconfiguration as a ConfigurationError.
// An empty remote is only an error when RequireRemote is set; an unknown
// mode is not an error at all since policy construction falls back to days.
func (c *Config) Validate() error {
	var errs retention.ValidationErrors

	if c.Remote == "" {
		if c.RequireRemote {
			errs.Add("remote", "remote location is required", c.Remote)
		}
	} else if _, err := storage.ParseLocation(c.Remote); err != nil {
		errs.Add("remote", err.Error(), c.Remote)
	}

	if c.Timeout < 0 {
		errs.Add("timeout", "must not be negative", c.Timeout.String())
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs.Add("log.format", "must be text or json", c.Log.Format)
	}

	if err := c.Notify.Validate(); err != nil {
		errs.Add("notify", err.Error(), nil)
	}

	if errs.HasErrors() {
		return retention.NewConfigurationError("invalid configuration", errs)
	}
	return nil
}

// HasRemote reports whether a remote location is configured
func (c *Config) HasRemote() bool {
	return c.Remote != ""
}

// PolicySettings returns the settings selecting the retention policy
func (c *Config) PolicySettings() retention.Settings {
	return retention.Settings{
		Mode:      c.Mode,
		KeepDays:  c.KeepDays,
		KeepCount: c.KeepCount,
	}
}
