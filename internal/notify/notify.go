// Package notify sends a short run summary after a retention pass that
// deleted something or failed.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"vaultwarden-retention/internal/logging"
	"vaultwarden-retention/internal/retention"
)

// Config holds configuration for notifications
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Webhook  WebhookConfig  `mapstructure:"webhook" yaml:"webhook"`
	// Always sends a summary even when the run changed nothing
	Always bool `mapstructure:"always" yaml:"always"`
}

// TelegramConfig for Telegram bot notifications
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   string `mapstructure:"chat_id" yaml:"chat_id"`
	// APIURL overrides the Bot API endpoint
	APIURL  string        `mapstructure:"api_url" yaml:"api_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// WebhookConfig for generic webhook notifications
type WebhookConfig struct {
	URL     string            `mapstructure:"url" yaml:"url"`
	Method  string            `mapstructure:"method" yaml:"method"`
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
	Timeout time.Duration     `mapstructure:"timeout" yaml:"timeout"`
}

// Validate validates the notification configuration
func (c *Config) Validate() error {
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram chat id is required when telegram is enabled")
		}
	}
	return nil
}

// Message is the channel independent run summary
type Message struct {
	Title          string    `json:"title"`
	Text           string    `json:"text"`
	Success        bool      `json:"success"`
	RunID          string    `json:"run_id"`
	Location       string    `json:"location"`
	Mode           string    `json:"mode"`
	Processed      int       `json:"processed"`
	Kept           int       `json:"kept"`
	Deleted        int       `json:"deleted"`
	BytesReclaimed int64     `json:"bytes_reclaimed"`
	DryRun         bool      `json:"dry_run"`
	Errors         []string  `json:"errors,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewMessage formats a run result
func NewMessage(result *retention.RetentionResult) Message {
	msg := Message{
		Success:        result.Success(),
		RunID:          result.RunID,
		Location:       result.Location,
		Mode:           string(result.Mode),
		Processed:      result.ArtifactsProcessed,
		Kept:           result.ArtifactsKept,
		Deleted:        result.ArtifactsDeleted,
		BytesReclaimed: result.BytesReclaimed,
		DryRun:         result.DryRun,
		Errors:         result.Errors,
		Timestamp:      result.StartedAt,
	}

	switch {
	case !msg.Success:
		msg.Title = "Backup retention failed"
	case msg.DryRun:
		msg.Title = "Backup retention dry run"
	default:
		msg.Title = "Backup retention completed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", msg.Title)
	fmt.Fprintf(&b, "Location: %s\n", msg.Location)
	fmt.Fprintf(&b, "Mode: %s\n", msg.Mode)
	fmt.Fprintf(&b, "Files: %d kept, %d deleted", msg.Kept, msg.Deleted)
	if msg.BytesReclaimed > 0 {
		fmt.Fprintf(&b, " (%s)", humanize.Bytes(uint64(msg.BytesReclaimed)))
	}
	for _, e := range msg.Errors {
		fmt.Fprintf(&b, "\nError: %s", e)
	}
	msg.Text = b.String()

	return msg
}

// Channel is one notification transport
type Channel interface {
	Send(ctx context.Context, msg Message) error
	GetType() string
	IsEnabled() bool
}

// Notifier fans a run summary out to the configured channels
type Notifier struct {
	logger   *logging.Logger
	config   Config
	channels []Channel
}

// NewNotifier creates a Notifier for the enabled channels in config
func NewNotifier(logger *logging.Logger, config Config) *Notifier {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	n := &Notifier{
		logger:   logger,
		config:   config,
		channels: make([]Channel, 0, 2),
	}
	if config.Telegram.Enabled {
		n.channels = append(n.channels, NewTelegramChannel(config.Telegram))
	}
	if config.Webhook.URL != "" {
		n.channels = append(n.channels, NewWebhookChannel(config.Webhook))
	}
	return n
}

// Enabled reports whether any channel is configured
func (n *Notifier) Enabled() bool {
	return len(n.channels) > 0
}

// ShouldNotify reports whether result warrants a message
func (n *Notifier) ShouldNotify(result *retention.RetentionResult) bool {
	if result == nil {
		return false
	}
	return n.config.Always || !result.Success() || result.ArtifactsDeleted > 0
}

// Notify sends the summary of result through every enabled channel. It
// returns an error only when every channel failed.
func (n *Notifier) Notify(ctx context.Context, result *retention.RetentionResult) error {
	if !n.Enabled() || !n.ShouldNotify(result) {
		return nil
	}

	msg := NewMessage(result)

	var failures []string
	sent := 0
	for _, channel := range n.channels {
		if !channel.IsEnabled() {
			continue
		}

		if err := channel.Send(ctx, msg); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", channel.GetType(), err))
			n.logger.WithFields(map[string]interface{}{
				"channel": channel.GetType(),
				"run_id":  msg.RunID,
				"error":   err.Error(),
			}).Error("Failed to send notification")
			continue
		}

		sent++
		n.logger.WithFields(map[string]interface{}{
			"channel": channel.GetType(),
			"run_id":  msg.RunID,
		}).Debug("Notification sent")
	}

	if len(failures) > 0 && sent == 0 {
		return fmt.Errorf("all notification channels failed: %s", strings.Join(failures, "; "))
	}
	return nil
}
