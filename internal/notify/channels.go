package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTelegramAPI = "https://api.telegram.org"
	defaultTimeout     = 30 * time.Second
)

// TelegramChannel posts messages through the Telegram Bot API
type TelegramChannel struct {
	config TelegramConfig
	client *http.Client
}

// NewTelegramChannel creates a new Telegram channel
func NewTelegramChannel(config TelegramConfig) *TelegramChannel {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if config.APIURL == "" {
		config.APIURL = defaultTelegramAPI
	}

	return &TelegramChannel{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

type telegramRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send sends msg with sendMessage
func (tc *TelegramChannel) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(telegramRequest{ChatID: tc.config.ChatID, Text: msg.Text})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(tc.config.APIURL, "/"), tc.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		// The URL embeds the token; keep it out of the error
		return fmt.Errorf("failed to create telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", redactToken(err, tc.config.BotToken))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var decoded telegramResponse
	if err := json.Unmarshal(body, &decoded); err != nil || !decoded.OK {
		if decoded.Description != "" {
			return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, decoded.Description)
		}
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// GetType returns the channel type
func (tc *TelegramChannel) GetType() string {
	return "telegram"
}

// IsEnabled checks if the channel is enabled
func (tc *TelegramChannel) IsEnabled() bool {
	return tc.config.Enabled && tc.config.BotToken != "" && tc.config.ChatID != ""
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), cause: err}
}

// WebhookChannel implements generic webhook notifications
type WebhookChannel struct {
	config WebhookConfig
	client *http.Client
}

// NewWebhookChannel creates a new webhook notification channel
func NewWebhookChannel(config WebhookConfig) *WebhookChannel {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &WebhookChannel{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

// Send sends a webhook notification
func (wc *WebhookChannel) Send(ctx context.Context, msg Message) error {
	if wc.config.URL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	method := wc.config.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, wc.config.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range wc.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := wc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned error status: %d", resp.StatusCode)
	}

	return nil
}

// GetType returns the channel type
func (wc *WebhookChannel) GetType() string {
	return "webhook"
}

// IsEnabled checks if the channel is enabled
func (wc *WebhookChannel) IsEnabled() bool {
	return wc.config.URL != ""
}
