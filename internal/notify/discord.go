// Package notify posts purchase announcements to a Discord channel webhook.
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

// Config holds Discord webhook settings.
type Config struct {
	// WebhookURL is optional. When empty nothing is sent.
	WebhookURL string
	Timeout    time.Duration
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second}
}

// Enabled reports whether a webhook is configured.
func (c Config) Enabled() bool {
	return c.WebhookURL != ""
}

// Validate checks the config. An empty URL is valid and disables sending.
func (c *Config) Validate() error {
	if c.WebhookURL != "" &&
		!strings.HasPrefix(c.WebhookURL, "http://") &&
		!strings.HasPrefix(c.WebhookURL, "https://") {
		return fmt.Errorf("%w: webhook url must start with http:// or https://", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return nil
}

// Discord is a webhook client.
type Discord struct {
	url    string
	client *http.Client
}

// NewDiscord creates a webhook client.
func NewDiscord(cfg Config) (*Discord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Discord{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Send posts content as a single message.
func (d *Discord) Send(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
