package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DiscordNotifier posts alerts to a webhook.
type DiscordNotifier struct {
	webhook string
	httpc   *http.Client
}

// NewDiscordNotifier creates a webhook notifier.
func NewDiscordNotifier(webhook string) *DiscordNotifier {
	return &DiscordNotifier{
		webhook: webhook,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Name identifies the channel in logs.
func (d *DiscordNotifier) Name() string { return "discord" }

type discordPayload struct {
	Content string `json:"content"`
}

// Send posts one alert to the webhook.
func (d *DiscordNotifier) Send(ctx context.Context, a Alert) error {
	body, err := json.Marshal(discordPayload{Content: Format(a)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord: status %d", resp.StatusCode)
	}
	return nil
}
