package notification

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	colorRed   = 16711680
	colorGreen = 65280
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Discord posts embeds to webhook URLs. An empty URL disables that kind of
// message.
type Discord struct {
	successURL string
	errorURL   string
	client     *http.Client
}

func NewDiscord(successURL, errorURL string) *Discord {
	return &Discord{
		successURL: successURL,
		errorURL:   errorURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) Success(ctx context.Context, message string) error {
	return d.send(ctx, d.successURL, DiscordEmbed{
		Title:       "✅ Download finished",
		Description: message,
		Color:       colorGreen,
	})
}

func (d *Discord) Error(ctx context.Context, message string) error {
	return d.send(ctx, d.errorURL, DiscordEmbed{
		Title:       "🚨 Download failed",
		Description: fmt.Sprintf("An error occurred: %s", message),
		Color:       colorRed,
	})
}

func (d *Discord) send(ctx context.Context, url string, embed DiscordEmbed) error {
	if url == "" {
		return nil
	}

	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build Discord request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send Discord notification")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return errors.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}
	return nil
}
