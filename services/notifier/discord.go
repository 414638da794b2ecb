// Package notifier posts run summaries to a Discord webhook.
package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sjsage522/learningfield/logger"
	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/bwmarrin/discordgo"
)

// Notifier announces how many posts a pass added
type Notifier interface {
	Notify(ctx context.Context, count int) error
}

// Discord executes a webhook through a discordgo session
type Discord struct {
	WebhookURL string
	session    *discordgo.Session
}

// NewDiscord creates a Discord notifier; an empty URL disables it
func NewDiscord(webhookURL string) *Discord {
	// webhooks need no bot token
	session, _ := discordgo.New("")
	session.Client = &http.Client{Timeout: 10 * time.Second}
	session.MaxRestRetries = 1

	return &Discord{WebhookURL: webhookURL, session: session}
}

// Message formats the daily update text
func Message(count int) string {
	return fmt.Sprintf("🤖 **Daily Update**: `%d` new learning resources have been added to the catalog!", count)
}

// parseWebhookURL extracts id and token from .../api/webhooks/{id}/{token}
func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if part == "webhooks" && i+2 < len(parts) && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("no webhook id and token in %q", u.Path)
}

// Notify posts the message unless disabled or count is zero
func (d *Discord) Notify(ctx context.Context, count int) error {
	if d.WebhookURL == "" || count == 0 {
		return nil
	}

	id, token, err := parseWebhookURL(d.WebhookURL)
	if err != nil {
		return apperrors.NewNotification("discord", "invalid webhook URL", err)
	}

	params := &discordgo.WebhookParams{Content: Message(count)}
	if _, err := d.session.WebhookExecute(id, token, true, params, discordgo.WithContext(ctx)); err != nil {
		return apperrors.NewNotification("discord", "webhook execute failed", err)
	}

	logger.ForNotifier().Info().Int("count", count).Msg("Notification sent")
	return nil
}
