// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/pitlane-grab/pitlane/internal/logging"
)

// appriseScheme maps an Apprise-style URL scheme to the HTTP request it
// produces for the destination service (§4.7, §6's "Apprise URL schemes").
// No pack repo ships an Apprise client; schemes are mapped directly since
// this is a small, closed set (see DESIGN.md).
type appriseScheme func(ctx context.Context, client *http.Client, u *url.URL, ev Event) error

var appriseSchemes = map[string]appriseScheme{
	"discord": sendDiscord,
	"slack":   sendSlack,
	"tgram":   sendTelegram,
}

func sendApprise(ctx context.Context, client *http.Client, rawURL string, ev Event) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse apprise url: %w", err)
	}
	scheme, ok := appriseSchemes[strings.ToLower(u.Scheme)]
	if !ok {
		return fmt.Errorf("unsupported apprise scheme %q", u.Scheme)
	}
	logging.RegisterSecret(u.String())
	return scheme(ctx, client, u, ev)
}

func postJSON(ctx context.Context, client *http.Client, targetURL string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// sendDiscord translates discord://webhook_id/webhook_token into a
// standard Discord webhook POST.
func sendDiscord(ctx context.Context, client *http.Client, u *url.URL, ev Event) error {
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	webhookID := u.Host
	webhookToken := ""
	if len(parts) > 0 {
		webhookToken = parts[0]
	}
	target := fmt.Sprintf("https://discord.com/api/webhooks/%s/%s", webhookID, webhookToken)
	return postJSON(ctx, client, target, map[string]string{
		"content": fmt.Sprintf("**%s**\n%s", ev.Title, ev.Message),
	})
}

// sendSlack translates slack://token_a/token_b/token_c/channel into a
// Slack incoming-webhook POST.
func sendSlack(ctx context.Context, client *http.Client, u *url.URL, ev Event) error {
	tokens := strings.Split(strings.Trim(u.Path, "/"), "/")
	tokens = append([]string{u.Host}, tokens...)
	if len(tokens) < 3 {
		return fmt.Errorf("slack url needs three tokens, got %d", len(tokens))
	}
	target := fmt.Sprintf("https://hooks.slack.com/services/%s/%s/%s", tokens[0], tokens[1], tokens[2])
	return postJSON(ctx, client, target, map[string]string{
		"text": fmt.Sprintf("*%s*\n%s", ev.Title, ev.Message),
	})
}

// sendTelegram translates tgram://bot_token/chat_id into a Bot API call.
func sendTelegram(ctx context.Context, client *http.Client, u *url.URL, ev Event) error {
	botToken := u.Host
	chatID := strings.Trim(u.Path, "/")
	if botToken == "" || chatID == "" {
		return fmt.Errorf("telegram url needs bot token and chat id")
	}
	target := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", botToken)
	return postJSON(ctx, client, target, map[string]string{
		"chat_id": chatID,
		"text":    fmt.Sprintf("%s\n%s", ev.Title, ev.Message),
	})
}
