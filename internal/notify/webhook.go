// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"golang.org/x/crypto/hkdf"

	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
)

// webhookPayload is the raw webhook body (§6): {type, payload}.
type webhookPayload struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func sendWebhook(ctx context.Context, client *http.Client, target models.NotificationTarget, ev Event) error {
	body := webhookPayload{
		Type: string(ev.Type),
		Payload: map[string]interface{}{
			"title":      ev.Title,
			"message":    ev.Message,
			"round":      ev.RoundName,
			"nzb_title":  ev.NZBTitle,
			"score":      ev.Score,
			"occurred_at": ev.Occurred,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pitlane-notify/1.0")

	if target.WebhookSecret != nil && *target.WebhookSecret != "" {
		logging.RegisterSecret(*target.WebhookSecret)
		sig, err := signPayload(*target.WebhookSecret, string(ev.Type), payload)
		if err != nil {
			return fmt.Errorf("sign webhook payload: %w", err)
		}
		req.Header.Set("X-Signature", "sha256="+sig)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// signPayload derives a per-event HMAC key from the configured secret via
// HKDF-SHA256 (the event type as the "info" parameter binds the derived
// key to the event class) rather than HMAC-ing with the raw secret
// directly, then signs the body with HMAC-SHA256 (§4.7, §7 secret
// handling).
func signPayload(secret, eventType string, body []byte) (string, error) {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("pitlane-webhook:"+eventType))
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
