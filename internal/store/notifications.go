// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// CreateNotificationTarget inserts a new notification destination.
func (s *Store) CreateNotificationTarget(ctx context.Context, t models.NotificationTarget) (int64, error) {
	var id int64
	err := s.withWrite(func() error {
		var genErr error
		id, genErr = s.nextID(ctx, "notification_targets_id_seq")
		if genErr != nil {
			return genErr
		}
		_, err := s.conn.ExecContext(ctx, `
			INSERT INTO notification_targets (id, kind, url, name, event_mask, webhook_secret)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, t.Kind, t.URL, t.Name, joinEventMask(t.EventMask), t.WebhookSecret)
		return err
	})
	return id, err
}

// UpdateNotificationTarget replaces a notification target row in full.
func (s *Store) UpdateNotificationTarget(ctx context.Context, t models.NotificationTarget) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `
			UPDATE notification_targets SET kind = ?, url = ?, name = ?, event_mask = ?, webhook_secret = ? WHERE id = ?`,
			t.Kind, t.URL, t.Name, joinEventMask(t.EventMask), t.WebhookSecret, t.ID)
		return err
	})
}

// DeleteNotificationTarget removes a notification target.
func (s *Store) DeleteNotificationTarget(ctx context.Context, id int64) error {
	return s.withWrite(func() error {
		_, err := s.conn.ExecContext(ctx, `DELETE FROM notification_targets WHERE id = ?`, id)
		return err
	})
}

// ListNotificationTargets returns every configured notification destination.
func (s *Store) ListNotificationTargets(ctx context.Context) ([]models.NotificationTarget, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, kind, url, name, event_mask, webhook_secret FROM notification_targets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.NotificationTarget
	for rows.Next() {
		var t models.NotificationTarget
		var mask string
		var secret sql.NullString
		if err := rows.Scan(&t.ID, &t.Kind, &t.URL, &t.Name, &mask, &secret); err != nil {
			return nil, err
		}
		t.EventMask = splitEventMask(mask)
		if secret.Valid {
			v := secret.String
			t.WebhookSecret = &v
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func joinEventMask(mask []models.NotificationEvent) string {
	parts := make([]string, len(mask))
	for i, m := range mask {
		parts[i] = string(m)
	}
	return strings.Join(parts, ",")
}

func splitEventMask(s string) []models.NotificationEvent {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]models.NotificationEvent, len(parts))
	for i, p := range parts {
		out[i] = models.NotificationEvent(p)
	}
	return out
}
