// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const loggerKey contextKey = "logging.logger"

// NewCorrelationID mints a correlation id for one Newznab call, scheduler
// tick, or notification dispatch (§4.3 "All requests and outcomes logged
// with a correlation id").
func NewCorrelationID() string {
	return uuid.New().String()
}

// WithLogger attaches a logger (already carrying correlation/component
// fields) to ctx so downstream calls can recover it with Ctx.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// Ctx returns the logger attached to ctx, or the global logger if none was
// attached.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return l
	}
	return Logger()
}
