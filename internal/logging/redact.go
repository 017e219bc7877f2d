// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)


// secretPatterns match key=value style secrets that must never reach a log
// line or notification body in the clear (§9). Grounded on the teacher's
// SecurityLogger sanitization approach (internal/logging/security.go),
// generalized from auth-event fields to the wire-level shapes this spec's
// indexers and downloaders actually emit: "apikey=", "api_key=",
// "X-Api-Key: ", and bearer-style "token=".
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(apikey|api_key)=[^&\s"']+`),
	regexp.MustCompile(`(?i)x-api-key:\s*\S+`),
	regexp.MustCompile(`(?i)(token|secret)=[^&\s"']+`),
	regexp.MustCompile(`(?i)bearer\s+\S+`),
}

const redacted = "[REDACTED]"

// Redactor scans strings for the patterns above plus any dynamically
// registered webhook secrets and blanks them out. One package-level
// instance backs Redact; it is not installed as a zerolog hook, so log
// call sites and notification channels (C8) apply it explicitly through
// Redact, RedactedMsg or RedactedStr.
type Redactor struct {
	mu      sync.RWMutex
	secrets map[string]struct{}
}

var globalRedactor = &Redactor{secrets: make(map[string]struct{})}

// RegisterSecret adds a literal substring (an API key or webhook secret
// pulled from the store) to the redaction set. Call this whenever a
// component loads a new Indexer/Downloader/NotificationTarget row.
func RegisterSecret(secret string) {
	if secret == "" {
		return
	}
	globalRedactor.mu.Lock()
	defer globalRedactor.mu.Unlock()
	globalRedactor.secrets[secret] = struct{}{}
}

// Redact returns s with every known secret pattern and registered literal
// secret replaced by a fixed marker.
func Redact(s string) string {
	for _, re := range secretPatterns {
		s = re.ReplaceAllStringFunc(s, func(match string) string {
			// Preserve the "key=" / "header: " prefix, redact only the value.
			if idx := strings.IndexAny(match, "=:"); idx >= 0 {
				return match[:idx+1] + redacted
			}
			return redacted
		})
	}

	globalRedactor.mu.RLock()
	defer globalRedactor.mu.RUnlock()
	for secret := range globalRedactor.secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, redacted)
	}
	return s
}

// RedactedMsg is a convenience for call sites building a message from
// untrusted input (e.g. an indexer's raw response body or URL). zerolog
// hooks run before the final message is serialized and cannot rewrite it,
// so redaction of free-text messages happens here, at the call site,
// rather than through a global Hook.
func RedactedMsg(e *zerolog.Event, msg string) {
	e.Msg(Redact(msg))
}

// RedactedStr sets a structured string field with its value redacted —
// use for any field sourced from an indexer/downloader URL or response.
func RedactedStr(e *zerolog.Event, key, value string) *zerolog.Event {
	return e.Str(key, Redact(value))
}
