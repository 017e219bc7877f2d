// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package roundcache is the round search cache (C6): the embedded store row
// is the source of truth, mirrored through a badger hot path with native TTL
// so repeated reads for the same round don't round-trip through DuckDB's
// JSON column on every scheduler tick. Named apart from internal/cache,
// the generic in-process TTL cache that the downloader's idempotency dedupe
// uses.
package roundcache

import (
	"sort"
	"strings"

	"github.com/pitlane-grab/pitlane/internal/models"
)

// Fingerprint derives the cache key component from an allowlist of session
// types: sorted, lowercased, comma-joined (§9 Open Question i — defined
// bit-exactly since the source used implicit set equality). Order of the
// input never affects the result.
func Fingerprint(allowlist []models.SessionType) string {
	if len(allowlist) == 0 {
		return ""
	}
	tokens := make([]string, 0, len(allowlist))
	seen := make(map[string]struct{}, len(allowlist))
	for _, s := range allowlist {
		t := strings.ToLower(string(s))
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, ",")
}

// Intersect returns the allowlist restricted to the session types actually
// present on the round, in the allowlist's order and with its duplicates;
// Fingerprint applies the sort/dedupe rules to the result.
func Intersect(allowlist, roundSessions []models.SessionType) []models.SessionType {
	present := make(map[models.SessionType]struct{}, len(roundSessions))
	for _, s := range roundSessions {
		present[s] = struct{}{}
	}
	out := make([]models.SessionType, 0, len(allowlist))
	for _, s := range allowlist {
		if _, ok := present[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
