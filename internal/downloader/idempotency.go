// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package downloader

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pitlane-grab/pitlane/internal/cache"
)

// idempotencyWindow is the 5 minute send-dedupe window of §4.6.
const idempotencyWindow = 5 * time.Minute

// idempotency guards Send against re-POSTing a (downloaderID, nzbURL) pair
// seen within the last 5 minutes, returning the prior AcquisitionId
// instead. Built on the teacher's generic TTL cache (internal/cache)
// rather than a second badger table: this is a pure in-process dedupe
// window, not a value that needs to survive a restart.
type idempotency struct {
	seen *cache.Cache
}

func newIdempotency() *idempotency {
	return &idempotency{seen: cache.New(idempotencyWindow)}
}

func contentHash(downloaderID int64, nzbURL string) string {
	h := sha256.New()
	h.Write([]byte(nzbURL))
	sum := h.Sum(nil)
	return hexInt(downloaderID) + ":" + hex.EncodeToString(sum)
}

func hexInt(v int64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

// lookup returns the AcquisitionId recorded for (downloaderID, nzbURL)
// within the last 5 minutes, if any.
func (d *idempotency) lookup(downloaderID int64, nzbURL string) (string, bool) {
	prior, ok := d.seen.Get(contentHash(downloaderID, nzbURL))
	if !ok {
		return "", false
	}
	id, ok := prior.(string)
	return id, ok
}

// record associates acquisitionID with (downloaderID, nzbURL) for the
// dedupe window.
func (d *idempotency) record(downloaderID int64, nzbURL, acquisitionID string) {
	d.seen.Set(contentHash(downloaderID, nzbURL), acquisitionID)
}
