// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cache provides a small thread-safe in-memory TTL cache.

internal/downloader uses it for the send-idempotency dedupe window (§4.6):
a (downloaderID, nzbURL) pair seen within the last 5 minutes returns the
prior AcquisitionId instead of re-POSTing to the download client.

# Usage

	c := cache.New(5 * time.Minute)
	c.Set("key", value)
	if v, ok := c.Get("key"); ok {
	    // use v
	}

Expiration is lazy: entries are only evicted when Get or the background
cleanup goroutine observes them past their TTL. There is no size limit or
persistence — this is a short-lived in-process dedupe window, not a data
store.
*/
package cache
