// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package downloader

import "testing"

func TestIdempotencyLookupMissThenRecord(t *testing.T) {
	d := newIdempotency()
	if _, ok := d.lookup(1, "https://idx.test/get/1"); ok {
		t.Fatal("expected miss before record")
	}
	d.record(1, "https://idx.test/get/1", "abc")
	id, ok := d.lookup(1, "https://idx.test/get/1")
	if !ok {
		t.Fatal("expected hit after record")
	}
	checkStringEqual(t, id, "abc")
}

func TestIdempotencyDistinguishesDownloaders(t *testing.T) {
	d := newIdempotency()
	d.record(1, "https://idx.test/get/1", "abc")
	if _, ok := d.lookup(2, "https://idx.test/get/1"); ok {
		t.Fatal("expected different downloader id to miss")
	}
}

func TestIdempotencyDistinguishesURLs(t *testing.T) {
	d := newIdempotency()
	d.record(1, "https://idx.test/get/1", "abc")
	if _, ok := d.lookup(1, "https://idx.test/get/2"); ok {
		t.Fatal("expected different url to miss")
	}
}
