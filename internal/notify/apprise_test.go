// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package notify

import (
	"context"
	"net/http"
	"testing"
)

func TestSendAppriseRejectsUnsupportedScheme(t *testing.T) {
	err := sendApprise(context.Background(), http.DefaultClient, "ftp://example.test/x", Event{})
	if err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestSendAppriseRejectsUnparseableURL(t *testing.T) {
	err := sendApprise(context.Background(), http.DefaultClient, "://bad", Event{})
	if err == nil {
		t.Fatal("expected parse error")
	}
}
