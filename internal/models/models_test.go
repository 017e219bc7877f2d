// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "testing"

func TestNotificationTargetAcceptsTestEventRegardlessOfMask(t *testing.T) {
	target := NotificationTarget{EventMask: []NotificationEvent{EventDownloadFail}}
	if !target.Accepts(EventTest) {
		t.Fatal("expected Test events to bypass the mask")
	}
	if target.Accepts(EventDownloadComplete) {
		t.Fatal("expected unmasked event to be rejected")
	}
	if !target.Accepts(EventDownloadFail) {
		t.Fatal("expected masked event to be accepted")
	}
}

func TestDefaultSettingsMatchDocumentedValues(t *testing.T) {
	s := DefaultSettings()
	if s.MinResolution != "720p" || s.MaxResolution != "1080p" {
		t.Fatalf("unexpected resolution bounds: %+v", s)
	}
	if s.AutoDownloadThreshold != 70 {
		t.Fatalf("unexpected auto-download threshold: %d", s.AutoDownloadThreshold)
	}
	if s.GlobalConcurrency != 3 || s.PerIndexerConcurrency != 1 {
		t.Fatalf("unexpected concurrency defaults: %+v", s)
	}
}
