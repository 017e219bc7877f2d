// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/models"
)

func testSABDownloader(url string) models.Downloader {
	return models.Downloader{ID: 1, Name: "sab-1", Kind: models.DownloaderKindSAB, BaseURL: url, APIKey: "key", Category: "tv"}
}

func TestSABSendSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"nzo_ids":["SABnzbd_nzo_abc"]}`))
	}))
	defer srv.Close()

	a := newSABAdapter(testSABDownloader(srv.URL))
	id, err := a.Send(context.Background(), "https://idx.test/get/1", "Formula.1.2025.Race", "tv", 0)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	checkStringEqual(t, id, "SABnzbd_nzo_abc")
}

func TestSABSendIsIdempotentWithinWindow(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"status":true,"nzo_ids":["SABnzbd_nzo_abc"]}`))
	}))
	defer srv.Close()

	a := newSABAdapter(testSABDownloader(srv.URL))
	nzbURL := "https://idx.test/get/1"

	id1, err := a.Send(context.Background(), nzbURL, "title", "tv", 0)
	if err != nil {
		t.Fatalf("send 1: %v", err)
	}
	id2, err := a.Send(context.Background(), nzbURL, "title", "tv", 0)
	if err != nil {
		t.Fatalf("send 2: %v", err)
	}
	checkStringEqual(t, id1, id2)
	checkIntEqual(t, calls, 1)
}

func TestSABSendRejectedIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":false,"error":"category does not exist"}`))
	}))
	defer srv.Close()

	a := newSABAdapter(testSABDownloader(srv.URL))
	_, err := a.Send(context.Background(), "https://idx.test/get/2", "title", "tv", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	var appErr *apperror.Error
	if !apperror.As(err, &appErr) {
		t.Fatalf("expected *apperror.Error, got %T", err)
	}
	checkStringEqual(t, appErr.Sub, string(apperror.DownloaderBadCategory))
}

func TestSABSendAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := newSABAdapter(testSABDownloader(srv.URL))
	_, err := a.Send(context.Background(), "https://idx.test/get/3", "title", "tv", 0)
	var appErr *apperror.Error
	if !apperror.As(err, &appErr) {
		t.Fatalf("expected *apperror.Error, got %T", err)
	}
	checkStringEqual(t, appErr.Sub, string(apperror.DownloaderAuthRejected))
	checkBoolEqual(t, appErr.Retryable(), false)
}

func TestSABStatusFindsQueueSlot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mode := r.URL.Query().Get("mode")
		if mode == "queue" {
			_, _ = w.Write([]byte(`{"queue":{"slots":[{"nzo_id":"abc","status":"Downloading"}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"history":{"slots":[]}}`))
	}))
	defer srv.Close()

	a := newSABAdapter(testSABDownloader(srv.URL))
	status, err := a.Status(context.Background(), "abc")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	checkStringEqual(t, string(status), string(StatusDownloading))
}

func TestSABStatusFindsHistoryCompleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mode := r.URL.Query().Get("mode")
		if mode == "queue" {
			_, _ = w.Write([]byte(`{"queue":{"slots":[]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"history":{"slots":[{"nzo_id":"abc","status":"Completed"}]}}`))
	}))
	defer srv.Close()

	a := newSABAdapter(testSABDownloader(srv.URL))
	status, err := a.Status(context.Background(), "abc")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	checkStringEqual(t, string(status), string(StatusCompleted))
}

func TestSABStatusUnknownWhenNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mode := r.URL.Query().Get("mode")
		if mode == "queue" {
			_, _ = w.Write([]byte(`{"queue":{"slots":[]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"history":{"slots":[]}}`))
	}))
	defer srv.Close()

	a := newSABAdapter(testSABDownloader(srv.URL))
	status, err := a.Status(context.Background(), "missing")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	checkStringEqual(t, string(status), string(StatusUnknown))
}

func TestSABTestSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"4.3.0"}`))
	}))
	defer srv.Close()

	a := newSABAdapter(testSABDownloader(srv.URL))
	if err := a.Test(context.Background()); err != nil {
		t.Fatalf("test: %v", err)
	}
}
