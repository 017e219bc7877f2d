// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
)

// sabAdapter talks to a SABnzbd-style API: GET {base}/api?mode=addurl|
// queue|history&apikey=... (§6).
type sabAdapter struct {
	downloader models.Downloader
	httpClient *http.Client
	idemp      *idempotency
}

func newSABAdapter(d models.Downloader) *sabAdapter {
	logging.RegisterSecret(d.APIKey)
	return &sabAdapter{downloader: d, httpClient: &http.Client{}, idemp: newIdempotency()}
}

type sabAddURLResponse struct {
	Status bool     `json:"status"`
	NZOIDs []string `json:"nzo_ids"`
	Error  string   `json:"error"`
}

func (a *sabAdapter) Send(ctx context.Context, nzbURL, title, category string, priority int) (string, error) {
	if prior, ok := a.idemp.lookup(a.downloader.ID, nzbURL); ok {
		return prior, nil
	}

	v := url.Values{}
	v.Set("mode", "addurl")
	v.Set("name", nzbURL)
	v.Set("nzbname", title)
	v.Set("apikey", a.downloader.APIKey)
	v.Set("output", "json")
	if category != "" {
		v.Set("cat", category)
	}
	v.Set("priority", fmt.Sprintf("%d", priority))

	reqURL := strings.TrimSuffix(a.downloader.BaseURL, "/") + "/api?" + v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", apperror.Downloader(apperror.DownloaderUnknown, "build request", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", apperror.Downloader(apperror.DownloaderUnavailable, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if sub, ok := classifyHTTPStatus(resp.StatusCode); ok {
		return "", apperror.Downloader(sub, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperror.Downloader(apperror.DownloaderUnavailable, "read response", err)
	}

	var parsed sabAddURLResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperror.Downloader(apperror.DownloaderUnknown, "parse response", err)
	}
	if !parsed.Status {
		if strings.Contains(strings.ToLower(parsed.Error), "category") {
			return "", apperror.Downloader(apperror.DownloaderBadCategory, parsed.Error, nil)
		}
		return "", apperror.Downloader(apperror.DownloaderRejected, parsed.Error, nil)
	}

	id := firstOr(parsed.NZOIDs, uuid.NewString())
	a.idemp.record(a.downloader.ID, nzbURL, id)
	return id, nil
}

type sabQueueSlot struct {
	NZOID  string `json:"nzo_id"`
	Status string `json:"status"`
}

type sabQueueResponse struct {
	Queue struct {
		Slots []sabQueueSlot `json:"slots"`
	} `json:"queue"`
}

type sabHistorySlot struct {
	NZOID  string `json:"nzo_id"`
	Status string `json:"status"`
}

type sabHistoryResponse struct {
	History struct {
		Slots []sabHistorySlot `json:"slots"`
	} `json:"history"`
}

func (a *sabAdapter) Status(ctx context.Context, acquisitionID string) (Status, error) {
	if status, found, err := a.pollMode(ctx, "queue", acquisitionID); err != nil || found {
		return status, err
	}
	if status, found, err := a.pollMode(ctx, "history", acquisitionID); err != nil || found {
		return status, err
	}
	return StatusUnknown, nil
}

func (a *sabAdapter) pollMode(ctx context.Context, mode, acquisitionID string) (Status, bool, error) {
	v := url.Values{}
	v.Set("mode", mode)
	v.Set("apikey", a.downloader.APIKey)
	v.Set("output", "json")

	reqURL := strings.TrimSuffix(a.downloader.BaseURL, "/") + "/api?" + v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return StatusUnknown, false, apperror.Downloader(apperror.DownloaderUnknown, "build request", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return StatusUnknown, false, apperror.Downloader(apperror.DownloaderUnavailable, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if sub, ok := classifyHTTPStatus(resp.StatusCode); ok {
		return StatusUnknown, false, apperror.Downloader(sub, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusUnknown, false, apperror.Downloader(apperror.DownloaderUnavailable, "read response", err)
	}

	if mode == "queue" {
		var parsed sabQueueResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return StatusUnknown, false, apperror.Downloader(apperror.DownloaderUnknown, "parse response", err)
		}
		for _, slot := range parsed.Queue.Slots {
			if slot.NZOID == acquisitionID {
				return StatusDownloading, true, nil
			}
		}
		return StatusUnknown, false, nil
	}

	var parsed sabHistoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return StatusUnknown, false, apperror.Downloader(apperror.DownloaderUnknown, "parse response", err)
	}
	for _, slot := range parsed.History.Slots {
		if slot.NZOID == acquisitionID {
			if strings.EqualFold(slot.Status, "Completed") {
				return StatusCompleted, true, nil
			}
			return StatusFailed, true, nil
		}
	}
	return StatusUnknown, false, nil
}

func (a *sabAdapter) Test(ctx context.Context) error {
	v := url.Values{}
	v.Set("mode", "version")
	v.Set("apikey", a.downloader.APIKey)
	v.Set("output", "json")

	reqURL := strings.TrimSuffix(a.downloader.BaseURL, "/") + "/api?" + v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperror.Downloader(apperror.DownloaderUnknown, "build request", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return apperror.Downloader(apperror.DownloaderUnavailable, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if sub, ok := classifyHTTPStatus(resp.StatusCode); ok {
		return apperror.Downloader(sub, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	return nil
}

func classifyHTTPStatus(code int) (apperror.DownloaderSubKind, bool) {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperror.DownloaderAuthRejected, true
	case code >= 500:
		return apperror.DownloaderUnavailable, true
	case code >= 400:
		return apperror.DownloaderRejected, true
	default:
		return "", false
	}
}

func firstOr(ids []string, fallback string) string {
	if len(ids) > 0 && ids[0] != "" {
		return ids[0]
	}
	return fallback
}
