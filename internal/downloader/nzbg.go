// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
)

// nzbgAdapter talks to an NZBGet-style JSON-RPC 2.0 endpoint at
// {base}/jsonrpc with methods append, listgroups, history (§6).
type nzbgAdapter struct {
	downloader models.Downloader
	httpClient *http.Client
	idemp      *idempotency
}

func newNZBGAdapter(d models.Downloader) *nzbgAdapter {
	logging.RegisterSecret(d.APIKey)
	return &nzbgAdapter{downloader: d, httpClient: &http.Client{}, idemp: newIdempotency()}
}

type jsonRPCRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     int           `json:"id"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonRPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonRPCError   `json:"error"`
}

func (a *nzbgAdapter) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	reqBody, err := json.Marshal(jsonRPCRequest{Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, apperror.Downloader(apperror.DownloaderUnknown, "encode request", err)
	}

	endpoint := strings.TrimSuffix(a.downloader.BaseURL, "/") + "/jsonrpc"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, apperror.Downloader(apperror.DownloaderUnknown, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("pitlane", a.downloader.APIKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Downloader(apperror.DownloaderUnavailable, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if sub, ok := classifyHTTPStatus(resp.StatusCode); ok {
		return nil, apperror.Downloader(sub, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Downloader(apperror.DownloaderUnavailable, "read response", err)
	}

	var parsed jsonRPCResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperror.Downloader(apperror.DownloaderUnknown, "parse response", err)
	}
	if parsed.Error != nil {
		return nil, apperror.Downloader(apperror.DownloaderRejected, parsed.Error.Message, nil)
	}
	return parsed.Result, nil
}

func (a *nzbgAdapter) Send(ctx context.Context, nzbURL, title, category string, priority int) (string, error) {
	if prior, ok := a.idemp.lookup(a.downloader.ID, nzbURL); ok {
		return prior, nil
	}

	if category == "" {
		category = a.downloader.Category
	}
	// append(NZBFilename, NZBContent, Category, Priority, AddToTop, AddPaused, DupeKey, DupeScore, DupeMode, PPParameters)
	result, err := a.call(ctx, "append", []interface{}{
		title, nzbURL, category, priority, false, false, "", 0, "score", []interface{}{},
	})
	if err != nil {
		return "", err
	}

	var groupID int
	if err := json.Unmarshal(result, &groupID); err != nil {
		return "", apperror.Downloader(apperror.DownloaderUnknown, "parse append result", err)
	}
	if groupID <= 0 {
		return "", apperror.Downloader(apperror.DownloaderRejected, "append returned non-positive group id", nil)
	}

	id := fmt.Sprintf("%d", groupID)
	a.idemp.record(a.downloader.ID, nzbURL, id)
	return id, nil
}

type nzbgGroup struct {
	NZBID  int    `json:"NZBID"`
	Status string `json:"Status"`
}

type nzbgHistoryItem struct {
	NZBID  int    `json:"NZBID"`
	Status string `json:"Status"`
}

func (a *nzbgAdapter) Status(ctx context.Context, acquisitionID string) (Status, error) {
	groupsRaw, err := a.call(ctx, "listgroups", []interface{}{0})
	if err != nil {
		return StatusUnknown, err
	}
	var groups []nzbgGroup
	if err := json.Unmarshal(groupsRaw, &groups); err != nil {
		return StatusUnknown, apperror.Downloader(apperror.DownloaderUnknown, "parse listgroups", err)
	}
	for _, g := range groups {
		if fmt.Sprintf("%d", g.NZBID) == acquisitionID {
			return StatusDownloading, nil
		}
	}

	historyRaw, err := a.call(ctx, "history", []interface{}{false})
	if err != nil {
		return StatusUnknown, err
	}
	var history []nzbgHistoryItem
	if err := json.Unmarshal(historyRaw, &history); err != nil {
		return StatusUnknown, apperror.Downloader(apperror.DownloaderUnknown, "parse history", err)
	}
	for _, h := range history {
		if fmt.Sprintf("%d", h.NZBID) == acquisitionID {
			if strings.Contains(strings.ToUpper(h.Status), "SUCCESS") {
				return StatusCompleted, nil
			}
			return StatusFailed, nil
		}
	}
	return StatusUnknown, nil
}

func (a *nzbgAdapter) Test(ctx context.Context) error {
	_, err := a.call(ctx, "version", nil)
	return err
}
