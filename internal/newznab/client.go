// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package newznab

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/cenkalti/backoff/v4"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/logging"
	"github.com/pitlane-grab/pitlane/internal/models"
)

// Client is a single indexer's Newznab endpoint. Concurrency caps and
// circuit breaking are applied by the caller (Pool), not here: Client is
// the bare HTTP+parse layer, matching the teacher's split between a plain
// API client and its CircuitBreakerClient wrapper.
type Client struct {
	indexer    models.Indexer
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient builds a Client for one indexer configuration. Default
// per-call timeout is 15s (§4.3).
func NewClient(indexer models.Indexer) *Client {
	logging.RegisterSecret(indexer.APIKey)
	return &Client{
		indexer:    indexer,
		httpClient: &http.Client{},
		timeout:    15 * time.Second,
	}
}

// Search runs one query against the indexer, retrying transient failures
// 3x with exponential backoff 1s->8s and +/-25% jitter (§4.3). HTTP 4xx is
// fatal for that call.
func (c *Client) Search(ctx context.Context, q Query) ([]Item, error) {
	correlationID := logging.NewCorrelationID()
	log := logging.Ctx(ctx).With().
		Str("correlation_id", correlationID).
		Str("indexer", c.indexer.Name).
		Str("query", q.Q).
		Logger()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 8 * time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.25
	withRetries := backoff.WithMaxRetries(bo, 2)

	var items []Item
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		result, err := c.doSearch(callCtx, q)
		if err != nil {
			var appErr *apperror.Error
			if apperror.As(err, &appErr) && !appErr.Retryable() {
				return backoff.Permanent(err)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("newznab search failed, retrying")
			return err
		}
		items = result
		return nil
	}, backoff.WithContext(withRetries, ctx))

	if err != nil {
		log.Error().Err(err).Msg("newznab search exhausted retries")
		return nil, err
	}

	log.Info().Int("results", len(items)).Msg("newznab search complete")
	return items, nil
}

func (c *Client) doSearch(ctx context.Context, q Query) ([]Item, error) {
	reqURL := c.buildURL(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperror.Indexer(apperror.IndexerBadRequest, "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Indexer(apperror.IndexerUnavailable, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Indexer(apperror.IndexerUnavailable, "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperror.Indexer(apperror.IndexerAuthRejected, fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, apperror.Indexer(apperror.IndexerBadRequest, fmt.Sprintf("status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return nil, apperror.Indexer(apperror.IndexerUnavailable, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	return parseResponse(body)
}

// buildURL assembles the standard Newznab query string (§4.3, §6):
// apikey, t, q, cat, maxage, limit, offset, season, ep.
func (c *Client) buildURL(q Query) string {
	v := url.Values{}
	v.Set("apikey", c.indexer.APIKey)
	v.Set("t", q.Mode)
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if len(q.Category) > 0 {
		v.Set("cat", strings.Join(q.Category, ","))
	}
	if q.MaxAgeDay > 0 {
		v.Set("maxage", strconv.Itoa(q.MaxAgeDay))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Mode == "tvsearch" {
		if q.Season > 0 {
			v.Set("season", strconv.Itoa(q.Season))
		}
		if q.Episode > 0 {
			v.Set("ep", strconv.Itoa(q.Episode))
		}
	}
	return strings.TrimSuffix(c.indexer.BaseURL, "/") + "/api?" + v.Encode()
}

// TestConnection calls t=caps; success is HTTP 200 with parseable caps (§4.3).
func (c *Client) TestConnection(ctx context.Context) (Caps, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v := url.Values{}
	v.Set("apikey", c.indexer.APIKey)
	v.Set("t", "caps")
	reqURL := strings.TrimSuffix(c.indexer.BaseURL, "/") + "/api?" + v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Caps{}, apperror.Indexer(apperror.IndexerBadRequest, "build caps request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Caps{}, apperror.Indexer(apperror.IndexerUnavailable, "caps request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Caps{}, apperror.Indexer(apperror.IndexerUnavailable, fmt.Sprintf("caps status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Caps{}, apperror.Indexer(apperror.IndexerUnavailable, "read caps response", err)
	}

	var capsResp capsXML
	if err := xml.Unmarshal(body, &capsResp); err != nil {
		return Caps{}, apperror.Indexer(apperror.IndexerParse, "parse caps response", err)
	}

	return Caps{ServerVersion: capsResp.Server.Version}, nil
}

// parseResponse accepts both the RSS/XML shape and a JSON shape (§6).
func parseResponse(body []byte) ([]Item, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return parseJSON(body)
	}
	return parseXML(body)
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title    string         `xml:"title"`
	Link     string         `xml:"link"`
	PubDate  string         `xml:"pubDate"`
	Category string         `xml:"category"`
	Attrs    []newznabAttr  `xml:"attr"`
}

type newznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type capsXML struct {
	Server struct {
		Version string `xml:"version,attr"`
	} `xml:"server"`
}

func parseXML(body []byte) ([]Item, error) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, apperror.Indexer(apperror.IndexerParse, "parse rss", err)
	}

	items := make([]Item, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		item := Item{
			Title:    it.Title,
			Link:     it.Link,
			Category: it.Category,
		}
		if t, err := parsePubDate(it.PubDate); err == nil {
			item.PubDate = t
		}
		for _, a := range it.Attrs {
			switch a.Name {
			case "size":
				if n, err := strconv.ParseInt(a.Value, 10, 64); err == nil {
					item.SizeBytes = n
				}
			case "group":
				item.Group = a.Value
			}
		}
		items = append(items, item)
	}
	return items, nil
}

type jsonFeed struct {
	Channel struct {
		Item []jsonItem `json:"item"`
	} `json:"channel"`
}

type jsonItem struct {
	Title    string          `json:"title"`
	Link     string          `json:"link"`
	PubDate  string          `json:"pubDate"`
	Category string          `json:"category"`
	Attr     []newznabJSONAttr `json:"newznab:attr"`
}

type newznabJSONAttr struct {
	Name  string `json:"@name"`
	Value string `json:"@value"`
}

func parseJSON(body []byte) ([]Item, error) {
	var feed jsonFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, apperror.Indexer(apperror.IndexerParse, "parse json", err)
	}

	items := make([]Item, 0, len(feed.Channel.Item))
	for _, it := range feed.Channel.Item {
		item := Item{Title: it.Title, Link: it.Link, Category: it.Category}
		if t, err := parsePubDate(it.PubDate); err == nil {
			item.PubDate = t
		}
		for _, a := range it.Attr {
			switch a.Name {
			case "size":
				if n, err := strconv.ParseInt(a.Value, 10, 64); err == nil {
					item.SizeBytes = n
				}
			case "group":
				item.Group = a.Value
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func parsePubDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty pubdate")
	}
	return time.Parse(time.RFC1123Z, s)
}
