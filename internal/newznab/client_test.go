// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package newznab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/pitlane-grab/pitlane/internal/apperror"
	"github.com/pitlane-grab/pitlane/internal/models"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<item>
<title>F1.2026.Round01.Bahrain.Race.1080p</title>
<link>https://example.test/get/abc</link>
<pubDate>Sun, 08 Mar 2026 17:00:00 +0000</pubDate>
<category>TV</category>
<newznab:attr name="size" value="4294967296"/>
<newznab:attr name="group" value="alt.binaries.test"/>
</item>
</channel>
</rss>`

const sampleCaps = `<?xml version="1.0" encoding="UTF-8"?>
<caps><server version="1.2.3"/></caps>`

func testIndexer(url string) models.Indexer {
	return models.Indexer{ID: 1, Name: "test-idx", BaseURL: url, APIKey: "secret-key"}
}

func TestBuildURLIncludesCoreParams(t *testing.T) {
	c := NewClient(testIndexer("https://idx.example"))
	raw := c.buildURL(Query{Mode: "search", Q: "bahrain grand prix", Category: []string{"2000", "5000"}, MaxAgeDay: 30, Limit: 100})

	parsed, err := url.Parse(raw)
	checkNoError(t, err)
	q := parsed.Query()
	checkStringEqual(t, q.Get("apikey"), "secret-key")
	checkStringEqual(t, q.Get("t"), "search")
	checkStringEqual(t, q.Get("q"), "bahrain grand prix")
	checkStringEqual(t, q.Get("cat"), "2000,5000")
	checkStringEqual(t, q.Get("maxage"), "30")
	checkStringEqual(t, q.Get("limit"), "100")
}

func TestBuildURLTVSearchIncludesSeasonEpisode(t *testing.T) {
	c := NewClient(testIndexer("https://idx.example"))
	raw := c.buildURL(Query{Mode: "tvsearch", Season: 2026, Episode: 4})
	parsed, _ := url.Parse(raw)
	q := parsed.Query()
	checkStringEqual(t, q.Get("season"), "2026")
	checkStringEqual(t, q.Get("ep"), "4")
}

func TestParseXMLExtractsAttrs(t *testing.T) {
	items, err := parseXML([]byte(sampleRSS))
	checkNoError(t, err)
	checkIntEqual(t, len(items), 1)
	if items[0].SizeBytes != 4294967296 {
		t.Fatalf("got size %d", items[0].SizeBytes)
	}
	checkStringEqual(t, items[0].Group, "alt.binaries.test")
}

func TestSearchRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	c := NewClient(testIndexer(srv.URL))
	items, err := c.Search(context.Background(), Query{Mode: "search", Q: "bahrain"})
	checkNoError(t, err)
	checkIntEqual(t, len(items), 1)
	checkIntEqual(t, int(atomic.LoadInt32(&calls)), 3)
}

func TestSearchFatalOn4xxDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(testIndexer(srv.URL))
	_, err := c.Search(context.Background(), Query{Mode: "search", Q: "bahrain"})
	checkError(t, err)

	var appErr *apperror.Error
	if !apperror.As(err, &appErr) {
		t.Fatalf("expected apperror.Error, got %T", err)
	}
	checkIntEqual(t, int(atomic.LoadInt32(&calls)), 1)
}

func TestSearchAuthRejectedOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testIndexer(srv.URL))
	_, err := c.Search(context.Background(), Query{Mode: "search", Q: "bahrain"})

	var appErr *apperror.Error
	if !apperror.As(err, &appErr) {
		t.Fatalf("expected apperror.Error, got %T", err)
	}
	if appErr.Sub != string(apperror.IndexerAuthRejected) {
		t.Fatalf("got sub %q", appErr.Sub)
	}
}

func TestTestConnectionParsesCaps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sampleCaps))
	}))
	defer srv.Close()

	c := NewClient(testIndexer(srv.URL))
	caps, err := c.TestConnection(context.Background())
	checkNoError(t, err)
	checkStringEqual(t, caps.ServerVersion, "1.2.3")
}
