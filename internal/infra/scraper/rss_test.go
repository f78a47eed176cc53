package scraper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"news-digest/internal/infra/scraper"
	"news-digest/internal/resilience/retry"
	"news-digest/internal/usecase/fetch"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Article 1</title>
      <link>https://example.com/article1</link>
      <description>Description 1</description>
      <pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Article 2</title>
      <link>https://example.com/article2</link>
      <description>Description 2</description>
    </item>
  </channel>
</rss>`

func serveFeed(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRSSFetcher_Fetch_Success(t *testing.T) {
	server := serveFeed(t, "application/rss+xml", rssFeed)
	fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 10 * time.Second})

	items, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	want := []fetch.FeedItem{
		{
			Title:     "Article 1",
			Link:      "https://example.com/article1",
			Summary:   "Description 1",
			Published: "Mon, 01 Jan 2024 00:00:00 +0000",
		},
		{
			Title:   "Article 2",
			Link:    "https://example.com/article2",
			Summary: "Description 2",
		},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}

func TestRSSFetcher_Fetch_Atom(t *testing.T) {
	atom := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <link href="https://example.com"/>
  <updated>2024-01-01T00:00:00Z</updated>
  <entry>
    <title>Atom Article 1</title>
    <link href="https://example.com/atom1"/>
    <id>atom1</id>
    <published>2024-01-01T00:00:00Z</published>
    <updated>2024-01-01T00:00:00Z</updated>
    <summary>Atom Summary 1</summary>
  </entry>
</feed>`
	server := serveFeed(t, "application/atom+xml", atom)
	fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 10 * time.Second})

	items, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Atom Article 1", items[0].Title)
	assert.Equal(t, "https://example.com/atom1", items[0].Link)
	assert.Equal(t, "Atom Summary 1", items[0].Summary)
	assert.Equal(t, "2024-01-01T00:00:00Z", items[0].Published)
}

func TestRSSFetcher_Fetch_ContentFallback(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Only content</title>
      <link>https://example.com/c</link>
      <content:encoded><![CDATA[Full content body]]></content:encoded>
    </item>
  </channel>
</rss>`
	server := serveFeed(t, "application/rss+xml", feed)
	fetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 10 * time.Second})

	items, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Full content body", items[0].Summary)
}

func TestRSSFetcher_Fetch_SendsUserAgent(t *testing.T) {
	var gotUA atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.UserAgent())
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	_, err := scraper.NewRSSFetcher(http.DefaultClient).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, scraper.UserAgent, gotUA.Load())
}

func TestRSSFetcher_Fetch_EmptyFeed(t *testing.T) {
	empty := `<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`
	server := serveFeed(t, "application/rss+xml", empty)

	items, err := scraper.NewRSSFetcher(http.DefaultClient).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRSSFetcher_Fetch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: fetch.ErrFeedFetchFailed,
		},
		{
			name: "not a feed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("this is not xml"))
			},
			wantErr: fetch.ErrInvalidFeedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			items, err := scraper.NewRSSFetcher(http.DefaultClient).Fetch(context.Background(), server.URL)
			require.Error(t, err)
			assert.Nil(t, items)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRSSFetcher_Fetch_StatusCarriedAsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := scraper.NewRSSFetcher(http.DefaultClient).Fetch(context.Background(), server.URL)

	var httpErr *retry.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
}

func TestRSSFetcher_Fetch_RetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer server.Close()

	fetcher := scraper.NewRSSFetcher(http.DefaultClient, scraper.WithMaxAttempts(2))
	items, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRSSFetcher_Fetch_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := scraper.NewRSSFetcher(http.DefaultClient).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRSSFetcher_Fetch_RateLimited(t *testing.T) {
	server := serveFeed(t, "application/rss+xml", rssFeed)
	fetcher := scraper.NewRSSFetcher(http.DefaultClient, scraper.WithRateLimit(20))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
	}
	// burst of 1 at 20 rps: the 2nd and 3rd requests each wait ~50ms
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestRSSFetcher_Fetch_ContextCanceled(t *testing.T) {
	server := serveFeed(t, "application/rss+xml", rssFeed)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scraper.NewRSSFetcher(http.DefaultClient).Fetch(ctx, server.URL)
	require.Error(t, err)
}
