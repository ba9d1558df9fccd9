package engine_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"scraperpro/internal/engine"
	"scraperpro/internal/models"
	"scraperpro/internal/ratelimit"
	"scraperpro/internal/sources"
	"scraperpro/lib/telemetry"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

const newsPage = `<html><body>
<article>
	<h2>Quake Strikes Coast</h2>
	<p>A magnitude 6 earthquake hit the coastline this morning.</p>
	<span class="author">R. Okafor</span>
	<a href="/news/quake">read more</a>
</article>
<article>
	<h2>Markets Rally</h2>
	<p>Stocks climbed for a third straight session.</p>
	<a href="/news/markets">read more</a>
</article>
</body></html>`

func newTestEngine(t *testing.T, cache *badger.DB) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Options{
		Client: engine.ClientOptions{TimeoutSeconds: 5},
		Delay: ratelimit.Config{
			Mode:       ratelimit.Fixed,
			MinDelay:   time.Millisecond,
			MaxDelay:   10 * time.Millisecond,
			SampleSize: 10,
			Multiplier: 1.2,
		},
		Cache:    cache,
		CacheTTL: time.Hour,
	})
	require.NoError(t, err)
	return e
}

func TestScrapeSource(t *testing.T) {
	telemetry.SetupForTesting(t, "engine_test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(newsPage))
	}))
	defer server.Close()

	e := newTestEngine(t, nil)
	src := sources.NewNewsSource(server.URL, "Test News")

	records, err := e.ScrapeSource(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Quake Strikes Coast", records[0].Title)
	require.Equal(t, server.URL+"/news/quake", records[0].Url)
	require.Equal(t, "R. Okafor", records[0].Author)
}

func TestScrapeSourceHttpError(t *testing.T) {
	telemetry.SetupForTesting(t, "engine_test")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := newTestEngine(t, nil)
	src := sources.NewNewsSource(server.URL, "Broken News")

	_, err := e.ScrapeSource(context.Background(), src)
	require.Error(t, err)
}

func TestScrapeAllSkipsFailingSource(t *testing.T) {
	telemetry.SetupForTesting(t, "engine_test")

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(newsPage))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer bad.Close()

	e := newTestEngine(t, nil)
	records := e.ScrapeAll(context.Background(), []sources.Source{
		sources.NewNewsSource(bad.URL, "Bad"),
		sources.NewNewsSource(good.URL, "Good"),
	})
	require.Len(t, records, 2)
}

func TestPageCacheSkipsNetwork(t *testing.T) {
	telemetry.SetupForTesting(t, "engine_test")

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(newsPage))
	}))
	defer server.Close()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	require.NoError(t, err)
	defer db.Close()

	e := newTestEngine(t, db)
	src := sources.NewNewsSource(server.URL, "Cached News")

	_, err = e.ScrapeSource(context.Background(), src)
	require.NoError(t, err)
	_, err = e.ScrapeSource(context.Background(), src)
	require.NoError(t, err)

	require.Equal(t, int64(1), hits.Load())
}

func TestProcessRunsBatchThroughPipeline(t *testing.T) {
	telemetry.SetupForTesting(t, "engine_test")

	e := newTestEngine(t, nil)

	a := models.NewRecord("test", "https://example.com/a")
	a.Title = "  Kept   Record  "
	b := models.NewRecord("test", "https://example.com/a")
	b.Title = "Duplicate Url"
	c := models.NewRecord("test", "https://example.com/c")

	out := e.Process(context.Background(), []models.Record{a, b, c})
	require.Len(t, out, 1)
	require.Equal(t, "Kept Record", out[0].Title)
}
