package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scraperpro/internal/models"
	"scraperpro/internal/pipeline"
	"scraperpro/internal/ratelimit"
	"scraperpro/internal/sources"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("internal/engine")

type Options struct {
	Client ClientOptions
	Delay  ratelimit.Config
	// hard floor between any two requests, across all sources;
	// zero disables
	Pace time.Duration
	// nil disables the page cache
	Cache    *badger.DB
	CacheTTL time.Duration
}

// Engine drives a scrape cycle: it fetches each source's page at a
// controlled cadence, extracts raw records, and runs the full batch
// through the processing pipeline.
type Engine struct {
	http     *resty.Client
	pipeline pipeline.Pipeline
	delay    *ratelimit.Controller
	pacer    *ratelimit.Pacer
	cache    *pageCache
}

func New(opts Options) (*Engine, error) {
	client, err := NewHttpClient(opts.Client)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		http:     client,
		pipeline: pipeline.New(),
		delay:    ratelimit.NewController(opts.Delay),
		pacer:    ratelimit.NewPacer(opts.Pace),
	}
	if opts.Cache != nil {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		e.cache = &pageCache{db: opts.Cache, ttl: ttl}
	}
	return e, nil
}

// Delay exposes the adaptive controller for stats reporting.
func (e *Engine) Delay() *ratelimit.Controller {
	return e.delay
}

// ScrapeSource fetches the source's page and extracts its raw records.
// The fetch is preceded by the adaptive delay and its response time
// feeds back into the delay controller.
func (e *Engine) ScrapeSource(ctx context.Context, src sources.Source) ([]models.Record, error) {
	ctx, span := tracer.Start(ctx, "ScrapeSource")
	defer span.End()
	span.SetAttributes(
		attribute.String("source", src.Name()),
		attribute.String("url", src.BaseUrl()),
	)

	slog.Info("scraping source", "source", src.Name(), "url", src.BaseUrl())

	html, err := e.fetch(ctx, src.BaseUrl())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}

	records, err := src.Scrape(ctx, html)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract records")
		return nil, err
	}
	span.SetAttributes(attribute.Int("record_count", len(records)))
	return records, nil
}

// ScrapeAll collects raw records from every source. A failing source is
// logged and skipped; one broken site must not starve the rest of the
// cycle.
func (e *Engine) ScrapeAll(ctx context.Context, srcs []sources.Source) []models.Record {
	ctx, span := tracer.Start(ctx, "ScrapeAll")
	defer span.End()

	var all []models.Record
	for _, src := range srcs {
		records, err := e.ScrapeSource(ctx, src)
		if err != nil {
			slog.Error("failed to scrape source", "source", src.Name(), "err", err)
			continue
		}
		all = append(all, records...)
	}
	span.SetAttributes(attribute.Int("raw_count", len(all)))
	return all
}

// Process runs a raw batch through validation, normalization and
// deduplication.
func (e *Engine) Process(ctx context.Context, records []models.Record) []models.Record {
	return e.pipeline.Process(ctx, records)
}

// FetchPage retrieves a single page through the cache and rate
// controls without running any extraction.
func (e *Engine) FetchPage(ctx context.Context, pageUrl string) (string, error) {
	return e.fetch(ctx, pageUrl)
}

func (e *Engine) fetch(ctx context.Context, pageUrl string) (string, error) {
	ctx, span := tracer.Start(ctx, "fetch")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageUrl))

	if e.cache != nil {
		cached, err := e.cache.get(ctx, pageUrl)
		if err == nil {
			slog.Debug("cache hit", "url", pageUrl)
			return string(cached), nil
		}
		if err != errPageNotFound {
			slog.Warn("page cache read failed", "url", pageUrl, "err", err)
		}
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return "", err
	}
	waited, err := e.delay.Wait(ctx)
	if err != nil {
		return "", err
	}
	slog.Debug("fetching url", "url", pageUrl, "delayed", waited)

	var body []byte
	err = e.delay.ExecuteWithTiming(ctx, func(ctx context.Context) error {
		res, err := e.http.R().SetContext(ctx).Get(pageUrl)
		if err != nil {
			return err
		}
		if res.IsError() {
			return fmt.Errorf("http status %s fetching %s", res.Status(), pageUrl)
		}
		body = res.Body()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return "", err
	}

	if e.cache != nil {
		if err := e.cache.set(ctx, pageUrl, body); err != nil {
			slog.Warn("page cache write failed", "url", pageUrl, "err", err)
		}
	}
	return string(body), nil
}
