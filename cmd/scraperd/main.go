package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"scraperpro/internal/ai"
	"scraperpro/internal/api"
	"scraperpro/internal/engine"
	"scraperpro/internal/export"
	"scraperpro/internal/export/db"
	"scraperpro/internal/models"
	"scraperpro/internal/sources"
	"scraperpro/lib/configutil"
	"scraperpro/lib/sqliteutil"
	"scraperpro/lib/util/serviceutil"

	"github.com/dgraph-io/badger/v4"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if len(cfg.Sources) == 0 {
		serviceutil.Fatal("read config", errNoSources)
	}

	srcs := make([]sources.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		src, err := sources.FromConfig(sc)
		if err != nil {
			serviceutil.Fatal("init sources", err)
		}
		srcs = append(srcs, src)
	}

	var cache *badger.DB
	if cfg.Cache.Dir != "" {
		cache, err = badger.Open(badger.DefaultOptions(cfg.Cache.Dir))
		if err != nil {
			serviceutil.Fatal("open page cache", err)
		}
		defer cache.Close()
	}

	eng, err := engine.New(engine.Options{
		Client:   cfg.Client,
		Delay:    cfg.Delay.toRatelimit(),
		Pace:     time.Duration(cfg.PaceMs) * time.Millisecond,
		Cache:    cache,
		CacheTTL: time.Duration(cfg.Cache.TtlMinutes) * time.Minute,
	})
	if err != nil {
		serviceutil.Fatal("init engine", err)
	}

	var store *db.Store
	if cfg.Output.Database != "" {
		sqlite, err := sqliteutil.OpenDB(db.Schema, cfg.Output.Database)
		if err != nil {
			serviceutil.Fatal("open database", err)
		}
		defer sqlite.Close()
		store = db.NewStore(sqlite)
	}

	var normalizer *ai.Normalizer
	if cfg.Ai.Enabled && cfg.Ai.Normalize {
		client, err := ai.NewClient(cfg.Ai.Config)
		if err != nil {
			serviceutil.Fatal("init ai client", err)
		}
		if err := client.TestConnection(ctx); err != nil {
			serviceutil.Fatal("test ai connection", err)
		}
		normalizer = ai.NewNormalizer(client)
	}

	snapshot := api.NewStore()
	server := api.NewServer(snapshot, eng.Delay())
	port := cfg.ApiPort
	if port == 0 {
		port = 8000
	}
	go serviceutil.StartHttpServer(ctx, port, server.Handler())

	d := daemon{
		cfg:        cfg,
		engine:     eng,
		sources:    srcs,
		snapshot:   snapshot,
		store:      store,
		normalizer: normalizer,
	}
	d.run(ctx)
}

type daemon struct {
	cfg        Config
	engine     *engine.Engine
	sources    []sources.Source
	snapshot   *api.Store
	store      *db.Store
	normalizer *ai.Normalizer
}

func (d daemon) run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.interval())
	defer ticker.Stop()

	d.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.cycle(ctx)
		}
	}
}

func (d daemon) cycle(ctx context.Context) {
	started := time.Now()
	slog.Info("starting scrape cycle", "sources", len(d.sources))

	raw := d.engine.ScrapeAll(ctx, d.sources)
	processed := d.engine.Process(ctx, raw)
	if d.normalizer != nil {
		processed = d.normalizer.NormalizeAll(ctx, processed)
	}

	d.snapshot.Replace(processed)
	d.export(ctx, processed)

	slog.Info("scrape cycle complete",
		"raw", len(raw),
		"processed", len(processed),
		"elapsed", time.Since(started),
	)
}

func (d daemon) export(ctx context.Context, records []models.Record) {
	if d.cfg.Output.Json != "" {
		if err := export.SaveJson(d.cfg.Output.Json, records); err != nil {
			slog.Error("failed to write json export", "path", d.cfg.Output.Json, "err", err)
		}
	}
	if d.cfg.Output.Csv != "" {
		if err := export.SaveCsv(d.cfg.Output.Csv, records); err != nil {
			slog.Error("failed to write csv export", "path", d.cfg.Output.Csv, "err", err)
		}
	}
	if d.store != nil {
		if err := d.store.SaveRecords(ctx, records); err != nil {
			slog.Error("failed to save records to database", "err", err)
		}
	}
}
