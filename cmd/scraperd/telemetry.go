package main

import (
	"context"
	"log/slog"

	"scraperpro/lib/telemetry"
	"scraperpro/lib/util/serviceutil"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	tel, err := telemetry.SetupFromEnv(ctx, "scraperd")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		tel.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)
}
