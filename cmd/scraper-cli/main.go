package main

import (
	"context"

	"scraperpro/cmd/scraper-cli/commands"
	"scraperpro/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "scraper-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
