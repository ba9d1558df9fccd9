package commands

import (
	"fmt"
	"os"
	"time"

	"scraperpro/internal/engine"
	"scraperpro/internal/export"
	"scraperpro/internal/export/db"
	"scraperpro/internal/models"
	"scraperpro/internal/ratelimit"
	"scraperpro/internal/sources"
	"scraperpro/lib/restyutil"
	"scraperpro/lib/sqliteutil"
	"scraperpro/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeType    *string
	scrapeName    *string
	scrapeJsonOut *string
	scrapeCsvOut  *string
	scrapeDbOut   *string
	scrapeDebug   *bool
)

func init() {
	scrapeType = scrapeCmd.Flags().String("type", "news", "Source type: news, ecommerce, social or custom.")
	scrapeName = scrapeCmd.Flags().String("name", "", "Source name used in the records.")
	scrapeJsonOut = scrapeCmd.Flags().String("json", "", "Write the processed records to a json file.")
	scrapeCsvOut = scrapeCmd.Flags().String("csv", "", "Write the processed records to a csv file.")
	scrapeDbOut = scrapeCmd.Flags().String("db", "", "Write the processed records to a sqlite database.")
	scrapeDebug = scrapeCmd.Flags().Bool("debug", false, "Capture http exchanges to .dev/resty/scrape.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrapes a single page, runs the processing pipeline and prints the records.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if *scrapeDebug {
			engine.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/scrape"))
		}

		src, err := sources.FromConfig(sources.Config{
			Type: sources.Type(*scrapeType),
			Name: *scrapeName,
			Url:  args[0],
		})
		if err != nil {
			serviceutil.Fatal("init source", err)
		}

		eng, err := engine.New(engine.Options{
			Delay: ratelimit.Config{
				Mode:       ratelimit.Fixed,
				MinDelay:   100 * time.Millisecond,
				MaxDelay:   time.Second,
				SampleSize: 10,
				Multiplier: 1.2,
			},
		})
		if err != nil {
			serviceutil.Fatal("init engine", err)
		}

		ctx := cmd.Context()
		raw, err := eng.ScrapeSource(ctx, src)
		if err != nil {
			serviceutil.Fatal("scrape page", err)
		}
		records := eng.Process(ctx, raw)

		renderRecords(records)
		fmt.Printf("%d raw, %d after processing\n", len(raw), len(records))

		if *scrapeJsonOut != "" {
			if err := export.SaveJson(*scrapeJsonOut, records); err != nil {
				serviceutil.Fatal("write json output", err)
			}
		}
		if *scrapeCsvOut != "" {
			if err := export.SaveCsv(*scrapeCsvOut, records); err != nil {
				serviceutil.Fatal("write csv output", err)
			}
		}
		if *scrapeDbOut != "" {
			out, err := sqliteutil.OpenDB(db.Schema, *scrapeDbOut)
			if err != nil {
				serviceutil.Fatal("open output db", err)
			}
			defer out.Close()
			if err := db.NewStore(out).SaveRecords(ctx, records); err != nil {
				serviceutil.Fatal("write db output", err)
			}
		}
	},
}

func renderRecords(records []models.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Title", "Price", "Author", "Url"})

	for _, r := range records {
		price := ""
		if r.Price != nil {
			price = fmt.Sprintf("%.2f", *r.Price)
		}
		t.AppendRow(table.Row{truncate(r.Title, 48), price, r.Author, truncate(r.Url, 64)})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
