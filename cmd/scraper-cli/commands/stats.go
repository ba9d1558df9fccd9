package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"scraperpro/lib/util/serviceutil"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsAddr *string

func init() {
	statsAddr = statsCmd.Flags().String("addr", "http://localhost:8000", "Address of the running scraperd.")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints record and rate limiter stats from a running scraperd.",
	Run: func(cmd *cobra.Command, args []string) {
		var stats struct {
			TotalRecords  int            `json:"total_records"`
			Sources       map[string]int `json:"sources"`
			LastUpdate    time.Time      `json:"last_update"`
			UptimeSeconds int            `json:"uptime_seconds"`
			RateLimiter   struct {
				Samples         int           `json:"samples"`
				AvgResponseTime time.Duration `json:"avg_response_time"`
				CurrentDelay    time.Duration `json:"current_delay"`
			} `json:"rate_limiter"`
		}

		client := resty.New().SetBaseURL(*statsAddr)
		res, err := client.R().SetContext(cmd.Context()).Get("/api/stats")
		if err != nil {
			serviceutil.Fatal("query scraperd", err)
		}
		if res.IsError() {
			serviceutil.Fatal("query scraperd", fmt.Errorf("http status %s", res.Status()))
		}
		if err := json.Unmarshal(res.Body(), &stats); err != nil {
			serviceutil.Fatal("parse stats", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Source", "Records"})
		for source, count := range stats.Sources {
			t.AppendRow(table.Row{source, count})
		}
		t.AppendFooter(table.Row{"total", stats.TotalRecords})
		t.SetStyle(table.StyleRounded)
		t.Render()

		fmt.Printf("last update: %s\n", stats.LastUpdate.Format(time.RFC3339))
		fmt.Printf("uptime: %s\n", (time.Duration(stats.UptimeSeconds) * time.Second))
		fmt.Printf("rate limiter: %d samples, avg response %s, current delay %s\n",
			stats.RateLimiter.Samples,
			stats.RateLimiter.AvgResponseTime,
			stats.RateLimiter.CurrentDelay,
		)
	},
}
