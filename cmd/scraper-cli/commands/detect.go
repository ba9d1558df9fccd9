package commands

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"scraperpro/internal/ai"
	"scraperpro/internal/engine"
	"scraperpro/internal/ratelimit"
	"scraperpro/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var detectDir *string

func init() {
	detectDir = detectCmd.Flags().String("selectors", "selectors", "Directory the detected selectors are cached in.")
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect <url>",
	Short: "Asks the model for CSS selectors matching a page's layout.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pageUrl := args[0]
		parsed, err := url.Parse(pageUrl)
		if err != nil {
			serviceutil.Fatal("parse url", err)
		}

		client, err := ai.NewClient(ai.Config{})
		if err != nil {
			serviceutil.Fatal("init ai client", err)
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
		html, err := eng.FetchPage(ctx, pageUrl)
		if err != nil {
			serviceutil.Fatal("fetch page", err)
		}

		assistant := ai.NewSelectorAssistant(client, *detectDir)
		detected, err := assistant.GetOrDetect(ctx, parsed.Host, html)
		if err != nil {
			serviceutil.Fatal("detect selectors", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Field", "Selector"})
		t.AppendRows([]table.Row{
			{"container", detected.Selectors.Container},
			{"title", detected.Selectors.Title},
			{"content", detected.Selectors.Content},
			{"price", detected.Selectors.Price},
			{"image", detected.Selectors.Image},
			{"author", detected.Selectors.Author},
			{"date", detected.Selectors.Date},
			{"link", detected.Selectors.Link},
		})
		t.SetStyle(table.StyleRounded)
		t.Render()

		fmt.Printf("confidence: %.0f%%\n", detected.Confidence*100)
	},
}
