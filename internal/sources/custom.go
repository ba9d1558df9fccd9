package sources

import (
	"context"
	"log/slog"
	"strings"

	"scraperpro/internal/models"
	"scraperpro/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// CustomSource extracts records with a caller-supplied selector set,
// typically written by hand in the config or produced by the selector
// assistant.
type CustomSource struct {
	name      string
	baseUrl   string
	selectors Selectors
}

func NewCustomSource(baseUrl, name string, selectors Selectors) CustomSource {
	if name == "" {
		name = "Custom Source"
	}
	if selectors.Container == "" {
		selectors.Container = "article, div, section, main"
	}
	return CustomSource{name: name, baseUrl: baseUrl, selectors: selectors}
}

func (s CustomSource) Name() string    { return s.name }
func (s CustomSource) BaseUrl() string { return s.baseUrl }

func (s CustomSource) Scrape(ctx context.Context, html string) ([]models.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var records []models.Record
	doc.Find(s.selectors.Container).Each(func(_ int, container *goquery.Selection) {
		link := ""
		if s.selectors.Link != "" {
			link = htmlutil.FirstAttr(container, s.selectors.Link, "href")
		}
		record := models.NewRecord(s.name, resolveLink(s.baseUrl, link))

		if s.selectors.Title != "" {
			record.Title = htmlutil.FirstText(container, s.selectors.Title)
		}
		if s.selectors.Content != "" {
			record.Content = htmlutil.FirstText(container, s.selectors.Content)
		}
		if s.selectors.Author != "" {
			record.Author = htmlutil.FirstText(container, s.selectors.Author)
		}
		if s.selectors.Image != "" {
			record.ImageUrl = htmlutil.FirstAttr(container, s.selectors.Image, "src")
		}
		if s.selectors.Price != "" {
			if priceText := htmlutil.FirstText(container, s.selectors.Price); priceText != "" {
				if price, ok := ParsePrice(priceText); ok {
					record.Price = models.Price(price)
					record.SetMetadata("price_text", priceText)
				}
			}
		}
		if s.selectors.Date != "" {
			if date := htmlutil.FirstText(container, s.selectors.Date); date != "" {
				record.SetMetadata("publish_date", date)
			}
		}

		// containers that matched nothing at all are noise, not records
		if record.Title == "" && record.Content == "" {
			return
		}
		records = append(records, record)
	})

	slog.Info("scraped custom source", "source", s.name, "count", len(records))
	return records, nil
}
