package sources

import (
	"context"
	"log/slog"
	"strings"

	"scraperpro/internal/models"
	"scraperpro/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// selectors shared by most news layouts
const (
	newsContainerSelector = "article, .story, .news-item, .post"
	newsTitleSelector     = "h1, h2, h3, .title, .headline"
	newsContentSelector   = "p, .content, .article-body, .summary"
	newsAuthorSelector    = ".author, .byline, .writer"
	newsDateSelector      = ".date, .time, .published, time"
)

type NewsSource struct {
	name    string
	baseUrl string
}

func NewNewsSource(baseUrl, name string) NewsSource {
	if name == "" {
		name = "News Source"
	}
	return NewsSource{name: name, baseUrl: baseUrl}
}

func (s NewsSource) Name() string    { return s.name }
func (s NewsSource) BaseUrl() string { return s.baseUrl }

func (s NewsSource) Scrape(ctx context.Context, html string) ([]models.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var records []models.Record
	doc.Find(newsContainerSelector).Each(func(_ int, article *goquery.Selection) {
		link := htmlutil.FirstAttr(article, "a", "href")
		record := models.NewRecord(s.name, resolveLink(s.baseUrl, link))

		record.Title = htmlutil.FirstText(article, newsTitleSelector)
		record.Content = htmlutil.FirstText(article, newsContentSelector)
		record.Author = htmlutil.FirstText(article, newsAuthorSelector)
		if date := htmlutil.FirstText(article, newsDateSelector); date != "" {
			record.SetMetadata("publish_date", date)
		}

		records = append(records, record)
	})

	slog.Info("scraped news articles", "source", s.name, "count", len(records))
	return records, nil
}
