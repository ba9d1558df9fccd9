package pipeline

import (
	"strings"

	"scraperpro/internal/models"
)

// longContentThreshold is the trimmed content length above which content
// participates in dedup. Short snippets are exempt so that boilerplate-free
// stubs don't knock each other out.
const longContentThreshold = 50

// Deduplicator drops records already seen by url, title or long-content
// key in a single stable pass. First occurrence wins; records are never
// merged.
type Deduplicator struct{}

func NewDeduplicator() Deduplicator {
	return Deduplicator{}
}

func (d Deduplicator) Deduplicate(records []models.Record) []models.Record {
	seenUrls := map[string]struct{}{}
	seenTitles := map[string]struct{}{}
	seenContents := map[string]struct{}{}

	deduplicated := make([]models.Record, 0, len(records))
	for _, r := range records {
		urlKey := strings.ToLower(r.Url)
		titleKey := strings.ToLower(r.Title)
		contentKey := strings.ToLower(r.Content)
		longContent := len(strings.TrimSpace(r.Content)) > longContentThreshold

		// checked in fixed order: url, then title, then content; any
		// single hit rejects the record
		if _, ok := seenUrls[urlKey]; ok {
			continue
		}
		if r.Title != "" {
			if _, ok := seenTitles[titleKey]; ok {
				continue
			}
		}
		if r.Content != "" && longContent {
			if _, ok := seenContents[contentKey]; ok {
				continue
			}
		}

		seenUrls[urlKey] = struct{}{}
		if r.Title != "" {
			seenTitles[titleKey] = struct{}{}
		}
		if r.Content != "" && longContent {
			seenContents[contentKey] = struct{}{}
		}
		deduplicated = append(deduplicated, r)
	}
	return deduplicated
}
