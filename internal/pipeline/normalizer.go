package pipeline

import (
	"math"
	"strings"

	"scraperpro/internal/models"
	"scraperpro/lib/textutil"
)

// Normalizer canonicalizes text, price and url fields. It transforms
// each record independently and never drops any.
type Normalizer struct{}

func NewNormalizer() Normalizer {
	return Normalizer{}
}

func (n Normalizer) Normalize(records []models.Record) []models.Record {
	normalized := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.Title != "" {
			r.Title = textutil.Clean(r.Title)
		}
		if r.Content != "" {
			r.Content = textutil.Clean(r.Content)
		}
		if r.Author != "" {
			r.Author = textutil.Clean(r.Author)
		}
		if r.Price != nil {
			r.Price = models.Price(math.Round(*r.Price*100) / 100)
		}
		// Intentionally a substring check, not a scheme parse: a url
		// like "httpfoo.com" stays unprefixed. Matches the long-standing
		// behavior downstream consumers rely on.
		if !strings.HasPrefix(r.Url, "http") {
			r.Url = "https://" + r.Url
		}
		normalized = append(normalized, r)
	}
	return normalized
}
