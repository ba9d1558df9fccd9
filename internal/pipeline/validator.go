package pipeline

import (
	"log/slog"
	"strings"

	"scraperpro/internal/models"
)

// Validator filters out records that fail structural checks. It is a
// pure filter: rejected records are dropped, never reported as errors.
type Validator struct{}

func NewValidator() Validator {
	return Validator{}
}

func (v Validator) Validate(records []models.Record) []models.Record {
	valid := make([]models.Record, 0, len(records))
	for _, r := range records {
		if v.isValid(r) {
			valid = append(valid, r)
		}
	}
	return valid
}

func (v Validator) isValid(r models.Record) bool {
	if r.Title == "" && r.Content == "" {
		slog.Debug("record invalid: missing both title and content", "id", r.Id)
		return false
	}
	if !validUrl(r.Url) {
		slog.Debug("record invalid: bad url", "id", r.Id, "url", r.Url)
		return false
	}
	if r.Price != nil && (*r.Price < 0 || *r.Price > 1_000_000) {
		slog.Debug("record invalid: unreasonable price", "id", r.Id, "price", *r.Price)
		return false
	}
	if r.Content != "" && len(strings.TrimSpace(r.Content)) < 3 {
		slog.Debug("record invalid: content too short", "id", r.Id)
		return false
	}
	return true
}

func validUrl(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
