package models

import (
	"time"

	"github.com/google/uuid"
)

// Record is a single item extracted from a source page. The optional
// text fields use the empty string to mean "not extracted", since the
// extraction layer never produces an empty-but-present value. Price
// keeps a pointer because zero is a meaningful price.
type Record struct {
	Id        string            `json:"id"`
	Source    string            `json:"source"`
	Url       string            `json:"url"`
	Title     string            `json:"title,omitempty"`
	Content   string            `json:"content,omitempty"`
	Price     *float64          `json:"price,omitempty"`
	ImageUrl  string            `json:"image_url,omitempty"`
	Author    string            `json:"author,omitempty"`
	Category  string            `json:"category,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewRecord assigns the id and creation timestamp exactly once.
func NewRecord(source, url string) Record {
	return Record{
		Id:        uuid.NewString(),
		Source:    source,
		Url:       url,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]string{},
	}
}

func (r *Record) SetMetadata(key, value string) {
	if r.Metadata == nil {
		r.Metadata = map[string]string{}
	}
	r.Metadata[key] = value
}

func Price(v float64) *float64 {
	return &v
}
