package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"scraperpro/internal/models"
)

const normalizerSystemPrompt = `You are a data normalization expert. Your task is to clean, standardize, and deduplicate scraped data.

Rules for normalization:
1. Field names: use the schema id, title, price_usd, image, category, source, timestamp
2. Prices: convert all prices to numeric USD (GBP to USD: multiply by 1.27, EUR to USD: multiply by 1.08), remove currency symbols and text
3. Deduplication: remove exact duplicates based on title + source
4. Data quality: remove items with no title
5. Standardization: trim whitespace, normalize categories to title case, ensure URLs are valid
6. Output: return ONLY a valid JSON array, no additional text

Expected output format:
[
  {
    "id": "uuid",
    "title": "Clean Title",
    "price_usd": 123.45,
    "image": "https://example.com/image.jpg",
    "category": "Category Name",
    "source": "Source Name",
    "timestamp": "ISO8601 timestamp",
    "metadata": {"key": "value"}
  }
]`

// Normalizer sends batches of records through the model for a second,
// semantic cleaning pass on top of the deterministic pipeline.
type Normalizer struct {
	client    *Client
	batchSize int
}

func NewNormalizer(client *Client) *Normalizer {
	return &Normalizer{client: client, batchSize: 50}
}

func (n *Normalizer) WithBatchSize(size int) *Normalizer {
	if size > 0 {
		n.batchSize = size
	}
	return n
}

type normalizedItem struct {
	Id        string            `json:"id"`
	Title     string            `json:"title"`
	PriceUsd  *float64          `json:"price_usd"`
	Image     string            `json:"image"`
	Category  string            `json:"category"`
	Source    string            `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata"`
}

// NormalizeBatch refines one batch. The model's answer is joined back
// onto the input by record id; records the model dropped stay dropped,
// records it invented are ignored.
func (n *Normalizer) NormalizeBatch(ctx context.Context, records []models.Record) ([]models.Record, error) {
	if len(records) == 0 {
		return nil, nil
	}

	encoded, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	content, err := n.client.AskWithSystem(ctx, normalizerSystemPrompt,
		fmt.Sprintf("Normalize and refine this scraped data:\n\n%s", encoded))
	if err != nil {
		return nil, fmt.Errorf("normalization request: %w", err)
	}
	return mergeNormalized(records, content)
}

// NormalizeAll refines every record, batched to stay under token
// limits. A failing batch keeps its records as-is rather than losing
// them.
func (n *Normalizer) NormalizeAll(ctx context.Context, records []models.Record) []models.Record {
	var out []models.Record
	for start := 0; start < len(records); start += n.batchSize {
		end := min(start+n.batchSize, len(records))
		batch := records[start:end]

		normalized, err := n.NormalizeBatch(ctx, batch)
		if err != nil {
			slog.Warn("normalization batch failed, keeping records unrefined",
				"batch_start", start, "err", err)
			out = append(out, batch...)
			continue
		}
		out = append(out, normalized...)
	}
	slog.Info("ai normalization complete", "input", len(records), "output", len(out))
	return out
}

func mergeNormalized(records []models.Record, content string) ([]models.Record, error) {
	var items []normalizedItem
	if err := json.Unmarshal([]byte(ExtractJson(content)), &items); err != nil {
		return nil, fmt.Errorf("parse normalization response: %w", err)
	}

	byId := make(map[string]models.Record, len(records))
	for _, r := range records {
		byId[r.Id] = r
	}

	var out []models.Record
	for _, item := range items {
		record, ok := byId[item.Id]
		if !ok {
			slog.Debug("dropping record invented by model", "id", item.Id)
			continue
		}
		if item.Title != "" {
			record.Title = item.Title
		}
		if item.PriceUsd != nil {
			record.Price = item.PriceUsd
		}
		if item.Image != "" {
			record.ImageUrl = item.Image
		}
		if item.Category != "" {
			record.Category = item.Category
		}
		for k, v := range item.Metadata {
			record.SetMetadata(k, v)
		}
		out = append(out, record)
	}
	return out, nil
}
