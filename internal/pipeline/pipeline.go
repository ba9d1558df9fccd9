package pipeline

import (
	"context"

	"scraperpro/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("internal/pipeline")

// Pipeline runs a batch of freshly extracted records through
// validation, normalization and deduplication, in that fixed order.
// It holds no mutable state, so a single value is safe to share
// between concurrent scrape cycles.
type Pipeline struct {
	validator    Validator
	normalizer   Normalizer
	deduplicator Deduplicator
}

func New() Pipeline {
	return Pipeline{
		validator:    NewValidator(),
		normalizer:   NewNormalizer(),
		deduplicator: NewDeduplicator(),
	}
}

// Process returns the cleaned batch. An empty result is a normal
// outcome, not an error: a batch that entirely fails validation simply
// yields zero records.
func (p Pipeline) Process(ctx context.Context, records []models.Record) []models.Record {
	ctx, span := tracer.Start(ctx, "Process")
	defer span.End()
	span.SetAttributes(attribute.Int("input_count", len(records)))

	records = p.validator.Validate(records)
	span.SetAttributes(attribute.Int("valid_count", len(records)))

	records = p.normalizer.Normalize(records)

	records = p.deduplicator.Deduplicate(records)
	span.SetAttributes(attribute.Int("output_count", len(records)))

	return records
}
