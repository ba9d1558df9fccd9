package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"scraperpro/internal/models"

	_ "embed"
)

//go:embed schema.sql
var Schema string

// Store persists processed records to sqlite. Upserts key on record
// id so re-exporting a cycle is harmless.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const upsertRecord = `
INSERT INTO records (id, source, url, title, content, price, image_url, author, category, timestamp, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    source = excluded.source,
    url = excluded.url,
    title = excluded.title,
    content = excluded.content,
    price = excluded.price,
    image_url = excluded.image_url,
    author = excluded.author,
    category = excluded.category,
    timestamp = excluded.timestamp,
    metadata = excluded.metadata
`

// SaveRecords writes the batch inside a single transaction.
func (s *Store) SaveRecords(ctx context.Context, records []models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRecord)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		metadata, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", r.Id, err)
		}
		_, err = stmt.ExecContext(ctx,
			r.Id, r.Source, r.Url, r.Title, r.Content,
			priceValue(r.Price), r.ImageUrl, r.Author, r.Category,
			r.Timestamp.UTC().Format(time.RFC3339), string(metadata),
		)
		if err != nil {
			return fmt.Errorf("save record %s: %w", r.Id, err)
		}
	}
	return tx.Commit()
}

const listRecords = `
SELECT id, source, url, title, content, price, image_url, author, category, timestamp, metadata
FROM records
ORDER BY timestamp DESC
`

func (s *Store) ListRecords(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, listRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

const listRecordsBySource = `
SELECT id, source, url, title, content, price, image_url, author, category, timestamp, metadata
FROM records
WHERE source = ?
ORDER BY timestamp DESC
`

func (s *Store) ListRecordsBySource(ctx context.Context, source string) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, listRecordsBySource, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// CountBySource reports how many records each source has contributed.
func (s *Store) CountBySource(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM records GROUP BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		counts[source] = count
	}
	return counts, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	var records []models.Record
	for rows.Next() {
		var r models.Record
		var price sql.NullFloat64
		var timestamp, metadata string
		err := rows.Scan(
			&r.Id, &r.Source, &r.Url, &r.Title, &r.Content,
			&price, &r.ImageUrl, &r.Author, &r.Category,
			&timestamp, &metadata,
		)
		if err != nil {
			return nil, err
		}
		if price.Valid {
			r.Price = &price.Float64
		}
		r.Timestamp, err = time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp for %s: %w", r.Id, err)
		}
		if err := json.Unmarshal([]byte(metadata), &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", r.Id, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func priceValue(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
