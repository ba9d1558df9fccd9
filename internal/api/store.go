package api

import (
	"strings"
	"sync"
	"time"

	"scraperpro/internal/models"
)

// Store holds the latest processed batch for the read API. The
// scrape loop replaces the snapshot wholesale after each cycle;
// readers always see a consistent batch.
type Store struct {
	mu        sync.RWMutex
	records   []models.Record
	updatedAt time.Time
}

func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a freshly processed batch.
func (s *Store) Replace(records []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.updatedAt = time.Now().UTC()
}

// Upsert merges records into the snapshot, keyed on record id.
func (s *Store) Upsert(records []models.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]int, len(s.records))
	for i, r := range s.records {
		index[r.Id] = i
	}
	added := 0
	for _, r := range records {
		if i, ok := index[r.Id]; ok {
			s.records[i] = r
			continue
		}
		s.records = append(s.records, r)
		added++
	}
	s.updatedAt = time.Now().UTC()
	return added
}

// Snapshot returns a copy of the current batch.
func (s *Store) Snapshot() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Search returns records whose title or content contains the query,
// case-insensitively.
func (s *Store) Search(query string) []models.Record {
	query = strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Record
	for _, r := range s.records {
		if strings.Contains(strings.ToLower(r.Title), query) ||
			strings.Contains(strings.ToLower(r.Content), query) {
			out = append(out, r)
		}
	}
	return out
}

// Sources returns per-source record counts.
func (s *Store) Sources() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[string]int{}
	for _, r := range s.records {
		counts[r.Source]++
	}
	return counts
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
