package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"scraperpro/internal/models"
)

// jsonDocument wraps an exported batch with enough context to tell
// separate runs apart.
type jsonDocument struct {
	ExportedAt time.Time       `json:"exported_at"`
	Count      int             `json:"count"`
	Records    []models.Record `json:"records"`
}

// WriteJson writes the batch as an indented json document.
func WriteJson(w io.Writer, records []models.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDocument{
		ExportedAt: time.Now().UTC(),
		Count:      len(records),
		Records:    records,
	})
}

// WriteJsonCompact writes the batch without indentation, for feeds
// consumed by machines rather than people.
func WriteJsonCompact(w io.Writer, records []models.Record) error {
	return json.NewEncoder(w).Encode(jsonDocument{
		ExportedAt: time.Now().UTC(),
		Count:      len(records),
		Records:    records,
	})
}

// SaveJson writes the batch to a file, replacing any previous export.
func SaveJson(path string, records []models.Record) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJson(f, records)
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
