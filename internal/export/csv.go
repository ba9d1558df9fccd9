package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"scraperpro/internal/models"
)

var csvHeader = []string{
	"id", "source", "url", "title", "content", "price",
	"image_url", "author", "category", "timestamp",
}

// WriteCsv writes the batch as csv with a fixed header row. Metadata
// is folded into a trailing json column so nothing is lost on the way
// out.
func WriteCsv(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, csvHeader...), "metadata")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		price := ""
		if r.Price != nil {
			price = strconv.FormatFloat(*r.Price, 'f', 2, 64)
		}
		metadata := ""
		if len(r.Metadata) > 0 {
			encoded, err := json.Marshal(r.Metadata)
			if err != nil {
				return err
			}
			metadata = string(encoded)
		}
		row := []string{
			r.Id, r.Source, r.Url, r.Title, r.Content, price,
			r.ImageUrl, r.Author, r.Category,
			r.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			metadata,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCsv writes the batch to a file, replacing any previous export.
func SaveCsv(path string, records []models.Record) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCsv(f, records)
}
