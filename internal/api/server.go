package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"scraperpro/internal/export"
	"scraperpro/internal/models"
	"scraperpro/internal/ratelimit"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server serves the latest processed batch over a small read-mostly
// json API.
type Server struct {
	store     *Store
	delay     *ratelimit.Controller
	startedAt time.Time
}

func NewServer(store *Store, delay *ratelimit.Controller) *Server {
	return &Server{
		store:     store,
		delay:     delay,
		startedAt: time.Now().UTC(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/data", s.handleData)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/sources", s.handleSources)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/export/json", s.handleExportJson)
	mux.HandleFunc("GET /api/export/csv", s.handleExportCsv)
	mux.HandleFunc("POST /api/update", s.handleUpdate)
	return otelhttp.NewHandler(mux, "api")
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	records := s.store.Snapshot()
	total := len(records)

	q := r.URL.Query()
	if source := q.Get("source"); source != "" {
		records = filterRecords(records, func(rec models.Record) bool {
			return rec.Source == source
		})
	}
	if category := q.Get("category"); category != "" {
		records = filterRecords(records, func(rec models.Record) bool {
			return rec.Category == category
		})
	}

	offset := intParam(q.Get("offset"), 0)
	if offset > len(records) {
		offset = len(records)
	}
	records = records[offset:]
	if limit := intParam(q.Get("limit"), 0); limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	writeJson(w, http.StatusOK, map[string]any{
		"total":   total,
		"count":   len(records),
		"records": records,
	})
}

func filterRecords(records []models.Record, keep func(models.Record) bool) []models.Record {
	var out []models.Record
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'q'")
		return
	}
	records := s.store.Search(query)
	writeJson(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]any{
		"sources": s.store.Sources(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"total_records":  s.store.Len(),
		"sources":        s.store.Sources(),
		"last_update":    s.store.UpdatedAt(),
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	}
	if s.delay != nil {
		stats["rate_limiter"] = s.delay.Stats()
	}
	writeJson(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (s *Server) handleExportJson(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "application/json")
	w.Header().Set("content-disposition", `attachment; filename="records.json"`)

	write := export.WriteJson
	if r.URL.Query().Get("compact") == "1" {
		write = export.WriteJsonCompact
	}
	if err := write(w, s.store.Snapshot()); err != nil {
		slog.Error("failed to stream json export", "err", err)
	}
}

func (s *Server) handleExportCsv(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "text/csv")
	w.Header().Set("content-disposition", `attachment; filename="records.csv"`)
	if err := export.WriteCsv(w, s.store.Snapshot()); err != nil {
		slog.Error("failed to stream csv export", "err", err)
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Records []models.Record `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	added := s.store.Upsert(body.Records)
	slog.Info("records pushed via api", "received", len(body.Records), "added", added)
	writeJson(w, http.StatusOK, map[string]any{
		"received": len(body.Records),
		"added":    added,
		"total":    s.store.Len(),
	})
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJson(w, status, map[string]string{"error": message})
}
