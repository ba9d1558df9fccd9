package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scraperpro/internal/sources"
)

const selectorSystemPrompt = `You are an expert web scraping assistant. Your task is to analyze HTML and suggest optimal CSS selectors for extracting structured data.

Rules:
1. Provide selectors in standard CSS format
2. Prefer class names and data attributes over complex paths
3. Focus on selectors that are stable and unlikely to change
4. Return ONLY valid JSON, no additional text
5. If a field is not found, use null

Return JSON in this exact format:
{
  "container": "CSS selector for the repeating item container",
  "title": "CSS selector for title",
  "price": "CSS selector for price",
  "image": "CSS selector for image (src attribute)",
  "category": "CSS selector for category",
  "content": "CSS selector for description/content",
  "author": "CSS selector for author",
  "date": "CSS selector for date",
  "link": "CSS selector for link",
  "confidence": 0.85
}`

// keep prompts under the model's context limit
const maxHtmlSampleBytes = 8000

// DetectedSelectors is what the model recommends for a domain, plus
// enough context to judge whether a cached copy is still trustworthy.
type DetectedSelectors struct {
	Domain      string            `json:"domain"`
	Selectors   sources.Selectors `json:"selectors"`
	Confidence  float64           `json:"confidence"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// SelectorAssistant asks the model for CSS selectors and caches the
// answers as per-domain json files.
type SelectorAssistant struct {
	client *Client
	dir    string
}

func NewSelectorAssistant(client *Client, dir string) *SelectorAssistant {
	if dir == "" {
		dir = "selectors"
	}
	return &SelectorAssistant{client: client, dir: dir}
}

// DetectSelectors sends an HTML sample to the model and parses its
// recommendation.
func (a *SelectorAssistant) DetectSelectors(ctx context.Context, domain, htmlSample string) (DetectedSelectors, error) {
	slog.Info("detecting selectors", "domain", domain)

	if len(htmlSample) > maxHtmlSampleBytes {
		htmlSample = htmlSample[:maxHtmlSampleBytes]
	}
	userPrompt := fmt.Sprintf(
		"Domain: %s\n\nAnalyze this HTML and extract optimal selectors for e-commerce products or articles:\n\n%s",
		domain, htmlSample,
	)

	content, err := a.client.AskWithSystem(ctx, selectorSystemPrompt, userPrompt)
	if err != nil {
		return DetectedSelectors{}, fmt.Errorf("selector detection request: %w", err)
	}
	return parseDetectedSelectors(domain, content)
}

func parseDetectedSelectors(domain, content string) (DetectedSelectors, error) {
	var payload struct {
		sources.Selectors
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(ExtractJson(content)), &payload); err != nil {
		return DetectedSelectors{}, fmt.Errorf("parse selector response: %w", err)
	}
	return DetectedSelectors{
		Domain:      domain,
		Selectors:   payload.Selectors,
		Confidence:  payload.Confidence,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (a *SelectorAssistant) path(domain string) string {
	return filepath.Join(a.dir, sanitizeDomain(domain)+".selectors.json")
}

func (a *SelectorAssistant) Save(selectors DetectedSelectors) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", err
	}
	encoded, err := json.MarshalIndent(selectors, "", "  ")
	if err != nil {
		return "", err
	}
	path := a.path(selectors.Domain)
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", err
	}
	slog.Info("saved selectors", "domain", selectors.Domain, "path", path)
	return path, nil
}

func (a *SelectorAssistant) Load(domain string) (DetectedSelectors, error) {
	raw, err := os.ReadFile(a.path(domain))
	if err != nil {
		return DetectedSelectors{}, err
	}
	var selectors DetectedSelectors
	if err := json.Unmarshal(raw, &selectors); err != nil {
		return DetectedSelectors{}, fmt.Errorf("parse selectors file: %w", err)
	}
	return selectors, nil
}

func (a *SelectorAssistant) Has(domain string) bool {
	_, err := os.Stat(a.path(domain))
	return err == nil
}

// GetOrDetect returns cached selectors when present, otherwise asks the
// model and caches the result.
func (a *SelectorAssistant) GetOrDetect(ctx context.Context, domain, htmlSample string) (DetectedSelectors, error) {
	if a.Has(domain) {
		slog.Info("using cached selectors", "domain", domain)
		return a.Load(domain)
	}
	selectors, err := a.DetectSelectors(ctx, domain, htmlSample)
	if err != nil {
		return DetectedSelectors{}, err
	}
	if _, err := a.Save(selectors); err != nil {
		return DetectedSelectors{}, err
	}
	return selectors, nil
}

// ExtractJson strips the markdown code fence the model sometimes wraps
// its json answer in.
func ExtractJson(content string) string {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func sanitizeDomain(domain string) string {
	replacer := strings.NewReplacer(
		"://", "_", "/", "_", "\\", "_", ":", "_",
		"*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
	)
	return replacer.Replace(domain)
}
