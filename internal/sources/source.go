package sources

import (
	"context"
	"fmt"
	"net/url"

	"scraperpro/internal/models"
)

// Source turns a fetched page into raw records. Implementations are
// stateless: Scrape depends only on its input, so a single source value
// is safe to share between cycles.
type Source interface {
	Name() string
	BaseUrl() string
	Scrape(ctx context.Context, html string) ([]models.Record, error)
}

type Type string

const (
	TypeNews      Type = "news"
	TypeEcommerce Type = "ecommerce"
	TypeSocial    Type = "social"
	TypeCustom    Type = "custom"
)

// Selectors describes where each record field lives inside a container
// element. Empty selectors are skipped.
type Selectors struct {
	Container string `json:"container"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Price     string `json:"price"`
	Image     string `json:"image"`
	Author    string `json:"author"`
	Date      string `json:"date"`
	Link      string `json:"link"`
}

type Config struct {
	Type      Type      `json:"type"`
	Name      string    `json:"name"`
	Url       string    `json:"url"`
	Selectors Selectors `json:"selectors"`
	// per-source override of the delay between requests
	RateLimitMs int `json:"rate_limit_ms"`
}

func FromConfig(config Config) (Source, error) {
	switch config.Type {
	case TypeNews:
		return NewNewsSource(config.Url, config.Name), nil
	case TypeEcommerce:
		return NewEcommerceSource(config.Url, config.Name), nil
	case TypeSocial:
		return NewSocialSource(config.Url, config.Name), nil
	case TypeCustom:
		return NewCustomSource(config.Url, config.Name, config.Selectors), nil
	default:
		return nil, fmt.Errorf("unknown source type: %q", config.Type)
	}
}

// resolveLink makes href absolute against base. A failed parse falls
// back to base so a record never ends up with a junk url.
func resolveLink(base, href string) string {
	if href == "" {
		return base
	}
	baseUrl, err := url.Parse(base)
	if err != nil {
		return base
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base
	}
	return baseUrl.ResolveReference(ref).String()
}
