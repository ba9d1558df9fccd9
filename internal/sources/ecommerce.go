package sources

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"scraperpro/internal/models"
	"scraperpro/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	productContainerSelector   = ".product, .item, [data-product], .card, .goods"
	productTitleSelector       = ".title, .name, .product-name, h1, h2, h3"
	productPriceSelector       = ".price, .cost, [data-price], .amount, .current-price"
	productImageSelector       = "img, .image, .product-image"
	productDescriptionSelector = ".description, .details, .product-desc"
	productCategorySelector    = ".category, .tag, .breadcrumb li"
)

var priceRegex = regexp.MustCompile(`\$?(\d+(?:[.,]\d+)*)`)

type EcommerceSource struct {
	name    string
	baseUrl string
}

func NewEcommerceSource(baseUrl, name string) EcommerceSource {
	if name == "" {
		name = "Ecommerce Source"
	}
	return EcommerceSource{name: name, baseUrl: baseUrl}
}

func (s EcommerceSource) Name() string    { return s.name }
func (s EcommerceSource) BaseUrl() string { return s.baseUrl }

func (s EcommerceSource) Scrape(ctx context.Context, html string) ([]models.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var records []models.Record
	doc.Find(productContainerSelector).Each(func(_ int, product *goquery.Selection) {
		link := htmlutil.FirstAttr(product, "a", "href")
		record := models.NewRecord(s.name, resolveLink(s.baseUrl, link))

		record.Title = htmlutil.FirstText(product, productTitleSelector)
		record.Content = htmlutil.FirstText(product, productDescriptionSelector)
		record.ImageUrl = htmlutil.FirstAttr(product, productImageSelector, "src")
		if categories := htmlutil.SelectTexts(product, productCategorySelector); len(categories) > 0 {
			record.Category = strings.Join(categories, " > ")
		}

		if priceText := htmlutil.FirstText(product, productPriceSelector); priceText != "" {
			if price, ok := ParsePrice(priceText); ok {
				record.Price = models.Price(price)
				record.SetMetadata("price_text", priceText)
			}
		}

		records = append(records, record)
	})

	slog.Info("scraped products", "source", s.name, "count", len(records))
	return records, nil
}

// ParsePrice pulls the first decimal amount out of a price label like
// "$1,299.99" or "Now: 49.90 EUR".
func ParsePrice(text string) (float64, bool) {
	groups := priceRegex.FindStringSubmatch(text)
	if len(groups) < 2 {
		return 0, false
	}
	cleaned := strings.ReplaceAll(groups[1], ",", "")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
