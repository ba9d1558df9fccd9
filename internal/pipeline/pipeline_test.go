package pipeline

import (
	"context"
	"strings"
	"testing"

	"scraperpro/internal/models"

	"github.com/stretchr/testify/require"
)

func record(url, title, content string) models.Record {
	r := models.NewRecord("test", url)
	r.Title = title
	r.Content = content
	return r
}

func TestValidatorAcceptance(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name   string
		record models.Record
		valid  bool
	}{
		{"title only", record("https://example.com/a", "a title", ""), true},
		{"content only", record("https://example.com/b", "", "some content"), true},
		{"no title no content", record("https://example.com/c", "", ""), false},
		{"plain http url", record("http://example.com/d", "t", ""), true},
		{"missing scheme", record("example.com/e", "t", ""), false},
		{"uppercase scheme rejected", record("HTTPS://example.com/f", "t", ""), false},
		{"content too short", record("https://example.com/g", "", "ab"), false},
		{"content exactly three chars", record("https://example.com/h", "", "abc"), true},
		{"content short after trim", record("https://example.com/i", "", "  ab  "), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := v.Validate([]models.Record{c.record})
			if c.valid {
				require.Len(t, out, 1)
			} else {
				require.Empty(t, out)
			}
		})
	}
}

func TestValidatorPriceBounds(t *testing.T) {
	v := NewValidator()

	ok := record("https://example.com/p", "item", "")
	ok.Price = models.Price(999_999.99)
	free := record("https://example.com/q", "item", "")
	free.Price = models.Price(0)
	negative := record("https://example.com/r", "item", "")
	negative.Price = models.Price(-0.01)
	absurd := record("https://example.com/s", "item", "")
	absurd.Price = models.Price(1_000_000.01)

	out := v.Validate([]models.Record{ok, free, negative, absurd})
	require.Len(t, out, 2)
	require.Equal(t, ok.Id, out[0].Id)
	require.Equal(t, free.Id, out[1].Id)
}

func TestValidatorIsSubsequenceFilter(t *testing.T) {
	v := NewValidator()

	input := []models.Record{
		record("https://example.com/1", "one", ""),
		record("nope", "", ""),
		record("https://example.com/2", "two", ""),
		record("https://example.com/3", "", "x"),
		record("https://example.com/4", "four", ""),
	}
	out := v.Validate(input)

	require.Len(t, out, 3)
	require.Equal(t, input[0].Id, out[0].Id)
	require.Equal(t, input[2].Id, out[1].Id)
	require.Equal(t, input[4].Id, out[2].Id)
}

func TestNormalizerPreservesCount(t *testing.T) {
	n := NewNormalizer()

	input := []models.Record{
		record("a", "", ""),
		record("b", " messy \n title ", ""),
		record("c", "", "short"),
	}
	require.Len(t, n.Normalize(input), len(input))
	require.Empty(t, n.Normalize(nil))
}

func TestNormalizerText(t *testing.T) {
	n := NewNormalizer()

	r := record("https://example.com", "  Hello   World  \n\n", "line1\nline2\tend")
	r.Author = "José  García"
	out := n.Normalize([]models.Record{r})

	require.Equal(t, "Hello World", out[0].Title)
	require.Equal(t, "line1 line2 end", out[0].Content)
	require.Equal(t, "Jos Garca", out[0].Author)
}

func TestNormalizerPriceRounding(t *testing.T) {
	n := NewNormalizer()

	r := record("https://example.com", "item", "")
	r.Price = models.Price(123.456789)
	out := n.Normalize([]models.Record{r})
	require.InDelta(t, 123.46, *out[0].Price, 1e-9)

	r2 := record("https://example.com", "item", "")
	r2.Price = models.Price(9.879)
	out = n.Normalize([]models.Record{r2})
	require.InDelta(t, 9.88, *out[0].Price, 1e-9)
}

func TestNormalizerUrlPrefix(t *testing.T) {
	n := NewNormalizer()

	cases := []struct {
		in, out string
	}{
		{"example.com/page", "https://example.com/page"},
		{"https://example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		// substring check on purpose: anything starting with "http" is
		// left alone, even when it is not a real scheme
		{"httpfoo.com", "httpfoo.com"},
	}
	for _, c := range cases {
		out := n.Normalize([]models.Record{record(c.in, "t", "")})
		require.Equal(t, c.out, out[0].Url)
	}
}

func TestDeduplicateByUrl(t *testing.T) {
	d := NewDeduplicator()

	first := record("https://example.com/1", "first title", "")
	second := record("https://example.com/1", "completely different title", "")
	out := d.Deduplicate([]models.Record{first, second})

	require.Len(t, out, 1)
	require.Equal(t, first.Id, out[0].Id)
}

func TestDeduplicateUrlCaseInsensitive(t *testing.T) {
	d := NewDeduplicator()

	first := record("https://Example.com/Page", "a", "")
	second := record("https://example.com/page", "b", "")
	out := d.Deduplicate([]models.Record{first, second})

	require.Len(t, out, 1)
	require.Equal(t, first.Id, out[0].Id)
}

func TestDeduplicateByTitleAcrossUrls(t *testing.T) {
	d := NewDeduplicator()

	first := record("https://example.com/1", "Same Title", "")
	second := record("https://example.com/2", "same title", "")
	out := d.Deduplicate([]models.Record{first, second})

	require.Len(t, out, 1)
	require.Equal(t, first.Id, out[0].Id)
}

func TestDeduplicateShortContentExempt(t *testing.T) {
	d := NewDeduplicator()

	shared := "short snippet"
	first := record("https://example.com/1", "one", shared)
	second := record("https://example.com/2", "two", shared)
	out := d.Deduplicate([]models.Record{first, second})

	require.Len(t, out, 2)
}

func TestDeduplicateLongContent(t *testing.T) {
	d := NewDeduplicator()

	long := strings.Repeat("duplicated content ", 5)
	require.Greater(t, len(strings.TrimSpace(long)), 50)

	first := record("https://example.com/1", "one", long)
	second := record("https://example.com/2", "two", long)
	out := d.Deduplicate([]models.Record{first, second})

	require.Len(t, out, 1)
	require.Equal(t, first.Id, out[0].Id)
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	d := NewDeduplicator()

	long := strings.Repeat("abcdef ", 10)
	input := []models.Record{
		record("https://example.com/1", "one", ""),
		record("https://example.com/1", "dupe url", ""),
		record("https://example.com/2", "one", ""),
		record("https://example.com/3", "three", long),
		record("https://example.com/4", "four", long),
		record("https://example.com/5", "five", "tiny"),
		record("https://example.com/6", "six", "tiny"),
	}

	once := d.Deduplicate(input)
	twice := d.Deduplicate(once)
	require.Equal(t, once, twice)
}

func TestPipelineProcess(t *testing.T) {
	p := New()
	ctx := context.Background()

	invalid := record("not-a-url", "", "")
	messy := record("https://example.com/a", "  Messy   Title \n", "")
	dupe := record("https://example.com/a", "other", "")
	kept := record("https://example.com/b", "another page", "")

	out := p.Process(ctx, []models.Record{invalid, messy, dupe, kept})

	require.Len(t, out, 2)
	require.Equal(t, "Messy Title", out[0].Title)
	require.Equal(t, kept.Id, out[1].Id)
}

func TestPipelineEmptyBatch(t *testing.T) {
	p := New()

	out := p.Process(context.Background(), nil)
	require.Empty(t, out)

	out = p.Process(context.Background(), []models.Record{record("junk", "", "")})
	require.Empty(t, out)
}
