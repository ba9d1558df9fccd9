package sources

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"scraperpro/internal/models"
	"scraperpro/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	mentionRegex = regexp.MustCompile(`@(\w+)`)
	hashtagRegex = regexp.MustCompile(`#(\w+)`)
)

// platform-specific container/field selectors; the generic entry is
// used for any platform without a dedicated profile
var socialProfiles = map[string]socialProfile{
	"twitter": {
		container: `[data-testid="tweet"]`,
		content:   `[data-testid="tweetText"]`,
		author:    `[data-testid="User-Name"]`,
		date:      "time",
	},
	"reddit": {
		container: ".thing, [data-testid=\"post-container\"]",
		title:     "h3, .title a",
		content:   ".usertext-body, [data-click-id=\"text\"]",
		author:    ".author",
		date:      "time",
	},
	"generic": {
		container: ".post, .status, .update, article",
		title:     "h1, h2, h3, .title",
		content:   ".content, .text, .body, p",
		author:    ".author, .username, .user",
		date:      "time, .timestamp",
	},
}

type socialProfile struct {
	container string
	title     string
	content   string
	author    string
	date      string
}

type SocialSource struct {
	name    string
	baseUrl string
	profile socialProfile
}

// NewSocialSource picks a platform profile by name; unknown platforms
// fall back to generic post selectors.
func NewSocialSource(baseUrl, name string) SocialSource {
	if name == "" {
		name = "Social Media Source"
	}
	profile, ok := socialProfiles[strings.ToLower(name)]
	if !ok {
		profile = socialProfiles["generic"]
	}
	return SocialSource{name: name, baseUrl: baseUrl, profile: profile}
}

func Twitter() SocialSource {
	return NewSocialSource("https://twitter.com", "Twitter")
}

func Reddit() SocialSource {
	return NewSocialSource("https://reddit.com", "Reddit")
}

func (s SocialSource) Name() string    { return s.name }
func (s SocialSource) BaseUrl() string { return s.baseUrl }

func (s SocialSource) Scrape(ctx context.Context, html string) ([]models.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var records []models.Record
	doc.Find(s.profile.container).Each(func(_ int, post *goquery.Selection) {
		link := htmlutil.FirstAttr(post, "a", "href")
		record := models.NewRecord(s.name, resolveLink(s.baseUrl, link))

		if s.profile.title != "" {
			record.Title = htmlutil.FirstText(post, s.profile.title)
		}
		record.Content = htmlutil.FirstText(post, s.profile.content)
		record.Author = htmlutil.FirstText(post, s.profile.author)
		if date := htmlutil.FirstText(post, s.profile.date); date != "" {
			record.SetMetadata("posted_at", date)
		}

		if record.Content != "" {
			if mentions := captures(mentionRegex, record.Content); len(mentions) > 0 {
				record.SetMetadata("mentions", strings.Join(mentions, ","))
			}
			if hashtags := captures(hashtagRegex, record.Content); len(hashtags) > 0 {
				record.SetMetadata("hashtags", strings.Join(hashtags, ","))
			}
		}

		records = append(records, record)
	})

	slog.Info("scraped social posts", "source", s.name, "count", len(records))
	return records, nil
}

func captures(re *regexp.Regexp, text string) []string {
	var out []string
	for _, groups := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, groups[1])
	}
	return out
}
