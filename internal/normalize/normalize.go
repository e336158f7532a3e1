// Package normalize converts raw feed items into canonical article drafts:
// plaintext summaries, canonical timestamps, resolved links and typed image
// hints, regardless of which feed schema the item came from.
package normalize

import (
	"errors"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/agriwatch/newscrawler/internal/article"
	"github.com/agriwatch/newscrawler/internal/images"
	"github.com/agriwatch/newscrawler/internal/sources"
)

var (
	ErrNoTitle = errors.New("item has no title")
	ErrTooOld  = errors.New("item is older than the recency window")
	ErrNoLink  = errors.New("item has no usable link")
)

// Normalizer turns gofeed items into Drafts. It is safe for concurrent use.
type Normalizer struct {
	strip  *bluemonday.Policy
	maxAge time.Duration
	now    func() time.Time
}

func New(maxAge time.Duration) *Normalizer {
	return &Normalizer{
		strip:  bluemonday.StrictPolicy(),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// WithClock replaces the clock, for deterministic tests.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize builds a Draft from one raw feed item. Items without a title or
// link are rejected; an unparseable date is substituted with the current
// time rather than failing the item.
func (n *Normalizer) Normalize(item *gofeed.Item, src sources.Source) (article.Draft, error) {
	title := collapseSpace(html.UnescapeString(n.strip.Sanitize(item.Title)))
	if title == "" {
		return article.Draft{}, ErrNoTitle
	}

	link := pickLink(item, src.Endpoint)
	if link == "" {
		return article.Draft{}, ErrNoLink
	}

	published, valid := n.parsePublished(item)
	if n.maxAge > 0 && valid && n.now().Sub(published) > n.maxAge {
		return article.Draft{}, ErrTooOld
	}

	return article.Draft{
		Title:          title,
		Link:           link,
		Published:      published,
		PublishedValid: valid,
		Summary:        n.pickSummary(item, title),
		Source:         src.Name,
		SourceDomain:   Domain(link),
		Publisher:      extractPublisher(item),
		ImageHint:      extractImageHint(item, link),
	}, nil
}

// parsePublished canonicalizes the publish date. gofeed handles the common
// formats; dateparse catches the long tail of nonstandard ones.
func (n *Normalizer) parsePublished(item *gofeed.Item) (time.Time, bool) {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed, true
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed, true
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t, true
		}
	}
	return n.now(), false
}

// pickSummary strips markup from the richest content field, preferring full
// body over description. Anything shorter than 5 characters falls back to
// the title.
func (n *Normalizer) pickSummary(item *gofeed.Item, title string) string {
	for _, raw := range []string{item.Content, item.Description} {
		if raw == "" {
			continue
		}
		text := collapseSpace(html.UnescapeString(n.strip.Sanitize(raw)))
		if len(text) >= 5 {
			return text
		}
	}
	return title
}

func pickLink(item *gofeed.Item, base string) string {
	link := strings.TrimSpace(item.Link)
	if link == "" && len(item.Links) > 0 {
		link = strings.TrimSpace(item.Links[0])
	}
	if link == "" {
		return ""
	}
	return ResolveURL(base, link)
}

// extractImageHint probes the feed item's metadata fields in a fixed order
// and keeps the first candidate that looks like a real content image.
func extractImageHint(item *gofeed.Item, link string) string {
	for _, candidate := range imageCandidates(item) {
		resolved := ResolveURL(link, candidate)
		if images.LooksLikeImageURL(resolved) {
			return resolved
		}
	}
	return ""
}

func imageCandidates(item *gofeed.Item) []string {
	var out []string

	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") || images.HasImageExtension(enc.URL) {
			out = append(out, enc.URL)
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			for _, ext := range media[key] {
				u := ext.Attrs["url"]
				if u == "" {
					continue
				}
				if key == "content" {
					medium := ext.Attrs["medium"]
					typ := ext.Attrs["type"]
					if medium != "" && medium != "image" && !strings.HasPrefix(typ, "image/") {
						continue
					}
				}
				out = append(out, u)
			}
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		out = append(out, item.Image.URL)
	}

	for _, raw := range []string{item.Content, item.Description} {
		if src := firstInlineImage(raw); src != "" {
			out = append(out, src)
		}
	}

	return out
}

func firstInlineImage(markup string) string {
	if !strings.Contains(markup, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// extractPublisher picks up the publisher name some aggregators inject as
// inline markup (Google News uses a <font> element in the description).
func extractPublisher(item *gofeed.Item) string {
	if !strings.Contains(item.Description, "<font") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.Description))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("font").First().Text())
}

// ResolveURL makes href absolute against base. Protocol-relative and
// root-relative references resolve against base's origin; absolute URLs
// pass through untouched.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return href
	}
	return b.ResolveReference(u).String()
}

// Domain extracts the lowercased, www-stripped host of a URL.
func Domain(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
