// Package dedup merges article drafts that describe the same real-world
// story across sources. Matching is layered: canonical link, normalized
// title, substring containment, then fuzzy word overlap. Each draft is
// checked against the growing merged set with the cheapest test first.
//
// The scan is intentionally O(n*m): the containment and similarity layers
// cannot be expressed as exact hash lookups, and at tens to low hundreds of
// drafts per crawl the linear scan is cheaper than being clever about it.
package dedup

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/agriwatch/newscrawler/internal/article"
)

const (
	// titleKeyMaxLen bounds the normalized title key.
	titleKeyMaxLen = 120
	// containmentRatio is the minimum shorter/longer length ratio for the
	// substring-containment layer.
	containmentRatio = 0.8
	// jaccardThreshold is the minimum word-set similarity for the fuzzy
	// layer. Kept as-is from the matching rules this pipeline inherited:
	// on adversarial inputs it can merge distinct same-topic stories.
	jaccardThreshold = 0.75
)

// editorialPrefixes are stripped from titles before comparison.
var editorialPrefixes = []string{
	"breaking:", "exclusive:", "watch:", "update:", "updated:",
	"just in:", "live:", "opinion:", "analysis:", "explainer:",
}

type entry struct {
	art   *article.Article
	canon string
	key   string
	words map[string]struct{}
}

// Merger accumulates drafts into merged articles. It is crawl-scoped
// mutable state; construct a new one per crawl.
type Merger struct {
	trackingParams []string
	entries        []entry
	merges         int
}

func NewMerger(trackingParams []string) *Merger {
	return &Merger{trackingParams: trackingParams}
}

// Merges reports how many drafts were folded into existing articles.
func (m *Merger) Merges() int { return m.merges }

// Articles returns the merged set in first-seen order.
func (m *Merger) Articles() []*article.Article {
	out := make([]*article.Article, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.art
	}
	return out
}

// Add folds one draft into the merged set, either merging it into an
// existing article or starting a new one.
func (m *Merger) Add(d article.Draft) {
	canon := CanonicalLink(d.Link, m.trackingParams)
	norm := normalizeTitleText(d.Title)
	key := titleKey(norm)
	words := wordSet(norm)

	for i := range m.entries {
		e := &m.entries[i]
		if m.matches(e, canon, key, words) {
			mergeInto(e.art, d)
			m.merges++
			return
		}
	}

	m.entries = append(m.entries, entry{
		art: &article.Article{
			Fingerprint:    article.Fingerprint(canon, key),
			Title:          d.Title,
			Summary:        d.Summary,
			Link:           d.Link,
			Source:         d.Source,
			SourceDomain:   d.SourceDomain,
			Published:      d.Published,
			PublishedValid: d.PublishedValid,
			SourceCount:    1,
			ImageHint:      d.ImageHint,
		},
		canon: canon,
		key:   key,
		words: words,
	})
}

func (m *Merger) matches(e *entry, canon, key string, words map[string]struct{}) bool {
	// Layer 1: exact canonical link.
	if canon != "" && canon == e.canon {
		return true
	}
	if key == "" || e.key == "" {
		return false
	}
	// Layer 2: exact normalized title.
	if key == e.key {
		return true
	}
	// Layer 3: substring containment of comparable length.
	shorter, longer := key, e.key
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) &&
		float64(len(shorter)) >= containmentRatio*float64(len(longer)) {
		return true
	}
	// Layer 4: fuzzy word-set similarity.
	return jaccard(words, e.words) > jaccardThreshold
}

// mergeInto folds a matching draft into an existing article: the draft
// becomes a corroborating source, the richer summary and the earlier valid
// timestamp win, and a missing image hint is backfilled.
func mergeInto(a *article.Article, d article.Draft) {
	a.SourceCount++

	if d.SourceDomain != a.SourceDomain && d.Link != a.Link && !hasRelated(a, d.Link) {
		name := d.Publisher
		if name == "" {
			name = d.SourceDomain
		}
		a.Related = append(a.Related, article.Related{Source: name, URL: d.Link})
	}

	if len(d.Summary) > len(a.Summary) {
		a.Summary = d.Summary
	}
	if d.PublishedValid && (!a.PublishedValid || d.Published.Before(a.Published)) {
		a.Published = d.Published
		a.PublishedValid = true
	}
	if a.ImageHint == "" && d.ImageHint != "" {
		a.ImageHint = d.ImageHint
	}
}

func hasRelated(a *article.Article, link string) bool {
	for _, r := range a.Related {
		if r.URL == link {
			return true
		}
	}
	return false
}

// CanonicalLink lowercases host and path and removes tracking query
// parameters, so syndicated copies of one URL compare equal.
func CanonicalLink(link string, trackingParams []string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(link))
	}

	q := u.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.ToLower(strings.TrimSuffix(u.Path, "/"))
	return u.String()
}

// normalizeTitleText lowercases a title, strips editorial prefixes and a
// trailing "- Source" or "| Source" attribution, and reduces it to
// space-separated alphanumeric words.
func normalizeTitleText(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))

	for changed := true; changed; {
		changed = false
		for _, p := range editorialPrefixes {
			if strings.HasPrefix(t, p) {
				t = strings.TrimSpace(strings.TrimPrefix(t, p))
				changed = true
			}
		}
	}

	for _, sep := range []string{" - ", " | ", " – ", " — "} {
		if i := strings.LastIndex(t, sep); i > 0 {
			// Only treat the tail as attribution when it is shorter than
			// the headline it trails.
			if tail := t[i+len(sep):]; len(tail) > 0 && len(tail) < len(t[:i]) {
				t = strings.TrimSpace(t[:i])
			}
		}
	}

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func titleKey(normalized string) string {
	key := strings.ReplaceAll(normalized, " ", "")
	if len(key) > titleKeyMaxLen {
		runes := []rune(key)
		if len(runes) > titleKeyMaxLen {
			runes = runes[:titleKeyMaxLen]
		}
		key = string(runes)
	}
	return key
}

func wordSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if len(w) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
