// Package article holds the data types shared by the crawl pipeline:
// the pre-merge Draft produced by normalization and the merged Article
// returned to the caller.
package article

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// Tier is the trust classification of a source domain.
type Tier string

const (
	TierA          Tier = "A"          // official / government / industry bodies
	TierB          Tier = "B"          // established press
	TierC          Tier = "C"          // blogs, vendor sites
	TierSocial     Tier = "Social"     // recognized social platforms
	TierUnverified Tier = "Unverified" // everything else
)

// TrustLevel buckets a trust score for display.
type TrustLevel string

const (
	TrustHigh   TrustLevel = "High"   // score >= 80
	TrustMedium TrustLevel = "Medium" // score >= 50
	TrustLow    TrustLevel = "Low"
)

// LevelFor maps a clamped trust score to its level.
func LevelFor(score int) TrustLevel {
	switch {
	case score >= 80:
		return TrustHigh
	case score >= 50:
		return TrustMedium
	default:
		return TrustLow
	}
}

// Category is the fixed taxonomy used for tagging and image pools.
type Category string

const (
	CategoryMarket    Category = "market"
	CategorySupply    Category = "supply"
	CategoryLogistics Category = "logistics"
	CategoryGeneral   Category = "general"
)

// Related records a corroborating fetch of the same story.
type Related struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// Draft is a single raw feed item after normalization, before merging.
// Drafts live only for the duration of one crawl.
type Draft struct {
	Title     string
	Link      string
	Published time.Time
	// PublishedValid is false when the feed carried no parseable date and
	// Published was substituted with the fetch time.
	PublishedValid bool
	Summary        string
	Source         string // fetching source name, e.g. "Google News"
	SourceDomain   string // host of Link, lowercased, www-stripped
	Publisher      string // publisher name when the aggregator injects one
	ImageHint      string // first image candidate found in feed metadata
}

// Article is the merged, scored, image-resolved unit returned to the caller.
type Article struct {
	Fingerprint    string     `json:"fingerprint"`
	Title          string     `json:"title"`
	Summary        string     `json:"summary"`
	Link           string     `json:"link"`
	Image          string     `json:"image"`
	Source         string     `json:"source"`
	SourceDomain   string     `json:"sourceDomain"`
	Tier           Tier       `json:"tier"`
	TrustScore     int        `json:"trustScore"`
	TrustLevel     TrustLevel `json:"trustLevel"`
	RelevanceScore int        `json:"relevanceScore"`
	OverallScore   int        `json:"overallScore"`
	Category       Category   `json:"category"`
	Sentiment      string     `json:"sentiment"`
	Tags           []string   `json:"tags,omitempty"`
	Related        []Related  `json:"related,omitempty"`
	SourceCount    int        `json:"sourceCount"`
	Published      time.Time  `json:"published"`
	PublishedValid bool       `json:"-"`
	Synthetic      bool       `json:"synthetic,omitempty"`

	// ImageHint carries the best embedded candidate into image resolution.
	ImageHint string `json:"-"`
}

// Fingerprint derives the stable per-crawl identity of a story from its
// canonical link and normalized title.
func Fingerprint(canonicalLink, normalizedTitle string) string {
	h := sha1.New()
	h.Write([]byte(strings.ToLower(canonicalLink) + "|" + normalizedTitle))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
