// Package score ranks merged articles: a trust score blending source tier
// with cross-source corroboration, a keyword relevance score, and the
// rule-based category and sentiment tags the dashboard filters on.
package score

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/agriwatch/newscrawler/internal/article"
	"github.com/agriwatch/newscrawler/internal/sources"
)

const (
	trustBase          = 50
	tierABonus         = 40
	tierBBonus         = 25
	tierSocialBonus    = 5
	tierCPenalty       = -10
	promoPenalty       = 20
	consensusBonusCap  = 20
	consensusBonusStep = 5
	mergeBonusCap      = 15
	mergeBonusStep     = 5
	relevancePerHit    = 20
)

// promoPattern flags promotional language that masquerades as news.
var promoPattern = regexp.MustCompile(`(?i)\b(sponsored|press release|advertisement|advertorial|promoted)\b`)

var categoryKeywords = map[article.Category][]string{
	article.CategoryMarket: {
		"price", "prices", "market", "export", "import", "demand",
		"tariff", "trade", "futures", "commodity", "buyers", "sellers",
	},
	article.CategorySupply: {
		"harvest", "crop", "yield", "production", "farmer", "plantation",
		"processing", "drought", "rainfall", "season", "supply", "output",
	},
	article.CategoryLogistics: {
		"shipping", "freight", "container", "port", "logistics", "vessel",
		"customs", "warehouse", "transport", "cargo",
	},
}

var positiveWords = []string{
	"rise", "rises", "gain", "growth", "surge", "record", "strong",
	"boost", "recovery", "rebound", "improve", "expand",
}

var negativeWords = []string{
	"fall", "falls", "drop", "decline", "slump", "shortage", "crisis",
	"loss", "ban", "weak", "disruption", "delay",
}

// Scorer scores articles for one crawl profile.
type Scorer struct {
	reg      *sources.Registry
	keywords []string
}

func New(reg *sources.Registry, keywords []string) *Scorer {
	return &Scorer{reg: reg, keywords: keywords}
}

// Score fills every derived field on the article: tier, trust, relevance,
// overall, category, sentiment and tags. Scores are clamped to [0,100].
func (s *Scorer) Score(a *article.Article) {
	a.Tier = s.reg.TierFor(a.SourceDomain)

	text := strings.ToLower(a.Title + " " + a.Summary)

	a.TrustScore = clamp(s.trust(a))
	a.TrustLevel = article.LevelFor(a.TrustScore)
	a.RelevanceScore, a.Tags = s.relevance(text)
	a.OverallScore = clamp(int(math.Round(0.6*float64(a.TrustScore) + 0.4*float64(a.RelevanceScore))))
	a.Category = Classify(text)
	a.Sentiment = sentiment(text)
	a.Tags = append(a.Tags, string(a.Category))
}

func (s *Scorer) trust(a *article.Article) int {
	score := trustBase

	switch a.Tier {
	case article.TierA:
		score += tierABonus
	case article.TierB:
		score += tierBBonus
	case article.TierSocial:
		score += tierSocialBonus
	case article.TierC:
		score += tierCPenalty
	}

	consensus := consensusBonusStep * len(a.Related)
	if consensus > consensusBonusCap {
		consensus = consensusBonusCap
	}
	score += consensus

	merged := mergeBonusStep * (a.SourceCount - 1)
	if merged > mergeBonusCap {
		merged = mergeBonusCap
	}
	if merged > 0 {
		score += merged
	}

	if promoPattern.MatchString(a.Title) {
		score -= promoPenalty
	}

	return score
}

// relevance awards a fixed bonus per matched profile keyword and returns
// the matched keywords as tags.
func (s *Scorer) relevance(text string) (int, []string) {
	score := 0
	var tags []string
	for _, kw := range s.keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			score += relevancePerHit
			tags = append(tags, kw)
		}
	}
	return clamp(score), tags
}

// Classify assigns the fixed category taxonomy by keyword hits, most hits
// winning. Nothing matching lands in general.
func Classify(text string) article.Category {
	best := article.CategoryGeneral
	bestHits := 0
	// Fixed evaluation order keeps ties deterministic.
	for _, cat := range []article.Category{
		article.CategoryMarket, article.CategorySupply, article.CategoryLogistics,
	} {
		hits := 0
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best = cat
			bestHits = hits
		}
	}
	return best
}

func sentiment(text string) string {
	pos, neg := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// Sort orders articles for selection: newest first, overall score breaking
// ties. This order decides which articles survive to image resolution.
func Sort(articles []*article.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].Published.Equal(articles[j].Published) {
			return articles[i].Published.After(articles[j].Published)
		}
		return articles[i].OverallScore > articles[j].OverallScore
	})
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
