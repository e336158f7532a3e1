package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriwatch/newscrawler/internal/article"
	"github.com/agriwatch/newscrawler/internal/sources"
)

func newScorer(keywords ...string) *Scorer {
	return New(sources.Default(), keywords)
}

func scored(s *Scorer, a article.Article) *article.Article {
	s.Score(&a)
	return &a
}

func TestScore_TierBonuses(t *testing.T) {
	s := newScorer()
	cases := []struct {
		domain string
		tier   article.Tier
		trust  int
	}{
		{"vinacas.com.vn", article.TierA, 90},
		{"reuters.com", article.TierB, 75},
		{"reddit.com", article.TierSocial, 55},
		{"medium.com", article.TierC, 40},
		{"random-blog.example", article.TierUnverified, 50},
	}

	for _, tc := range cases {
		a := scored(s, article.Article{Title: "Cashew note", SourceDomain: tc.domain, SourceCount: 1})
		assert.Equal(t, tc.tier, a.Tier, tc.domain)
		assert.Equal(t, tc.trust, a.TrustScore, tc.domain)
	}
}

func TestScore_SubdomainInheritsTier(t *testing.T) {
	a := scored(newScorer(), article.Article{Title: "x", SourceDomain: "markets.reuters.com", SourceCount: 1})
	assert.Equal(t, article.TierB, a.Tier)
}

func TestScore_ConsensusAndMergeBonusesAreCapped(t *testing.T) {
	related := make([]article.Related, 10)
	for i := range related {
		related[i] = article.Related{Source: "s", URL: "u"}
	}
	a := scored(newScorer(), article.Article{
		Title:        "Cashew exports",
		SourceDomain: "vinacas.com.vn",
		Related:      related,
		SourceCount:  11,
	})
	// 50 + 40 + capped 20 + capped 15 = 125, clamped to 100.
	assert.Equal(t, 100, a.TrustScore)
	assert.Equal(t, article.TrustHigh, a.TrustLevel)
}

func TestScore_PromoPenalty(t *testing.T) {
	s := newScorer()
	plain := scored(s, article.Article{Title: "Cashew kernels", SourceDomain: "x.example", SourceCount: 1})
	promo := scored(s, article.Article{Title: "Press Release: Cashew kernels", SourceDomain: "x.example", SourceCount: 1})
	assert.Equal(t, plain.TrustScore-20, promo.TrustScore)
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	s := newScorer("cashew", "vietnam", "export", "price", "market", "harvest")
	extremes := []article.Article{
		{Title: "Sponsored advertisement press release", SourceDomain: "medium.com", SourceCount: 1},
		{Title: "cashew vietnam export price market harvest", Summary: "cashew vietnam export price market harvest", SourceDomain: "vinacas.com.vn", SourceCount: 20, Related: make([]article.Related, 20)},
	}
	for _, a := range extremes {
		got := scored(s, a)
		assert.GreaterOrEqual(t, got.TrustScore, 0)
		assert.LessOrEqual(t, got.TrustScore, 100)
		assert.GreaterOrEqual(t, got.RelevanceScore, 0)
		assert.LessOrEqual(t, got.RelevanceScore, 100)
		assert.GreaterOrEqual(t, got.OverallScore, 0)
		assert.LessOrEqual(t, got.OverallScore, 100)
	}
}

func TestScore_RelevanceCountsKeywordHits(t *testing.T) {
	s := newScorer("cashew", "vietnam", "pepper")
	a := scored(s, article.Article{
		Title:        "Vietnam cashew exports rise",
		Summary:      "Cashew shipments from Vietnam grew last month.",
		SourceDomain: "reuters.com",
		SourceCount:  1,
	})
	assert.Equal(t, 40, a.RelevanceScore)
	assert.Contains(t, a.Tags, "cashew")
	assert.Contains(t, a.Tags, "vietnam")
	assert.NotContains(t, a.Tags, "pepper")
}

func TestScore_OverallBlend(t *testing.T) {
	a := scored(newScorer("cashew"), article.Article{
		Title:        "Cashew update",
		SourceDomain: "reuters.com",
		SourceCount:  1,
	})
	// trust 75, relevance 20: 0.6*75 + 0.4*20 = 53.
	assert.Equal(t, 53, a.OverallScore)
}

func TestClassify(t *testing.T) {
	cases := map[string]article.Category{
		"cashew price hits new high as demand surges": article.CategoryMarket,
		"drought cuts harvest and crop yield":         article.CategorySupply,
		"container freight rates spike at port":       article.CategoryLogistics,
		"a quiet week in the nut world":               article.CategoryGeneral,
	}
	for text, want := range cases {
		assert.Equal(t, want, Classify(text), text)
	}
}

func TestSentiment(t *testing.T) {
	assert.Equal(t, "positive", sentiment("exports surge to record high"))
	assert.Equal(t, "negative", sentiment("prices drop amid shortage"))
	assert.Equal(t, "neutral", sentiment("exports reported for march"))
}

func TestSort_NewestFirstThenOverall(t *testing.T) {
	older := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	arts := []*article.Article{
		{Title: "old high score", Published: older, OverallScore: 99},
		{Title: "new low score", Published: newer, OverallScore: 10},
		{Title: "new high score", Published: newer, OverallScore: 80},
	}
	Sort(arts)

	require.Len(t, arts, 3)
	assert.Equal(t, "new high score", arts[0].Title)
	assert.Equal(t, "new low score", arts[1].Title)
	assert.Equal(t, "old high score", arts[2].Title)
}
