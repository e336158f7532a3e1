// Package crawler runs the full pipeline: fan out bounded fetches over
// (keyword, source) pairs, normalize, merge duplicates, score, rank, resolve
// images for the survivors and snapshot the result. All mutable crawl state
// lives in objects constructed per run, so concurrent crawls never share
// dedup maps or used-image sets.
package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agriwatch/newscrawler/internal/article"
	"github.com/agriwatch/newscrawler/internal/config"
	"github.com/agriwatch/newscrawler/internal/dedup"
	"github.com/agriwatch/newscrawler/internal/feed"
	"github.com/agriwatch/newscrawler/internal/images"
	"github.com/agriwatch/newscrawler/internal/logger"
	"github.com/agriwatch/newscrawler/internal/metrics"
	"github.com/agriwatch/newscrawler/internal/normalize"
	"github.com/agriwatch/newscrawler/internal/score"
	"github.com/agriwatch/newscrawler/internal/snapshot"
	"github.com/agriwatch/newscrawler/internal/sources"
)

// Profile describes what one crawl looks for.
type Profile struct {
	Keywords []string
	Limit    int
}

// Crawler holds the long-lived collaborators. It is safe for concurrent
// Crawl calls.
type Crawler struct {
	cfg    *config.Config
	reg    *sources.Registry
	client *feed.Client
	norm   *normalize.Normalizer
	store  *snapshot.Store
}

func New(cfg *config.Config, reg *sources.Registry, store *snapshot.Store) *Crawler {
	return &Crawler{
		cfg:    cfg,
		reg:    reg,
		client: feed.NewClient(reg, cfg.FetchTimeout, cfg.RetryAttempts),
		norm:   normalize.New(cfg.MaxArticleAge),
		store:  store,
	}
}

// Client exposes the fetch client so tests can inject clocks and randomness.
func (c *Crawler) Client() *feed.Client { return c.client }

// Crawl runs one full pipeline pass and returns up to profile.Limit ranked
// articles. When every source fails it falls back to the last snapshot,
// then to the synthetic placeholder set; it never returns an empty list.
func (c *Crawler) Crawl(ctx context.Context, profile Profile) ([]article.Article, error) {
	start := time.Now()
	defer func() {
		metrics.Global.RecordCrawl(time.Since(start))
	}()

	limit := profile.Limit
	if limit <= 0 {
		limit = c.cfg.DefaultLimit
	}

	drafts := c.fetchAll(ctx, profile.Keywords)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		logger.Warn("all sources failed or returned nothing, serving fallback")
		return c.fallback(), nil
	}

	// Crawl-scoped state starts here: fresh merger, fresh resolver.
	merger := dedup.NewMerger(c.reg.TrackingParams)
	for _, d := range drafts {
		merger.Add(d)
	}
	merged := merger.Articles()
	metrics.Global.AddDuplicatesMerged(merger.Merges())
	logger.Info("deduplicated drafts",
		"drafts", len(drafts), "unique", len(merged), "merged", merger.Merges())

	scorer := score.New(c.reg, profile.Keywords)
	for _, a := range merged {
		scorer.Score(a)
	}
	score.Sort(merged)

	// Image resolution fetches pages, so only the ranking survivors get it.
	if len(merged) > c.cfg.MaxCandidates {
		merged = merged[:c.cfg.MaxCandidates]
	}
	resolver := images.NewResolver(c.reg, nil, c.cfg.PageFetchConcurrency, c.cfg.PageFetchTimeout)
	resolver.ResolveAll(ctx, merged)

	if len(merged) > limit {
		merged = merged[:limit]
	}

	result := make([]article.Article, len(merged))
	for i, a := range merged {
		result[i] = *a
	}

	if err := c.store.Replace(result); err != nil {
		logger.Error("failed to persist snapshot", "error", err)
	}
	return result, nil
}

// fetchAll fans out one fetch task per (keyword, source) pair, bounded by
// the configured concurrency. Failed tasks contribute nothing; results are
// gathered with settle-all semantics.
func (c *Crawler) fetchAll(ctx context.Context, keywords []string) []article.Draft {
	var (
		mu     sync.Mutex
		drafts []article.Draft
	)

	g := &errgroup.Group{}
	g.SetLimit(c.cfg.FetchConcurrency)

	for _, kw := range keywords {
		for _, src := range c.reg.Sources {
			kw, src := kw, src
			g.Go(func() error {
				items, err := c.client.Fetch(ctx, kw, src)
				if err != nil {
					logger.Warn("source fetch failed",
						"source", src.Name, "keyword", kw, "error", err)
					metrics.Global.AddSourcesFailed(1)
					return nil
				}
				metrics.Global.AddSourcesFetched(1)
				metrics.Global.AddItemsFetched(len(items))

				var batch []article.Draft
				dropped := 0
				for _, item := range items {
					d, err := c.norm.Normalize(item, src)
					if err != nil {
						dropped++
						continue
					}
					batch = append(batch, d)
				}
				metrics.Global.AddItemsDropped(dropped)

				mu.Lock()
				drafts = append(drafts, batch...)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()
	return drafts
}

// fallback serves the last snapshot unchanged, or the synthetic set when no
// crawl has ever succeeded.
func (c *Crawler) fallback() []article.Article {
	metrics.Global.IncrementSnapshotFallbacks()
	if cached, ok := c.store.Last(); ok {
		return cached
	}
	return snapshot.Synthetic()
}
