package images

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/agriwatch/newscrawler/internal/article"
	"github.com/agriwatch/newscrawler/internal/logger"
	"github.com/agriwatch/newscrawler/internal/metrics"
	"github.com/agriwatch/newscrawler/internal/sources"
)

// previewBodyLimit caps how much of an article page we read; the meta tags
// we want live in <head>.
const previewBodyLimit = 512 << 10

// Resolver assigns images for one crawl run. The used-image set is owned by
// the resolver, so a fresh Resolver per crawl gives each run isolated state.
type Resolver struct {
	reg     *sources.Registry
	client  *http.Client
	sem     *semaphore.Weighted
	timeout time.Duration

	mu   sync.Mutex
	used map[string]bool
}

func NewResolver(reg *sources.Registry, client *http.Client, concurrency int, timeout time.Duration) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{
		reg:     reg,
		client:  client,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		timeout: timeout,
		used:    make(map[string]bool),
	}
}

// ResolveAll fills Image on every article. Embedded hints and pool picks are
// assigned in input order so results are deterministic; only the page
// fetches in between run concurrently, bounded by the resolver's semaphore.
func (r *Resolver) ResolveAll(ctx context.Context, articles []*article.Article) {
	var pending []*article.Article
	for _, a := range articles {
		if a.ImageHint != "" && LooksLikeImageURL(a.ImageHint) && r.claim(a.ImageHint) {
			a.Image = a.ImageHint
			metrics.Global.RecordImageLevel("feed")
			continue
		}
		pending = append(pending, a)
	}

	previews := make([]string, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range pending {
		i, a := i, a
		g.Go(func() error {
			if err := r.sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer r.sem.Release(1)
			previews[i] = r.fetchPreviewImage(gctx, a.Link)
			return nil
		})
	}
	_ = g.Wait()

	for i, a := range pending {
		if u := previews[i]; u != "" && r.claim(u) {
			a.Image = u
			metrics.Global.RecordImageLevel("page")
			continue
		}
		a.Image = r.poolPick(a)
		metrics.Global.RecordImageLevel("pool")
	}
}

// claim marks an image as used for this crawl. It returns false when some
// earlier article already took it.
func (r *Resolver) claim(imageURL string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used[imageURL] {
		return false
	}
	r.used[imageURL] = true
	return true
}

// fetchPreviewImage loads the article page and reads its social preview
// tags. Any failure means "no image at this level" and is never surfaced.
func (r *Resolver) fetchPreviewImage(ctx context.Context, pageURL string) string {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	if len(r.reg.UserAgents) > 0 {
		req.Header.Set("User-Agent", r.reg.UserAgents[0])
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		logger.Debug("preview fetch failed", "url", pageURL, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, previewBodyLimit))
	if err != nil {
		return ""
	}

	// Page origin after redirects, for resolving relative references.
	base := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL.String()
	}

	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[property="og:image:url"]`,
		`meta[name="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if u := normalizeAgainst(base, content); LooksLikeImageURL(u) {
				return u
			}
		}
	}
	if href, ok := doc.Find(`link[rel="image_src"]`).First().Attr("href"); ok {
		if u := normalizeAgainst(base, href); LooksLikeImageURL(u) {
			return u
		}
	}
	return ""
}

// normalizeAgainst resolves protocol-relative and root-relative candidates
// against the page's own origin.
func normalizeAgainst(base, candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	if strings.HasPrefix(candidate, "//") {
		scheme := "https"
		if strings.HasPrefix(base, "http://") {
			scheme = "http"
		}
		return scheme + ":" + candidate
	}
	if strings.HasPrefix(candidate, "/") {
		if i := strings.Index(base, "://"); i > 0 {
			rest := base[i+3:]
			if j := strings.IndexByte(rest, '/'); j > 0 {
				return base[:i+3] + rest[:j] + candidate
			}
			return base + candidate
		}
		return candidate
	}
	return candidate
}

// poolPick deterministically assigns a fallback image: hash the article's
// fingerprint into the category pool and linearly probe for the first entry
// this crawl hasn't used. An exhausted pool yields a repeat rather than
// leaving the article without an image.
func (r *Resolver) poolPick(a *article.Article) string {
	pool := r.reg.Pool(a.Category)
	if len(pool) == 0 {
		return ""
	}
	start := int(xxhash.ChecksumString64(a.Fingerprint) % uint64(len(pool)))
	for i := 0; i < len(pool); i++ {
		candidate := pool[(start+i)%len(pool)]
		if r.claim(candidate) {
			return candidate
		}
	}
	return pool[start]
}
