// Package sources holds the static knowledge about the outside world: feed
// endpoints, per-domain trust tiers, fallback image pools and the request
// hygiene lists (user agents, tracking parameters) shared by the pipeline.
package sources

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agriwatch/newscrawler/internal/article"
)

// Source is one feed endpoint. Endpoint contains a single %s slot that
// receives the URL-escaped search term.
type Source struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Social   bool   `yaml:"social,omitempty"`
}

// BuildURL fills the endpoint template with an escaped search term.
func (s Source) BuildURL(term string) string {
	return fmt.Sprintf(s.Endpoint, url.QueryEscape(term))
}

// Registry is the full source configuration for a deployment.
type Registry struct {
	Sources []Source `yaml:"sources"`

	TierA  []string `yaml:"tier_a"`
	TierB  []string `yaml:"tier_b"`
	TierC  []string `yaml:"tier_c"`
	Social []string `yaml:"social_domains"`

	// ImagePools maps a category to its fallback images, probed when neither
	// the feed nor the article page yields a usable image.
	ImagePools map[string][]string `yaml:"image_pools"`

	UserAgents     []string `yaml:"user_agents"`
	TrackingParams []string `yaml:"tracking_params"`
}

// Load reads a registry from YAML, filling any section left empty with the
// compiled-in defaults so a partial config stays usable.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reg Registry
	if err := yaml.NewDecoder(f).Decode(&reg); err != nil {
		return nil, fmt.Errorf("failed to parse sources config: %w", err)
	}
	reg.fillDefaults()
	return &reg, nil
}

// Default returns the compiled-in registry.
func Default() *Registry {
	reg := &Registry{}
	reg.fillDefaults()
	return reg
}

func (r *Registry) fillDefaults() {
	d := defaultRegistry
	if len(r.Sources) == 0 {
		r.Sources = d.Sources
	}
	if len(r.TierA) == 0 {
		r.TierA = d.TierA
	}
	if len(r.TierB) == 0 {
		r.TierB = d.TierB
	}
	if len(r.TierC) == 0 {
		r.TierC = d.TierC
	}
	if len(r.Social) == 0 {
		r.Social = d.Social
	}
	if len(r.ImagePools) == 0 {
		r.ImagePools = d.ImagePools
	}
	if len(r.UserAgents) == 0 {
		r.UserAgents = d.UserAgents
	}
	if len(r.TrackingParams) == 0 {
		r.TrackingParams = d.TrackingParams
	}
}

// TierFor classifies a domain. Matching is suffix-based so subdomains of a
// listed domain inherit its tier.
func (r *Registry) TierFor(domain string) article.Tier {
	domain = strings.ToLower(strings.TrimPrefix(domain, "www."))
	switch {
	case matchDomain(domain, r.TierA):
		return article.TierA
	case matchDomain(domain, r.TierB):
		return article.TierB
	case matchDomain(domain, r.Social):
		return article.TierSocial
	case matchDomain(domain, r.TierC):
		return article.TierC
	default:
		return article.TierUnverified
	}
}

// Pool returns the fallback images for a category, falling back to the
// general pool for unknown categories.
func (r *Registry) Pool(cat article.Category) []string {
	if pool, ok := r.ImagePools[string(cat)]; ok && len(pool) > 0 {
		return pool
	}
	return r.ImagePools[string(article.CategoryGeneral)]
}

func matchDomain(domain string, list []string) bool {
	for _, d := range list {
		d = strings.ToLower(d)
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

var defaultRegistry = Registry{
	Sources: []Source{
		{Name: "Google News", Endpoint: "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"},
		{Name: "Bing News", Endpoint: "https://www.bing.com/news/search?q=%s&format=rss"},
		{Name: "Yahoo News", Endpoint: "https://news.search.yahoo.com/rss?p=%s"},
		{Name: "Reddit", Endpoint: "https://www.reddit.com/search.rss?q=%s&sort=new", Social: true},
	},
	TierA: []string{
		"gov.vn", "mard.gov.vn", "customs.gov.vn", "vinacas.com.vn",
		"usda.gov", "fao.org", "worldbank.org", "wto.org", "ec.europa.eu",
		"un.org", "intracen.org",
	},
	TierB: []string{
		"reuters.com", "bloomberg.com", "ft.com", "wsj.com", "cnbc.com",
		"apnews.com", "bbc.com", "theguardian.com", "nikkei.com",
		"vnexpress.net", "vietnamnews.vn", "tuoitrenews.vn", "vir.com.vn",
		"agriculture.com", "spglobal.com", "mintecglobal.com",
	},
	TierC: []string{
		"blogspot.com", "wordpress.com", "medium.com", "substack.com",
		"tumblr.com", "weebly.com",
	},
	Social: []string{
		"reddit.com", "twitter.com", "x.com", "facebook.com",
		"linkedin.com", "t.me", "threads.net",
	},
	ImagePools: map[string][]string{
		"market": {
			"https://images.unsplash.com/photo-1611974789855-9c2a0a7236a3?w=800",
			"https://images.unsplash.com/photo-1590283603385-17ffb3a7f29f?w=800",
			"https://images.unsplash.com/photo-1518186285589-2f7649de83e0?w=800",
			"https://images.unsplash.com/photo-1612178991541-b48cc8e92a4d?w=800",
			"https://images.unsplash.com/photo-1559526324-4b87b5e36e44?w=800",
		},
		"supply": {
			"https://images.unsplash.com/photo-1595246140625-573b715d11dc?w=800",
			"https://images.unsplash.com/photo-1599059813005-11265ba4b4ce?w=800",
			"https://images.unsplash.com/photo-1625246333195-78d9c38ad449?w=800",
			"https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b?w=800",
			"https://images.unsplash.com/photo-1500937386664-56d1dfef3854?w=800",
		},
		"logistics": {
			"https://images.unsplash.com/photo-1578575437130-527eed3abbec?w=800",
			"https://images.unsplash.com/photo-1494412574643-ff11b0a5c1c3?w=800",
			"https://images.unsplash.com/photo-1605745341112-85968b19335b?w=800",
			"https://images.unsplash.com/photo-1519003722824-194d4455a60c?w=800",
			"https://images.unsplash.com/photo-1586528116311-ad8dd3c8310d?w=800",
		},
		"general": {
			"https://images.unsplash.com/photo-1504711434969-e33886168f5c?w=800",
			"https://images.unsplash.com/photo-1495020689067-958852a7765e?w=800",
			"https://images.unsplash.com/photo-1585829365295-ab7cd400c167?w=800",
			"https://images.unsplash.com/photo-1523995462485-3d171b5c8fa9?w=800",
			"https://images.unsplash.com/photo-1457369804613-52c61a468e7d?w=800",
		},
	},
	UserAgents: []string{
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	},
	TrackingParams: []string{
		"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
		"fbclid", "gclid", "mc_cid", "mc_eid", "ref", "source", "cmpid",
	},
}
