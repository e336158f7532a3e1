// Package images assigns every article an image URL using a three-level
// strategy: the feed's own metadata, the article page's social preview tags,
// and finally a deterministic pick from a per-category fallback pool. Within
// one crawl no two articles receive the same image unless a pool runs out.
package images

import (
	"net/url"
	"path"
	"strings"
)

// blockedPatterns rejects known non-content images: favicons, tracking
// pixels, ad slots, logos, feed artifacts.
var blockedPatterns = []string{
	"favicon", "sprite", "pixel", "spacer", "blank.",
	"logo", "icon", "badge", "button", "avatar", "gravatar",
	"/ads/", "/ad/", "doubleclick", "adserver", "tracking", "tracker",
	"feedburner", ".xml", ".rss", "/feed/",
}

var imageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif", ".bmp",
}

// imageCDNHosts are hostname fragments of well-known image CDNs whose URLs
// often carry no file extension.
var imageCDNHosts = []string{
	"images.unsplash.com", "cloudinary.com", "imgix.net", "cloudfront.net",
	"akamaized.net", "staticflickr.com", "twimg.com", "ytimg.com",
	"wp.com", "gstatic.com",
}

var imageCDNPrefixes = []string{"img.", "image.", "images.", "media.", "cdn.", "static."}

// imageFormatValues are query-parameter values that mark a URL as an image
// on CDNs that encode the format in the query string.
var imageFormatValues = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "avif": true,
}

// HasImageExtension reports whether the URL path ends in a recognized image
// file extension.
func HasImageExtension(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LooksLikeImageURL is the validity filter shared by the normalizer and the
// resolver: absolute http(s) URL, not on the blocklist, and recognizable as
// an image by extension, CDN host, or image-oriented query parameter.
func LooksLikeImageURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	lower := strings.ToLower(raw)
	for _, p := range blockedPatterns {
		if strings.Contains(lower, p) {
			return false
		}
	}

	if HasImageExtension(raw) {
		return true
	}

	host := strings.ToLower(u.Hostname())
	for _, h := range imageCDNHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	for _, p := range imageCDNPrefixes {
		if strings.HasPrefix(host, p) {
			return true
		}
	}

	q := u.Query()
	for _, key := range []string{"format", "fm", "wx_fmt"} {
		if imageFormatValues[strings.ToLower(q.Get(key))] {
			return true
		}
	}

	return false
}
