// Package crawl: URL filtering rules.
package crawl

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// staticExtensions are file extensions that never hold an article.
var staticExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true, ".bmp": true,
	".css": true, ".js": true, ".mjs": true, ".xml": true,
	".woff": true, ".woff2": true, ".ttf": true,
	".mp4": true, ".mp3": true, ".zip": true, ".pdf": true,
}

// platformPrefixes are first path segments of non-article pages.
var platformPrefixes = map[string]bool{
	"tag": true, "tagged": true, "topic": true, "topics": true, "search": true,
	"m": true, "me": true, "membership": true, "plans": true, "about": true,
	"followers": true, "following": true, "lists": true, "signin": true,
	"login": true, "policy": true, "jobs-at-medium": true,
}

// articleSlug matches slugs ending in a post id ("my-post-1a2b3c4d5e6f").
var articleSlug = regexp.MustCompile(`-[0-9a-f]{8,16}$`)

// IsSameSite reports whether rawURL is on host or one of its subdomains
// (user.medium.com belongs to medium.com).
func IsSameSite(rawURL, host string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	h := strings.ToLower(parsed.Hostname())
	host = strings.ToLower(host)
	return h == host || strings.HasSuffix(h, "."+host)
}

// IsStaticAsset checks if a URL points to a static asset (image, CSS, JS, etc.).
func IsStaticAsset(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return staticExtensions[strings.ToLower(path.Ext(parsed.Path))]
}

// LooksLikeArticle reports whether the URL path ends in an article slug and
// does not belong to a platform page.
func LooksLikeArticle(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.Trim(parsed.Path, "/")
	if p == "" {
		return false
	}
	segments := strings.Split(p, "/")
	if platformPrefixes[strings.ToLower(segments[0])] {
		return false
	}
	return articleSlug.MatchString(segments[len(segments)-1])
}

// NormalizeURL strips the query, fragment and trailing slash so tracking
// parameters (?source=...) do not produce duplicates.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}
	return parsed.String()
}
