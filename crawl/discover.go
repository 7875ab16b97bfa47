// Package crawl discovers article URLs for batch conversion (--all mode).
// Given a publication, profile or tag page it collects the article links on
// that page; given a sitemap (*.xml) it reads the listed URLs. Discovery is
// one level deep, it never follows links from the articles themselves.
package crawl

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/article2md/core"
	"github.com/sirupsen/logrus"
)

const defaultMaxArticles = 50

// sitemapURL holds a URL from a sitemap.xml.
type sitemapURL struct {
	Loc string `xml:"loc"`
}

// urlSet is the root element of a sitemap.xml.
type urlSet struct {
	URLs []sitemapURL `xml:"url"`
}

// Options configures Discover.
type Options struct {
	// MaxArticles caps the number of returned URLs, default 50.
	MaxArticles int
	Logger      logrus.FieldLogger
}

// Discover returns the article URLs listed on listURL, in page order and
// without duplicates. Links to other hosts, static assets and platform
// pages (tags, profiles, sign-in) are dropped.
func Discover(ctx context.Context, listURL string, fetcher core.Fetcher, opts Options) ([]string, error) {
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = defaultMaxArticles
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	parsed, err := url.Parse(listURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("parsing listing URL %q: invalid URL", listURL)
	}

	result, err := fetcher.Fetch(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}

	var links []string
	if strings.EqualFold(path.Ext(parsed.Path), ".xml") {
		links, err = sitemapLinks(result.Body)
	} else {
		links, err = pageLinks(result.HTML(), parsed)
	}
	if err != nil {
		return nil, err
	}

	self := NormalizeURL(listURL)
	queue := NewQueue()
	for _, link := range links {
		if queue.Len() >= opts.MaxArticles {
			break
		}
		if !IsSameSite(link, parsed.Hostname()) || IsStaticAsset(link) || !LooksLikeArticle(link) {
			continue
		}
		if normalized := NormalizeURL(link); normalized != self {
			queue.Add(normalized)
		}
	}

	opts.Logger.WithFields(logrus.Fields{
		"url":      listURL,
		"links":    len(links),
		"articles": queue.Len(),
	}).Info("Discovered articles")
	return queue.All(), nil
}

// sitemapLinks parses a sitemap.xml body.
func sitemapLinks(body []byte) ([]string, error) {
	var set urlSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parsing sitemap: %w", err)
	}
	links := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			links = append(links, loc)
		}
	}
	return links, nil
}

// pageLinks extracts all href values from <a> tags, resolving relative URLs.
func pageLinks(html string, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing listing HTML: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if resolved := resolveURL(strings.TrimSpace(href), base); resolved != "" {
			links = append(links, resolved)
		}
	})
	return links, nil
}

// resolveURL resolves a potentially relative URL against a base.
func resolveURL(href string, base *url.URL) string {
	if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	return resolved.String()
}
