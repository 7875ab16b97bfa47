// Package convert wires the pipeline stages into the conversion entry point:
// fetch → extract → normalize, with optional persistence of the result.
package convert

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gaurav-prasanna/article2md/core"
	"github.com/gaurav-prasanna/article2md/core/output"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidURL is returned for URLs without a scheme or host.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrFetch wraps any failure to download the article page.
	ErrFetch = errors.New("fetching article")
)

// Converter turns article URLs into normalized Markdown.
type Converter struct {
	fetcher    core.Fetcher
	extractor  core.Extractor
	normalizer core.Normalizer
	log        logrus.FieldLogger
}

// New creates a Converter from its stages.
func New(fetcher core.Fetcher, extractor core.Extractor, normalizer core.Normalizer, log logrus.FieldLogger) *Converter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Converter{
		fetcher:    fetcher,
		extractor:  extractor,
		normalizer: normalizer,
		log:        log,
	}
}

// Article fetches rawURL and returns the converted article. Image failures
// only remove the affected images; a page without an article body fails
// with extract.ErrNoArticle.
func (c *Converter) Article(ctx context.Context, rawURL string) (*core.Article, error) {
	log := c.log.WithField("url", rawURL)
	log.Info("Starting conversion")

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q (must include scheme, e.g. https://medium.com/...)", ErrInvalidURL, rawURL)
	}

	result, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		log.WithError(err).Error("Failed to fetch article")
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	article, err := c.extractor.Extract(ctx, result.HTML())
	if err != nil {
		log.WithError(err).Error("Conversion failed")
		return nil, fmt.Errorf("extract: %w", err)
	}

	article.URL = rawURL
	article.Markdown = c.normalizer.Normalize(article.Markdown)
	log.WithField("images", len(article.Images)).Info("Successfully converted article to markdown")
	return article, nil
}

// Convert returns the Markdown for rawURL.
func (c *Converter) Convert(ctx context.Context, rawURL string) (string, error) {
	article, err := c.Article(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return article.Markdown, nil
}

// ConvertToFile converts rawURL, writes the Markdown to path and returns it.
func (c *Converter) ConvertToFile(ctx context.Context, rawURL, path string) (string, error) {
	markdown, err := c.Convert(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if err := output.WriteFile(path, []byte(markdown)); err != nil {
		c.log.WithError(err).WithField("file", path).Error("Failed to save markdown")
		return markdown, err
	}
	c.log.WithField("file", path).Info("Saved markdown")
	return markdown, nil
}

// Metadata describes the converted page for the renderers.
func Metadata(article *core.Article, fetchedAt time.Time) core.PageMetadata {
	meta := core.PageMetadata{
		URL:       article.URL,
		Title:     article.Title,
		Language:  article.Language,
		FetchedAt: fetchedAt.UTC().Format(time.RFC3339),
	}
	if meta.Language == "" {
		meta.Language = "en" // sensible default
	}
	if parsed, err := url.Parse(article.URL); err == nil {
		meta.Domain = parsed.Host
		meta.Path = parsed.Path
	}
	return meta
}
