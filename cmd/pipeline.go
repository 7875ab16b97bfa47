package cmd

import (
	"fmt"

	"github.com/gaurav-prasanna/article2md/core/auth"
	"github.com/gaurav-prasanna/article2md/core/config"
	"github.com/gaurav-prasanna/article2md/core/convert"
	"github.com/gaurav-prasanna/article2md/core/extract"
	"github.com/gaurav-prasanna/article2md/core/fetch"
	"github.com/gaurav-prasanna/article2md/core/imagecache"
	"github.com/gaurav-prasanna/article2md/core/normalize"
	"github.com/sirupsen/logrus"
)

// pipeline is the set of components one command works with.
type pipeline struct {
	cookies   *auth.CookieStore
	fetcher   *fetch.HTTPFetcher
	converter *convert.Converter
}

// newPipeline wires cookie store → fetcher → image cache → extractor →
// normalizer into a Converter.
func newPipeline(cfg config.Config, log logrus.FieldLogger) (*pipeline, error) {
	cookies, err := auth.NewCookieStore(cfg.CookieFile, cfg.CookieDomains, log)
	if err != nil {
		return nil, fmt.Errorf("loading cookies: %w", err)
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:     cfg.Timeout,
		UserAgent:   cfg.UserAgent,
		Credentials: cookies,
	})

	images, err := imagecache.New(cfg.ImageDir, fetcher, imagecache.Options{
		Rate:   cfg.ImageRate,
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing image cache: %w", err)
	}

	extractor, err := extract.New(images, extract.Options{
		BaseURL:      cfg.BaseURL,
		Tables:       cfg.Tables,
		ImageWorkers: cfg.ImageWorkers,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing extractor: %w", err)
	}

	return &pipeline{
		cookies:   cookies,
		fetcher:   fetcher,
		converter: convert.New(fetcher, extractor, normalize.New(), log),
	}, nil
}
