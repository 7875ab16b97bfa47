// Package imagecache stores article images on disk under names derived from
// their source URL. The directory is a flat namespace of
// {md5(url)}{ext} files; a file that exists is never fetched again.
package imagecache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/article2md/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrNotImage is returned when the server answers with a non-image content type.
var ErrNotImage = errors.New("not an image")

// allowedExtensions are kept from the URL path; anything else is stored as .jpg.
var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

const defaultExtension = ".jpg"

// Options configures New.
type Options struct {
	// Rate limits image downloads per second. Zero disables limiting.
	Rate   float64
	Logger logrus.FieldLogger
}

// Cache resolves image URLs to local files, downloading on a miss.
type Cache struct {
	dir     string
	fetcher core.Fetcher
	limiter *rate.Limiter
	log     logrus.FieldLogger
	group   singleflight.Group
}

// New creates a Cache rooted at dir, creating the directory if needed.
func New(dir string, fetcher core.Fetcher, opts Options) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	c := &Cache{dir: dir, fetcher: fetcher, log: opts.Logger}
	if opts.Rate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Fingerprint returns the cache key for an image URL. It depends only on
// the URL string, never on the downloaded bytes.
func Fingerprint(imageURL string) string {
	sum := md5.Sum([]byte(imageURL))
	return hex.EncodeToString(sum[:])
}

// Extension infers the stored file extension from the URL path.
func Extension(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if !allowedExtensions[ext] {
		return defaultExtension
	}
	return ext
}

// PathFor returns where the image for imageURL is (or would be) stored.
func (c *Cache) PathFor(imageURL string) string {
	return filepath.Join(c.dir, Fingerprint(imageURL)+Extension(imageURL))
}

// Resolve returns the local path for imageURL, downloading it first if it
// is not cached yet. Concurrent calls for the same URL share one download.
func (c *Cache) Resolve(ctx context.Context, imageURL string) (string, error) {
	dest := c.PathFor(imageURL)
	if fileExists(dest) {
		c.log.WithField("path", dest).Debug("Image already cached")
		return dest, nil
	}

	v, err, _ := c.group.Do(Fingerprint(imageURL), func() (interface{}, error) {
		// Another caller may have finished while we waited to enter.
		if fileExists(dest) {
			return dest, nil
		}
		if err := c.download(ctx, imageURL, dest); err != nil {
			return "", err
		}
		return dest, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Cache) download(ctx context.Context, imageURL, dest string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	res, err := c.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("downloading image: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(res.ContentType), "image/") {
		c.log.WithFields(logrus.Fields{
			"url":          imageURL,
			"content_type": res.ContentType,
		}).Warn("URL is not an image")
		return fmt.Errorf("%s (content-type %q): %w", imageURL, res.ContentType, ErrNotImage)
	}

	// Write beside the destination and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(res.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing image: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("storing image: %w", err)
	}

	c.log.WithFields(logrus.Fields{"url": imageURL, "path": dest, "bytes": len(res.Body)}).Info("Downloaded image")
	return nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
