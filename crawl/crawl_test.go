package crawl

import (
	"context"
	"errors"
	"testing"

	"github.com/gaurav-prasanna/article2md/core"
	"github.com/gaurav-prasanna/article2md/core/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pages map[string]string

func (p pages) Fetch(_ context.Context, url string) (*core.FetchResult, error) {
	body, ok := p[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return &core.FetchResult{URL: url, StatusCode: 200, Body: []byte(body)}, nil
}

func TestDiscoverListingPage(t *testing.T) {
	site := pages{"https://medium.com/@writer": `
<a href="/@writer/first-post-1a2b3c4d5e6f?source=profile">First</a>
<a href="https://medium.com/@writer/first-post-1a2b3c4d5e6f#comments">First again</a>
<a href="https://writer.medium.com/second-post-abcdef123456">Second</a>
<a href="/tag/golang">Tag</a>
<a href="/m/signin?redirect=x-1a2b3c4d5e6f">Sign in</a>
<a href="https://other.com/post-1a2b3c4d5e6f">Elsewhere</a>
<a href="/@writer/followers">Followers</a>
<a href="mailto:me@example.com">Mail</a>
<a href="https://miro.medium.com/max/700/1-abcdef123456.png">Image</a>`}

	urls, err := Discover(context.Background(), "https://medium.com/@writer", site, Options{Logger: logging.Discard()})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://medium.com/@writer/first-post-1a2b3c4d5e6f",
		"https://writer.medium.com/second-post-abcdef123456",
	}, urls)
}

func TestDiscoverSitemap(t *testing.T) {
	site := pages{"https://blog.example.com/sitemap.xml": `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://blog.example.com/a-post-0123456789ab</loc></url>
  <url><loc>https://blog.example.com/about</loc></url>
  <url><loc> https://blog.example.com/b-post-ba9876543210/ </loc></url>
</urlset>`}

	urls, err := Discover(context.Background(), "https://blog.example.com/sitemap.xml", site, Options{Logger: logging.Discard()})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://blog.example.com/a-post-0123456789ab",
		"https://blog.example.com/b-post-ba9876543210",
	}, urls)
}

func TestDiscoverMaxArticles(t *testing.T) {
	site := pages{"https://medium.com/pub": `
<a href="/pub/a-00000000aaaa">a</a>
<a href="/pub/b-00000000bbbb">b</a>
<a href="/pub/c-00000000cccc">c</a>`}

	urls, err := Discover(context.Background(), "https://medium.com/pub", site, Options{MaxArticles: 2, Logger: logging.Discard()})
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestDiscoverFetchError(t *testing.T) {
	_, err := Discover(context.Background(), "https://medium.com/missing", pages{}, Options{Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestLooksLikeArticle(t *testing.T) {
	tests := map[string]bool{
		"https://medium.com/@u/my-post-1a2b3c4d":      true,
		"https://medium.com/pub/my-post-1a2b3c4d5e6f": true,
		"https://medium.com/@u":                       false,
		"https://medium.com/tag/go-1a2b3c4d":          false,
		"https://medium.com/":                         false,
		"https://medium.com/@u/about":                 false,
	}
	for in, want := range tests {
		assert.Equal(t, want, LooksLikeArticle(in), in)
	}
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://medium.com/p/x-1a2b3c4d", NormalizeURL("https://medium.com/p/x-1a2b3c4d/?source=rss#top"))
	assert.Equal(t, "https://medium.com/", NormalizeURL("https://medium.com/"))
}

func TestQueueDeduplicates(t *testing.T) {
	q := NewQueue()
	assert.True(t, q.Add("a"))
	assert.True(t, q.Add("b"))
	assert.False(t, q.Add("a"))
	assert.Equal(t, []string{"a", "b"}, q.All())
	assert.Equal(t, 2, q.Len())
}
