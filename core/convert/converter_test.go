package convert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gaurav-prasanna/article2md/core"
	"github.com/gaurav-prasanna/article2md/core/extract"
	"github.com/gaurav-prasanna/article2md/core/fetch"
	"github.com/gaurav-prasanna/article2md/core/imagecache"
	"github.com/gaurav-prasanna/article2md/core/logging"
	"github.com/gaurav-prasanna/article2md/core/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

type site struct {
	srv        *httptest.Server
	imageHits  atomic.Int32
	imageFails bool
}

func newSite(t *testing.T) *site {
	t.Helper()
	s := &site{}
	mux := http.NewServeMux()
	mux.HandleFunc("/post", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html lang="fr"><body><h1>Title</h1><article>` +
			`<p>Hello *world*</p><img src="/a.png"><p>After</p></article></body></html>`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Only a title</h1></body></html>`))
	})
	mux.HandleFunc("/a.png", func(w http.ResponseWriter, r *http.Request) {
		s.imageHits.Add(1)
		if s.imageFails {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func newConverter(t *testing.T, baseURL string) (*Converter, string) {
	t.Helper()
	root := t.TempDir()
	log := logging.Discard()
	fetcher := fetch.New(fetch.Config{Timeout: 5 * time.Second})
	cache, err := imagecache.New(filepath.Join(root, "images"), fetcher, imagecache.Options{Logger: log})
	require.NoError(t, err)
	extractor, err := extract.New(cache, extract.Options{BaseURL: baseURL, RelativeTo: root, Logger: log})
	require.NoError(t, err)
	return New(fetcher, extractor, normalize.New(), log), root
}

func TestConvertEndToEnd(t *testing.T) {
	s := newSite(t)
	c, root := newConverter(t, s.srv.URL)

	article, err := c.Article(context.Background(), s.srv.URL+"/post")
	require.NoError(t, err)

	imageURL := s.srv.URL + "/a.png"
	rel := "images/" + imagecache.Fingerprint(imageURL) + ".png"
	assert.Equal(t, "# Title\n\nHello \\*world\\*\n\n![Image]("+rel+")\n\nAfter", article.Markdown)
	assert.Equal(t, "Title", article.Title)
	assert.Equal(t, "fr", article.Language)
	assert.Equal(t, s.srv.URL+"/post", article.URL)

	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	// Second conversion reuses the cached file.
	_, err = c.Convert(context.Background(), s.srv.URL+"/post")
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.imageHits.Load())
}

func TestConvertImageFailureKeepsText(t *testing.T) {
	s := newSite(t)
	s.imageFails = true
	c, root := newConverter(t, s.srv.URL)

	md, err := c.Convert(context.Background(), s.srv.URL+"/post")
	require.NoError(t, err)

	assert.Equal(t, "# Title\n\nHello \\*world\\*\n\nAfter", md)
	entries, err := os.ReadDir(filepath.Join(root, "images"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertNoArticle(t *testing.T) {
	s := newSite(t)
	c, _ := newConverter(t, s.srv.URL)

	md, err := c.Convert(context.Background(), s.srv.URL+"/empty")
	assert.ErrorIs(t, err, extract.ErrNoArticle)
	assert.Empty(t, md)
}

func TestConvertFetchFailure(t *testing.T) {
	s := newSite(t)
	c, _ := newConverter(t, s.srv.URL)

	_, err := c.Convert(context.Background(), s.srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrFetch)
	var statusErr *fetch.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestConvertInvalidURL(t *testing.T) {
	c, _ := newConverter(t, "https://medium.com")

	for _, u := range []string{"", "medium.com/post", "://nope"} {
		_, err := c.Convert(context.Background(), u)
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
}

func TestConvertToFile(t *testing.T) {
	s := newSite(t)
	c, root := newConverter(t, s.srv.URL)
	path := filepath.Join(root, "out", "post.md")

	md, err := c.ConvertToFile(context.Background(), s.srv.URL+"/post", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, md, string(data))
	assert.True(t, strings.HasPrefix(md, "# Title"))
}

func TestMetadata(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	meta := Metadata(&core.Article{URL: "https://medium.com/@u/post-1", Title: "T"}, at)

	assert.Equal(t, core.PageMetadata{
		URL:       "https://medium.com/@u/post-1",
		Domain:    "medium.com",
		Path:      "/@u/post-1",
		Title:     "T",
		Language:  "en",
		FetchedAt: "2024-05-01T11:00:00Z",
	}, meta)
}
