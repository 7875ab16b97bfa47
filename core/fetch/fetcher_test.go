package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCredentials map[string]string

func (c staticCredentials) CookieHeader(domain string) string { return c[domain] }

func TestFetchSendsHeaders(t *testing.T) {
	var gotUA, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := New(Config{
		UserAgent:   "test-agent",
		Credentials: staticCredentials{"127.0.0.1": "sid=abc"},
	})

	res, err := f.Fetch(context.Background(), srv.URL+"/p/1")
	require.NoError(t, err)

	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "sid=abc", gotCookie)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", res.ContentType)
	assert.Equal(t, "<html><body>ok</body></html>", res.HTML())
}

func TestFetchWithoutCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Cookie"))
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	_, err := New(Config{Credentials: staticCredentials{}}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
}

func TestFetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		n := 10
		if r.URL.Path == "/big.png" {
			n = 100
		}
		_, _ = w.Write(make([]byte, n))
	}))
	defer srv.Close()

	f := New(Config{MaxBytes: 10})

	res, err := f.Fetch(context.Background(), srv.URL+"/exact.png")
	require.NoError(t, err)
	assert.Len(t, res.Body, 10)

	res, err = f.Fetch(context.Background(), srv.URL+"/big.png")
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Nil(t, res)
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Config{}).Fetch(context.Background(), srv.URL)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(Config{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}
