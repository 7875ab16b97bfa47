// Package auth stores the browser session cookie used for member-only
// articles. The cookie is kept as the raw header string copied from a
// browser ("name=value; other=value") in a plain file.
package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// CookieStore implements core.Credentials backed by a cookie file.
type CookieStore struct {
	path    string
	domains []string
	log     logrus.FieldLogger

	mu      sync.RWMutex
	raw     string
	cookies map[string]string
}

// NewCookieStore loads the cookie file at path. A missing file is not an
// error; requests simply go out without a Cookie header. The cookie is only
// handed to hosts under one of domains; an empty list allows every host.
func NewCookieStore(path string, domains []string, log logrus.FieldLogger) (*CookieStore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &CookieStore{
		path:    path,
		domains: domains,
		log:     log,
		cookies: map[string]string{},
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.WithField("file", path).Warn("Cookie file not found, continuing unauthenticated")
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("reading cookie file: %w", err)
	}

	s.set(string(data))
	log.WithFields(logrus.Fields{"file": path, "cookies": len(s.cookies)}).Info("Loaded cookies")
	return s, nil
}

// Update replaces the stored cookie string and persists it.
func (s *CookieStore) Update(cookieString string) error {
	cookieString = strings.TrimSpace(cookieString)
	if cookieString == "" {
		return errors.New("empty cookie string")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating cookie directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(cookieString), 0600); err != nil {
		return fmt.Errorf("writing cookie file: %w", err)
	}

	s.set(cookieString)
	s.log.WithField("cookies", len(s.Cookies())).Info("Updated cookies")
	return nil
}

// Cookies returns a copy of the parsed name/value pairs.
func (s *CookieStore) Cookies() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.cookies))
	for k, v := range s.cookies {
		out[k] = v
	}
	return out
}

// CookieHeader returns the raw cookie string for hosts the store is scoped
// to, or "" otherwise.
func (s *CookieStore) CookieHeader(domain string) string {
	if !s.allowed(domain) {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw
}

func (s *CookieStore) set(raw string) {
	raw = strings.TrimSpace(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	s.cookies = ParseCookies(raw)
}

func (s *CookieStore) allowed(host string) bool {
	if len(s.domains) == 0 {
		return true
	}
	host = strings.ToLower(host)
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	for _, d := range s.domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// ParseCookies splits a "name=value; name2=value2" header into pairs.
// Segments without '=' are ignored; values may themselves contain '='.
func ParseCookies(raw string) map[string]string {
	cookies := map[string]string{}
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		cookies[name] = value
	}
	return cookies
}
