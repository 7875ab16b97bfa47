package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "images", cfg.ImageDir)
	assert.Equal(t, "https://medium.com", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.ImageWorkers)
	assert.Equal(t, DefaultCookieDomains, cfg.CookieDomains)
}

func TestFromEnv(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env
	t.Setenv("ARTICLE2MD_IMAGE_DIR", " assets/img ")
	t.Setenv("ARTICLE2MD_COOKIE_DOMAINS", "example.com, ,blog.example.org")
	t.Setenv("ARTICLE2MD_TIMEOUT", "5s")
	t.Setenv("ARTICLE2MD_IMAGE_RATE", "2.5")
	t.Setenv("ARTICLE2MD_IMAGE_WORKERS", "4")
	t.Setenv("ARTICLE2MD_TABLES", "true")
	t.Setenv("ARTICLE2MD_CACHE_TTL", "not-a-duration")

	cfg := FromEnv()

	assert.Equal(t, "assets/img", cfg.ImageDir)
	assert.Equal(t, []string{"example.com", "blog.example.org"}, cfg.CookieDomains)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.InDelta(t, 2.5, cfg.ImageRate, 1e-9)
	assert.Equal(t, 4, cfg.ImageWorkers)
	assert.True(t, cfg.Tables)
	assert.Equal(t, time.Hour, cfg.CacheTTL, "malformed value keeps the default")
}
