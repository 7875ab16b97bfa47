// Package config holds runtime settings for article2md.
// Values come from defaults, then the environment (optionally a .env file),
// then command-line flags.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "ARTICLE2MD_"

// DefaultCookieDomains are the hosts the saved cookie is sent to.
var DefaultCookieDomains = []string{
	"medium.com",
	"towardsdatascience.com",
	"betterhumans.pub",
	"datadriveninvestor.com",
}

// Config configures the converter, the service and logging.
type Config struct {
	ImageDir      string
	CookieFile    string
	CookieDomains []string
	BaseURL       string // origin relative image sources are resolved against
	UserAgent     string
	Timeout       time.Duration
	ImageRate     float64 // image downloads per second, 0 = unlimited
	ImageWorkers  int
	Tables        bool
	LogDir        string
	Verbose       bool
	Addr          string
	CacheTTL      time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ImageDir:      "images",
		CookieFile:    "medium_cookies.txt",
		CookieDomains: append([]string(nil), DefaultCookieDomains...),
		BaseURL:       "https://medium.com",
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		Timeout:       30 * time.Second,
		ImageWorkers:  1,
		LogDir:        "logs",
		Addr:          ":5050",
		CacheTTL:      time.Hour,
	}
}

// FromEnv loads a .env file if present and applies ARTICLE2MD_* variables
// on top of Default. Malformed numeric values keep the default.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Default()
	if v, ok := lookup("IMAGE_DIR"); ok {
		cfg.ImageDir = v
	}
	if v, ok := lookup("COOKIE_FILE"); ok {
		cfg.CookieFile = v
	}
	if v, ok := lookup("COOKIE_DOMAINS"); ok {
		cfg.CookieDomains = splitList(v)
	}
	if v, ok := lookup("BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := lookup("USER_AGENT"); ok {
		cfg.UserAgent = v
	}
	if v, ok := lookup("TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v, ok := lookup("IMAGE_RATE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ImageRate = f
		}
	}
	if v, ok := lookup("IMAGE_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ImageWorkers = n
		}
	}
	if v, ok := lookup("TABLES"); ok {
		cfg.Tables, _ = strconv.ParseBool(v)
	}
	if v, ok := lookup("LOG_DIR"); ok {
		cfg.LogDir = v
	}
	if v, ok := lookup("VERBOSE"); ok {
		cfg.Verbose, _ = strconv.ParseBool(v)
	}
	if v, ok := lookup("ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := lookup("CACHE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}
	return cfg
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// splitList parses a comma separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
