package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesStderrAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var stderr bytes.Buffer
	now := func() time.Time { return time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC) }

	log, err := New(Options{Dir: dir, Stderr: &stderr, Now: now})
	require.NoError(t, err)

	log.WithField("url", "https://medium.com/p/1").Info("conversion started")
	log.Debug("hidden at info level")

	assert.Contains(t, stderr.String(), "conversion started")
	assert.NotContains(t, stderr.String(), "hidden at info level")

	data, err := os.ReadFile(filepath.Join(dir, "article2md_20240309.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "url=\"https://medium.com/p/1\"")
}

func TestNewVerbose(t *testing.T) {
	var stderr bytes.Buffer
	log, err := New(Options{Verbose: true, Stderr: &stderr})
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	log.Debug("visible")
	assert.Contains(t, stderr.String(), "visible")
}
