// Package logging builds the logrus logger threaded through the pipeline.
// Output goes to stderr and, when a log directory is set, to a daily
// rotating file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Dir     string // empty disables the log file
	Verbose bool
	Stderr  io.Writer
	Now     func() time.Time
}

// New creates a logger writing to stderr and {Dir}/article2md_YYYYMMDD.log.
func New(opts Options) (*logrus.Logger, error) {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	out := opts.Stderr
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		out = io.MultiWriter(opts.Stderr, &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, "article2md_"+opts.Now().Format("20060102")+".log"),
			MaxSize:    10, // megabytes
			MaxBackups: 5,
		})
	}
	log.SetOutput(out)
	return log, nil
}

// Discard returns a logger that drops everything. Used by tests and as the
// fallback when a component is built without a logger.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
