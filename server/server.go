// Package server exposes the converter over HTTP.
//
//	POST /convert       {"url": "...", "filename": "optional.md"}
//	POST /auth/cookies  {"cookies": "name=value; ..."}
//	GET  /health
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gaurav-prasanna/article2md/core/convert"
	"github.com/gaurav-prasanna/article2md/core/extract"
	"github.com/gaurav-prasanna/article2md/core/output"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Converter converts an article URL to Markdown.
type Converter interface {
	Convert(ctx context.Context, url string) (string, error)
}

// CookieUpdater replaces the stored authentication cookies.
type CookieUpdater interface {
	Update(cookies string) error
}

// Options configures a Server.
type Options struct {
	// CacheTTL keeps converted Markdown in memory per URL. Zero disables caching.
	CacheTTL time.Duration
	// OutputDir receives files requested through the filename field.
	OutputDir string
	// MaxBodyBytes caps request bodies, default 1MB.
	MaxBodyBytes int64
	Logger       logrus.FieldLogger
}

// Server handles conversion and cookie requests.
type Server struct {
	conv    Converter
	cookies CookieUpdater
	cache   *cache.Cache
	opts    Options
	log     logrus.FieldLogger
}

type convertRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

type cookiesRequest struct {
	Cookies string `json:"cookies"`
}

type response struct {
	Markdown string `json:"markdown,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Status   string `json:"status"`
}

// New creates a Server.
func New(conv Converter, cookies CookieUpdater, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	s := &Server{conv: conv, cookies: cookies, opts: opts, log: opts.Logger}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/convert", s.handleConvert)
	r.Post("/auth/cookies", s.handleCookies)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("Starting article2md service")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.log.Info("Stopping article2md service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithField("request_id", middleware.GetReqID(r.Context()))
	log.Info("Received conversion request")

	var req convertRequest
	if err := s.decode(w, r, &req); err != nil {
		log.WithError(err).Warn("Invalid request")
		writeJSON(w, http.StatusBadRequest, response{Error: "Invalid request", Status: "error"})
		return
	}
	if req.URL == "" {
		log.Error("No URL provided in request")
		writeJSON(w, http.StatusBadRequest, response{Error: "No URL provided", Status: "error"})
		return
	}
	log = log.WithField("url", req.URL)

	markdown, cached := s.cached(req.URL)
	if cached {
		log.Debug("Serving cached conversion")
	} else {
		var err error
		markdown, err = s.conv.Convert(r.Context(), req.URL)
		if err != nil {
			log.WithError(err).Error("Conversion error")
			writeJSON(w, statusFor(err), response{Error: err.Error(), Status: "error"})
			return
		}
		if s.cache != nil {
			s.cache.SetDefault(req.URL, markdown)
		}
	}

	if req.Filename != "" {
		s.save(log, req.Filename, markdown)
	}

	log.Info("Successfully converted article")
	writeJSON(w, http.StatusOK, response{Markdown: markdown, Status: "success"})
}

func (s *Server) handleCookies(w http.ResponseWriter, r *http.Request) {
	var req cookiesRequest
	if err := s.decode(w, r, &req); err != nil || req.Cookies == "" {
		s.log.Error("No cookies provided in request")
		writeJSON(w, http.StatusBadRequest, response{Error: "No cookies provided", Status: "error"})
		return
	}

	if err := s.cookies.Update(req.Cookies); err != nil {
		s.log.WithError(err).Error("Cookie update error")
		writeJSON(w, http.StatusInternalServerError, response{Error: "Failed to update cookies", Status: "error"})
		return
	}
	// Pages converted with the old cookies may have been paywalled.
	if s.cache != nil {
		s.cache.Flush()
	}
	writeJSON(w, http.StatusOK, response{Message: "Cookies updated successfully", Status: "success"})
}

func (s *Server) cached(url string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	v, ok := s.cache.Get(url)
	if !ok {
		return "", false
	}
	md, ok := v.(string)
	return md, ok
}

// save writes markdown into OutputDir. Only the base name of filename is
// used. A failed save is logged; the conversion still succeeds.
func (s *Server) save(log logrus.FieldLogger, filename, markdown string) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		log.WithField("filename", filename).Warn("Ignoring unusable filename")
		return
	}
	path := filepath.Join(s.opts.OutputDir, name)
	if err := output.WriteFile(path, []byte(markdown)); err != nil {
		log.WithError(err).Error("Failed to save markdown")
		return
	}
	log.WithField("file", path).Info("Successfully saved markdown")
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

// statusFor maps conversion errors to response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, convert.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, extract.ErrNoArticle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, convert.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("Handled request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
