// Package api exposes the extraction service over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aqlanhadi/txnrecon/extractor"
	"github.com/aqlanhadi/txnrecon/extractor/source"
	"github.com/aqlanhadi/txnrecon/logger"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Processor is the part of the extraction service the API needs.
type Processor interface {
	ProcessReader(ctx context.Context, r io.Reader, filename string) (*extractor.Document, error)
	ExtractText(ctx context.Context, r io.Reader, filename string) (*extractor.TextDocument, error)
}

// Config holds the API server configuration
type Config struct {
	Port               string
	MaxUploadMB        int64
	RateLimitPerSecond float64
	RateLimitBurst     int
	AllowedOrigins     []string
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{
		Port:               ":8080",
		MaxUploadMB:        32,
		RateLimitPerSecond: 5,
		RateLimitBurst:     10,
		AllowedOrigins:     []string{"*"},
	}
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	mux       *http.ServeMux
	processor Processor
	metrics   *Metrics
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// New creates a new API server with the given configuration.
// A non-positive RateLimitPerSecond disables rate limiting.
func New(cfg Config, processor Processor, log zerolog.Logger) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = DefaultConfig().MaxUploadMB
	}
	s := &Server{
		config:    cfg,
		mux:       http.NewServeMux(),
		processor: processor,
		metrics:   NewMetrics(),
		log:       log,
	}
	if cfg.RateLimitPerSecond > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up the API endpoints
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/extract", s.handleExtract)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", s.metrics.Handler())
}

// Handler returns the mux wrapped in CORS and rate limiting.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.rateLimit(s.mux))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.config.Port).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// rateLimit rejects requests with 429 once the shared bucket is empty
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract handles statement upload and extraction requests
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		s.metrics.duration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	}()

	log := s.log.With().Str("remote", r.RemoteAddr).Logger()
	ctx := logger.WithContext(r.Context(), log)
	log.Debug().Msg("received extract request")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	maxBytes := s.config.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		log.Warn().Err(err).Msg("could not parse multipart form")
		writeError(w, http.StatusBadRequest, "could not parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not get uploaded file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not read file: "+err.Error())
		return
	}

	opts := s.parseExtractOptions(r)
	format := source.FormatOf(header.Filename)

	if opts.TextOnly {
		doc, err := s.processor.ExtractText(ctx, bytes.NewReader(data), header.Filename)
		if err != nil {
			s.fail(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
		return
	}

	doc, err := s.processor.ProcessReader(ctx, bytes.NewReader(data), header.Filename)
	if err != nil {
		s.metrics.observeDocument(format, "", "error", 0)
		s.fail(w, log, err)
		return
	}
	s.metrics.observeDocument(doc.Format, doc.Strategy, "ok", len(doc.Transactions))

	writeJSON(w, http.StatusOK, extractor.CreateFinalOutput(doc, opts.TransactionOnly, opts.PeriodOnly))
}

// fail maps extraction errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, extractor.ErrUnusableInput),
		errors.Is(err, extractor.ErrUnsupportedFormat),
		errors.Is(err, extractor.ErrNoLoader):
		log.Info().Err(err).Msg("rejected upload")
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("extraction failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// ExtractOptions holds the options for extraction
type ExtractOptions struct {
	PeriodOnly      bool
	TransactionOnly bool
	TextOnly        bool
}

// parseExtractOptions reads flags from form fields, falling back to the query.
func (s *Server) parseExtractOptions(r *http.Request) ExtractOptions {
	flag := func(name string) bool {
		return coalesce(r.FormValue(name), r.URL.Query().Get(name)) == "true"
	}
	return ExtractOptions{
		PeriodOnly:      flag("period_only"),
		TransactionOnly: flag("transaction_only"),
		TextOnly:        flag("text_only"),
	}
}

// writeJSON writes v as the response body with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a {"error": msg} body
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// coalesce returns the first non-empty string
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
