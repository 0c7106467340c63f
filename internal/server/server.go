// Package server exposes the gateway over HTTP: speech-to-text, title
// generation, mail relay and the in-memory log query endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"bericht/internal/logging"
	"bericht/internal/services/mailer"
	"bericht/internal/services/whisper"
)

const (
	defaultMaxUploadBytes = 100 << 20
	defaultRequestTimeout = 300 * time.Second
	shutdownTimeout       = 5 * time.Second
)

// Transcriber converts uploaded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (*whisper.Transcription, error)
}

// TitleGenerator produces a headline for a text.
type TitleGenerator interface {
	Generate(ctx context.Context, text string) (string, error)
}

// MailSender relays a single message.
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Options controls transport behaviour.
type Options struct {
	Bind           string
	APIToken       string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	Version        string
}

// Deps are the collaborators behind the handlers. Store is the same
// instance the logger writes into.
type Deps struct {
	Store       *logging.Store
	Transcriber Transcriber
	Titles      TitleGenerator
	Mailer      MailSender
	Logger      *slog.Logger
}

// Server owns the router and the HTTP listener.
type Server struct {
	opts   Options
	deps   Deps
	logger *slog.Logger
	router chi.Router

	listener net.Listener
	server   *http.Server
}

// New builds the router. Missing collaborators make their endpoints answer
// 503 instead of failing construction.
func New(opts Options, deps Deps) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	s := &Server{
		opts:   opts,
		deps:   deps,
		logger: logging.NewComponentLogger(deps.Logger, "http"),
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(Recovery(s.logger))
	r.Use(gzipMiddleware)
	r.Use(chimiddleware.Timeout(s.opts.RequestTimeout))

	r.Get("/health", s.handleHealth)
	r.Get("/docs", handleSwaggerUI)
	r.Get("/openapi.yaml", handleOpenAPIYAML)
	r.Get("/openapi.json", s.handleOpenAPIJSON)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(s.opts.APIToken))
		r.Post("/stt", s.handleTranscribe)
		r.Post("/title", s.handleTitle)
		r.Post("/send", s.handleSend)
		r.Get("/logs", s.handleLogs)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.router = r
}

func gzipMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	bind := strings.TrimSpace(s.opts.Bind)
	if bind == "" {
		return errors.New("http listen: bind address is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.opts.RequestTimeout,
		WriteTimeout:      s.opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("http server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Warn("http shutdown incomplete", logging.Error(err))
	}
}
