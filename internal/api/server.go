// Package api exposes the portal over JSON/HTTP. Every record kind gets
// the same CRUD surface under /api/{kind}; events, opportunities, the
// dashboard, scraping jobs, browser hand-off and login have their own
// routes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/salesdesk/internal/auth"
	"github.com/mesh-intelligence/salesdesk/internal/dashboard"
	"github.com/mesh-intelligence/salesdesk/internal/intake"
	"github.com/mesh-intelligence/salesdesk/internal/metrics"
	"github.com/mesh-intelligence/salesdesk/internal/repository"
	"github.com/mesh-intelligence/salesdesk/internal/scraping"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Services are the components the API serves.
type Services struct {
	Store     *repository.Store
	Dashboard *dashboard.Service
	Scraping  *scraping.Service
	Intake    *intake.Service
	Auth      *auth.Authenticator
	Metrics   *metrics.Metrics // optional; nil disables GET /metrics
}

// Server routes HTTP requests to the services.
type Server struct {
	Services
	logger  *slog.Logger
	handler http.Handler
}

// NewServer builds the route table. A nil logger discards.
func NewServer(svc Services, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{Services: svc, logger: logger.With("component", "api")}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}
	s.handler = s.recoverPanics(s.logRequests(mux))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes(mux *http.ServeMux) error {
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	for _, kind := range types.StandardTableNames {
		tbl, err := s.Store.GetTable(kind)
		if err != nil {
			return err
		}
		prefix := "/api/" + kind
		if kind != types.EventsTable {
			mux.HandleFunc("GET "+prefix, s.handleList(tbl))
		}
		mux.HandleFunc("POST "+prefix, s.handleCreate(tbl))
		mux.HandleFunc("GET "+prefix+"/statistics", s.handleStatistics(tbl))
		mux.HandleFunc("GET "+prefix+"/{id}", s.handleGet(tbl))
		mux.HandleFunc("PATCH "+prefix+"/{id}", s.handleUpdate(tbl))
		mux.HandleFunc("DELETE "+prefix+"/{id}", s.handleDelete(tbl))
	}

	mux.HandleFunc("GET /api/events", s.handleListEvents)
	mux.HandleFunc("GET /api/events/by-country", s.handleEventsByCountry)
	mux.HandleFunc("GET /api/events/by-date-range", s.handleEventsByDateRange)
	mux.HandleFunc("GET /api/events/by-source-url", s.handleEventBySourceURL)
	mux.HandleFunc("GET /api/contacts/by-event", s.handleContactsByEvent)
	mux.HandleFunc("GET /api/opportunities/by-event", s.handleOpportunitiesByEvent)
	mux.HandleFunc("GET /api/opportunities/top", s.handleTopOpportunities)

	mux.HandleFunc("GET /api/dashboard/stats", s.handleDashboard)

	mux.HandleFunc("POST /api/scraping/jobs", s.handleStartJob)
	mux.HandleFunc("GET /api/scraping/jobs", s.handleAllJobs)
	mux.HandleFunc("GET /api/scraping/jobs/recent", s.handleRecentJobs)
	mux.HandleFunc("GET /api/scraping/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/scraping/jobs/{id}/events", s.handleJobEvents)
	mux.HandleFunc("POST /api/scraping/jobs/{id}/cancel", s.handleCancelJob)
	mux.HandleFunc("GET /api/scraping/stats", s.handleScrapingStats)

	mux.HandleFunc("POST /api/browser/events", s.handleBrowserEvents)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder captures the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		if s.Metrics != nil {
			s.Metrics.ObserveRequest(r.Method, r.Pattern, rec.status, elapsed)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", v)
				writeMessage(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// readBody returns the request body, capped at maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %v: %w", err, types.ErrInvalidData)
	}
	return data, nil
}

// decodeBody decodes a JSON body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, types.ErrInvalidData)
	}
	return nil
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
