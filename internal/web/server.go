package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/vbonduro/fiscobras/internal/metrics"
	"github.com/vbonduro/fiscobras/internal/notify"
	"github.com/vbonduro/fiscobras/internal/photostore"
	"github.com/vbonduro/fiscobras/internal/service"
	"github.com/vbonduro/fiscobras/internal/stats"
)

const (
	// maxBodyBytes caps JSON request bodies; photos may travel inline as data URIs.
	maxBodyBytes = 10 << 20

	shutdownTimeout = 10 * time.Second
)

// Deps are the collaborators a Server dispatches to.
type Deps struct {
	Projects    *service.ProjectService
	Inspections *service.InspectionService
	Stats       *stats.Engine
	Dispatcher  *notify.Dispatcher
	Photos      *photostore.Offloader
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Environment string
}

type Server struct {
	projects    *service.ProjectService
	inspections *service.InspectionService
	stats       *stats.Engine
	dispatcher  *notify.Dispatcher
	photos      *photostore.Offloader
	metrics     *metrics.Metrics
	logger      *slog.Logger
	environment string
	started     time.Time
	mux         *http.ServeMux
}

func NewServer(d Deps) *Server {
	s := &Server{
		projects:    d.Projects,
		inspections: d.Inspections,
		stats:       d.Stats,
		dispatcher:  d.Dispatcher,
		photos:      d.Photos,
		metrics:     d.Metrics,
		logger:      d.Logger,
		environment: d.Environment,
		started:     time.Now(),
		mux:         http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1", s.handleAPIIndex)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.mux.HandleFunc("GET /api/v1/obras", s.handleListProjects)
	s.mux.HandleFunc("POST /api/v1/obras", s.handleCreateProject)
	s.mux.HandleFunc("GET /api/v1/obras/stats", s.handleOverviewStats)
	s.mux.HandleFunc("GET /api/v1/obras/{id}", s.handleGetProject)
	s.mux.HandleFunc("PUT /api/v1/obras/{id}", s.handleUpdateProject)
	s.mux.HandleFunc("DELETE /api/v1/obras/{id}", s.handleDeleteProject)
	s.mux.HandleFunc("GET /api/v1/obras/{id}/fiscalizacoes", s.handleListProjectInspections)

	s.mux.HandleFunc("GET /api/v1/fiscalizacoes", s.handleListInspections)
	s.mux.HandleFunc("POST /api/v1/fiscalizacoes", s.handleCreateInspection)
	s.mux.HandleFunc("GET /api/v1/fiscalizacoes/stats", s.handleInspectionStats)
	s.mux.HandleFunc("GET /api/v1/fiscalizacoes/{id}", s.handleGetInspection)
	s.mux.HandleFunc("PUT /api/v1/fiscalizacoes/{id}", s.handleUpdateInspection)
	s.mux.HandleFunc("DELETE /api/v1/fiscalizacoes/{id}", s.handleDeleteInspection)

	s.mux.HandleFunc("POST /api/v1/email/obra/{id}", s.handleEmailProject)
	s.mux.HandleFunc("POST /api/v1/email/fiscalizacao/{id}", s.handleEmailInspection)
	s.mux.HandleFunc("POST /api/v1/email/relatorio-obras", s.handleEmailReport)

	s.mux.HandleFunc("GET "+photostore.URLPrefix+"{key...}", s.handleGetPhoto)

	s.mux.HandleFunc("/", s.handleNotFound)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// requestLogger logs one line per request and feeds the request metrics. The
// route label is the matched mux pattern so path ids do not explode label
// cardinality.
func requestLogger(logger *slog.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(r.Method, route, rec.status, start)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func recoverer(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("panic serving request",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", v,
					"stack", string(debug.Stack()),
				)
				encodeJSON(logger, w, http.StatusInternalServerError, errorBody{Message: msgInternal})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, s.metrics, recoverer(s.logger, securityHeaders(s.mux))).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr, "environment", s.environment)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
