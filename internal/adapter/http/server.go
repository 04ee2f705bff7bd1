package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-trends-etl/internal/presenter"
)

//go:embed templates/*.html
var templateFS embed.FS

// Dashboard renders catalog views.
type Dashboard interface {
	Render(ctx context.Context) ([]presenter.View, error)
	RenderOne(ctx context.Context, id int) (presenter.View, error)
}

// Server serves the dashboard page, its JSON API, and the health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	page       *template.Template
	logger     *slog.Logger
}

// NewServer creates an HTTP server. Readiness is delegated to ready.
func NewServer(addr string, dashboard Dashboard, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dashboard: dashboard,
		page:      template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
		logger:    logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleDashboard)
	r.Route("/api/queries", func(r chi.Router) {
		r.Get("/", s.handleQueries)
		r.Get("/{id}", s.handleQuery)
	})
	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	views, err := s.dashboard.Render(r.Context())
	data := pageData{Sections: groupSections(views)}
	status := http.StatusOK
	if err != nil {
		s.logger.Error("render dashboard", "error", err)
		status = statusFor(err)
		data = pageData{Error: userMessage(err)}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.logger.Error("execute dashboard template", "error", err)
	}
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	views, err := s.dashboard.Render(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown query"})
		return
	}
	view, err := s.dashboard.RenderOne(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("render query", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": userMessage(err)})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, presenter.ErrUnknownQuery):
		return http.StatusNotFound
	case errors.Is(err, presenter.ErrNoData):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, presenter.ErrUnknownQuery):
		return "unknown query"
	case errors.Is(err, presenter.ErrNoData):
		return "No earthquake data is available yet. Run the ingest command, then reload."
	default:
		return "query failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
