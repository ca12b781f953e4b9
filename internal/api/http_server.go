package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Kenzy1995/Shuttle-system-sub000/internal/config"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/i18n"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/logging"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/metrics"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/render"
	"github.com/Kenzy1995/Shuttle-system-sub000/internal/service"
)

// HTTPServer is the transport in front of the wizard and lookup services.
// One request drives at most one transition; the wizard itself serializes
// per-session, so two racing requests queue rather than interleave.
type HTTPServer struct {
	cfg      config.ServerConfig
	wizard   *service.WizardService
	lookup   *service.LookupService
	catalog  *i18n.Catalog
	widget   driverWidget
	surfaces *render.SurfaceRegistry
	logger   *zerolog.Logger
	server   *http.Server
	auth     *HTTPAuth
}

type driverWidget interface {
	SetDriverPosition(lat, lng float64)
}

func NewHTTPServer(
	cfg config.ServerConfig,
	wizard *service.WizardService,
	lookup *service.LookupService,
	catalog *i18n.Catalog,
	widget driverWidget,
	surfaces *render.SurfaceRegistry,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:      cfg,
		wizard:   wizard,
		lookup:   lookup,
		catalog:  catalog,
		widget:   widget,
		surfaces: surfaces,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/sessions", srv.handleSessions)
	mux.HandleFunc("/api/v1/sessions/", srv.handleSessionAction)
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingAction)
	mux.HandleFunc("/api/v1/driver/position", srv.handleDriverPosition)

	root := http.NewServeMux()
	root.Handle("/api/", srv.auth.Wrap(mux))
	root.Handle("/metrics", promhttp.Handler())
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.loggingMiddleware(root),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("x-request-id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("x-request-id", requestID)

		l := logging.WithRequest(s.logger, requestID, r.URL.Path)
		r = r.WithContext(l.WithContext(r.Context()))

		start := time.Now()
		next.ServeHTTP(w, r)

		metrics.IncHTTP(r.URL.Path)
		l.Info().
			Str("method", r.Method).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// newViewBinder builds a throwaway binder over a slot buffer so a handler
// can return rendered text as data.
func (s *HTTPServer) newViewBinder(buf *render.SlotBuffer) *render.Binder {
	return render.NewBinder(s.catalog, buf, nil, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
