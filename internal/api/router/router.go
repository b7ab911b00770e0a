// Package router assembles the bridge's chi routing tree.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carebridge/ecw-bridge/internal/credentials"
	"github.com/carebridge/ecw-bridge/internal/http/handlers"
	httpmiddleware "github.com/carebridge/ecw-bridge/internal/http/middleware"
	"github.com/carebridge/ecw-bridge/internal/observability/metrics"
	"github.com/carebridge/ecw-bridge/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Handler            *handlers.Handler
	Credentials        *credentials.Service
	MetricsHandler     http.Handler
	MetricsGatherer    prometheus.Gatherer
	ServiceJWTSecret   string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints (health, metrics).
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.MetricsGatherer != nil {
			public.Get("/ops/upstream", upstreamSnapshotHandler(cfg))
		}
	})

	// Authenticated API surface.
	r.Group(func(api chi.Router) {
		if cfg.ServiceJWTSecret != "" {
			api.Use(httpmiddleware.ServiceJWT(cfg.ServiceJWTSecret))
		}

		api.Post("/add-credentials", cfg.Handler.AddCredentials)

		// Everything below talks to the EMR and needs a resolved credential.
		api.Group(func(emr chi.Router) {
			emr.Use(credentials.RequireCredential(cfg.Credentials))

			emr.Get("/facilities", cfg.Handler.Facilities)
			emr.Get("/providers", cfg.Handler.Providers)
			emr.Get("/reasons", cfg.Handler.Reasons)
			emr.Get("/visit-types", cfg.Handler.VisitTypes)
			emr.Get("/allergies", cfg.Handler.Allergies)
			emr.Get("/get-appointments", cfg.Handler.GetAppointments)
			emr.Post("/create-appointment", cfg.Handler.CreateAppointment)
			emr.Post("/update-appointment", cfg.Handler.UpdateAppointment)
			emr.Get("/get-patients", cfg.Handler.GetPatients)
			emr.Get("/progress_notes", cfg.Handler.ProgressNotes)
			emr.Post("/add-surg-hosp-items", cfg.Handler.AddSurgHospItems)
			emr.Post("/add-family-history-notes", cfg.Handler.AddFamilyHistoryNotes)
			emr.Post("/add-social-history-notes", cfg.Handler.AddSocialHistoryNotes)
			emr.Post("/add-med-hx-allergies", cfg.Handler.AddMedHxAllergies)
		})
	})

	return r
}

// upstreamSnapshotHandler summarizes EMR round-trip latency for operators
// who want a quick read without scraping /metrics.
func upstreamSnapshotHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap, err := metrics.SnapshotUpstream(cfg.MetricsGatherer)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("failed to snapshot upstream metrics", "error", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"metrics unavailable"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	}
}
