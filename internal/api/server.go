package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/platebridge/portal/internal/api/handler"
	mw "github.com/platebridge/portal/internal/api/middleware"
	"github.com/platebridge/portal/internal/config"
	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/events"
	"github.com/platebridge/portal/internal/gatewise"
	"github.com/platebridge/portal/internal/storage"
)

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	services    *core.Services
	pool        *pgxpool.Pool
	cfg         *config.Config
	auditLogger *mw.AuditLogger
	hub         *events.Hub
	gate        *gatewise.Client
	snapshots   *storage.SnapshotStore
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, cfg *config.Config, snapshots *storage.SnapshotStore) *Server {
	hub := events.NewHub()
	gate := gatewise.NewClient()
	services := core.NewServices(pool, gate, hub, cfg.SessionSecret, logger)
	auditLogger := mw.NewAuditLogger(pool, logger)

	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		services:    services,
		pool:        pool,
		cfg:         cfg,
		auditLogger: auditLogger,
		hub:         hub,
		gate:        gate,
		snapshots:   snapshots,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Session login sits outside the authenticated group.
		auth := handler.NewAuth(s.services.Auth, s.services.User)
		r.Post("/auth/login", auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.services.Auth))
			r.Use(s.auditLogger.Middleware)

			r.Get("/auth/me", auth.Me)

			// Dashboard
			dashboard := handler.NewDashboard(s.services.Dashboard)
			r.Get("/dashboard/stats", dashboard.Stats)

			// Search
			search := handler.NewSearch(s.services.Search)
			r.Get("/search", search.Search)

			// Live event feed (websocket)
			eventsFeed := handler.NewEvents(s.hub, s.logger)
			r.Get("/events/feed", eventsFeed.Feed)

			// Audit logs
			audit := handler.NewAudit(s.pool)
			r.With(mw.RequireRole("admin")).Get("/audit-logs", audit.List)

			// Companies
			company := handler.NewCompany(s.services.Company)
			r.Get("/companies", company.List)
			r.With(mw.RequireRole("admin")).Post("/companies", company.Create)
			r.Get("/companies/{id}", company.Get)
			r.With(mw.RequireRole("admin")).Put("/companies/{id}", company.Update)
			r.With(mw.RequireRole("admin")).Delete("/companies/{id}", company.Delete)

			// Communities
			community := handler.NewCommunity(s.services.Community)
			r.Get("/companies/{companyID}/communities", community.ListByCompany)
			r.With(mw.RequireRole("manager")).Post("/companies/{companyID}/communities", community.Create)
			r.Get("/communities/{id}", community.Get)
			r.With(mw.RequireRole("manager")).Put("/communities/{id}", community.Update)
			r.With(mw.RequireRole("admin")).Delete("/communities/{id}", community.Delete)

			// Sites
			site := handler.NewSite(s.services.Site)
			r.Get("/communities/{communityID}/sites", site.ListByCommunity)
			r.With(mw.RequireRole("manager")).Post("/communities/{communityID}/sites", site.Create)
			r.Get("/sites/{id}", site.Get)
			r.With(mw.RequireRole("manager")).Put("/sites/{id}", site.Update)
			r.With(mw.RequireRole("admin")).Delete("/sites/{id}", site.Delete)

			// Pods
			pod := handler.NewPod(s.services.Pod)
			r.Get("/sites/{siteID}/pods", pod.ListBySite)
			r.With(mw.RequireRole("manager")).Post("/sites/{siteID}/pods", pod.Create)
			r.Get("/pods/{id}", pod.Get)
			r.With(mw.RequireRole("manager")).Put("/pods/{id}", pod.Update)
			r.With(mw.RequireRole("admin")).Delete("/pods/{id}", pod.Delete)

			// Cameras
			camera := handler.NewCamera(s.services.Camera)
			r.Get("/pods/{podID}/cameras", camera.ListByPod)
			r.With(mw.RequireRole("manager")).Post("/pods/{podID}/cameras", camera.Create)
			r.Get("/cameras/{id}", camera.Get)
			r.With(mw.RequireRole("manager")).Put("/cameras/{id}", camera.Update)
			r.With(mw.RequireRole("manager")).Delete("/cameras/{id}", camera.Delete)

			// Access entries
			accessEntry := handler.NewAccessEntry(s.services.AccessEntry, s.services.Evaluator, s.services.AccessLog, s.logger)
			r.Get("/communities/{communityID}/access-entries", accessEntry.ListByCommunity)
			r.With(mw.RequireRole("manager")).Post("/communities/{communityID}/access-entries", accessEntry.Create)
			r.Post("/communities/{communityID}/access/check", accessEntry.Check)
			r.Get("/access-entries/{id}", accessEntry.Get)
			r.With(mw.RequireRole("manager")).Put("/access-entries/{id}", accessEntry.Update)
			r.With(mw.RequireRole("manager")).Post("/access-entries/{id}/activate", accessEntry.Activate)
			r.With(mw.RequireRole("manager")).Post("/access-entries/{id}/deactivate", accessEntry.Deactivate)
			r.With(mw.RequireRole("manager")).Delete("/access-entries/{id}", accessEntry.Delete)

			// Access settings
			accessSettings := handler.NewAccessSettings(s.services.AccessSettings)
			r.Get("/communities/{communityID}/access-settings", accessSettings.Get)
			r.With(mw.RequireRole("manager")).Put("/communities/{communityID}/access-settings", accessSettings.Put)

			// Access logs
			var presigner handler.SnapshotPresigner
			if s.snapshots != nil {
				presigner = s.snapshots
			}
			accessLog := handler.NewAccessLog(s.services.AccessLog, presigner)
			r.Get("/communities/{communityID}/access-logs", accessLog.ListByCommunity)
			r.Get("/access-logs/{id}", accessLog.Get)
			r.Get("/access-logs/{id}/snapshot-url", accessLog.SnapshotURL)

			// Gatewise relay config
			gw := handler.NewGatewise(s.services.Gatewise, s.gate)
			r.Get("/communities/{communityID}/gatewise", gw.Get)
			r.With(mw.RequireRole("manager")).Put("/communities/{communityID}/gatewise", gw.Put)
			r.With(mw.RequireRole("manager")).Delete("/communities/{communityID}/gatewise", gw.Delete)
			r.With(mw.RequireRole("manager")).Post("/communities/{communityID}/gatewise/test", gw.Test)

			// Pod API keys
			podKey := handler.NewPodAPIKey(s.services.PodAPIKey)
			r.Get("/communities/{communityID}/pod-api-keys", podKey.ListByCommunity)
			r.With(mw.RequireRole("manager")).Post("/communities/{communityID}/pod-api-keys", podKey.Create)
			r.Get("/pod-api-keys/{id}", podKey.Get)
			r.With(mw.RequireRole("manager")).Delete("/pod-api-keys/{id}", podKey.Revoke)

			// Registration tokens
			regToken := handler.NewRegistrationToken(s.services.RegistrationToken)
			r.Get("/communities/{communityID}/registration-tokens", regToken.ListByCommunity)
			r.With(mw.RequireRole("manager")).Post("/communities/{communityID}/registration-tokens", regToken.Create)
			r.With(mw.RequireRole("manager")).Delete("/registration-tokens/{id}", regToken.Revoke)

			// Users
			user := handler.NewUser(s.services.User)
			r.With(mw.RequireRole("admin")).Get("/users", user.List)
			r.With(mw.RequireRole("admin")).Post("/users", user.Create)
			r.With(mw.RequireRole("admin")).Get("/users/{id}", user.Get)
			r.With(mw.RequireRole("admin")).Put("/users/{id}", user.Update)
			r.With(mw.RequireRole("admin")).Put("/users/{id}/password", user.SetPassword)
			r.With(mw.RequireRole("admin")).Delete("/users/{id}", user.Delete)
		})
	})

	// Edge plane: pods authenticate with their own API keys, except the
	// registration exchange which authenticates with a one-time token.
	s.router.Route("/api/edge/v1", func(r chi.Router) {
		register := handler.NewRegister(s.services.RegistrationToken, s.services.Pod, s.services.PodAPIKey, s.logger)
		r.Post("/register", register.Register)

		r.Group(func(r chi.Router) {
			r.Use(mw.PodAuth(s.services.PodAPIKey))

			detection := handler.NewDetection(s.services.Detection, s.services.Pod, s.logger)
			r.Post("/detections", detection.Report)

			sync := handler.NewSync(s.services.AccessEntry, s.services.AccessSettings)
			r.Get("/communities/{communityID}/access-list", sync.AccessList)
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.auditLogger.Close()
	s.hub.Close()
}
