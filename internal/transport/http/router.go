package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/iams-api/internal/config"
	"github.com/iams-api/internal/domain"
	"github.com/iams-api/internal/transport/http/handler"
	appmiddleware "github.com/iams-api/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// lifetime of background helpers such as the rate limiter sweeper.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.Tokens)
	streamAuthMw := appmiddleware.AuthWithQueryToken(deps.Tokens)

	// 1 request/second, burst of 5, for endpoints that write on demand.
	writeRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(1), 5)

	healthH := handler.NewHealthHandler(deps.Registry)
	notifH := handler.NewNotificationHandler(deps.Notifications, cfg.SSEHeartbeatInterval)
	assetH := handler.NewAssetHandler(deps.Assets)
	alertH := handler.NewWarrantyAlertHandler(deps.Warranty)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Health)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())

		// The EventSource API cannot set headers, so the stream also takes
		// the token from the query string.
		r.With(streamAuthMw).Get("/notifications/stream", notifH.Stream)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/roles", handler.ListRoles)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/count", notifH.Count)
			r.Post("/notifications/read-all", notifH.MarkAllRead)
			r.With(writeRL.Limit).Post("/notifications/test", notifH.CreateTest)
			r.Post("/notifications/{id}/read", notifH.MarkRead)
			r.Delete("/notifications/{id}", notifH.Delete)

			r.Get("/assets", assetH.List)
			r.Get("/assets/{id}", assetH.Get)

			r.Get("/warranty-alerts", alertH.List)
			r.Post("/warranty-alerts/{id}/acknowledge", alertH.Acknowledge)

			// Admin and Manager
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager))

				r.Post("/assets", assetH.Create)
				r.Put("/assets/{id}/warranty", assetH.UpdateWarranty)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.With(writeRL.Limit).Post("/warranty-alerts/scan", alertH.Scan)
			})
		})
	})

	return r
}
