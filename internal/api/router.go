package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/lumora-ai/alertsink/internal/api/middleware"
	"github.com/lumora-ai/alertsink/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler      http.HandlerFunc
	ImportHandler      http.HandlerFunc
	WebhookHandler     http.HandlerFunc
	SyncHandler        http.HandlerFunc
	LeaderboardHandler http.HandlerFunc
	BreakdownHandler   http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Handle("/metrics", promhttp.Handler())

	// The webhook sits outside the rate limiter: Telegram's delivery rate
	// is not ours to throttle, and a 429 would trigger redelivery.
	r.Post("/api/v1/telegram/webhook", orNotImplemented(deps.WebhookHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/import", orNotImplemented(deps.ImportHandler))
		r.Post("/api/v1/sync", orNotImplemented(deps.SyncHandler))

		r.Get("/api/v1/reports/leaderboard", orNotImplemented(deps.LeaderboardHandler))
		r.Get("/api/v1/reports/breakdown", orNotImplemented(deps.BreakdownHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
