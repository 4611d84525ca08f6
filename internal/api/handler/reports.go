package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lumora-ai/alertsink/internal/api/response"
	"github.com/lumora-ai/alertsink/internal/cache"
	"github.com/lumora-ai/alertsink/internal/report"
	"github.com/lumora-ai/alertsink/pkg/models"
)

const (
	defaultReportDays = 7
	maxReportDays     = 90
)

// ReportStore is the slice of the store the reporting handlers use.
type ReportStore interface {
	ListReportsByTimeRange(ctx context.Context, start, end time.Time) ([]*models.ErrorReport, error)
}

// NewLeaderboardHandler returns an http.HandlerFunc for
// GET /api/v1/reports/leaderboard?days=N. Results are cached with a short
// TTL; a cache failure falls back to computing from the store.
func NewLeaderboardHandler(s ReportStore, c cache.Cache, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := parseDays(r)

		if body, ok := cacheGet(r.Context(), c, cache.LeaderboardKey(days)); ok {
			response.Raw(w, body)
			return
		}

		reports, err := listWindow(r.Context(), s, days)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE",
				"Could not reach the error store", nil)
			return
		}

		board := report.Leaderboard(reports)
		serveAndCache(r.Context(), w, c, cache.LeaderboardKey(days), ttl, map[string]any{
			"days":        days,
			"leaderboard": board,
		})
	}
}

// NewBreakdownHandler returns an http.HandlerFunc for
// GET /api/v1/reports/breakdown?days=N.
func NewBreakdownHandler(s ReportStore, c cache.Cache, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := parseDays(r)

		if body, ok := cacheGet(r.Context(), c, cache.BreakdownKey(days)); ok {
			response.Raw(w, body)
			return
		}

		reports, err := listWindow(r.Context(), s, days)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE",
				"Could not reach the error store", nil)
			return
		}

		breakdown := report.BuildBreakdown(reports)
		serveAndCache(r.Context(), w, c, cache.BreakdownKey(days), ttl, map[string]any{
			"days":      days,
			"breakdown": breakdown,
		})
	}
}

func parseDays(r *http.Request) int {
	days := defaultReportDays
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	if days > maxReportDays {
		days = maxReportDays
	}
	return days
}

func listWindow(ctx context.Context, s ReportStore, days int) ([]*models.ErrorReport, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	return s.ListReportsByTimeRange(ctx, start, end)
}

// cacheGet returns the cached payload if present. Cache errors are
// treated as misses.
func cacheGet(ctx context.Context, c cache.Cache, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	body, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	return body, true
}

func serveAndCache(ctx context.Context, w http.ResponseWriter, c cache.Cache, key string, ttl time.Duration, data any) {
	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
		return
	}
	if c != nil && ttl > 0 {
		if err := c.Set(ctx, key, body, ttl); err != nil {
			slog.Warn("report cache write failed", "key", key, "error", err)
		}
	}
	response.Raw(w, body)
}
