package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lumora-ai/alertsink/internal/api/response"
	"github.com/lumora-ai/alertsink/internal/telegram"
)

// NewSyncHandler returns an http.HandlerFunc for POST /api/v1/sync.
// The body is optional: {"days": N} overrides the default lookback window.
func NewSyncHandler(gw Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Days int `json:"days"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Days < 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "days must be positive", nil)
			return
		}

		summary, err := gw.SyncUpdates(r.Context(), req.Days)
		if err != nil {
			switch {
			case errors.Is(err, telegram.ErrTelegramUnreachable), errors.Is(err, telegram.ErrTelegramTimeout):
				response.Error(w, http.StatusBadGateway, "TELEGRAM_UNAVAILABLE",
					"Could not reach the Telegram Bot API", nil)
			case errors.Is(err, telegram.ErrTelegramAPIError):
				response.Error(w, http.StatusBadGateway, "TELEGRAM_API_ERROR",
					"The Telegram Bot API rejected the request", nil)
			default:
				response.Error(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE",
					"Could not reach the error store", nil)
			}
			return
		}

		response.JSON(w, syncResponse{
			Inserted:           summary.Inserted,
			Skipped:            summary.Skipped,
			TotalErrorMessages: summary.Total,
		})
	}
}

type syncResponse struct {
	Inserted           int `json:"inserted"`
	Skipped            int `json:"skipped"`
	TotalErrorMessages int `json:"total_error_messages"`
}
