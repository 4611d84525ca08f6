package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lumora-ai/alertsink/internal/api/response"
	"github.com/lumora-ai/alertsink/internal/telegram"
)

// NewWebhookHandler returns an http.HandlerFunc for
// POST /api/v1/telegram/webhook. It ALWAYS acknowledges success back to
// Telegram: a non-2xx response would make Telegram redeliver the update
// and retry-storm the endpoint, so internal failures are only logged.
func NewWebhookHandler(gw Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd telegram.Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			slog.Warn("webhook: undecodable update", "error", err)
			ack(w)
			return
		}

		if _, err := gw.HandleUpdate(r.Context(), upd); err != nil {
			slog.Error("webhook: ingestion failed", "update_id", upd.UpdateID, "error", err)
		}
		ack(w)
	}
}

func ack(w http.ResponseWriter) {
	response.JSON(w, map[string]string{"status": "received"})
}
