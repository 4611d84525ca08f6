// Package handler contains the HTTP handlers for the ingestion and
// reporting endpoints. Handlers depend on narrow interfaces so tests can
// drive them with fakes.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lumora-ai/alertsink/internal/api/response"
	"github.com/lumora-ai/alertsink/internal/ingest"
	"github.com/lumora-ai/alertsink/internal/telegram"
)

// Ingestor is the slice of the ingestion gateway the handlers use.
type Ingestor interface {
	ImportBulk(ctx context.Context, text string) (*ingest.Summary, error)
	HandleUpdate(ctx context.Context, upd telegram.Update) (*ingest.Summary, error)
	SyncUpdates(ctx context.Context, days int) (*ingest.Summary, error)
}

// NewImportHandler returns an http.HandlerFunc for POST /api/v1/import.
// The operator pastes a file of alert blocks; the response reports how
// many were inserted, skipped as duplicates, or failed.
func NewImportHandler(gw Ingestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Text == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "text is required", nil)
			return
		}

		summary, err := gw.ImportBulk(r.Context(), req.Text)
		if err != nil {
			response.Error(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE",
				"Could not reach the error store", nil)
			return
		}

		response.JSON(w, summary)
	}
}
