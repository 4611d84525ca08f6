package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lumora-ai/alertsink/internal/store"
	"github.com/lumora-ai/alertsink/internal/telegram"
	"github.com/lumora-ai/alertsink/pkg/models"
)

// AlertMarker is the substring that makes a text block an error-alert
// candidate at all. The alerting bot prefixes it with a glyph, which is
// why the check is a substring match rather than a prefix match.
const AlertMarker = "Error Alert"

// maxSyncCandidates caps the work one poll-sync invocation does.
const maxSyncCandidates = 500

// Channel names used for logging and metrics labels.
const (
	ChannelBulk    = "bulk"
	ChannelWebhook = "webhook"
	ChannelSync    = "sync"
)

// Candidate is one raw alert plus its dedup key, ready for ingestion.
type Candidate struct {
	Text     string
	DedupKey int64
}

// Summary reports the outcome of one ingestion batch. Errors holds
// per-record failures in input order; they never abort the batch.
type Summary struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Total    int      `json:"total"`
	Errors   []string `json:"errors,omitempty"`
}

// Config holds the channel-facing knobs of the gateway.
type Config struct {
	// ChatID is the Telegram chat whose messages are eligible. Updates
	// from any other chat are dropped.
	ChatID int64
	// MinBlockLength filters out bulk-import fragments too short to be
	// real alerts.
	MinBlockLength int
	// DefaultDays is the poll-sync lookback window when a request does
	// not override it.
	DefaultDays int
}

// Gateway normalizes, deduplicates, and persists error alerts. All three
// ingestion channels funnel into Ingest; the exported channel methods are
// thin adapters that assemble (text, dedup key) candidates.
type Gateway struct {
	store    store.Store
	telegram telegram.Client
	cfg      Config
}

// NewGateway creates a Gateway. The telegram client may be nil when only
// the bulk and webhook channels are used.
func NewGateway(s store.Store, tg telegram.Client, cfg Config) *Gateway {
	if cfg.MinBlockLength <= 0 {
		cfg.MinBlockLength = 50
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 7
	}
	return &Gateway{store: s, telegram: tg, cfg: cfg}
}

// Ingest runs the shared dedup-check/parse/insert cycle over candidates,
// sequentially and in input order so counts and error indices are
// deterministic. Per-record failures are collected in the summary; the
// only request-level failure is the initial connectivity check.
func (g *Gateway) Ingest(ctx context.Context, channel string, candidates []Candidate) (*Summary, error) {
	if err := g.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store unavailable: %w", err)
	}

	summary := &Summary{Total: len(candidates)}
	for i, c := range candidates {
		existing, err := g.store.FindReportByDedupKey(ctx, c.DedupKey)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d: lookup failed: %v", i, err))
			recordOutcome(channel, "error")
			continue
		}
		if existing != nil {
			summary.Skipped++
			recordOutcome(channel, "skipped")
			continue
		}

		report := buildReport(c)
		if err := g.store.CreateErrorReport(ctx, report); err != nil {
			// A concurrent writer winning the check-then-insert race
			// surfaces as a duplicate key; count it as a skip.
			if errors.Is(err, store.ErrDuplicateKey) {
				summary.Skipped++
				recordOutcome(channel, "skipped")
				continue
			}
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d: insert failed: %v", i, err))
			recordOutcome(channel, "error")
			continue
		}
		summary.Inserted++
		recordOutcome(channel, "inserted")
	}

	slog.Info("ingestion batch processed",
		"channel", channel,
		"total", summary.Total,
		"inserted", summary.Inserted,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
	)
	return summary, nil
}

// ImportBulk ingests operator-pasted alert text. Blocks without a natural
// message id get a synthesized fingerprint key, so re-importing the same
// file only skips.
func (g *Gateway) ImportBulk(ctx context.Context, text string) (*Summary, error) {
	blocks := SplitBlocks(text, g.cfg.MinBlockLength)
	candidates := make([]Candidate, 0, len(blocks))
	for _, block := range blocks {
		candidates = append(candidates, Candidate{Text: block, DedupKey: Fingerprint(block)})
	}
	return g.Ingest(ctx, ChannelBulk, candidates)
}

// HandleUpdate ingests a single pushed Telegram update. Updates from the
// wrong chat or without the alert marker are dropped without touching the
// store; the caller must still acknowledge success to Telegram.
func (g *Gateway) HandleUpdate(ctx context.Context, upd telegram.Update) (*Summary, error) {
	msg := upd.Alert()
	if msg == nil || msg.Chat.ID != g.cfg.ChatID {
		if msg != nil {
			slog.Debug("webhook update dropped: chat mismatch",
				"chat_id", msg.Chat.ID, "want", g.cfg.ChatID)
		}
		return &Summary{}, nil
	}
	if !isAlertText(msg.Text) {
		return &Summary{}, nil
	}
	return g.Ingest(ctx, ChannelWebhook, []Candidate{{Text: msg.Text, DedupKey: msg.MessageID}})
}

// SyncUpdates pulls recent updates from the Bot API and ingests the ones
// from the configured chat within the trailing window. days <= 0 uses the
// configured default.
func (g *Gateway) SyncUpdates(ctx context.Context, days int) (*Summary, error) {
	if g.telegram == nil {
		return nil, errors.New("telegram client not configured")
	}
	if days <= 0 {
		days = g.cfg.DefaultDays
	}

	updates, err := g.telegram.GetUpdates(ctx, 0, 100)
	if err != nil {
		return nil, fmt.Errorf("fetch updates: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	var candidates []Candidate
	for _, upd := range updates {
		msg := upd.Alert()
		if msg == nil || msg.Chat.ID != g.cfg.ChatID {
			continue
		}
		if msg.Time().Before(cutoff) {
			continue
		}
		if !isAlertText(msg.Text) {
			continue
		}
		candidates = append(candidates, Candidate{Text: msg.Text, DedupKey: msg.MessageID})
		if len(candidates) >= maxSyncCandidates {
			break
		}
	}
	return g.Ingest(ctx, ChannelSync, candidates)
}

// buildReport parses one candidate into a persistable row. An alert with
// no recognizable sections still becomes a row carrying the raw text.
func buildReport(c Candidate) *models.ErrorReport {
	fields := Parse(c.Text)

	// Last-resort label: an unclassifiable error keeps its reported type.
	toolName := fields.ToolName
	if toolName == nil {
		toolName = fields.ErrorType
	}

	return &models.ErrorReport{
		ID:                uuid.New(),
		RawMessage:        c.Text,
		TelegramMessageID: c.DedupKey,
		UserEmail:         fields.UserEmail,
		RoomID:            fields.RoomID,
		ErrorTimestamp:    fields.ErrorTimestamp,
		ErrorMessage:      fields.ErrorMessage,
		ErrorType:         fields.ErrorType,
		ToolName:          toolName,
		LastMessage:       fields.LastMessage,
		StackTrace:        fields.StackTrace,
		CreatedAt:         time.Now().UTC(),
	}
}
