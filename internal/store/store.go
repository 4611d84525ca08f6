package store

import (
	"context"
	"errors"
	"time"

	"github.com/lumora-ai/alertsink/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	FindReportByDedupKey(ctx context.Context, key int64) (*models.ErrorReport, error)
	CreateErrorReport(ctx context.Context, report *models.ErrorReport) error
	ListReportsByTimeRange(ctx context.Context, start, end time.Time) ([]*models.ErrorReport, error)
	CountReportsByTool(ctx context.Context, since time.Time) ([]ToolCount, error)
}

// ToolCount is a per-tool row count from the reports table. Tool is the
// stored tool_name, or the error_type when no tool was classified, or
// "unclassified" when neither is present.
type ToolCount struct {
	Tool  string `json:"tool"`
	Count int    `json:"count"`
}
