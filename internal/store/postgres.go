package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lumora-ai/alertsink/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const reportColumns = `id, raw_message, telegram_message_id, user_email, room_id,
	error_timestamp, error_message, error_type, tool_name, last_message, stack_trace, created_at`

func (s *PostgresStore) FindReportByDedupKey(ctx context.Context, key int64) (*models.ErrorReport, error) {
	var r models.ErrorReport
	err := s.pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM error_reports WHERE telegram_message_id = $1`, key,
	).Scan(&r.ID, &r.RawMessage, &r.TelegramMessageID, &r.UserEmail, &r.RoomID,
		&r.ErrorTimestamp, &r.ErrorMessage, &r.ErrorType, &r.ToolName, &r.LastMessage,
		&r.StackTrace, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find report by dedup key: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) CreateErrorReport(ctx context.Context, report *models.ErrorReport) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO error_reports (id, raw_message, telegram_message_id, user_email, room_id,
		   error_timestamp, error_message, error_type, tool_name, last_message, stack_trace, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		report.ID, report.RawMessage, report.TelegramMessageID, report.UserEmail, report.RoomID,
		report.ErrorTimestamp, report.ErrorMessage, report.ErrorType, report.ToolName,
		report.LastMessage, report.StackTrace, report.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create error report: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListReportsByTimeRange(ctx context.Context, start, end time.Time) ([]*models.ErrorReport, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+reportColumns+` FROM error_reports
		 WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at ASC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("list reports by time range: %w", err)
	}
	defer rows.Close()

	var reports []*models.ErrorReport
	for rows.Next() {
		var r models.ErrorReport
		if err := rows.Scan(&r.ID, &r.RawMessage, &r.TelegramMessageID, &r.UserEmail, &r.RoomID,
			&r.ErrorTimestamp, &r.ErrorMessage, &r.ErrorType, &r.ToolName, &r.LastMessage,
			&r.StackTrace, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error report: %w", err)
		}
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}

func (s *PostgresStore) CountReportsByTool(ctx context.Context, since time.Time) ([]ToolCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT COALESCE(tool_name, error_type, 'unclassified') AS tool, COUNT(*) AS count
		 FROM error_reports WHERE created_at >= $1
		 GROUP BY 1 ORDER BY count DESC, tool ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("count reports by tool: %w", err)
	}
	defer rows.Close()

	var counts []ToolCount
	for rows.Next() {
		var tc ToolCount
		if err := rows.Scan(&tc.Tool, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan tool count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
