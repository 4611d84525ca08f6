package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lumora-ai/alertsink/internal/store"
	"github.com/lumora-ai/alertsink/pkg/models"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("alertsink_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func strPtr(s string) *string { return &s }

// newReport builds a fully populated report with the given dedup key.
func newReport(key int64, createdAt time.Time) *models.ErrorReport {
	ts := createdAt.Add(-time.Minute)
	return &models.ErrorReport{
		ID:                uuid.New(),
		RawMessage:        "❌ Error Alert\nError Message:\nsomething broke",
		TelegramMessageID: key,
		UserEmail:         strPtr("sam@example.com"),
		RoomID:            strPtr("room-1"),
		ErrorTimestamp:    &ts,
		ErrorMessage:      strPtr("something broke"),
		ErrorType:         strPtr("AI_ToolExecutionError"),
		ToolName:          strPtr("send_email"),
		LastMessage:       strPtr("please send the report"),
		CreatedAt:         createdAt,
	}
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	assert.NoError(t, s.Ping(context.Background()))
}

func TestErrorReport_CreateAndFind(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	report := newReport(1001, now)
	require.NoError(t, s.CreateErrorReport(ctx, report))

	got, err := s.FindReportByDedupKey(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, int64(1001), got.TelegramMessageID)
	require.NotNil(t, got.UserEmail)
	assert.Equal(t, "sam@example.com", *got.UserEmail)
	require.NotNil(t, got.ToolName)
	assert.Equal(t, "send_email", *got.ToolName)
	require.NotNil(t, got.ErrorTimestamp)
	assert.Equal(t, now.Add(-time.Minute), got.ErrorTimestamp.UTC().Truncate(time.Microsecond))
}

func TestErrorReport_FindNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.FindReportByDedupKey(context.Background(), 99999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestErrorReport_NullableFieldsStayNil(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	// An unparseable alert persists with only the raw text.
	report := &models.ErrorReport{
		ID:                uuid.New(),
		RawMessage:        "❌ Error Alert\ngarbage with no sections",
		TelegramMessageID: 2001,
		CreatedAt:         time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.CreateErrorReport(ctx, report))

	got, err := s.FindReportByDedupKey(ctx, 2001)
	require.NoError(t, err)
	assert.Nil(t, got.UserEmail)
	assert.Nil(t, got.RoomID)
	assert.Nil(t, got.ErrorTimestamp)
	assert.Nil(t, got.ErrorMessage)
	assert.Nil(t, got.ErrorType)
	assert.Nil(t, got.ToolName)
	assert.Nil(t, got.LastMessage)
	assert.Nil(t, got.StackTrace)
}

func TestErrorReport_DuplicateDedupKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, s.CreateErrorReport(ctx, newReport(3001, now)))

	err := s.CreateErrorReport(ctx, newReport(3001, now))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestErrorReport_ListByTimeRange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, s.CreateErrorReport(ctx, newReport(4001, now.AddDate(0, 0, -10))))
	require.NoError(t, s.CreateErrorReport(ctx, newReport(4002, now.AddDate(0, 0, -2))))
	require.NoError(t, s.CreateErrorReport(ctx, newReport(4003, now.Add(-time.Hour))))

	reports, err := s.ListReportsByTimeRange(ctx, now.AddDate(0, 0, -7), now)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	// Ordered oldest first.
	assert.Equal(t, int64(4002), reports[0].TelegramMessageID)
	assert.Equal(t, int64(4003), reports[1].TelegramMessageID)
}

func TestErrorReport_ListEmptyWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	now := time.Now().UTC()

	reports, err := s.ListReportsByTimeRange(context.Background(), now.AddDate(0, 0, -7), now)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestCountReportsByTool(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	mk := func(key int64, tool, errType *string) *models.ErrorReport {
		r := newReport(key, now)
		r.ToolName = tool
		r.ErrorType = errType
		return r
	}

	require.NoError(t, s.CreateErrorReport(ctx, mk(5001, strPtr("send_email"), nil)))
	require.NoError(t, s.CreateErrorReport(ctx, mk(5002, strPtr("send_email"), nil)))
	require.NoError(t, s.CreateErrorReport(ctx, mk(5003, nil, strPtr("AI_RateLimitError"))))
	require.NoError(t, s.CreateErrorReport(ctx, mk(5004, nil, nil)))

	counts, err := s.CountReportsByTool(ctx, now.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, counts, 3)

	assert.Equal(t, store.ToolCount{Tool: "send_email", Count: 2}, counts[0])
	// Ties broken alphabetically.
	assert.Equal(t, store.ToolCount{Tool: "AI_RateLimitError", Count: 1}, counts[1])
	assert.Equal(t, store.ToolCount{Tool: "unclassified", Count: 1}, counts[2])
}

func TestCountReportsByTool_RespectsSince(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	old := newReport(6001, now.AddDate(0, 0, -30))
	require.NoError(t, s.CreateErrorReport(ctx, old))

	counts, err := s.CountReportsByTool(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Empty(t, counts)
}
