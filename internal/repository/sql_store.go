package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/outbreak-estimator/internal/models"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// schemas holds the request_logs DDL per supported driver
var schemas = map[string]string{
	"postgres": `
		CREATE TABLE IF NOT EXISTS request_logs (
			id BIGSERIAL PRIMARY KEY,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			status INTEGER NOT NULL,
			latency_ms BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	"sqlite": `
		CREATE TABLE IF NOT EXISTS request_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			status INTEGER NOT NULL,
			latency_ms INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
}

type requestLogRow struct {
	ID        int64  `db:"id"`
	Method    string `db:"method"`
	Path      string `db:"path"`
	Status    int    `db:"status"`
	LatencyMs int64  `db:"latency_ms"`
	CreatedAt int64  `db:"created_at"`
}

// SQLStore keeps the request log in a request_logs table.
// created_at is stored as unix milliseconds so both drivers compare it the same way.
type SQLStore struct {
	db *sqlx.DB
}

// OpenSQLStore connects with the given driver ("postgres" or "sqlite") and creates the schema
func OpenSQLStore(driver, dsn string) (*SQLStore, error) {
	schema, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLStore{db: db}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// Append inserts entry and fills in its ID
func (s *SQLStore) Append(ctx context.Context, entry *models.RequestLog) error {
	query := s.db.Rebind(`
		INSERT INTO request_logs (method, path, status, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)
	err := s.db.QueryRowContext(ctx, query,
		entry.Method, entry.Path, entry.Status, entry.Latency.Milliseconds(), entry.CreatedAt.UnixMilli()).
		Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append request log: %w", err)
	}
	return nil
}

// List returns every entry in insertion order
func (s *SQLStore) List(ctx context.Context) ([]models.RequestLog, error) {
	query := `
		SELECT id, method, path, status, latency_ms, created_at
		FROM request_logs
		ORDER BY id`
	var rows []requestLogRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}

	entries := make([]models.RequestLog, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.RequestLog{
			ID:        row.ID,
			Method:    row.Method,
			Path:      row.Path,
			Status:    row.Status,
			Latency:   time.Duration(row.LatencyMs) * time.Millisecond,
			CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
		})
	}
	return entries, nil
}

// Prune deletes entries created before the given time
func (s *SQLStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM request_logs WHERE created_at < ?`), before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune request logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned request logs: %w", err)
	}
	return n, nil
}

// Close closes the underlying connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}
