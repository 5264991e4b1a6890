package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"officefruits/models"
)

const outboxSchema = `
CREATE TABLE IF NOT EXISTS unpersisted_orders (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id    TEXT NOT NULL,
	order_json  TEXT NOT NULL,
	last_error  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	resolved_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_unpersisted_orders_open ON unpersisted_orders (resolved_at);
`

// OutboxRepository records confirmed orders that could not be written to the
// order store, in a local SQLite file, until an operator reconciles them.
type OutboxRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewOutboxRepository opens (and creates if needed) the outbox database at path
func NewOutboxRepository(path string, logger *zap.Logger) (*OutboxRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open outbox database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("NewOutboxRepository: failed to set busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("NewOutboxRepository: failed to set journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec(outboxSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize outbox schema: %w", err)
	}

	return &OutboxRepository{db: db, logger: logger, now: time.Now}, nil
}

// Ensure OutboxRepository implements OutboxRepositoryInterface
var _ OutboxRepositoryInterface = (*OutboxRepository)(nil)

// Add records order together with the error that kept it out of the order store
func (r *OutboxRepository) Add(ctx context.Context, order models.Order, cause error) (int64, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return 0, fmt.Errorf("failed to encode order: %w", err)
	}
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO unpersisted_orders (order_id, order_json, last_error, created_at) VALUES (?, ?, ?, ?)`,
		order.ID, string(data), lastError, r.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert outbox entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox entry id: %w", err)
	}

	r.logger.Warn("Add: order recorded in outbox", zap.Int64("entry_id", id), zap.String("order_id", order.ID))
	return id, nil
}

// ListOpen returns unresolved entries, oldest first
func (r *OutboxRepository) ListOpen(ctx context.Context) ([]OutboxEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_json, last_error, created_at FROM unpersisted_orders WHERE resolved_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox entries: %w", err)
	}
	defer rows.Close()

	entries := []OutboxEntry{}
	for rows.Next() {
		var (
			entry     OutboxEntry
			orderJSON string
		)
		if err := rows.Scan(&entry.ID, &orderJSON, &entry.LastError, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		if err := json.Unmarshal([]byte(orderJSON), &entry.Order); err != nil {
			return nil, fmt.Errorf("failed to decode outbox entry %d: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox entries: %w", err)
	}
	return entries, nil
}

// MarkResolved closes an entry
func (r *OutboxRepository) MarkResolved(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE unpersisted_orders SET resolved_at = ? WHERE id = ? AND resolved_at IS NULL`,
		r.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve outbox entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to resolve outbox entry: %w", err)
	}
	if n == 0 {
		return ErrOutboxEntryNotFound
	}
	return nil
}

// Close closes the database
func (r *OutboxRepository) Close() error {
	return r.db.Close()
}
