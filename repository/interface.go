package repository

import (
	"context"
	"errors"
	"time"

	"officefruits/models"
	"officefruits/workflow"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionConflict     = errors.New("session was modified concurrently")
	ErrOutboxEntryNotFound = errors.New("outbox entry not found")
)

// OrderSink is the write side of order persistence used at checkout
type OrderSink interface {
	Save(ctx context.Context, order models.Order) error
}

// OrderRepositoryInterface defines the contract for order repository operations
type OrderRepositoryInterface interface {
	OrderSink
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, limit int) ([]models.Order, error)
}

// OutboxEntry is an order that was confirmed to the customer but never reached the order store
type OutboxEntry struct {
	ID         int64        `json:"id"`
	Order      models.Order `json:"order"`
	LastError  string       `json:"lastError"`
	CreatedAt  time.Time    `json:"createdAt"`
	ResolvedAt *time.Time   `json:"resolvedAt,omitempty"`
}

// OutboxRepositoryInterface defines the contract for the reconciliation outbox
type OutboxRepositoryInterface interface {
	Add(ctx context.Context, order models.Order, cause error) (int64, error)
	ListOpen(ctx context.Context) ([]OutboxEntry, error)
	MarkResolved(ctx context.Context, id int64) error
	Close() error
}

// SessionStore keeps workflow sessions between requests.
// Update runs fn against the stored session atomically; when fn returns an
// error nothing is written.
type SessionStore interface {
	Get(ctx context.Context, id string) (*workflow.Session, error)
	Create(ctx context.Context, sess *workflow.Session) error
	Update(ctx context.Context, id string, fn func(*workflow.Session) error) (*workflow.Session, error)
	Delete(ctx context.Context, id string) error
}

// ReceiptStore archives rendered receipts and returns their public URL
type ReceiptStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
