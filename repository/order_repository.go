package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"officefruits/models"
)

// OrderRepository stores orders in Postgres
type OrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

// Ensure OrderRepository implements OrderRepositoryInterface
var _ OrderRepositoryInterface = (*OrderRepository)(nil)

const orderColumns = `id, company_name, email, delivery_address, note, delivery_date, team_size, mood,
	frequency, add_ons, box_items, per_delivery, multiplier, total_price, amount_minor, currency,
	payment_reference, status, created_at`

// Save inserts one order. Saving the same id twice is a no-op so outbox replays stay safe.
func (r *OrderRepository) Save(ctx context.Context, order models.Order) error {
	r.logger.Debug("Save: inserting order", zap.String("order_id", order.ID))

	addOns, err := json.Marshal(nonNilStrings(order.AddOns))
	if err != nil {
		return fmt.Errorf("failed to encode add-ons: %w", err)
	}
	boxItems, err := json.Marshal(order.BoxItems)
	if err != nil {
		return fmt.Errorf("failed to encode box items: %w", err)
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.CompanyName,
		order.Email,
		order.DeliveryAddress,
		order.Note,
		order.DeliveryDate,
		order.TeamSize,
		order.Mood,
		string(order.Frequency),
		addOns,
		boxItems,
		order.PerDelivery,
		order.Multiplier,
		order.TotalPrice,
		order.AmountMinor,
		order.Currency,
		sql.NullString{String: order.PaymentReference, Valid: order.PaymentReference != ""},
		string(order.Status),
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	r.logger.Info("Save: order stored", zap.String("order_id", order.ID), zap.String("status", string(order.Status)))
	return nil
}

// GetByID returns one order
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return order, nil
}

// List returns the most recent orders first
func (r *OrderRepository) List(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		order     models.Order
		frequency string
		status    string
		addOns    []byte
		boxItems  []byte
		reference sql.NullString
		date      sql.NullTime
	)
	err := row.Scan(
		&order.ID,
		&order.CompanyName,
		&order.Email,
		&order.DeliveryAddress,
		&order.Note,
		&date,
		&order.TeamSize,
		&order.Mood,
		&frequency,
		&addOns,
		&boxItems,
		&order.PerDelivery,
		&order.Multiplier,
		&order.TotalPrice,
		&order.AmountMinor,
		&order.Currency,
		&reference,
		&status,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if date.Valid {
		order.DeliveryDate = date.Time.Format(models.DeliveryDateLayout)
	}
	order.Frequency = models.Frequency(frequency)
	order.Status = models.OrderStatus(status)
	order.PaymentReference = reference.String
	if err := json.Unmarshal(addOns, &order.AddOns); err != nil {
		return nil, fmt.Errorf("failed to decode add-ons: %w", err)
	}
	if err := json.Unmarshal(boxItems, &order.BoxItems); err != nil {
		return nil, fmt.Errorf("failed to decode box items: %w", err)
	}
	return &order, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
