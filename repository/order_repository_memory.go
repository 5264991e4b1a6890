package repository

import (
	"context"
	"sort"
	"sync"

	"officefruits/models"
)

// MemoryOrderRepository keeps orders in process memory for local development
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

// NewMemoryOrderRepository creates a new MemoryOrderRepository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]models.Order)}
}

// Ensure MemoryOrderRepository implements OrderRepositoryInterface
var _ OrderRepositoryInterface = (*MemoryOrderRepository)(nil)

func (m *MemoryOrderRepository) Save(ctx context.Context, order models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orders[order.ID]; !exists {
		m.orders[order.ID] = order
	}
	return nil
}

func (m *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

func (m *MemoryOrderRepository) List(ctx context.Context, limit int) ([]models.Order, error) {
	m.mu.RLock()
	orders := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		orders = append(orders, o)
	}
	m.mu.RUnlock()

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
