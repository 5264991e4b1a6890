package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"officefruits/models"
)

func newTestOutbox(t *testing.T) *OutboxRepository {
	t.Helper()
	outbox, err := NewOutboxRepository(filepath.Join(t.TempDir(), "nested", "outbox.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { outbox.Close() })
	return outbox
}

func testOrder(id string) models.Order {
	return models.Order{
		ID:           id,
		CompanyName:  "Creative Hub",
		Email:        "hi@creativehub.ng",
		DeliveryDate: "2026-10-16",
		Frequency:    models.FrequencyWeekly,
		BoxItems:     map[string]int{"apple": 2},
		PerDelivery:  1600,
		Multiplier:   4,
		TotalPrice:   6400,
		AmountMinor:  640000,
		Currency:     "NGN",
		Status:       models.OrderStatusPaid,
		CreatedAt:    time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestOutbox_AddListResolve(t *testing.T) {
	ctx := context.Background()
	outbox := newTestOutbox(t)

	first, err := outbox.Add(ctx, testOrder("o-1"), errors.New("connection refused"))
	require.NoError(t, err)
	second, err := outbox.Add(ctx, testOrder("o-2"), nil)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	open, err := outbox.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "o-1", open[0].Order.ID)
	assert.Equal(t, "connection refused", open[0].LastError)
	assert.Equal(t, testOrder("o-1").BoxItems, open[0].Order.BoxItems)
	assert.Equal(t, "", open[1].LastError)

	require.NoError(t, outbox.MarkResolved(ctx, first))
	assert.ErrorIs(t, outbox.MarkResolved(ctx, first), ErrOutboxEntryNotFound)
	assert.ErrorIs(t, outbox.MarkResolved(ctx, 999), ErrOutboxEntryNotFound)

	open, err = outbox.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "o-2", open[0].Order.ID)
}

func TestOutbox_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "outbox.db")

	outbox, err := NewOutboxRepository(path, zap.NewNop())
	require.NoError(t, err)
	_, err = outbox.Add(ctx, testOrder("o-1"), errors.New("timeout"))
	require.NoError(t, err)
	require.NoError(t, outbox.Close())

	reopened, err := NewOutboxRepository(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	open, err := reopened.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "o-1", open[0].Order.ID)
}

func TestOutbox_EmptyListIsNotNil(t *testing.T) {
	open, err := newTestOutbox(t).ListOpen(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, open)
	assert.Empty(t, open)
}
