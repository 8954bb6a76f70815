package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"order-reconciliation/internal/model"
	"order-reconciliation/internal/testutil"
)

func newCancelOrder(id, email string, status model.ReturnStatus) *model.CancelOrder {
	return &model.CancelOrder{
		ID:           id,
		BuyerEmail:   email,
		ProductID:    "order-" + id,
		OrderID:      "order-" + id,
		ProductName:  "Product " + id,
		ReturnAmount: 20,
		PaymentID:    "txn-1",
		ReturnStatus: status,
		OrderProduct: model.LineItem{ID: "p1", Price: 10, Quantity: 2},
	}
}

func TestCancelOrderMarkApprovedOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewCancelOrderRepository(testutil.NewDB(t))
	require.NoError(t, repo.Create(ctx, nil, newCancelOrder("c1", "a@example.com", model.ReturnStatusPending)))

	ok, err := repo.MarkApproved(ctx, nil, "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkApproved(ctx, nil, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, nil, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusApproved, stored.ReturnStatus)
	assert.Equal(t, int64(2), stored.OrderProduct.Quantity)

	_, err = repo.FindByID(ctx, nil, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCancelOrderListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewCancelOrderRepository(testutil.NewDB(t))

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, nil, newCancelOrder(fmt.Sprintf("p%d", i), "alice@example.com", model.ReturnStatusPending)))
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, repo.Create(ctx, nil, newCancelOrder("a0", "bob@example.com", model.ReturnStatusApproved)))

	pending, total, err := repo.List(ctx, CancelOrderFilter{Status: model.ReturnStatusPending, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, pending, 2)
	assert.Equal(t, "p2", pending[0].ID)

	approved, total, err := repo.List(ctx, CancelOrderFilter{Status: model.ReturnStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, approved, 1)
	assert.Equal(t, "a0", approved[0].ID)

	bobs, _, err := repo.List(ctx, CancelOrderFilter{BuyerEmail: "bob@example.com"})
	require.NoError(t, err)
	assert.Len(t, bobs, 1)

	searched, _, err := repo.List(ctx, CancelOrderFilter{Status: model.ReturnStatusPending, Keywords: []string{"product p1"}})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, "p1", searched[0].ID)
}
