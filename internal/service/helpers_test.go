package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"order-reconciliation/internal/dto"
	"order-reconciliation/internal/model"
	"order-reconciliation/internal/repository"
	"order-reconciliation/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, event := range p.events {
		types[i] = event.Type
	}
	return types
}

type fixture struct {
	db            *gorm.DB
	now           time.Time
	publisher     *recordingPublisher
	paymentRepo   repository.PendingPaymentRepository
	orderRepo     repository.OrderRepository
	cancelRepo    repository.CancelOrderRepository
	inventoryRepo repository.InventoryRepository
	webhookRepo   repository.WebhookEventRepository
	payments      *paymentServiceImpl
	orders        *orderServiceImpl
	cancellations *cancellationServiceImpl
}

func newFixture(t *testing.T, opts OrderOptions) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	f := &fixture{
		db:            db,
		now:           time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		publisher:     &recordingPublisher{},
		paymentRepo:   repository.NewPendingPaymentRepository(db),
		orderRepo:     repository.NewOrderRepository(db),
		cancelRepo:    repository.NewCancelOrderRepository(db),
		inventoryRepo: repository.NewInventoryRepository(db),
		webhookRepo:   repository.NewWebhookEventRepository(db),
	}
	clock := func() time.Time { return f.now }

	f.payments = NewPaymentService(db, f.paymentRepo, f.webhookRepo, f.publisher, PaymentOptions{}).(*paymentServiceImpl)
	f.payments.now = clock

	f.orders = NewOrderService(db, f.paymentRepo, f.orderRepo, f.inventoryRepo, f.publisher, opts).(*orderServiceImpl)
	f.orders.now = clock

	f.cancellations = NewCancellationService(db, f.orderRepo, f.cancelRepo, f.inventoryRepo, f.publisher, CancellationOptions{}).(*cancellationServiceImpl)
	f.cancellations.now = clock

	return f
}

func (f *fixture) preorder(t *testing.T, code string, amount int64) {
	t.Helper()
	err := f.payments.CreatePreorder(context.Background(), &dto.PreorderRequest{
		PaymentCode: code,
		BuyerEmail:  "buyer@example.com",
		Amount:      amount,
		ExpiresAt:   f.now.Add(5 * time.Minute),
	})
	require.NoError(t, err)
}

func (f *fixture) pay(t *testing.T, code string, txnID, amount int64) {
	t.Helper()
	resp, err := f.payments.HandleWebhook(context.Background(), &model.CassoTransaction{
		ID:                  txnID,
		Description:         code,
		Amount:              amount,
		TransactionDateTime: f.now.Format("2006-01-02 15:04:05"),
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
}

// paidOrder runs the whole preorder, webhook and checkout flow and returns the stored order.
func (f *fixture) paidOrder(t *testing.T, code string, txnID int64, items ...dto.CartProduct) *model.Order {
	t.Helper()
	var total int64
	for _, item := range items {
		total += item.Price * item.TotalCard
	}
	f.preorder(t, code, total)
	f.pay(t, code, txnID, total)

	resp, err := f.orders.CreateOrder(context.Background(), &dto.CreateOrderRequest{
		BuyerEmail:   "buyer@example.com",
		PaymentCode:  code,
		CassoTxnID:   txnID,
		CartProducts: items,
		Name:         "Alice",
		Phone:        "0900000000",
	})
	require.NoError(t, err)

	order, err := f.orderRepo.FindByOrderID(context.Background(), nil, resp.OrderID)
	require.NoError(t, err)
	return order
}

// pendingOrder is paidOrder followed by the move to "pending", the status in
// which buyers may cancel.
func (f *fixture) pendingOrder(t *testing.T, code string, txnID int64, items ...dto.CartProduct) *model.Order {
	t.Helper()
	order := f.paidOrder(t, code, txnID, items...)

	order, err := f.orders.UpdateShipmentStatus(context.Background(), &dto.ShipmentStatusRequest{
		ID:             order.OrderID,
		ShipmentStatus: model.ShipmentStatusPending,
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) stock(t *testing.T, productID string) int64 {
	t.Helper()
	var stock model.ProductStock
	require.NoError(t, f.db.Where("product_id = ?", productID).First(&stock).Error)
	return stock.Quantity
}

// losingPaymentRepo makes the first stale MarkPaid calls report a lost race.
type losingPaymentRepo struct {
	repository.PendingPaymentRepository
	mu    sync.Mutex
	stale int
	calls int
}

func (r *losingPaymentRepo) MarkPaid(ctx context.Context, tx *gorm.DB, code string, cassoTxnID int64, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	r.calls++
	lose := r.calls <= r.stale
	r.mu.Unlock()
	if lose {
		return false, nil
	}
	return r.PendingPaymentRepository.MarkPaid(ctx, tx, code, cassoTxnID, paidAt)
}

// losingOrderRepo makes the first stale versioned updates fail as if another writer got there first.
type losingOrderRepo struct {
	repository.OrderRepository
	mu    sync.Mutex
	stale int
	calls int
}

func (r *losingOrderRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, order *model.Order, columns ...string) error {
	r.mu.Lock()
	r.calls++
	lose := r.calls <= r.stale
	r.mu.Unlock()
	if lose {
		return repository.ErrStaleRecord
	}
	return r.OrderRepository.UpdateVersioned(ctx, tx, order, columns...)
}

func cartProduct(id, name, category string, price, qty int64) dto.CartProduct {
	return dto.CartProduct{
		ID:           id,
		ProductName:  name,
		CategoryName: category,
		Price:        price,
		TotalCard:    qty,
		OrderDate:    "2024-05-01T09:30:00Z",
	}
}

func sequentialIDs(prefix string) func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
