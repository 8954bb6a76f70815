package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"order-reconciliation/internal/dto"
	"order-reconciliation/internal/logger"
	"order-reconciliation/internal/model"
	"order-reconciliation/internal/repository"
)

type CancellationService interface {
	// RequestCancellation removes one line from a pending order and records the refund owed for it.
	RequestCancellation(ctx context.Context, req *dto.CancelOrderRequest) (*model.CancelOrder, error)
	// ApproveCancellation approves a pending request and takes its refund off the order total.
	ApproveCancellation(ctx context.Context, cancelOrderID string) (*model.CancelOrder, error)
	ListPending(ctx context.Context, page dto.PageRequest) (*dto.PageResponse[*model.CancelOrder], error)
	ListApproved(ctx context.Context, page dto.PageRequest) (*dto.PageResponse[*model.CancelOrder], error)
	Search(ctx context.Context, status, search string, page dto.PageRequest) (*dto.PageResponse[*model.CancelOrder], error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]*model.CancelOrder, error)
}

type CancellationOptions struct {
	// RestockInventory puts the cancelled quantity back into product stock once a
	// cancellation is approved.
	RestockInventory bool
}

type cancellationServiceImpl struct {
	db              *gorm.DB
	orderRepo       repository.OrderRepository
	cancelOrderRepo repository.CancelOrderRepository
	inventoryRepo   repository.InventoryRepository
	publisher       EventPublisher
	opts            CancellationOptions
	now             func() time.Time
	newID           func() string
}

func NewCancellationService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cancelOrderRepo repository.CancelOrderRepository,
	inventoryRepo repository.InventoryRepository,
	publisher EventPublisher,
	opts CancellationOptions,
) CancellationService {
	return &cancellationServiceImpl{
		db:              db,
		orderRepo:       orderRepo,
		cancelOrderRepo: cancelOrderRepo,
		inventoryRepo:   inventoryRepo,
		publisher:       publisher,
		opts:            opts,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
	}
}

func (s *cancellationServiceImpl) RequestCancellation(ctx context.Context, req *dto.CancelOrderRequest) (*model.CancelOrder, error) {
	orderID := strings.TrimSpace(req.ID)
	productID := strings.TrimSpace(req.OrderProduct.ID)
	if orderID == "" || productID == "" || strings.TrimSpace(req.BuyerEmail) == "" {
		return nil, newError(ErrInvalidInput, "Missing required fields")
	}

	for attempt := 0; attempt < maxStaleRetries; attempt++ {
		cancelOrder, err := s.requestCancellation(ctx, req, orderID, productID)
		if errors.Is(err, repository.ErrStaleRecord) {
			continue
		}
		if err != nil {
			return nil, err
		}

		logger.FromContext(ctx).Info("cancellation requested",
			zap.String("cancel_order_id", cancelOrder.ID),
			zap.String("order_id", orderID),
			zap.String("product_id", productID),
			zap.Int64("return_amount", cancelOrder.ReturnAmount),
		)
		publish(ctx, s.publisher, OrderEvent{
			Type:          EventCancellationRequested,
			OrderID:       orderID,
			CancelOrderID: cancelOrder.ID,
			Status:        string(cancelOrder.ReturnStatus),
			Amount:        cancelOrder.ReturnAmount,
			OccurredAt:    cancelOrder.CreatedAt,
		})
		return cancelOrder, nil
	}

	return nil, fmt.Errorf("request cancellation of %s: %w", orderID, repository.ErrStaleRecord)
}

func (s *cancellationServiceImpl) requestCancellation(ctx context.Context, req *dto.CancelOrderRequest, orderID, productID string) (*model.CancelOrder, error) {
	var cancelOrder *model.CancelOrder
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.FindByOrderID(ctx, tx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "Order not found")
		}
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}

		if order.PaymentID == "" {
			return newError(ErrInvalidState, "Order has no confirmed payment")
		}
		if order.ShipmentStatus != model.ShipmentStatusPending {
			return newError(ErrInvalidState, "Order is %s and can no longer be cancelled", order.ShipmentStatus)
		}

		idx := order.LineItemIndex(productID)
		if idx < 0 {
			return newError(ErrNotFound, "Product not found in order")
		}
		item := order.OrderProducts[idx]

		remaining := make([]model.LineItem, 0, len(order.OrderProducts)-1)
		remaining = append(remaining, order.OrderProducts[:idx]...)
		remaining = append(remaining, order.OrderProducts[idx+1:]...)
		order.OrderProducts = remaining
		if len(remaining) == 0 {
			order.ShipmentStatus = model.ShipmentStatusCancelled
			order.OrderStatusDate = now.Format(time.RFC3339)
		}

		err = s.orderRepo.UpdateVersioned(ctx, tx, order, "order_products", "shipment_status", "order_status_date")
		if err != nil {
			return err
		}

		cancelOrder = &model.CancelOrder{
			ID:           s.newID(),
			BuyerEmail:   strings.TrimSpace(req.BuyerEmail),
			EmailAddress: req.EmailAddress,
			Phone:        req.Phone,
			Date:         req.Date,
			ProductID:    order.OrderID,
			ProductName:  item.ProductName,
			ReturnAmount: item.Subtotal(),
			PaymentID:    order.PaymentID,
			OrderID:      order.OrderID,
			ReturnStatus: model.ReturnStatusPending,
			OrderProduct: item,
			CreatedAt:    now,
		}
		if err := s.cancelOrderRepo.Create(ctx, tx, cancelOrder); err != nil {
			return fmt.Errorf("store cancel order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelOrder, nil
}

func (s *cancellationServiceImpl) ApproveCancellation(ctx context.Context, cancelOrderID string) (*model.CancelOrder, error) {
	cancelOrderID = strings.TrimSpace(cancelOrderID)
	if cancelOrderID == "" {
		return nil, newError(ErrInvalidInput, "Cancel order id is required")
	}

	var cancelOrder *model.CancelOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cancelOrder, err = s.cancelOrderRepo.FindByID(ctx, tx, cancelOrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "Cancel order not found")
		}
		if err != nil {
			return fmt.Errorf("find cancel order: %w", err)
		}

		if cancelOrder.PaymentID == "" {
			return newError(ErrInvalidState, "Cancel order has no payment reference")
		}
		if cancelOrder.ReturnStatus != model.ReturnStatusPending {
			return newError(ErrInvalidState, "Cancellation already %s", cancelOrder.ReturnStatus)
		}

		approved, err := s.cancelOrderRepo.MarkApproved(ctx, tx, cancelOrderID)
		if err != nil {
			return fmt.Errorf("approve cancel order: %w", err)
		}
		if !approved {
			return newError(ErrInvalidState, "Cancellation already %s", model.ReturnStatusApproved)
		}

		err = s.orderRepo.DecrementTotal(ctx, tx, cancelOrder.ProductID, cancelOrder.ReturnAmount)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "Order not found")
		}
		if err != nil {
			return fmt.Errorf("decrement order total: %w", err)
		}

		cancelOrder.ReturnStatus = model.ReturnStatusApproved
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("cancellation approved",
		zap.String("cancel_order_id", cancelOrder.ID),
		zap.String("order_id", cancelOrder.ProductID),
		zap.Int64("return_amount", cancelOrder.ReturnAmount),
	)
	if s.opts.RestockInventory {
		s.restock(ctx, cancelOrder)
	}
	publish(ctx, s.publisher, OrderEvent{
		Type:          EventCancellationApproved,
		OrderID:       cancelOrder.ProductID,
		CancelOrderID: cancelOrder.ID,
		Status:        string(model.ReturnStatusApproved),
		Amount:        cancelOrder.ReturnAmount,
		OccurredAt:    s.now(),
	})

	return cancelOrder, nil
}

// restock runs after the approval is committed; a failure is logged, never fatal.
func (s *cancellationServiceImpl) restock(ctx context.Context, cancelOrder *model.CancelOrder) {
	item := cancelOrder.OrderProduct
	if err := s.inventoryRepo.Restock(ctx, nil, item.ID, item.Quantity); err != nil {
		logger.FromContext(ctx).Error("restock product failed",
			zap.String("cancel_order_id", cancelOrder.ID),
			zap.String("product_id", item.ID),
			zap.Error(err),
		)
	}
}

func (s *cancellationServiceImpl) ListPending(ctx context.Context, page dto.PageRequest) (*dto.PageResponse[*model.CancelOrder], error) {
	return s.list(ctx, repository.CancelOrderFilter{Status: model.ReturnStatusPending}, page)
}

func (s *cancellationServiceImpl) ListApproved(ctx context.Context, page dto.PageRequest) (*dto.PageResponse[*model.CancelOrder], error) {
	return s.list(ctx, repository.CancelOrderFilter{Status: model.ReturnStatusApproved}, page)
}

func (s *cancellationServiceImpl) Search(ctx context.Context, status, search string, page dto.PageRequest) (*dto.PageResponse[*model.CancelOrder], error) {
	filter := repository.CancelOrderFilter{Keywords: splitKeywords(search)}
	switch model.ReturnStatus(strings.ToLower(strings.TrimSpace(status))) {
	case "":
	case model.ReturnStatusPending:
		filter.Status = model.ReturnStatusPending
	case model.ReturnStatusApproved:
		filter.Status = model.ReturnStatusApproved
	default:
		return nil, newError(ErrInvalidInput, "Unknown status %q", status)
	}
	return s.list(ctx, filter, page)
}

func (s *cancellationServiceImpl) ListByBuyer(ctx context.Context, buyerEmail string) ([]*model.CancelOrder, error) {
	buyerEmail = strings.TrimSpace(buyerEmail)
	if buyerEmail == "" {
		return nil, newError(ErrInvalidInput, "email is required")
	}

	cancelOrders, _, err := s.cancelOrderRepo.List(ctx, repository.CancelOrderFilter{BuyerEmail: buyerEmail})
	if err != nil {
		return nil, fmt.Errorf("list buyer cancel orders: %w", err)
	}
	if len(cancelOrders) == 0 {
		return nil, newError(ErrNotFound, "No cancel orders found")
	}
	return cancelOrders, nil
}

func (s *cancellationServiceImpl) list(ctx context.Context, filter repository.CancelOrderFilter, page dto.PageRequest) (*dto.PageResponse[*model.CancelOrder], error) {
	filter.Offset = page.Offset()
	filter.Limit = page.Limit

	cancelOrders, total, err := s.cancelOrderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list cancel orders: %w", err)
	}
	return dto.NewPageResponse(cancelOrders, total, page), nil
}
