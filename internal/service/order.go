package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

// Layouts accepted for line item and order dates. The storefront historically
// sent "05/01/24 10:00 am".
var orderDateLayouts = []string{
	time.RFC3339,
	"01/02/06 3:04 pm",
	"01/02/06 3:04 PM",
}

type OrderService interface {
	CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	UpdateShipmentStatus(ctx context.Context, req *dto.ShipmentStatusRequest) (*model.Order, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, page dto.PageRequest) (*dto.PageResponse[*model.Order], error)
	ListBuyerOrders(ctx context.Context, buyerEmail string) ([]*model.Order, error)
	SearchOrders(ctx context.Context, search string) ([]*model.Order, error)
	// ListClients returns the buyer of every order, most recent order first.
	ListClients(ctx context.Context) ([]dto.ClientSummary, error)
	// ListPurchasedItems returns every distinct product a buyer has ordered.
	ListPurchasedItems(ctx context.Context, buyerEmail string) ([]model.LineItem, error)
	// SearchOrderProducts matches product names inside one order.
	SearchOrderProducts(ctx context.Context, orderID, search string) ([]model.LineItem, error)
}

type OrderOptions struct {
	// DecrementInventory lowers product stock by each line quantity once an order is stored.
	DecrementInventory bool
	// Location resolves order dates sent without a zone.
	Location *time.Location
}

type orderServiceImpl struct {
	db            *gorm.DB
	paymentRepo   repository.PendingPaymentRepository
	orderRepo     repository.OrderRepository
	inventoryRepo repository.InventoryRepository
	publisher     EventPublisher
	opts          OrderOptions
	now           func() time.Time
	newID         func() string
}

func NewOrderService(
	db *gorm.DB,
	paymentRepo repository.PendingPaymentRepository,
	orderRepo repository.OrderRepository,
	inventoryRepo repository.InventoryRepository,
	publisher EventPublisher,
	opts OrderOptions,
) OrderService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &orderServiceImpl{
		db:            db,
		paymentRepo:   paymentRepo,
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		publisher:     publisher,
		opts:          opts,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	email := strings.TrimSpace(req.BuyerEmail)
	code := strings.TrimSpace(req.PaymentCode)
	if email == "" || code == "" || len(req.CartProducts) == 0 {
		return nil, newError(ErrInvalidInput, "Missing required fields")
	}

	now := s.now()
	items := make([]model.LineItem, len(req.CartProducts))
	for i, product := range req.CartProducts {
		if product.ID == "" || product.TotalCard <= 0 || product.Price < 0 {
			return nil, newError(ErrInvalidInput, "Invalid cart product at position %d", i)
		}
		items[i] = model.LineItem{
			ID:           product.ID,
			ProductName:  product.ProductName,
			CategoryName: product.CategoryName,
			Price:        product.Price,
			Quantity:     product.TotalCard,
			OrderDate:    parseOrderDate(product.OrderDate, s.opts.Location, now),
		}
	}

	order := &model.Order{
		OrderID:       s.newID(),
		BuyerEmail:    email,
		Name:          req.Name,
		Address:       req.Address,
		City:          req.City,
		Postcode:      req.Postcode,
		EmailAddress:  req.EmailAddress,
		Phone:         req.Phone,
		Date:          parseOrderDate(req.Date, s.opts.Location, now),
		OrderProducts: items,
		PaymentCode:   code,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.FindByCode(ctx, tx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newError(ErrNotFound, "Payment code not found")
		}
		if err != nil {
			return fmt.Errorf("find pending payment: %w", err)
		}

		switch payment.EffectiveStatus(now) {
		case model.PaymentStatusPaid:
		case model.PaymentStatusConsumed:
			return newError(ErrInvalidState, "Payment already used for an order")
		default:
			return newError(ErrInvalidState, "Payment not confirmed")
		}

		if payment.CassoTxnID != nil {
			order.CassoTxnID = *payment.CassoTxnID
			order.PaymentID = strconv.FormatInt(*payment.CassoTxnID, 10)
			if req.CassoTxnID != 0 && req.CassoTxnID != *payment.CassoTxnID {
				logger.FromContext(ctx).Warn("cassoTxnId differs from reconciled transaction",
					zap.String("payment_code", code),
					zap.Int64("requested", req.CassoTxnID),
					zap.Int64("reconciled", *payment.CassoTxnID),
				)
			}
		}
		order.TotalPrice = payment.Amount
		order.PaymentDate = payment.PaidAt

		// The starting status is part of the history so it cannot be applied again.
		paidDate := now
		if payment.PaidAt != nil {
			paidDate = *payment.PaidAt
		}
		order.ShipmentStatus = model.ShipmentStatusPaid
		order.OrderStatusDate = paidDate.UTC().Format(time.RFC3339)
		order.ShipmentStatusArray = []model.ShipmentStatusEntry{{
			ShipmentStatus:  model.ShipmentStatusPaid,
			OrderStatusDate: order.OrderStatusDate,
			PaymentID:       order.PaymentID,
			OrderID:         order.OrderID,
		}}

		consumed, err := s.paymentRepo.MarkConsumed(ctx, tx, code, order.OrderID)
		if err != nil {
			return fmt.Errorf("consume payment: %w", err)
		}
		if !consumed {
			return newError(ErrInvalidState, "Payment already used for an order")
		}

		err = s.orderRepo.Create(ctx, tx, order)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return newError(ErrInvalidState, "Payment already used for an order")
		}
		if err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("order created",
		zap.String("order_id", order.OrderID),
		zap.String("payment_code", code),
		zap.Int64("total_price", order.TotalPrice),
	)

	if s.opts.DecrementInventory {
		s.decrementInventory(ctx, order)
	}
	publish(ctx, s.publisher, OrderEvent{
		Type:        EventOrderCreated,
		OrderID:     order.OrderID,
		PaymentCode: code,
		Status:      order.ShipmentStatus,
		Amount:      order.TotalPrice,
		OccurredAt:  now,
	})

	return &dto.CreateOrderResponse{
		Message: "order created",
		OrderID: order.OrderID,
	}, nil
}

// decrementInventory runs after the order is committed; stock drift is logged, never fatal.
func (s *orderServiceImpl) decrementInventory(ctx context.Context, order *model.Order) {
	log := logger.FromContext(ctx)
	for _, item := range order.OrderProducts {
		found, err := s.inventoryRepo.Decrement(ctx, nil, item.ID, item.Quantity)
		if err != nil {
			log.Error("decrement product stock failed",
				zap.String("order_id", order.OrderID),
				zap.String("product_id", item.ID),
				zap.Error(err),
			)
			continue
		}
		if !found {
			log.Warn("no stock row for product",
				zap.String("order_id", order.OrderID),
				zap.String("product_id", item.ID),
			)
		}
	}
}

func (s *orderServiceImpl) UpdateShipmentStatus(ctx context.Context, req *dto.ShipmentStatusRequest) (*model.Order, error) {
	orderID := strings.TrimSpace(req.TargetOrderID())
	status := strings.TrimSpace(req.ShipmentStatus)
	if orderID == "" || status == "" {
		return nil, newError(ErrInvalidInput, "Order id and shipment status are required")
	}

	for attempt := 0; attempt < maxStaleRetries; attempt++ {
		order, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if order.HasShipmentStatus(status) {
			return nil, newError(ErrConflict, "Already %s", status)
		}

		order.ShipmentStatus = status
		order.OrderStatusDate = req.OrderStatusDate
		order.ShipmentStatusArray = append(order.ShipmentStatusArray, model.ShipmentStatusEntry{
			ShipmentStatus:  status,
			OrderStatusDate: req.OrderStatusDate,
			PaymentID:       req.PaymentID,
			OrderID:         order.OrderID,
		})

		err = s.orderRepo.UpdateVersioned(ctx, nil, order, "shipment_status", "order_status_date", "shipment_status_array")
		if errors.Is(err, repository.ErrStaleRecord) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update shipment status: %w", err)
		}

		logger.FromContext(ctx).Info("shipment status updated",
			zap.String("order_id", order.OrderID),
			zap.String("shipment_status", status),
		)
		publish(ctx, s.publisher, OrderEvent{
			Type:       EventShipmentUpdated,
			OrderID:    order.OrderID,
			Status:     status,
			OccurredAt: s.now(),
		})
		return order, nil
	}

	return nil, fmt.Errorf("update shipment status of %s: %w", orderID, repository.ErrStaleRecord)
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, newError(ErrInvalidInput, "Order id is required")
	}

	order, err := s.orderRepo.FindByOrderID(ctx, nil, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, page dto.PageRequest) (*dto.PageResponse[*model.Order], error) {
	orders, total, err := s.orderRepo.List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return dto.NewPageResponse(orders, total, page), nil
}

func (s *orderServiceImpl) ListBuyerOrders(ctx context.Context, buyerEmail string) ([]*model.Order, error) {
	buyerEmail = strings.TrimSpace(buyerEmail)
	if buyerEmail == "" {
		return nil, newError(ErrInvalidInput, "email is required")
	}

	orders, err := s.orderRepo.ListByBuyer(ctx, buyerEmail)
	if err != nil {
		return nil, fmt.Errorf("list buyer orders: %w", err)
	}
	return orders, nil
}

// SearchOrders treats search as a comma separated keyword list; any keyword may match.
func (s *orderServiceImpl) SearchOrders(ctx context.Context, search string) ([]*model.Order, error) {
	orders, err := s.orderRepo.Search(ctx, splitKeywords(search))
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) ListClients(ctx context.Context) ([]dto.ClientSummary, error) {
	orders, err := s.orderRepo.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	clients := make([]dto.ClientSummary, len(orders))
	for i, order := range orders {
		clients[i] = dto.ClientSummary{
			BuyerEmail: order.BuyerEmail,
			TotalPrice: order.TotalPrice,
			Name:       order.Name,
			Phone:      order.Phone,
		}
	}
	return clients, nil
}

// ListPurchasedItems keeps the line from the newest order when a product was bought more than once.
func (s *orderServiceImpl) ListPurchasedItems(ctx context.Context, buyerEmail string) ([]model.LineItem, error) {
	orders, err := s.ListBuyerOrders(ctx, buyerEmail)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	items := []model.LineItem{}
	for _, order := range orders {
		for _, item := range order.OrderProducts {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *orderServiceImpl) SearchOrderProducts(ctx context.Context, orderID, search string) ([]model.LineItem, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	search = strings.ToLower(strings.TrimSpace(search))
	var found []model.LineItem
	for _, item := range order.OrderProducts {
		if strings.Contains(strings.ToLower(item.ProductName), search) {
			found = append(found, item)
		}
	}
	if len(found) == 0 {
		return nil, newError(ErrNotFound, "Product not found in the order")
	}
	return found, nil
}

func splitKeywords(search string) []string {
	var keywords []string
	for _, keyword := range strings.Split(search, ",") {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

func parseOrderDate(raw string, loc *time.Location, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
