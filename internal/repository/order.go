package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"order-reconciliation/internal/model"
)

// likeEscaper makes wildcard characters in user keywords match literally. '!' is
// used as the escape character because MySQL and SQLite disagree on backslashes.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

var orderSearchColumns = []string{
	"buyer_email",
	"name",
	"payment_id",
	"phone",
	"shipment_status",
	"order_id",
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	// UpdateVersioned writes the given columns only if nobody else updated the order
	// since it was read, and bumps its version.
	UpdateVersioned(ctx context.Context, tx *gorm.DB, order *model.Order, columns ...string) error
	DecrementTotal(ctx context.Context, tx *gorm.DB, orderID string, amount int64) error
	List(ctx context.Context, offset, limit int) ([]*model.Order, int64, error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]*model.Order, error)
	// ListClients returns the contact and total columns of every order, most recent first.
	ListClients(ctx context.Context) ([]*model.Order, error)
	Search(ctx context.Context, keywords []string) ([]*model.Order, error)
	GetLineItems(ctx context.Context) ([]model.LineItem, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return pick(r.db, tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := pick(r.db, tx).WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) UpdateVersioned(ctx context.Context, tx *gorm.DB, order *model.Order, columns ...string) error {
	current := order.Version
	order.Version = current + 1
	order.UpdatedAt = time.Now().UTC()

	selected := append([]string{"version", "updated_at"}, columns...)
	result := pick(r.db, tx).WithContext(ctx).
		Model(order).
		Where("version = ?", current).
		Select(selected).
		Updates(order)

	if result.Error != nil {
		order.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		order.Version = current
		return ErrStaleRecord
	}

	return nil
}

func (r *orderRepoImpl) DecrementTotal(ctx context.Context, tx *gorm.DB, orderID string, amount int64) error {
	result := pick(r.db, tx).WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"total_price": gorm.Expr("total_price - ?", amount),
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) List(ctx context.Context, offset, limit int) ([]*model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Omit("order_products").
		Order("date DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error

	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepoImpl) ListByBuyer(ctx context.Context, buyerEmail string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("buyer_email = ?", buyerEmail).
		Order("date DESC, created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) ListClients(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Select("order_id", "buyer_email", "total_price", "name", "phone", "created_at").
		Order("created_at DESC, order_id DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

// Search matches any keyword, case-insensitively, against the searchable columns.
func (r *orderRepoImpl) Search(ctx context.Context, keywords []string) ([]*model.Order, error) {
	query := r.db.WithContext(ctx).Model(&model.Order{})
	if cond, args := keywordCondition(orderSearchColumns, keywords); cond != "" {
		query = query.Where(cond, args...)
	}

	var orders []*model.Order
	if err := query.Order("date DESC, created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

// GetLineItems flattens the line items of every order, oldest order first.
func (r *orderRepoImpl) GetLineItems(ctx context.Context) ([]model.LineItem, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Select("order_id", "order_products").
		Order("created_at ASC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	items := make([]model.LineItem, 0, len(orders))
	for _, order := range orders {
		items = append(items, order.OrderProducts...)
	}

	return items, nil
}

func keywordCondition(columns, keywords []string) (string, []interface{}) {
	var (
		groups []string
		args   []interface{}
	)
	for _, keyword := range keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		pattern := "%" + likeEscaper.Replace(keyword) + "%"
		parts := make([]string, len(columns))
		for i, column := range columns {
			parts[i] = "LOWER(" + column + ") LIKE ? ESCAPE '!'"
			args = append(args, pattern)
		}
		groups = append(groups, "("+strings.Join(parts, " OR ")+")")
	}
	if len(groups) == 0 {
		return "", nil
	}

	return "(" + strings.Join(groups, " OR ") + ")", args
}
