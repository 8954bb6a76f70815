package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"order-reconciliation/internal/model"
)

var cancelOrderSearchColumns = []string{
	"buyer_email",
	"product_name",
	"email_address",
	"date",
	"order_id",
}

type CancelOrderFilter struct {
	Status     model.ReturnStatus
	BuyerEmail string
	Keywords   []string
	Offset     int
	Limit      int // zero means no limit
}

type CancelOrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, cancelOrder *model.CancelOrder) error
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.CancelOrder, error)
	MarkApproved(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	List(ctx context.Context, filter CancelOrderFilter) ([]*model.CancelOrder, int64, error)
}

type cancelOrderRepoImpl struct {
	db *gorm.DB
}

func NewCancelOrderRepository(db *gorm.DB) CancelOrderRepository {
	return &cancelOrderRepoImpl{
		db: db,
	}
}

func (r *cancelOrderRepoImpl) Create(ctx context.Context, tx *gorm.DB, cancelOrder *model.CancelOrder) error {
	return pick(r.db, tx).WithContext(ctx).Create(cancelOrder).Error
}

func (r *cancelOrderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.CancelOrder, error) {
	var cancelOrder model.CancelOrder
	err := pick(r.db, tx).WithContext(ctx).
		Where("id = ?", id).
		First(&cancelOrder).Error

	if err != nil {
		return nil, err
	}

	return &cancelOrder, nil
}

// MarkApproved reports false when the request was not pending anymore.
func (r *cancelOrderRepoImpl) MarkApproved(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	result := pick(r.db, tx).WithContext(ctx).Model(&model.CancelOrder{}).
		Where("id = ? AND return_status = ?", id, model.ReturnStatusPending).
		Updates(map[string]interface{}{
			"return_status": model.ReturnStatusApproved,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now().UTC(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *cancelOrderRepoImpl) List(ctx context.Context, filter CancelOrderFilter) ([]*model.CancelOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.CancelOrder{})

	switch filter.Status {
	case "":
	case model.ReturnStatusPending:
		query = query.Where("return_status = ?", model.ReturnStatusPending)
	default:
		query = query.Where("return_status <> ?", model.ReturnStatusPending)
	}
	if filter.BuyerEmail != "" {
		query = query.Where("buyer_email = ?", filter.BuyerEmail)
	}
	if cond, args := keywordCondition(cancelOrderSearchColumns, filter.Keywords); cond != "" {
		query = query.Where(cond, args...)
	}

	// shared by the count and the page query
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var cancelOrders []*model.CancelOrder
	if err := query.Find(&cancelOrders).Error; err != nil {
		return nil, 0, err
	}

	return cancelOrders, total, nil
}
