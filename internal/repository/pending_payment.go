package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"order-reconciliation/internal/model"
)

type PendingPaymentRepository interface {
	Create(ctx context.Context, payment *model.PendingPayment) error
	FindByCode(ctx context.Context, tx *gorm.DB, paymentCode string) (*model.PendingPayment, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, paymentCode string, cassoTxnID int64, paidAt time.Time) (bool, error)
	MarkExpired(ctx context.Context, tx *gorm.DB, paymentCode string) (bool, error)
	MarkConsumed(ctx context.Context, tx *gorm.DB, paymentCode, orderID string) (bool, error)
}

type pendingPaymentRepoImpl struct {
	db *gorm.DB
}

func NewPendingPaymentRepository(db *gorm.DB) PendingPaymentRepository {
	return &pendingPaymentRepoImpl{
		db: db,
	}
}

func (r *pendingPaymentRepoImpl) Create(ctx context.Context, payment *model.PendingPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *pendingPaymentRepoImpl) FindByCode(ctx context.Context, tx *gorm.DB, paymentCode string) (*model.PendingPayment, error) {
	var payment model.PendingPayment
	err := pick(r.db, tx).WithContext(ctx).
		Where("payment_code = ?", paymentCode).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// MarkPaid moves a pending payment to paid. It reports false when the payment was
// no longer pending, so exactly one concurrent caller wins.
func (r *pendingPaymentRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, paymentCode string, cassoTxnID int64, paidAt time.Time) (bool, error) {
	return r.transition(ctx, tx, paymentCode, model.PaymentStatusPending, map[string]interface{}{
		"status":       model.PaymentStatusPaid,
		"casso_txn_id": cassoTxnID,
		"paid_at":      paidAt,
	})
}

func (r *pendingPaymentRepoImpl) MarkExpired(ctx context.Context, tx *gorm.DB, paymentCode string) (bool, error) {
	return r.transition(ctx, tx, paymentCode, model.PaymentStatusPending, map[string]interface{}{
		"status": model.PaymentStatusExpired,
	})
}

func (r *pendingPaymentRepoImpl) MarkConsumed(ctx context.Context, tx *gorm.DB, paymentCode, orderID string) (bool, error) {
	return r.transition(ctx, tx, paymentCode, model.PaymentStatusPaid, map[string]interface{}{
		"status":            model.PaymentStatusConsumed,
		"consumed_order_id": orderID,
	})
}

func (r *pendingPaymentRepoImpl) transition(ctx context.Context, tx *gorm.DB, paymentCode string, from model.PaymentStatus, updates map[string]interface{}) (bool, error) {
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now().UTC()

	result := pick(r.db, tx).WithContext(ctx).Model(&model.PendingPayment{}).
		Where("payment_code = ? AND status = ?", paymentCode, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
