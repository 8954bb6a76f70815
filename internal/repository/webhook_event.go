package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"order-reconciliation/internal/model"
)

type WebhookEventRepository interface {
	FindByTxnID(ctx context.Context, cassoTxnID int64) (*model.WebhookEvent, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, event *model.WebhookEvent) error
}

type webhookEventRepositoryImpl struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryImpl{db: db}
}

func (r *webhookEventRepositoryImpl) FindByTxnID(ctx context.Context, cassoTxnID int64) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("casso_txn_id = ?", cassoTxnID).
		First(&event).Error

	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *webhookEventRepositoryImpl) MarkProcessed(ctx context.Context, tx *gorm.DB, event *model.WebhookEvent) error {
	if event.ProcessedAt.IsZero() {
		event.ProcessedAt = time.Now().UTC()
	}
	return pick(r.db, tx).WithContext(ctx).Create(event).Error
}
