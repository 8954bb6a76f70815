package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"order-reconciliation/internal/model"
)

type InventoryRepository interface {
	// Restock adds quantity back to a product, creating its stock row when missing.
	Restock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) error
	Decrement(ctx context.Context, tx *gorm.DB, productID string, quantity int64) (bool, error)
}

type inventoryRepoImpl struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepoImpl{
		db: db,
	}
}

func (r *inventoryRepoImpl) Restock(ctx context.Context, tx *gorm.DB, productID string, quantity int64) error {
	now := time.Now().UTC()
	return pick(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("product_stocks.quantity + ?", quantity),
			"updated_at": now,
		}),
	}).Create(&model.ProductStock{
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: now,
	}).Error
}

// Decrement lowers the stored quantity. It reports false when the product has no stock row.
func (r *inventoryRepoImpl) Decrement(ctx context.Context, tx *gorm.DB, productID string, quantity int64) (bool, error) {
	result := pick(r.db, tx).WithContext(ctx).Model(&model.ProductStock{}).
		Where("product_id = ?", productID).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
