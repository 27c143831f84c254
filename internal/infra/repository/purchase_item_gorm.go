package repository

import (
	"context"

	"market/internal/domain/model"

	"gorm.io/gorm"
)

type PurchaseItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewPurchaseItemGormRepository(db *gorm.DB) *PurchaseItemGormRepository {
	return &PurchaseItemGormRepository{db: db}
}

// 明細を一括作成
func (r *PurchaseItemGormRepository) CreateBulk(ctx context.Context, purchaseID int64, items []model.PurchaseItem) error {
	if len(items) == 0 {
		return nil
	}

	for i := range items {
		items[i].ID = 0
		items[i].PurchaseID = purchaseID
	}

	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *PurchaseItemGormRepository) ListByPurchaseID(ctx context.Context, purchaseID int64) ([]model.PurchaseItem, error) {
	var items []model.PurchaseItem

	err := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.PurchaseItem{}, err
	}

	return items, nil
}

// 販売件数の集計（プロフィール統計用）
func (r *PurchaseItemGormRepository) CountBySellerID(ctx context.Context, sellerID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PurchaseItem{}).
		Where("seller_id = ?", sellerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
