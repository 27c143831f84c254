package repository

import (
	"context"
	"errors"

	"market/internal/domain/model"
	repo "market/internal/repository"

	"gorm.io/gorm"
)

type PurchaseGormRepository struct {
	db *gorm.DB
}

// DI
func NewPurchaseGormRepository(db *gorm.DB) *PurchaseGormRepository {
	return &PurchaseGormRepository{db: db}
}

// 外側のtxの中で呼ばれたときはSAVEPOINTになる。
// idempotency_keyのunique違反で外側のtxごとabortさせないため
// （violationの後に同キーの再検索ができなくなる）。
func (r *PurchaseGormRepository) Create(ctx context.Context, p model.Purchase) (int64, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&p).Error
	})
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (r *PurchaseGormRepository) FindByID(ctx context.Context, purchaseID int64) (model.Purchase, error) {
	var p model.Purchase
	err := r.db.WithContext(ctx).Where("id = ?", purchaseID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Purchase{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Purchase{}, err
	}
	return p, nil
}

// 購入履歴（新しい順・ページング）
func (r *PurchaseGormRepository) ListByBuyerID(ctx context.Context, buyerID int64, page int, limit int) ([]model.Purchase, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("buyer_id = ?", buyerID).
		Count(&total).Error; err != nil {
		return []model.Purchase{}, 0, err
	}

	var items []model.Purchase
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Purchase{}, 0, err
	}

	return items, total, nil
}

func (r *PurchaseGormRepository) CountByBuyerID(ctx context.Context, buyerID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("buyer_id = ?", buyerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PurchaseGormRepository) FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (model.Purchase, bool, error) {
	var p model.Purchase
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND idempotency_key = ?", buyerID, key).
		First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Purchase{}, false, nil
	}
	if err != nil {
		return model.Purchase{}, false, err
	}
	return p, true, nil
}
