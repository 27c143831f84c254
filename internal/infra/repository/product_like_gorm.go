package repository

import (
	"context"

	"market/internal/domain/model"

	"gorm.io/gorm"
)

type ProductLikeGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductLikeGormRepository(db *gorm.DB) *ProductLikeGormRepository {
	return &ProductLikeGormRepository{db: db}
}

func (r *ProductLikeGormRepository) IsLiked(ctx context.Context, productID int64, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProductLike{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ProductLikeGormRepository) Add(ctx context.Context, productID int64, userID int64) error {
	like := model.ProductLike{ProductID: productID, UserID: userID}
	return r.db.WithContext(ctx).Create(&like).Error
}

// 無ければ何もしない（トグルの冪等側）
func (r *ProductLikeGormRepository) Remove(ctx context.Context, productID int64, userID int64) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Delete(&model.ProductLike{}).Error
}

func (r *ProductLikeGormRepository) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProductLike{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
