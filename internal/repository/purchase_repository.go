package repository

import (
	"context"

	"market/internal/domain/model"
)

// 購入記録は追記専用。更新・削除のメソッドは持たせない。
type PurchaseRepository interface {
	Create(ctx context.Context, p model.Purchase) (int64, error)
	FindByID(ctx context.Context, purchaseID int64) (model.Purchase, error)
	//新しい順・ページング
	ListByBuyerID(ctx context.Context, buyerID int64, page int, limit int) ([]model.Purchase, int64, error)
	//同じキーなら同じ購入を返すための検索
	FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (model.Purchase, bool, error)
	//購入件数の集計（プロフィール統計用）
	CountByBuyerID(ctx context.Context, buyerID int64) (int64, error)
}

type PurchaseItemRepository interface {
	CreateBulk(ctx context.Context, purchaseID int64, items []model.PurchaseItem) error
	ListByPurchaseID(ctx context.Context, purchaseID int64) ([]model.PurchaseItem, error)
	//販売実績の集計（統計用。取引ロジックでは使わない）
	CountBySellerID(ctx context.Context, sellerID int64) (int64, error)
}
