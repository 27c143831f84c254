package repository

import (
	"context"
	"errors"

	"market/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 公開一覧の検索条件
type ProductListQuery struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	Condition string
	MinPrice  *int64
	MaxPrice  *int64
	Sort      string
}

// 自分の出品一覧のフィルタ（all / active / sold）
type SellerListStatus string

const (
	SellerListAll    SellerListStatus = "all"
	SellerListActive SellerListStatus = "active"
	SellerListSold   SellerListStatus = "sold"
)

// 商品カタログの永続化を約束。
type ProductRepository interface {
	//公開中（is_available=true）だけを検索・絞り込み・ページングで返す
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	//出品者の一覧（公開プロフィールはactiveのみ、本人はstatus指定）
	ListBySeller(ctx context.Context, sellerID int64, status SellerListStatus, page int, limit int) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	// 売却への遷移。is_available=true のときだけ1文でfalseへ落とす。
	// 既にfalseなら (false, nil)。二重に呼んでもエラーにはならない。
	TryMarkUnavailable(ctx context.Context, id int64) (bool, error)

	//閲覧数を+1（read-modify-writeではなく1文で）
	IncrementViews(ctx context.Context, id int64) error

	//出品数の集計（プロフィール統計用）
	CountBySeller(ctx context.Context, sellerID int64, onlyAvailable bool) (int64, error)
}

// いいねの永続化。(product, user) の組で1件。
type ProductLikeRepository interface {
	IsLiked(ctx context.Context, productID int64, userID int64) (bool, error)
	Add(ctx context.Context, productID int64, userID int64) error
	Remove(ctx context.Context, productID int64, userID int64) error
	CountByProduct(ctx context.Context, productID int64) (int64, error)
}

// 商品画像（URLメタデータ）の永続化。
type ProductImageRepository interface {
	ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error)
	//商品の画像一式を置き換える
	ReplaceForProduct(ctx context.Context, productID int64, images []model.ProductImage) error
	DeleteByProductID(ctx context.Context, productID int64) error
}
