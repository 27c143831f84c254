package repository

import (
	"context"

	repo "market/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	products      repo.ProductRepository
	productImages repo.ProductImageRepository
	productLikes  repo.ProductLikeRepository
	carts         repo.CartRepository
	cartItems     repo.CartItemRepository
	purchases     repo.PurchaseRepository
	purchaseItems repo.PurchaseItemRepository
	users         repo.UserRepository
}

func (r *txReposGorm) Products() repo.ProductRepository           { return r.products }
func (r *txReposGorm) ProductImages() repo.ProductImageRepository { return r.productImages }
func (r *txReposGorm) ProductLikes() repo.ProductLikeRepository   { return r.productLikes }
func (r *txReposGorm) Carts() repo.CartRepository                 { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository         { return r.cartItems }
func (r *txReposGorm) Purchases() repo.PurchaseRepository         { return r.purchases }
func (r *txReposGorm) PurchaseItems() repo.PurchaseItemRepository { return r.purchaseItems }
func (r *txReposGorm) Users() repo.UserRepository                 { return r.users }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fnがerrorを返したら全体がrollbackされる。
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			products:      NewProductGormRepository(tx),
			productImages: NewProductImageGormRepository(tx),
			productLikes:  NewProductLikeGormRepository(tx),
			carts:         NewCartGormRepository(tx),
			cartItems:     NewCartItemGormRepository(tx),
			purchases:     NewPurchaseGormRepository(tx),
			purchaseItems: NewPurchaseItemGormRepository(tx),
			users:         NewUserGormRepository(tx),
		}
		return fn(r)
	})
}
