package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Products() ProductRepository
	ProductImages() ProductImageRepository
	ProductLikes() ProductLikeRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Purchases() PurchaseRepository
	PurchaseItems() PurchaseItemRepository
	Users() UserRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
