package usecase_test

import (
	"context"
	"strings"
	"testing"

	"market/internal/domain/model"
	repo "market/internal/repository"
	"market/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) ListBySeller(ctx context.Context, sellerID int64, status repo.SellerListStatus, page int, limit int) ([]model.Product, int64, error) {
	args := m.Called(ctx, sellerID, status, page, limit)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProductRepoMock) TryMarkUnavailable(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *ProductRepoMock) IncrementViews(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProductRepoMock) CountBySeller(ctx context.Context, sellerID int64, onlyAvailable bool) (int64, error) {
	args := m.Called(ctx, sellerID, onlyAvailable)
	return args.Get(0).(int64), args.Error(1)
}

type ProductLikeRepoMock struct{ mock.Mock }

func (m *ProductLikeRepoMock) IsLiked(ctx context.Context, productID int64, userID int64) (bool, error) {
	args := m.Called(ctx, productID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ProductLikeRepoMock) Add(ctx context.Context, productID int64, userID int64) error {
	args := m.Called(ctx, productID, userID)
	return args.Error(0)
}

func (m *ProductLikeRepoMock) Remove(ctx context.Context, productID int64, userID int64) error {
	args := m.Called(ctx, productID, userID)
	return args.Error(0)
}

func (m *ProductLikeRepoMock) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

type ProductImageRepoMock struct{ mock.Mock }

func (m *ProductImageRepoMock) ListByProductID(ctx context.Context, productID int64) ([]model.ProductImage, error) {
	args := m.Called(ctx, productID)
	images, _ := args.Get(0).([]model.ProductImage)
	return images, args.Error(1)
}

func (m *ProductImageRepoMock) ReplaceForProduct(ctx context.Context, productID int64, images []model.ProductImage) error {
	args := m.Called(ctx, productID, images)
	return args.Error(0)
}

func (m *ProductImageRepoMock) DeleteByProductID(ctx context.Context, productID int64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64) error {
	args := m.Called(ctx, cartID, productID, addQty)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByCartID(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	item, _ := args.Get(0).(model.CartItem)
	return item, args.Error(1)
}

func (m *CartItemRepoMock) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, cartItemID, userID)
	return args.Bool(0), args.Error(1)
}

type PurchaseRepoMock struct{ mock.Mock }

func (m *PurchaseRepoMock) Create(ctx context.Context, p model.Purchase) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *PurchaseRepoMock) FindByID(ctx context.Context, purchaseID int64) (model.Purchase, error) {
	args := m.Called(ctx, purchaseID)
	p, _ := args.Get(0).(model.Purchase)
	return p, args.Error(1)
}

func (m *PurchaseRepoMock) ListByBuyerID(ctx context.Context, buyerID int64, page int, limit int) ([]model.Purchase, int64, error) {
	args := m.Called(ctx, buyerID, page, limit)
	items, _ := args.Get(0).([]model.Purchase)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *PurchaseRepoMock) FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (model.Purchase, bool, error) {
	args := m.Called(ctx, buyerID, key)
	p, _ := args.Get(0).(model.Purchase)
	return p, args.Bool(1), args.Error(2)
}

func (m *PurchaseRepoMock) CountByBuyerID(ctx context.Context, buyerID int64) (int64, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).(int64), args.Error(1)
}

type PurchaseItemRepoMock struct{ mock.Mock }

func (m *PurchaseItemRepoMock) CreateBulk(ctx context.Context, purchaseID int64, items []model.PurchaseItem) error {
	args := m.Called(ctx, purchaseID, items)
	return args.Error(0)
}

func (m *PurchaseItemRepoMock) ListByPurchaseID(ctx context.Context, purchaseID int64) ([]model.PurchaseItem, error) {
	args := m.Called(ctx, purchaseID)
	items, _ := args.Get(0).([]model.PurchaseItem)
	return items, args.Error(1)
}

func (m *PurchaseItemRepoMock) CountBySellerID(ctx context.Context, sellerID int64) (int64, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).(int64), args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Create(ctx context.Context, user model.User) (model.User, error) {
	args := m.Called(ctx, user)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) ExistsOtherWithUsernameOrEmail(ctx context.Context, excludeID int64, username string, email string) (bool, error) {
	args := m.Called(ctx, excludeID, username, email)
	return args.Bool(0), args.Error(1)
}

// =====================
// トランザクションのテスト用スタブ
// =====================

// fnにそのまま渡す。rollbackは返ってきたerrorで表現される。
type fakeTxRepos struct {
	products      *ProductRepoMock
	productImages *ProductImageRepoMock
	productLikes  *ProductLikeRepoMock
	carts         *CartRepoMock
	cartItems     *CartItemRepoMock
	purchases     *PurchaseRepoMock
	purchaseItems *PurchaseItemRepoMock
	users         *UserRepoMock
}

func newFakeTxRepos() *fakeTxRepos {
	return &fakeTxRepos{
		products:      new(ProductRepoMock),
		productImages: new(ProductImageRepoMock),
		productLikes:  new(ProductLikeRepoMock),
		carts:         new(CartRepoMock),
		cartItems:     new(CartItemRepoMock),
		purchases:     new(PurchaseRepoMock),
		purchaseItems: new(PurchaseItemRepoMock),
		users:         new(UserRepoMock),
	}
}

func (f *fakeTxRepos) Products() repo.ProductRepository           { return f.products }
func (f *fakeTxRepos) ProductImages() repo.ProductImageRepository { return f.productImages }
func (f *fakeTxRepos) ProductLikes() repo.ProductLikeRepository   { return f.productLikes }
func (f *fakeTxRepos) Carts() repo.CartRepository                 { return f.carts }
func (f *fakeTxRepos) CartItems() repo.CartItemRepository         { return f.cartItems }
func (f *fakeTxRepos) Purchases() repo.PurchaseRepository         { return f.purchases }
func (f *fakeTxRepos) PurchaseItems() repo.PurchaseItemRepository { return f.purchaseItems }
func (f *fakeTxRepos) Users() repo.UserRepository                 { return f.users }

type fakeTxManager struct {
	repos  *fakeTxRepos
	called bool
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.called = true
	return fn(m.repos)
}

// =====================
// ヘルパー
// =====================

func assertErrContains(t *testing.T, err error, want string) {
	t.Helper()
	assert.Error(t, err)
	if err != nil {
		assert.True(t, strings.Contains(err.Error(), want),
			"error %q should contain %q", err.Error(), want)
	}
}

func assertErrCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "expected HTTPError, got %v", err) {
		assert.Equal(t, code, he.Code)
	}
}
