package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"market/internal/domain/model"
	repo "market/internal/repository"
	"market/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func validShipping() usecase.ShippingAddressInput {
	return usecase.ShippingAddressInput{
		Name:       "Taro Yamada",
		Line1:      "1-2-3 Chuo",
		City:       "Osaka",
		PostalCode: "530-0001",
		Country:    "JP",
	}
}

// 補助情報の検索は失敗しても購入は成立する。テストでは素通りさせる。
func stubEnrichment(f *fakeTxRepos) {
	f.users.On("FindByID", mock.Anything, mock.Anything).Return(model.User{}, repo.ErrNotFound).Maybe()
	f.productImages.On("ListByProductID", mock.Anything, mock.Anything).Return([]model.ProductImage{}, nil).Maybe()
}

func TestCheckout_TotalIsComputedFromCurrentPrices(t *testing.T) {
	f := newFakeTxRepos()
	tx := &fakeTxManager{repos: f}
	uc := usecase.NewCheckoutUsecase(tx)
	ctx := context.Background()

	buyerID := int64(7)
	cart := model.Cart{ID: 3, UserID: buyerID}

	f.purchases.On("FindByIdempotencyKey", mock.Anything, buyerID, mock.Anything).Return(model.Purchase{}, false, nil)
	f.carts.On("FindByUserID", mock.Anything, buyerID).Return(cart, nil)
	f.cartItems.On("ListByCartID", mock.Anything, cart.ID).Return([]model.CartItem{
		{ID: 1, CartID: cart.ID, ProductID: 100, Quantity: 2},
		{ID: 2, CartID: cart.ID, ProductID: 200, Quantity: 1},
	}, nil)

	// カート追加後に値上がりしていても、合計は今の価格で決まる
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Title: "Product A", Price: 1000, SellerID: 11, IsAvailable: true,
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(200)).Return(model.Product{
		ID: 200, Title: "Product B", Price: 2500, SellerID: 12, IsAvailable: true,
	}, nil)

	f.purchases.On("Create", mock.Anything, mock.MatchedBy(func(p model.Purchase) bool {
		return p.BuyerID == buyerID && p.TotalAmount == 4500 && p.PaymentMethod == "cash"
	})).Return(int64(55), nil)

	f.purchaseItems.On("CreateBulk", mock.Anything, int64(55), mock.MatchedBy(func(items []model.PurchaseItem) bool {
		if len(items) != 2 {
			return false
		}
		a, b := items[0], items[1]
		return a.ProductID == 100 && a.UnitPriceSnapshot == 1000 && a.Quantity == 2 &&
			a.SellerID == 11 && a.TitleSnapshot == "Product A" &&
			b.ProductID == 200 && b.UnitPriceSnapshot == 2500 && b.Quantity == 1
	})).Return(nil)

	f.products.On("TryMarkUnavailable", mock.Anything, int64(100)).Return(true, nil)
	f.products.On("TryMarkUnavailable", mock.Anything, int64(200)).Return(true, nil)
	f.cartItems.On("DeleteByCartID", mock.Anything, cart.ID).Return(nil)
	stubEnrichment(f)

	out, err := uc.Checkout(ctx, buyerID, usecase.CheckoutInput{ShippingAddress: validShipping()})

	assert.NoError(t, err)
	assert.Equal(t, int64(55), out.ID)
	assert.Equal(t, buyerID, out.BuyerID)
	assert.Equal(t, int64(4500), out.TotalAmount)
	assert.Equal(t, "cash", out.PaymentMethod)
	assert.Len(t, out.Items, 2)
	assert.Equal(t, "Osaka", out.ShippingAddress.City)

	f.products.AssertCalled(t, "TryMarkUnavailable", mock.Anything, int64(100))
	f.products.AssertCalled(t, "TryMarkUnavailable", mock.Anything, int64(200))
	f.cartItems.AssertCalled(t, "DeleteByCartID", mock.Anything, cart.ID)
}

func TestCheckout_EmptyCart(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeTxRepos, buyerID int64)
	}{
		{
			name: "カート自体が無い",
			setup: func(f *fakeTxRepos, buyerID int64) {
				f.carts.On("FindByUserID", mock.Anything, buyerID).Return(model.Cart{}, repo.ErrNotFound)
			},
		},
		{
			name: "明細ゼロ",
			setup: func(f *fakeTxRepos, buyerID int64) {
				f.carts.On("FindByUserID", mock.Anything, buyerID).Return(model.Cart{ID: 3, UserID: buyerID}, nil)
				f.cartItems.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeTxRepos()
			uc := usecase.NewCheckoutUsecase(&fakeTxManager{repos: f})
			buyerID := int64(7)

			f.purchases.On("FindByIdempotencyKey", mock.Anything, buyerID, mock.Anything).Return(model.Purchase{}, false, nil)
			tt.setup(f, buyerID)

			_, err := uc.Checkout(context.Background(), buyerID, usecase.CheckoutInput{ShippingAddress: validShipping()})

			assertErrCode(t, err, usecase.CodeEmptyCart)
			f.purchases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckout_UnavailableProductAbortsWholeCheckout(t *testing.T) {
	f := newFakeTxRepos()
	uc := usecase.NewCheckoutUsecase(&fakeTxManager{repos: f})
	buyerID := int64(7)
	cart := model.Cart{ID: 3, UserID: buyerID}

	f.purchases.On("FindByIdempotencyKey", mock.Anything, buyerID, mock.Anything).Return(model.Purchase{}, false, nil)
	f.carts.On("FindByUserID", mock.Anything, buyerID).Return(cart, nil)
	f.cartItems.On("ListByCartID", mock.Anything, cart.ID).Return([]model.CartItem{
		{ID: 1, CartID: cart.ID, ProductID: 100, Quantity: 1},
		{ID: 2, CartID: cart.ID, ProductID: 200, Quantity: 1},
	}, nil)

	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Title: "Product A", Price: 1000, SellerID: 11, IsAvailable: true,
	}, nil)
	//2件目が売り切れ
	f.products.On("FindByID", mock.Anything, int64(200)).Return(model.Product{
		ID: 200, Title: "Product B", Price: 2500, SellerID: 12, IsAvailable: false,
	}, nil)

	_, err := uc.Checkout(context.Background(), buyerID, usecase.CheckoutInput{ShippingAddress: validShipping()})

	assertErrCode(t, err, usecase.CodeProductUnavailable)
	assertErrContains(t, err, "Product B")

	//片方だけ購入、は起きない
	f.purchases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.products.AssertNotCalled(t, "TryMarkUnavailable", mock.Anything, mock.Anything)
	f.cartItems.AssertNotCalled(t, "DeleteByCartID", mock.Anything, mock.Anything)
}

func TestCheckout_DeletedProductAbortsWholeCheckout(t *testing.T) {
	f := newFakeTxRepos()
	uc := usecase.NewCheckoutUsecase(&fakeTxManager{repos: f})
	buyerID := int64(7)
	cart := model.Cart{ID: 3, UserID: buyerID}

	f.purchases.On("FindByIdempotencyKey", mock.Anything, buyerID, mock.Anything).Return(model.Purchase{}, false, nil)
	f.carts.On("FindByUserID", mock.Anything, buyerID).Return(cart, nil)
	f.cartItems.On("ListByCartID", mock.Anything, cart.ID).Return([]model.CartItem{
		{ID: 1, CartID: cart.ID, ProductID: 100, Quantity: 1},
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.Checkout(context.Background(), buyerID, usecase.CheckoutInput{ShippingAddress: validShipping()})

	assertErrCode(t, err, usecase.CodeProductUnavailable)
	f.purchases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_ConcurrentSaleLoserRollsBack(t *testing.T) {
	f := newFakeTxRepos()
	uc := usecase.NewCheckoutUsecase(&fakeTxManager{repos: f})
	buyerID := int64(7)
	cart := model.Cart{ID: 3, UserID: buyerID}

	f.purchases.On("FindByIdempotencyKey", mock.Anything, buyerID, mock.Anything).Return(model.Purchase{}, false, nil)
	f.carts.On("FindByUserID", mock.Anything, buyerID).Return(cart, nil)
	f.cartItems.On("ListByCartID", mock.Anything, cart.ID).Return([]model.CartItem{
		{ID: 1, CartID: cart.ID, ProductID: 100, Quantity: 1},
		{ID: 2, CartID: cart.ID, ProductID: 200, Quantity: 1},
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Title: "Product A", Price: 1000, SellerID: 11, IsAvailable: true,
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(200)).Return(model.Product{
		ID: 200, Title: "Product B", Price: 2500, SellerID: 12, IsAvailable: true,
	}, nil)
	f.purchases.On("Create", mock.Anything, mock.Anything).Return(int64(55), nil)
	f.purchaseItems.On("CreateBulk", mock.Anything, int64(55), mock.Anything).Return(nil)

	//読んだ時点ではavailableだったProduct Bを、commit前に別の買い手が取っていった
	f.products.On("TryMarkUnavailable", mock.Anything, int64(100)).Return(true, nil)
	f.products.On("TryMarkUnavailable", mock.Anything, int64(200)).Return(false, nil)

	_, err := uc.Checkout(context.Background(), buyerID, usecase.CheckoutInput{ShippingAddress: validShipping()})

	assertErrCode(t, err, usecase.CodeConcurrentSaleConflict)
	assertErrContains(t, err, "Product B")

	//errorが返ればtxごとrollbackされるので、カートも残る
	f.cartItems.AssertNotCalled(t, "DeleteByCartID", mock.Anything, mock.Anything)
}

func TestCheckout_IdempotencyKeyReplaysExistingPurchase(t *testing.T) {
	f := newFakeTxRepos()
	uc := usecase.NewCheckoutUsecase(&fakeTxManager{repos: f})
	buyerID := int64(7)

	existing := model.Purchase{
		ID:             40,
		BuyerID:        buyerID,
		TotalAmount:    4500,
		PaymentMethod:  "cash",
		IdempotencyKey: "retry-abc",
		CreatedAt:      time.Now(),
	}
	f.purchases.On("FindByIdempotencyKey", mock.Anything, buyerID, "retry-abc").Return(existing, true, nil)
	f.purchaseItems.On("ListByPurchaseID", mock.Anything, int64(40)).Return([]model.PurchaseItem{
		{ProductID: 100, TitleSnapshot: "Product A", UnitPriceSnapshot: 1000, Quantity: 2, SellerID: 11},
	}, nil)
	stubEnrichment(f)

	out, err := uc.Checkout(context.Background(), buyerID, usecase.CheckoutInput{
		ShippingAddress: validShipping(),
		IdempotencyKey:  "retry-abc",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(40), out.ID)
	assert.Equal(t, int64(4500), out.TotalAmount)

	//二重購入は作られない
	f.purchases.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.carts.AssertNotCalled(t, "FindByUserID", mock.Anything, mock.Anything)
}

func TestCheckout_DuplicateKeyRaceFallsBackToExistingPurchase(t *testing.T) {
	f := newFakeTxRepos()
	uc := usecase.NewCheckoutUsecase(&fakeTxManager{repos: f})
	buyerID := int64(7)
	cart := model.Cart{ID: 3, UserID: buyerID}

	//1回目の検索では見つからず、INSERTがunique違反で弾かれ、再検索で見つかる
	f.purchases.On("FindByIdempotencyKey", mock.Anything, buyerID, "retry-abc").
		Return(model.Purchase{}, false, nil).Once()
	f.carts.On("FindByUserID", mock.Anything, buyerID).Return(cart, nil)
	f.cartItems.On("ListByCartID", mock.Anything, cart.ID).Return([]model.CartItem{
		{ID: 1, CartID: cart.ID, ProductID: 100, Quantity: 2},
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Title: "Product A", Price: 1000, SellerID: 11, IsAvailable: true,
	}, nil)
	f.purchases.On("Create", mock.Anything, mock.Anything).Return(int64(0), errors.New("duplicate key"))

	existing := model.Purchase{ID: 40, BuyerID: buyerID, TotalAmount: 2000, IdempotencyKey: "retry-abc"}
	f.purchases.On("FindByIdempotencyKey", mock.Anything, buyerID, "retry-abc").
		Return(existing, true, nil).Once()
	f.purchaseItems.On("ListByPurchaseID", mock.Anything, int64(40)).Return([]model.PurchaseItem{
		{ProductID: 100, TitleSnapshot: "Product A", UnitPriceSnapshot: 1000, Quantity: 2, SellerID: 11},
	}, nil)
	stubEnrichment(f)

	out, err := uc.Checkout(context.Background(), buyerID, usecase.CheckoutInput{
		ShippingAddress: validShipping(),
		IdempotencyKey:  "retry-abc",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(40), out.ID)
	f.purchaseItems.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckout_SameKeyDifferentBuyersCreateSeparatePurchases(t *testing.T) {
	f := newFakeTxRepos()
	uc := usecase.NewCheckoutUsecase(&fakeTxManager{repos: f})

	//別の買い手が先に使ったキー。照合は買い手単位なのでヒットしない。
	otherBuyer := int64(8)
	cart := model.Cart{ID: 4, UserID: otherBuyer}

	f.purchases.On("FindByIdempotencyKey", mock.Anything, otherBuyer, "retry-abc").
		Return(model.Purchase{}, false, nil)
	f.carts.On("FindByUserID", mock.Anything, otherBuyer).Return(cart, nil)
	f.cartItems.On("ListByCartID", mock.Anything, cart.ID).Return([]model.CartItem{
		{ID: 5, CartID: cart.ID, ProductID: 300, Quantity: 1},
	}, nil)
	f.products.On("FindByID", mock.Anything, int64(300)).Return(model.Product{
		ID: 300, Title: "Product C", Price: 700, SellerID: 11, IsAvailable: true,
	}, nil)
	f.purchases.On("Create", mock.Anything, mock.MatchedBy(func(p model.Purchase) bool {
		return p.BuyerID == otherBuyer && p.IdempotencyKey == "retry-abc"
	})).Return(int64(56), nil)
	f.purchaseItems.On("CreateBulk", mock.Anything, int64(56), mock.Anything).Return(nil)
	f.products.On("TryMarkUnavailable", mock.Anything, int64(300)).Return(true, nil)
	f.cartItems.On("DeleteByCartID", mock.Anything, cart.ID).Return(nil)
	stubEnrichment(f)

	out, err := uc.Checkout(context.Background(), otherBuyer, usecase.CheckoutInput{
		ShippingAddress: validShipping(),
		IdempotencyKey:  "retry-abc",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(56), out.ID)
	assert.Equal(t, otherBuyer, out.BuyerID)
	f.purchases.AssertCalled(t, "FindByIdempotencyKey", mock.Anything, otherBuyer, "retry-abc")
}

func TestCheckout_ShippingValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *usecase.ShippingAddressInput)
		want   string
	}{
		{"名前なし", func(a *usecase.ShippingAddressInput) { a.Name = "" }, "name"},
		{"住所1なし", func(a *usecase.ShippingAddressInput) { a.Line1 = "  " }, "line1"},
		{"市なし", func(a *usecase.ShippingAddressInput) { a.City = "" }, "city"},
		{"郵便番号なし", func(a *usecase.ShippingAddressInput) { a.PostalCode = "" }, "postal_code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeTxRepos()
			tx := &fakeTxManager{repos: f}
			uc := usecase.NewCheckoutUsecase(tx)

			addr := validShipping()
			tt.mutate(&addr)

			_, err := uc.Checkout(context.Background(), 7, usecase.CheckoutInput{ShippingAddress: addr})

			assertErrCode(t, err, usecase.CodeValidation)
			assertErrContains(t, err, tt.want)
			assert.False(t, tx.called, "validation errors must not open a transaction")
		})
	}
}

func TestCheckout_Unauthorized(t *testing.T) {
	uc := usecase.NewCheckoutUsecase(&fakeTxManager{repos: newFakeTxRepos()})

	_, err := uc.Checkout(context.Background(), 0, usecase.CheckoutInput{ShippingAddress: validShipping()})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
}

func TestCheckout_TooLongIdempotencyKeyRejected(t *testing.T) {
	tx := &fakeTxManager{repos: newFakeTxRepos()}
	uc := usecase.NewCheckoutUsecase(tx)

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}

	_, err := uc.Checkout(context.Background(), 7, usecase.CheckoutInput{
		ShippingAddress: validShipping(),
		IdempotencyKey:  string(long),
	})

	assertErrCode(t, err, usecase.CodeValidation)
	assert.False(t, tx.called)
}
