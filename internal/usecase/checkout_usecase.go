package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"market/internal/domain/model"
	repo "market/internal/repository"

	"github.com/google/uuid"
)

// CheckoutUsecase はカートから購入への遷移を1トランザクションで行う。
// 全部成功するか、何も起きないかのどちらかしかない。
type CheckoutUsecase struct {
	tx repo.TransactionManager
}

func NewCheckoutUsecase(tx repo.TransactionManager) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx}
}

type ShippingAddressInput struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

type CheckoutInput struct {
	ShippingAddress ShippingAddressInput
	PaymentMethod   string
	Notes           string
	IdempotencyKey  string
}

// Checkout はカートの全明細を購入に確定する。
//
//  1. カートを読み、空なら中止
//  2. 各商品の購入可否を今のカタログ行から再確認（カート追加時の情報は信用しない）
//  3. 現在価格・出品者・タイトルをスナップショットして合計を計算
//  4. 購入レコードを先に作成
//  5. 各商品を条件付きUPDATEで売却済みへ。1つでも負けたら全体をrollback
//  6. カートを空にする
//
// 価格の正は常にチェックアウト時点。カートに入れた時の価格ではない。
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (PurchaseOutput, error) {
	if userID <= 0 {
		return PurchaseOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	if err := validateShipping(in.ShippingAddress); err != nil {
		return PurchaseOutput{}, err
	}

	payment := strings.TrimSpace(in.PaymentMethod)
	if payment == "" {
		//決済はスタブ。未指定はcash扱い。
		payment = "cash"
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return PurchaseOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid idempotency_key")
	}
	if key == "" {
		//キー無しはリトライ照合の対象外。サーバー側で採番だけする。
		key = uuid.NewString()
	}

	var out PurchaseOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ購入を返す
		existing, found, err := r.Purchases().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}
		if found {
			items, err := r.PurchaseItems().ListByPurchaseID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
			}
			out = buildPurchaseOutput(ctx, existing, items, r.Users(), r.ProductImages())
			return nil
		}

		//カート取得
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusConflict, CodeEmptyCart, "cart is empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusConflict, CodeEmptyCart, "cart is empty")
		}

		//全明細の購入可否を再確認しつつ、現在価格でスナップショット
		purchaseItems := make([]model.PurchaseItem, 0, len(cartItems))
		var total int64 = 0

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusConflict, CodeProductUnavailable, "a product in your cart is no longer available")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
			}
			if !p.IsAvailable {
				return NewHTTPError(http.StatusConflict, CodeProductUnavailable,
					fmt.Sprintf("product %q is no longer available", p.Title))
			}

			purchaseItems = append(purchaseItems, model.PurchaseItem{
				ProductID:         p.ID,
				SellerID:          p.SellerID,
				TitleSnapshot:     p.Title,
				UnitPriceSnapshot: p.Price,
				Quantity:          ci.Quantity,
			})

			total += p.Price * ci.Quantity
		}

		// 購入レコードを先に作る（売却遷移より前）
		now := time.Now()
		purchase := model.Purchase{
			BuyerID:        userID,
			TotalAmount:    total,
			ShipName:       in.ShippingAddress.Name,
			ShipLine1:      in.ShippingAddress.Line1,
			ShipLine2:      in.ShippingAddress.Line2,
			ShipCity:       in.ShippingAddress.City,
			ShipState:      in.ShippingAddress.State,
			ShipPostalCode: in.ShippingAddress.PostalCode,
			ShipCountry:    in.ShippingAddress.Country,
			ShipPhone:      in.ShippingAddress.Phone,
			PaymentMethod:  payment,
			Notes:          in.Notes,
			IdempotencyKey: key,
			CreatedAt:      now,
		}

		purchaseID, err := r.Purchases().Create(ctx, purchase)
		if err != nil {
			//同時に同じキーが入った場合はもう一度検索して同じ結果を返す
			ex2, found2, err2 := r.Purchases().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				items2, err3 := r.PurchaseItems().ListByPurchaseID(ctx, ex2.ID)
				if err3 != nil {
					return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
				}
				out = buildPurchaseOutput(ctx, ex2, items2, r.Users(), r.ProductImages())
				return nil
			}
			return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}

		if err := r.PurchaseItems().CreateBulk(ctx, purchaseID, purchaseItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}

		// 売却遷移。条件付きUPDATEなので、同じ商品を同時に買おうとした
		// もう一方のトランザクションとはここで決着がつく。
		// 負けたらerrorを返してtxごとrollback（購入レコードも消える）。
		for _, it := range purchaseItems {
			ok, err := r.Products().TryMarkUnavailable(ctx, it.ProductID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, CodeConcurrentSaleConflict,
					fmt.Sprintf("product %q was just sold to another buyer", it.TitleSnapshot))
			}
		}

		//カートを空にする
		if err := r.CartItems().DeleteByCartID(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}

		purchase.ID = purchaseID
		out = buildPurchaseOutput(ctx, purchase, purchaseItems, r.Users(), r.ProductImages())
		return nil
	})

	if err != nil {
		return PurchaseOutput{}, err
	}
	return out, nil
}

func validateShipping(a ShippingAddressInput) error {
	if strings.TrimSpace(a.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "shipping name is required")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "shipping line1 is required")
	}
	if strings.TrimSpace(a.City) == "" {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "shipping city is required")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "shipping postal_code is required")
	}
	return nil
}
