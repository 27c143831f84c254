package usecase

import (
	"context"
	"net/http"
	"time"

	"market/internal/domain/model"
	repo "market/internal/repository"
)

// 購入明細の表示用。価格・出品者は購入時点のスナップショット、
// タイトル・画像・出品者名は表示用に現在の情報で補う。
type PurchaseItemOutput struct {
	ProductID       int64  `json:"product_id"`
	Title           string `json:"title"`
	Price           int64  `json:"price"`
	Quantity        int64  `json:"quantity"`
	SellerID        int64  `json:"seller_id"`
	SellerUsername  string `json:"seller_username,omitempty"`
	SellerFirstName string `json:"seller_first_name,omitempty"`
	SellerLastName  string `json:"seller_last_name,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
}

type ShippingAddressOutput struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type PurchaseOutput struct {
	ID              int64                 `json:"id"`
	BuyerID         int64                 `json:"buyer_id"`
	TotalAmount     int64                 `json:"total_amount"`
	ShippingAddress ShippingAddressOutput `json:"shipping_address"`
	PaymentMethod   string                `json:"payment_method"`
	Notes           string                `json:"notes,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []PurchaseItemOutput  `json:"items"`
}

type PurchaseListOutput struct {
	Purchases []PurchaseOutput `json:"purchases"`
	Total     int64            `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
}

// PurchaseUsecase は購入履歴の読み取り側。
// 購入記録の作成はCheckoutUsecaseだけが行う。
type PurchaseUsecase struct {
	purchaseRepo     repo.PurchaseRepository
	purchaseItemRepo repo.PurchaseItemRepository
	imageRepo        repo.ProductImageRepository
	userRepo         repo.UserRepository
}

func NewPurchaseUsecase(
	purchaseRepo repo.PurchaseRepository,
	purchaseItemRepo repo.PurchaseItemRepository,
	imageRepo repo.ProductImageRepository,
	userRepo repo.UserRepository,
) *PurchaseUsecase {
	return &PurchaseUsecase{
		purchaseRepo:     purchaseRepo,
		purchaseItemRepo: purchaseItemRepo,
		imageRepo:        imageRepo,
		userRepo:         userRepo,
	}
}

// 自分の購入履歴（新しい順・ページング）。
func (u *PurchaseUsecase) ListMyPurchases(ctx context.Context, userID int64, page int, limit int) (PurchaseListOutput, error) {
	if userID <= 0 {
		return PurchaseListOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if page < 1 {
		return PurchaseListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return PurchaseListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}

	purchases, total, err := u.purchaseRepo.ListByBuyerID(ctx, userID, page, limit)
	if err != nil {
		return PurchaseListOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	outs := make([]PurchaseOutput, 0, len(purchases))
	for _, p := range purchases {
		items, err := u.purchaseItemRepo.ListByPurchaseID(ctx, p.ID)
		if err != nil {
			return PurchaseListOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}
		outs = append(outs, buildPurchaseOutput(ctx, p, items, u.userRepo, u.imageRepo))
	}

	return PurchaseListOutput{
		Purchases: outs,
		Total:     total,
		Page:      page,
		Limit:     limit,
	}, nil
}

// 購入詳細（自分のものだけ。他人の購入は存在しない扱い）。
func (u *PurchaseUsecase) GetMyPurchase(ctx context.Context, userID int64, purchaseID int64) (PurchaseOutput, error) {
	if userID <= 0 {
		return PurchaseOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if purchaseID <= 0 {
		return PurchaseOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	p, err := u.purchaseRepo.FindByID(ctx, purchaseID)
	if err == repo.ErrNotFound {
		return PurchaseOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "purchase not found")
	}
	if err != nil {
		return PurchaseOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}
	if p.BuyerID != userID {
		return PurchaseOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "purchase not found")
	}

	items, err := u.purchaseItemRepo.ListByPurchaseID(ctx, purchaseID)
	if err != nil {
		return PurchaseOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	return buildPurchaseOutput(ctx, p, items, u.userRepo, u.imageRepo), nil
}

// 表示用のPurchaseOutputを組み立てる。
// 補助情報（出品者名・画像）が引けなくても購入記録自体は返す。
func buildPurchaseOutput(
	ctx context.Context,
	p model.Purchase,
	items []model.PurchaseItem,
	users repo.UserRepository,
	images repo.ProductImageRepository,
) PurchaseOutput {
	outItems := make([]PurchaseItemOutput, 0, len(items))

	for _, it := range items {
		out := PurchaseItemOutput{
			ProductID: it.ProductID,
			Title:     it.TitleSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			SellerID:  it.SellerID,
		}

		//出品者の表示名（退会済みなら空のまま）
		if seller, err := users.FindByID(ctx, it.SellerID); err == nil {
			out.SellerUsername = seller.Username
			out.SellerFirstName = seller.FirstName
			out.SellerLastName = seller.LastName
		}

		if imgs, err := images.ListByProductID(ctx, it.ProductID); err == nil && len(imgs) > 0 {
			out.ImageURL = imgs[0].URL
		}

		outItems = append(outItems, out)
	}

	return PurchaseOutput{
		ID:          p.ID,
		BuyerID:     p.BuyerID,
		TotalAmount: p.TotalAmount,
		ShippingAddress: ShippingAddressOutput{
			Name:       p.ShipName,
			Line1:      p.ShipLine1,
			Line2:      p.ShipLine2,
			City:       p.ShipCity,
			State:      p.ShipState,
			PostalCode: p.ShipPostalCode,
			Country:    p.ShipCountry,
			Phone:      p.ShipPhone,
		},
		PaymentMethod: p.PaymentMethod,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
		Items:         outItems,
	}
}
