package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"market/internal/domain/model"
	repo "market/internal/repository"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	imageRepo   repo.ProductImageRepository
	likeRepo    repo.ProductLikeRepository
	userRepo    repo.UserRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	imageRepo repo.ProductImageRepository,
	likeRepo repo.ProductLikeRepository,
	userRepo repo.UserRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		imageRepo:   imageRepo,
		likeRepo:    likeRepo,
		userRepo:    userRepo,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	Condition string
	MinPrice  *int64
	MaxPrice  *int64
	Sort      string
}

type SellerSummary struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	MemberSince  time.Time `json:"member_since"`
}

type ProductOutput struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Price       int64                `json:"price"`
	Condition   string               `json:"condition"`
	Seller      SellerSummary        `json:"seller"`
	IsAvailable bool                 `json:"is_available"`
	Views       int64                `json:"views"`
	Likes       int64                `json:"likes"`
	City        string               `json:"city,omitempty"`
	State       string               `json:"state,omitempty"`
	Country     string               `json:"country,omitempty"`
	Tags        string               `json:"tags,omitempty"`
	Featured    bool                 `json:"featured"`
	Images      []ProductImageOutput `json:"images"`
	CreatedAt   time.Time            `json:"created_at"`
}

type ProductImageOutput struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id,omitempty"`
}

type ProductListOutput struct {
	Products []ProductOutput `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}
	if len(in.Search) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid search")
	}
	if in.Category != "" && in.Category != "all" && !model.Category(in.Category).Valid() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid category")
	}
	if in.Condition != "" && !model.Condition(in.Condition).Valid() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid condition")
	}

	products, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:      in.Page,
		Limit:     in.Limit,
		Search:    in.Search,
		Category:  in.Category,
		Condition: in.Condition,
		MinPrice:  in.MinPrice,
		MaxPrice:  in.MaxPrice,
		Sort:      in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	outs, err := u.buildProductOutputs(ctx, products)
	if err != nil {
		return ProductListOutput{}, err
	}

	return ProductListOutput{
		Products: outs,
		Total:    total,
		Page:     in.Page,
		Limit:    in.Limit,
	}, nil
}

// 商品詳細。閲覧数はここで+1する。
func (u *ProductUsecase) GetProductDetail(ctx context.Context, id int64) (ProductOutput, error) {
	if id <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return ProductOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
	}
	if err != nil {
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	if err := u.productRepo.IncrementViews(ctx, id); err == nil {
		p.Views++
	}

	return u.buildProductOutput(ctx, p)
}

type ProductImageInput struct {
	URL      string
	PublicID string
}

type CreateProductInput struct {
	Title       string
	Description string
	Category    string
	Price       int64
	Condition   string
	City        string
	State       string
	Country     string
	Tags        []string
	Images      []ProductImageInput
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, userID int64, in CreateProductInput) (ProductOutput, error) {
	if userID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if title == "" || len(title) > 100 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid title")
	}
	if desc == "" || len(desc) > 1000 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid description")
	}
	if !model.Category(in.Category).Valid() {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid category")
	}
	if !model.Condition(in.Condition).Valid() {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid condition")
	}
	if in.Price < 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "price must be non-negative")
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Title:       title,
		Description: desc,
		Category:    model.Category(in.Category),
		Price:       in.Price,
		Condition:   model.Condition(in.Condition),
		SellerID:    userID,
		IsAvailable: true,
		City:        in.City,
		State:       in.State,
		Country:     in.Country,
		Tags:        joinTags(in.Tags),
	})
	if err != nil {
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	if len(in.Images) > 0 {
		if err := u.imageRepo.ReplaceForProduct(ctx, p.ID, toImageModels(in.Images)); err != nil {
			return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}
	}

	return u.buildProductOutput(ctx, p)
}

// 部分更新。nilのフィールドは触らない。
type UpdateProductInput struct {
	Title       *string
	Description *string
	Category    *string
	Price       *int64
	Condition   *string
	City        *string
	State       *string
	Country     *string
	Tags        []string
	Images      []ProductImageInput
}

func (u *ProductUsecase) UpdateProduct(ctx context.Context, userID int64, id int64, in UpdateProductInput) (ProductOutput, error) {
	if userID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return ProductOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
	}
	if err != nil {
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	//出品者本人だけが編集できる
	if p.SellerID != userID {
		return ProductOutput{}, NewHTTPError(http.StatusForbidden, CodeForbidden, "not authorized")
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" || len(t) > 100 {
			return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid title")
		}
		p.Title = t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" || len(d) > 1000 {
			return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid description")
		}
		p.Description = d
	}
	if in.Category != nil {
		if !model.Category(*in.Category).Valid() {
			return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid category")
		}
		p.Category = model.Category(*in.Category)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "price must be non-negative")
		}
		p.Price = *in.Price
	}
	if in.Condition != nil {
		if !model.Condition(*in.Condition).Valid() {
			return ProductOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid condition")
		}
		p.Condition = model.Condition(*in.Condition)
	}
	if in.City != nil {
		p.City = *in.City
	}
	if in.State != nil {
		p.State = *in.State
	}
	if in.Country != nil {
		p.Country = *in.Country
	}
	if in.Tags != nil {
		p.Tags = joinTags(in.Tags)
	}

	//売却済みを編集で復活させることはできない（Updateはis_availableを触らない）
	if err := u.productRepo.Update(ctx, p); err != nil {
		if err == repo.ErrNotFound {
			return ProductOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
		}
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	if in.Images != nil {
		if err := u.imageRepo.ReplaceForProduct(ctx, p.ID, toImageModels(in.Images)); err != nil {
			return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}
	}

	return u.buildProductOutput(ctx, p)
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, userID int64, id int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}
	if p.SellerID != userID {
		return NewHTTPError(http.StatusForbidden, CodeForbidden, "not authorized")
	}

	if err := u.productRepo.SoftDelete(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
		}
		return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	//画像メタデータも片付ける（購入履歴のスナップショットには影響しない）
	if err := u.imageRepo.DeleteByProductID(ctx, id); err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	return nil
}

type LikeOutput struct {
	Likes   int64 `json:"likes"`
	IsLiked bool  `json:"is_liked"`
}

// いいねのトグル。
func (u *ProductUsecase) ToggleLike(ctx context.Context, userID int64, productID int64) (LikeOutput, error) {
	if userID <= 0 {
		return LikeOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return LikeOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if err == repo.ErrNotFound {
			return LikeOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
		}
		return LikeOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	liked, err := u.likeRepo.IsLiked(ctx, productID, userID)
	if err != nil {
		return LikeOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	if liked {
		err = u.likeRepo.Remove(ctx, productID, userID)
	} else {
		err = u.likeRepo.Add(ctx, productID, userID)
	}
	if err != nil {
		return LikeOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	count, err := u.likeRepo.CountByProduct(ctx, productID)
	if err != nil {
		return LikeOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	return LikeOutput{Likes: count, IsLiked: !liked}, nil
}

// 出品者の公開一覧（公開中のみ・新しい順）。
func (u *ProductUsecase) ListSellerProducts(ctx context.Context, sellerID int64, page int, limit int) (ProductListOutput, error) {
	if sellerID <= 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid user id")
	}
	if page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}

	products, total, err := u.productRepo.ListBySeller(ctx, sellerID, repo.SellerListActive, page, limit)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	outs, err := u.buildProductOutputs(ctx, products)
	if err != nil {
		return ProductListOutput{}, err
	}

	return ProductListOutput{Products: outs, Total: total, Page: page, Limit: limit}, nil
}

// 自分の出品一覧（all / active / sold）。
func (u *ProductUsecase) ListMyListings(ctx context.Context, userID int64, status string, page int, limit int) (ProductListOutput, error) {
	if userID <= 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid limit")
	}

	st := repo.SellerListStatus(status)
	if status == "" {
		st = repo.SellerListAll
	}
	if st != repo.SellerListAll && st != repo.SellerListActive && st != repo.SellerListSold {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid status")
	}

	products, total, err := u.productRepo.ListBySeller(ctx, userID, st, page, limit)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	outs, err := u.buildProductOutputs(ctx, products)
	if err != nil {
		return ProductListOutput{}, err
	}

	return ProductListOutput{Products: outs, Total: total, Page: page, Limit: limit}, nil
}

func (u *ProductUsecase) buildProductOutputs(ctx context.Context, products []model.Product) ([]ProductOutput, error) {
	outs := make([]ProductOutput, 0, len(products))
	for _, p := range products {
		out, err := u.buildProductOutput(ctx, p)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// 出品者・画像・いいね数を付けた表示用DTOを作る。
func (u *ProductUsecase) buildProductOutput(ctx context.Context, p model.Product) (ProductOutput, error) {
	out := ProductOutput{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       p.Price,
		Condition:   string(p.Condition),
		Seller:      SellerSummary{ID: p.SellerID},
		IsAvailable: p.IsAvailable,
		Views:       p.Views,
		City:        p.City,
		State:       p.State,
		Country:     p.Country,
		Tags:        p.Tags,
		Featured:    p.Featured,
		Images:      []ProductImageOutput{},
		CreatedAt:   p.CreatedAt,
	}

	if seller, err := u.userRepo.FindByID(ctx, p.SellerID); err == nil {
		out.Seller = SellerSummary{
			ID:           seller.ID,
			Username:     seller.Username,
			FirstName:    seller.FirstName,
			LastName:     seller.LastName,
			ProfileImage: seller.ProfileImage,
			MemberSince:  seller.CreatedAt,
		}
	}

	if images, err := u.imageRepo.ListByProductID(ctx, p.ID); err == nil {
		for _, img := range images {
			out.Images = append(out.Images, ProductImageOutput{URL: img.URL, PublicID: img.PublicID})
		}
	}

	if likes, err := u.likeRepo.CountByProduct(ctx, p.ID); err == nil {
		out.Likes = likes
	}

	return out, nil
}

func joinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return strings.Join(cleaned, " ")
}

func toImageModels(in []ProductImageInput) []model.ProductImage {
	images := make([]model.ProductImage, 0, len(in))
	for _, img := range in {
		if strings.TrimSpace(img.URL) == "" {
			continue
		}
		images = append(images, model.ProductImage{URL: img.URL, PublicID: img.PublicID})
	}
	return images
}
