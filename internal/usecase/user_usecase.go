package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"market/internal/domain/model"
	repo "market/internal/repository"
)

type UserUsecase struct {
	userRepo         repo.UserRepository
	productRepo      repo.ProductRepository
	purchaseRepo     repo.PurchaseRepository
	purchaseItemRepo repo.PurchaseItemRepository
	imageRepo        repo.ProductImageRepository
	likeRepo         repo.ProductLikeRepository
}

// DI
func NewUserUsecase(
	userRepo repo.UserRepository,
	productRepo repo.ProductRepository,
	purchaseRepo repo.PurchaseRepository,
	purchaseItemRepo repo.PurchaseItemRepository,
	imageRepo repo.ProductImageRepository,
	likeRepo repo.ProductLikeRepository,
) *UserUsecase {
	return &UserUsecase{
		userRepo:         userRepo,
		productRepo:      productRepo,
		purchaseRepo:     purchaseRepo,
		purchaseItemRepo: purchaseItemRepo,
		imageRepo:        imageRepo,
		likeRepo:         likeRepo,
	}
}

// 外部IDプロバイダのトークンから来る本人情報。
type Identity struct {
	UserID   int64
	Username string
	Email    string
}

type UserStats struct {
	TotalListings  int64 `json:"total_listings"`
	ActiveListings int64 `json:"active_listings"`
	TotalPurchases int64 `json:"total_purchases"`
	TotalSales     int64 `json:"total_sales"`
}

type ProfileOutput struct {
	User  model.User `json:"user"`
	Stats UserStats  `json:"stats"`
}

// 自分のプロフィール。ユーザー行が無ければトークンのclaimsから作る
// （カートと同じ、初回アクセス時の遅延作成）。
func (u *UserUsecase) GetMyProfile(ctx context.Context, id Identity) (ProfileOutput, error) {
	if id.UserID <= 0 {
		return ProfileOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, id.UserID)
	if err == repo.ErrNotFound {
		if id.Username == "" || id.Email == "" {
			return ProfileOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "profile not provisioned")
		}
		user, err = u.userRepo.Create(ctx, model.User{
			ID:       id.UserID,
			Username: id.Username,
			Email:    id.Email,
		})
		if err != nil {
			return ProfileOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}
	} else if err != nil {
		return ProfileOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	stats, err := u.collectStats(ctx, user.ID, true)
	if err != nil {
		return ProfileOutput{}, err
	}

	return ProfileOutput{User: user, Stats: stats}, nil
}

// 部分更新。nilのフィールドは触らない。
type UpdateProfileInput struct {
	Username     *string
	Email        *string
	FirstName    *string
	LastName     *string
	Phone        *string
	ProfileImage *string
	Bio          *string
	City         *string
	State        *string
	Country      *string
}

func (u *UserUsecase) UpdateMyProfile(ctx context.Context, userID int64, in UpdateProfileInput) (model.User, error) {
	if userID <= 0 {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return model.User{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "user not found")
	}
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if len(name) < 3 || len(name) > 30 {
			return model.User{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "username must be 3-30 characters")
		}
		user.Username = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !strings.Contains(email, "@") || len(email) > 255 {
			return model.User{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid email")
		}
		user.Email = email
	}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return model.User{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "first name cannot be empty")
		}
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return model.User{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "last name cannot be empty")
		}
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.ProfileImage != nil {
		user.ProfileImage = *in.ProfileImage
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.City != nil {
		user.City = *in.City
	}
	if in.State != nil {
		user.State = *in.State
	}
	if in.Country != nil {
		user.Country = *in.Country
	}

	//username/emailの重複チェック（自分は除外）
	if in.Username != nil || in.Email != nil {
		exists, err := u.userRepo.ExistsOtherWithUsernameOrEmail(ctx, user.ID, user.Username, user.Email)
		if err != nil {
			return model.User{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}
		if exists {
			return model.User{}, NewHTTPError(http.StatusConflict, CodeDuplicate, "username or email already exists")
		}
	}

	if err := u.userRepo.Update(ctx, user); err != nil {
		if err == repo.ErrNotFound {
			return model.User{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "user not found")
		}
		return model.User{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	return user, nil
}

// 公開プロフィール（メール等の私的フィールドは出さない）。
type PublicUserOutput struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	Country      string    `json:"country,omitempty"`
	MemberSince  time.Time `json:"member_since"`
}

type PublicProfileOutput struct {
	User     PublicUserOutput `json:"user"`
	Listings []ProductOutput  `json:"listings"`
	Stats    UserStats        `json:"stats"`
}

// 最近の出品は6件まで出す
const publicProfileListingLimit = 6

func (u *UserUsecase) GetPublicProfile(ctx context.Context, userID int64) (PublicProfileOutput, error) {
	if userID <= 0 {
		return PublicProfileOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid id")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err == repo.ErrNotFound {
		return PublicProfileOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "user not found")
	}
	if err != nil {
		return PublicProfileOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	products, _, err := u.productRepo.ListBySeller(ctx, userID, repo.SellerListActive, 1, publicProfileListingLimit)
	if err != nil {
		return PublicProfileOutput{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}

	listings := make([]ProductOutput, 0, len(products))
	for _, p := range products {
		listings = append(listings, publicListingOutput(ctx, p, user, u.imageRepo, u.likeRepo))
	}

	stats, err := u.collectStats(ctx, userID, false)
	if err != nil {
		return PublicProfileOutput{}, err
	}

	return PublicProfileOutput{
		User: PublicUserOutput{
			ID:           user.ID,
			Username:     user.Username,
			FirstName:    user.FirstName,
			LastName:     user.LastName,
			ProfileImage: user.ProfileImage,
			Bio:          user.Bio,
			City:         user.City,
			State:        user.State,
			Country:      user.Country,
			MemberSince:  user.CreatedAt,
		},
		Listings: listings,
		Stats:    stats,
	}, nil
}

// includePrivateは自分向け統計（全出品数・購入数）を含めるか。
// 公開プロフィールでは公開中の出品数と販売数だけ。
func (u *UserUsecase) collectStats(ctx context.Context, userID int64, includePrivate bool) (UserStats, error) {
	stats := UserStats{}

	active, err := u.productRepo.CountBySeller(ctx, userID, true)
	if err != nil {
		return UserStats{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}
	stats.ActiveListings = active

	sales, err := u.purchaseItemRepo.CountBySellerID(ctx, userID)
	if err != nil {
		return UserStats{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
	}
	stats.TotalSales = sales

	if includePrivate {
		total, err := u.productRepo.CountBySeller(ctx, userID, false)
		if err != nil {
			return UserStats{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}
		stats.TotalListings = total

		purchases, err := u.purchaseRepo.CountByBuyerID(ctx, userID)
		if err != nil {
			return UserStats{}, NewHTTPError(http.StatusInternalServerError, CodePersistence, "db error")
		}
		stats.TotalPurchases = purchases
	} else {
		stats.TotalListings = active
	}

	return stats, nil
}

func publicListingOutput(
	ctx context.Context,
	p model.Product,
	seller model.User,
	images repo.ProductImageRepository,
	likes repo.ProductLikeRepository,
) ProductOutput {
	out := ProductOutput{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       p.Price,
		Condition:   string(p.Condition),
		Seller: SellerSummary{
			ID:           seller.ID,
			Username:     seller.Username,
			FirstName:    seller.FirstName,
			LastName:     seller.LastName,
			ProfileImage: seller.ProfileImage,
			MemberSince:  seller.CreatedAt,
		},
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

	if imgs, err := images.ListByProductID(ctx, p.ID); err == nil {
		for _, img := range imgs {
			out.Images = append(out.Images, ProductImageOutput{URL: img.URL, PublicID: img.PublicID})
		}
	}
	if count, err := likes.CountByProduct(ctx, p.ID); err == nil {
		out.Likes = count
	}

	return out
}
