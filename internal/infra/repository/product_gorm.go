package repository

import (
	"context"
	"errors"
	"strings"

	"market/internal/domain/model"
	repo "market/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開中の商品のみを、検索/カテゴリ/状態/価格帯/ソート/ページング付きで返す。
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	//購入可能なものだけ
	tx = tx.Where("is_available = ?", true)

	//検索はtitle/description/tagsを対象
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("(title ILIKE ? OR description ILIKE ? OR tags ILIKE ?)", like, like, like)
	}

	if q.Category != "" && q.Category != "all" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Condition != "" {
		tx = tx.Where("condition = ?", q.Condition)
	}

	//価格帯
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	//total（件数）
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	case "views":
		tx = tx.Order("views desc").Order("id desc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// 出品者の一覧。statusで all / active / sold を切り替える。
func (r *ProductGormRepository) ListBySeller(ctx context.Context, sellerID int64, status repo.SellerListStatus, page int, limit int) ([]model.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{}).Where("seller_id = ?", sellerID)

	switch status {
	case repo.SellerListActive:
		tx = tx.Where("is_available = ?", true)
	case repo.SellerListSold:
		tx = tx.Where("is_available = ?", false)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	var products []model.Product
	offset := (page - 1) * limit
	err := tx.Order("created_at desc").Order("id desc").
		Offset(offset).Limit(limit).
		Find(&products).Error
	if err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新。is_availableはここでは触らない（売却遷移はTryMarkUnavailableだけ）。
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"title":       p.Title,
		"description": p.Description,
		"category":    p.Category,
		"price":       p.Price,
		"condition":   p.Condition,
		"city":        p.City,
		"state":       p.State,
		"country":     p.Country,
		"tags":        p.Tags,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（ソフトデリート）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 売却遷移。まだ購入可能なときだけ1文でfalseに落とす。
// read-then-writeにしないこと。ここが同時購入の勝敗を決める。
func (r *ProductGormRepository) TryMarkUnavailable(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND is_available = ?", id, true).
		Update("is_available", false)

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		//既に売れている（or 存在しない）。エラーではない。
		return false, nil
	}
	return true, nil
}

// 閲覧数+1
func (r *ProductGormRepository) IncrementViews(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("views", gorm.Expr("views + 1"))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 出品数の集計
func (r *ProductGormRepository) CountBySeller(ctx context.Context, sellerID int64, onlyAvailable bool) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{}).Where("seller_id = ?", sellerID)
	if onlyAvailable {
		tx = tx.Where("is_available = ?", true)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
