package model

import (
	"time"

	"gorm.io/gorm"
)

// 出品カテゴリ（閉じた列挙）
type Category string

const (
	CategoryElectronics  Category = "Electronics"
	CategoryClothing     Category = "Clothing"
	CategoryHomeGarden   Category = "Home & Garden"
	CategoryBooks        Category = "Books"
	CategorySports       Category = "Sports & Outdoors"
	CategoryToysGames    Category = "Toys & Games"
	CategoryAutomotive   Category = "Automotive"
	CategoryHealthBeauty Category = "Health & Beauty"
	CategoryJewelry      Category = "Jewelry & Accessories"
	CategoryArt          Category = "Art & Collectibles"
	CategoryOther        Category = "Other"
)

// 商品の状態（閉じた列挙）
type Condition string

const (
	ConditionLikeNew Condition = "Like New"
	ConditionGood    Condition = "Good"
	ConditionFair    Condition = "Fair"
	ConditionPoor    Condition = "Poor"
)

var validCategories = map[Category]bool{
	CategoryElectronics:  true,
	CategoryClothing:     true,
	CategoryHomeGarden:   true,
	CategoryBooks:        true,
	CategorySports:       true,
	CategoryToysGames:    true,
	CategoryAutomotive:   true,
	CategoryHealthBeauty: true,
	CategoryJewelry:      true,
	CategoryArt:          true,
	CategoryOther:        true,
}

var validConditions = map[Condition]bool{
	ConditionLikeNew: true,
	ConditionGood:    true,
	ConditionFair:    true,
	ConditionPoor:    true,
}

func (c Category) Valid() bool  { return validCategories[c] }
func (c Condition) Valid() bool { return validConditions[c] }

// 出品商品。1点もの（在庫数は無く、is_availableだけ）。
// 一度falseになったら再出品は無い（terminal）。
type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"type:varchar(100);not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Category    Category  `gorm:"type:varchar(50);not null;index" json:"category"`
	Price       int64     `gorm:"not null" json:"price"`
	Condition   Condition `gorm:"type:varchar(20);not null" json:"condition"`

	//出品者（User参照。所有はしない）
	SellerID int64 `gorm:"not null;index" json:"seller_id"`

	//購入可能フラグ。購入できるのはtrueの間だけ。
	IsAvailable bool `gorm:"not null;default:true;index" json:"is_available"`

	//閲覧数
	Views int64 `gorm:"not null;default:0" json:"views"`

	//所在地
	City    string `gorm:"type:varchar(100)" json:"city"`
	State   string `gorm:"type:varchar(100)" json:"state"`
	Country string `gorm:"type:varchar(100)" json:"country"`

	//検索用タグ（空白区切りで保存）
	Tags string `gorm:"type:varchar(500)" json:"tags"`

	Featured bool `gorm:"not null;default:false" json:"featured"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// 商品画像（URLメタデータのみ）
type ProductImage struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64  `gorm:"not null;index" json:"product_id"`
	URL       string `gorm:"type:varchar(500);not null" json:"url"`
	PublicID  string `gorm:"type:varchar(255)" json:"public_id"`
}

// いいね（product_id × user_id で1件）
type ProductLike struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_product_likes_pair" json:"product_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_product_likes_pair" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
