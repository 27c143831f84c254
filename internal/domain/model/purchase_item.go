package model

import "time"

// 購入明細。価格・出品者・タイトルは購入時点のスナップショット。
// 元の商品が後で編集・削除されても変わらない。
type PurchaseItem struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseID        int64     `gorm:"not null;index" json:"purchase_id"`
	ProductID         int64     `gorm:"not null;index" json:"product_id"`
	SellerID          int64     `gorm:"not null;index" json:"seller_id"`
	TitleSnapshot     string    `gorm:"type:varchar(100);not null" json:"title_snapshot"`
	UnitPriceSnapshot int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
