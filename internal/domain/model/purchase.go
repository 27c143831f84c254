package model

import "time"

// 購入記録。作成後は一切変更しない（履歴としての事実）。
type Purchase struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID int64 `gorm:"not null;index;uniqueIndex:idx_purchases_buyer_key" json:"buyer_id"`

	//合計（明細の price × quantity の和）
	TotalAmount int64 `gorm:"not null" json:"total_amount"`

	//配送先スナップショット
	ShipName       string `gorm:"type:varchar(255);not null" json:"ship_name"`
	ShipLine1      string `gorm:"type:varchar(255);not null" json:"ship_line1"`
	ShipLine2      string `gorm:"type:varchar(255)" json:"ship_line2"`
	ShipCity       string `gorm:"type:varchar(100);not null" json:"ship_city"`
	ShipState      string `gorm:"type:varchar(100)" json:"ship_state"`
	ShipPostalCode string `gorm:"type:varchar(20);not null" json:"ship_postal_code"`
	ShipCountry    string `gorm:"type:varchar(100)" json:"ship_country"`
	ShipPhone      string `gorm:"type:varchar(30)" json:"ship_phone"`

	//決済はスタブ。タグを記録するだけ（未指定は cash）。
	PaymentMethod string `gorm:"type:varchar(50);not null" json:"payment_method"`

	Notes string `gorm:"type:text" json:"notes"`

	//二重送信防止キー（同一買い手の中で一意。別の買い手なら同じキーでも衝突しない）
	IdempotencyKey string `gorm:"type:varchar(255);not null;uniqueIndex:idx_purchases_buyer_key" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
