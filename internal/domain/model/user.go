package model

import "time"

// 会員情報。認証は外部のIDプロバイダに委譲するのでパスワードは持たない。
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string `gorm:"type:varchar(30);uniqueIndex;not null" json:"username"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(100);not null" json:"last_name"`

	//連絡先（公開プロフィールでは出さない）
	Phone string `gorm:"type:varchar(30)" json:"phone"`

	//プロフィール画像URL（画像本体は外部ストレージ）
	ProfileImage string `gorm:"type:varchar(500)" json:"profile_image"`

	Bio string `gorm:"type:text" json:"bio"`

	//居住地（自由記述。配送先はPurchase側にスナップショットで持つ）
	City    string `gorm:"type:varchar(100)" json:"city"`
	State   string `gorm:"type:varchar(100)" json:"state"`
	Country string `gorm:"type:varchar(100)" json:"country"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
