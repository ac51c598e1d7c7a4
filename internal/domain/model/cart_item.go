package model

import "time"

// カートの明細（ユーザー×カフェで1行）
// 追加時点の名前・価格・画像を必ず保存。
type CartItem struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64     `gorm:"not null;uniqueIndex:idx_cart_user_cafe" json:"user_id"`
	CafeID            int64     `gorm:"not null;uniqueIndex:idx_cart_user_cafe;index" json:"cafe_id"`
	Name              string    `gorm:"type:varchar(250);not null" json:"name"`
	UnitPriceSnapshot int64     `gorm:"not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	Currency          string    `gorm:"type:varchar(3);not null" json:"currency"`
	ImgURL            string    `gorm:"type:varchar(500);not null" json:"img_url"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (i CartItem) Subtotal() int64 {
	return i.UnitPriceSnapshot * i.Quantity
}

func (i CartItem) DisplayPrice() string {
	return FormatPrice(i.UnitPriceSnapshot, i.Currency)
}
