package model

import (
	"strings"
	"time"
)

// 商品（カフェ）
// priceは最小通貨単位（ペンス/セント）で持つ。
type Cafe struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(250);uniqueIndex;not null" json:"name"`
	MapURL       string    `gorm:"type:varchar(500);not null" json:"map_url"`
	ImgURL       string    `gorm:"type:varchar(500);not null" json:"img_url"`
	Location     string    `gorm:"type:varchar(250);not null" json:"location"`
	Seats        string    `gorm:"type:varchar(250);not null" json:"seats"`
	HasToilet    bool      `gorm:"not null;default:false" json:"has_toilet"`
	HasWifi      bool      `gorm:"not null;default:false" json:"has_wifi"`
	HasSockets   bool      `gorm:"not null;default:false" json:"has_sockets"`
	CanTakeCalls bool      `gorm:"not null;default:false" json:"can_take_calls"`
	Price        int64     `gorm:"not null" json:"price"`
	Currency     string    `gorm:"type:varchar(3);not null" json:"currency"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (c Cafe) DisplayPrice() string {
	return FormatPrice(c.Price, c.Currency)
}

// 設備の回答は大文字小文字を無視して "yes" だけを true にする
func IsYes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}
