package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Section 場館分區，容量固定，例如 "lower-bowl-3"
type Section struct {
	ID        int             `json:"id" db:"id"`
	SectionID string          `json:"section_id" db:"section_id"`
	Bowl      string          `json:"bowl" db:"bowl"`
	Capacity  int             `json:"capacity" db:"capacity"`
	SeatPrice decimal.Decimal `json:"seat_price" db:"seat_price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// SectionAvailability 分區即時座位計數。
// 不變量：Available + Locked + Sold == Capacity。
// 只允許透過 inventory.Store 操作變更，報表程式只讀。
type SectionAvailability struct {
	SectionID string `json:"section_id"`
	Available int    `json:"available"`
	Locked    int    `json:"locked"`
	Sold      int    `json:"sold"`
}

// CreateSectionRequest 建立分區請求
type CreateSectionRequest struct {
	SectionID string `json:"section_id" binding:"required"`
	Bowl      string `json:"bowl" binding:"required"`
	Capacity  int    `json:"capacity" binding:"required,min=1"`
	SeatPrice string `json:"seat_price" binding:"required"`
}

// AdjustCapacityRequest 管理員容量修正請求，delta 可為負
type AdjustCapacityRequest struct {
	Delta int `json:"delta" binding:"required"`
}
