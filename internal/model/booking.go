package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus 預訂狀態類型
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ConfirmedVia 確認來源，只是 confirmed 狀態的附加資訊，不是獨立狀態
type ConfirmedVia string

const (
	ConfirmedViaCheckout ConfirmedVia = "checkout"
	ConfirmedViaAPI      ConfirmedVia = "api"
)

// IsValid 驗證狀態是否有效
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal pending 以外的狀態都是終態，只能進不能出
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed: {},
		BookingStatusCancelled: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Booking 一次購買嘗試。pending 時持有座位鎖，
// 在 LockExpiresAt 前沒有確認就會被回收器取消。
type Booking struct {
	ID             int             `json:"id" db:"id"`
	BookingID      uuid.UUID       `json:"booking_id" db:"booking_id"`
	UserID         string          `json:"user_id" db:"user_id"`
	MatchID        string          `json:"match_id" db:"match_id"`
	SectionID      string          `json:"section_id" db:"section_id"`
	SeatCount      int             `json:"seat_count" db:"seat_count"`
	BaseAmount     decimal.Decimal `json:"base_amount" db:"base_amount"`
	ConvenienceFee decimal.Decimal `json:"convenience_fee" db:"convenience_fee"`
	PlatformFee    decimal.Decimal `json:"platform_fee" db:"platform_fee"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	TransactionID  string          `json:"transaction_id" db:"transaction_id"`
	PaymentRef     string          `json:"payment_ref" db:"payment_ref"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty" db:"idempotency_key"`
	Status         BookingStatus   `json:"status" db:"status"`
	ConfirmedVia   ConfirmedVia    `json:"confirmed_via,omitempty" db:"confirmed_via"`
	LockExpiresAt  time.Time       `json:"lock_expires_at" db:"lock_expires_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// IsExpired pending 且超過鎖定期限。回收器掃到前仍佔用 lockedSeats，
// 這是設計上允許的最終一致性視窗，不是錯誤狀態。
func (b *Booking) IsExpired(now time.Time) bool {
	return b.Status == BookingStatusPending && now.After(b.LockExpiresAt)
}

// CreateBookingRequest 預訂請求
type CreateBookingRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	MatchID        string `json:"match_id" binding:"required"`
	SectionID      string `json:"section_id" binding:"required"`
	SeatCount      int    `json:"seat_count" binding:"required,min=1"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ConfirmBookingRequest 確認請求
type ConfirmBookingRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
	Via        string `json:"via"`
}

// BookingResponse 預訂響應
type BookingResponse struct {
	BookingID      string `json:"booking_id"`
	UserID         string `json:"user_id"`
	MatchID        string `json:"match_id"`
	SectionID      string `json:"section_id"`
	SeatCount      int    `json:"seat_count"`
	BaseAmount     string `json:"base_amount"`
	ConvenienceFee string `json:"convenience_fee"`
	PlatformFee    string `json:"platform_fee"`
	TotalAmount    string `json:"total_amount"`
	Status         string `json:"status"`
	LockExpiresAt  string `json:"lock_expires_at"`
	CreatedAt      string `json:"created_at"`
}

// ToResponse 轉換為響應格式
func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		BookingID:      b.BookingID.String(),
		UserID:         b.UserID,
		MatchID:        b.MatchID,
		SectionID:      b.SectionID,
		SeatCount:      b.SeatCount,
		BaseAmount:     b.BaseAmount.String(),
		ConvenienceFee: b.ConvenienceFee.String(),
		PlatformFee:    b.PlatformFee.String(),
		TotalAmount:    b.TotalAmount.String(),
		Status:         string(b.Status),
		LockExpiresAt:  b.LockExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
