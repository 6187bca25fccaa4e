package model

import (
	"time"

	"github.com/google/uuid"
)

// Ticket 與 confirmed booking 一對一發行，TicketID 是入場查驗用的不透明識別碼。
// pending / cancelled 的預訂永遠不會有票。
type Ticket struct {
	ID        int        `json:"id" db:"id"`
	TicketID  uuid.UUID  `json:"ticket_id" db:"ticket_id"`
	BookingID uuid.UUID  `json:"booking_id" db:"booking_id"`
	MatchID   string     `json:"match_id" db:"match_id"`
	SectionID string     `json:"section_id" db:"section_id"`
	SeatCount int        `json:"seat_count" db:"seat_count"`
	Used      bool       `json:"used" db:"used"`
	IssuedAt  time.Time  `json:"issued_at" db:"issued_at"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
}

// TicketIssueRequest 確認後送進出票隊列的訊息
type TicketIssueRequest struct {
	BookingID uuid.UUID `json:"booking_id"`
	MatchID   string    `json:"match_id"`
	SectionID string    `json:"section_id"`
	SeatCount int       `json:"seat_count"`
}
