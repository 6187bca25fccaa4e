package repository

import (
	"context"
	"fmt"
	"time"

	"seat-reservation-engine/internal/model"
	apperrors "seat-reservation-engine/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	// Create 每個 confirmed booking 只發一張票；重複插入回傳既有票
	Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Ticket, error)
	// MarkUsed 入場核銷，只能翻一次
	MarkUsed(ctx context.Context, ticketID uuid.UUID, usedAt time.Time) (bool, error)
	// UsedSeatsBySection 依分區彙總已入場座位數
	UsedSeatsBySection(ctx context.Context, matchID string) ([]model.UsedSeatsReport, error)
	// TotalUsedSeats 全場已入場座位數
	TotalUsedSeats(ctx context.Context) (int, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.BookingID,
		&ticket.MatchID,
		&ticket.SectionID,
		&ticket.SeatCount,
		&ticket.Used,
		&ticket.IssuedAt,
		&ticket.UsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

const ticketColumns = `id, ticket_id, booking_id, match_id, section_id, seat_count, used, issued_at, used_at`

func (r *TicketRepositoryImpl) Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (ticket_id, booking_id, match_id, section_id, seat_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id) DO NOTHING
		RETURNING ` + ticketColumns

	created, err := scanTicket(r.pool.QueryRow(ctx, query,
		ticket.TicketID, ticket.BookingID, ticket.MatchID, ticket.SectionID, ticket.SeatCount,
	))

	if err != nil {
		if err == pgx.ErrNoRows {
			// 出票 worker 重送時撞到既有票，視為已完成
			return r.FindByBookingID(ctx, ticket.BookingID)
		}
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return created, nil
}

func (r *TicketRepositoryImpl) FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE ticket_id = $1
	`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, ticketID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}

	return ticket, nil
}

func (r *TicketRepositoryImpl) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE booking_id = $1
	`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, bookingID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}

	return ticket, nil
}

func (r *TicketRepositoryImpl) MarkUsed(ctx context.Context, ticketID uuid.UUID, usedAt time.Time) (bool, error) {
	query := `
		UPDATE tickets
		SET used = TRUE, used_at = $1
		WHERE ticket_id = $2 AND used = FALSE
	`

	result, err := r.pool.Exec(ctx, query, usedAt, ticketID)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() == 1, nil
}

func (r *TicketRepositoryImpl) UsedSeatsBySection(ctx context.Context, matchID string) ([]model.UsedSeatsReport, error) {
	query := `
		SELECT t.section_id, s.bowl, COALESCE(SUM(t.seat_count), 0)
		FROM tickets t
		JOIN sections s ON s.section_id = t.section_id
		WHERE t.match_id = $1 AND t.used = TRUE
		GROUP BY t.section_id, s.bowl
		ORDER BY t.section_id ASC
	`

	rows, err := r.pool.Query(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]model.UsedSeatsReport, 0)

	for rows.Next() {
		var report model.UsedSeatsReport
		if err := rows.Scan(&report.SectionID, &report.Bowl, &report.UsedSeats); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *TicketRepositoryImpl) TotalUsedSeats(ctx context.Context) (int, error) {
	query := `
		SELECT COALESCE(SUM(seat_count), 0)
		FROM tickets
		WHERE used = TRUE
	`

	var total int
	err := r.pool.QueryRow(ctx, query).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}
