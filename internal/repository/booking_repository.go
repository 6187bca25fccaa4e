package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seat-reservation-engine/internal/model"
	apperrors "seat-reservation-engine/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SectionBookingTotals 分區的 sold / cancelled 座位彙總
type SectionBookingTotals struct {
	SectionID string
	Sold      int
	Cancelled int
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	List(ctx context.Context) ([]*model.Booking, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Booking, error)
	// CompareAndSetStatus pending -> 終態的 CAS。
	// confirm、cancel、sweeper 都走這裡，同一筆預訂保證只有一個贏家。
	CompareAndSetStatus(ctx context.Context, bookingID uuid.UUID, from, to model.BookingStatus, via model.ConfirmedVia, paymentRef string) (bool, error)
	// FindExpiredPending 掃描過期且尚未回收的 pending 預訂
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
	// SectionTotals 依分區彙總 sold / cancelled 座位數，報表用
	SectionTotals(ctx context.Context) ([]SectionBookingTotals, error)
	// PendingSeatTotals 依分區彙總未過期 pending 座位數，對帳用
	PendingSeatTotals(ctx context.Context, now time.Time) (map[string]int, error)
}

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

const bookingColumns = `id, booking_id, user_id, match_id, section_id, seat_count,
		base_amount, convenience_fee, platform_fee, total_amount,
		transaction_id, payment_ref, idempotency_key, status, confirmed_via,
		lock_expires_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.BookingID,
		&booking.UserID,
		&booking.MatchID,
		&booking.SectionID,
		&booking.SeatCount,
		&booking.BaseAmount,
		&booking.ConvenienceFee,
		&booking.PlatformFee,
		&booking.TotalAmount,
		&booking.TransactionID,
		&booking.PaymentRef,
		&booking.IdempotencyKey,
		&booking.Status,
		&booking.ConfirmedVia,
		&booking.LockExpiresAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	query := `
		INSERT INTO bookings (
			booking_id, user_id, match_id, section_id, seat_count,
			base_amount, convenience_fee, platform_fee, total_amount,
			transaction_id, idempotency_key, status, lock_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + bookingColumns

	created, err := scanBooking(r.pool.QueryRow(ctx, query,
		booking.BookingID, booking.UserID, booking.MatchID, booking.SectionID, booking.SeatCount,
		booking.BaseAmount, booking.ConvenienceFee, booking.PlatformFee, booking.TotalAmount,
		booking.TransactionID, booking.IdempotencyKey, booking.Status, booking.LockExpiresAt,
	))

	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrIdempotencyConflict
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return created, nil
}

func (r *BookingRepositoryImpl) List(ctx context.Context) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*model.Booking

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepositoryImpl) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_id = $1
	`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, bookingID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) FindByIdempotencyKey(ctx context.Context, key string) (*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE idempotency_key = $1
	`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) CompareAndSetStatus(
	ctx context.Context,
	bookingID uuid.UUID,
	from, to model.BookingStatus,
	via model.ConfirmedVia,
	paymentRef string,
) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, apperrors.ErrInvalidInput
	}

	query := `
		UPDATE bookings
		SET status = $1, confirmed_via = $2, payment_ref = $3, updated_at = $4
		WHERE booking_id = $5 AND status = $6
	`

	result, err := r.pool.Exec(ctx, query, to, via, paymentRef, time.Now().UTC(), bookingID, from)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	// RowsAffected == 0 表示輸掉 CAS，對方已先轉到終態
	return result.RowsAffected() == 1, nil
}

func (r *BookingRepositoryImpl) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND lock_expires_at < $2
		ORDER BY lock_expires_at ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, model.BookingStatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*model.Booking

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepositoryImpl) SectionTotals(ctx context.Context) ([]SectionBookingTotals, error) {
	query := `
		SELECT section_id,
		       COALESCE(SUM(seat_count) FILTER (WHERE status = $1), 0),
		       COALESCE(SUM(seat_count) FILTER (WHERE status = $2), 0)
		FROM bookings
		GROUP BY section_id
		ORDER BY section_id ASC
	`

	rows, err := r.pool.Query(ctx, query, model.BookingStatusConfirmed, model.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []SectionBookingTotals

	for rows.Next() {
		var t SectionBookingTotals
		if err := rows.Scan(&t.SectionID, &t.Sold, &t.Cancelled); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}

func (r *BookingRepositoryImpl) PendingSeatTotals(ctx context.Context, now time.Time) (map[string]int, error) {
	query := `
		SELECT section_id, COALESCE(SUM(seat_count), 0)
		FROM bookings
		WHERE status = $1 AND lock_expires_at >= $2
		GROUP BY section_id
	`

	rows, err := r.pool.Query(ctx, query, model.BookingStatusPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int)

	for rows.Next() {
		var sectionID string
		var seats int
		if err := rows.Scan(&sectionID, &seats); err != nil {
			return nil, err
		}
		totals[sectionID] = seats
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
