package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seat-reservation-engine/internal/clock"
	"seat-reservation-engine/internal/inventory"
	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/internal/monitoring"
	"seat-reservation-engine/internal/queue"
	"seat-reservation-engine/internal/repository"
	apperrors "seat-reservation-engine/pkg/app_errors"
	"seat-reservation-engine/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InsufficientSeatsError 帶剩餘座位數的拒絕，讓前端可以提供替代方案
type InsufficientSeatsError struct {
	Remaining int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("insufficient seats: %d remaining", e.Remaining)
}

func (e *InsufficientSeatsError) Unwrap() error {
	return apperrors.ErrInsufficientSeats
}

type ReservationService interface {
	// 預訂：鎖定座位並建立 pending booking
	Reserve(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	// 確認：pending -> confirmed，座位轉為售出，並送出票請求
	Confirm(ctx context.Context, bookingID uuid.UUID, paymentRef string, via model.ConfirmedVia) (*model.Booking, error)
	// 取消：pending -> cancelled，釋放座位；已終態時為 no-op
	Cancel(ctx context.Context, bookingID uuid.UUID) error
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	BookingList(ctx context.Context) ([]*model.Booking, error)
}

// ReservationConfig 費率與鎖定期限
type ReservationConfig struct {
	LockTTL            time.Duration
	ConvenienceFeeRate decimal.Decimal
	PlatformFeeRate    decimal.Decimal
}

type ReservationServiceImpl struct {
	sectionRepo repository.SectionRepository
	bookingRepo repository.BookingRepository
	store       inventory.Store
	issueQueue  queue.TicketIssueQueue
	clk         clock.Clock
	cfg         ReservationConfig
}

func NewReservationService(
	sectionRepo repository.SectionRepository,
	bookingRepo repository.BookingRepository,
	store inventory.Store,
	issueQueue queue.TicketIssueQueue,
	clk clock.Clock,
	cfg ReservationConfig,
) ReservationService {
	return &ReservationServiceImpl{
		sectionRepo: sectionRepo,
		bookingRepo: bookingRepo,
		store:       store,
		issueQueue:  issueQueue,
		clk:         clk,
		cfg:         cfg,
	}
}

func (s *ReservationServiceImpl) Reserve(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	if req.SeatCount < 1 {
		return nil, apperrors.ErrInvalidInput
	}
	if req.MatchID == "" {
		return nil, apperrors.ErrMatchNotFound
	}

	// 冪等鍵：同一個 key 重送回傳原 booking，內容不同則是衝突
	if req.IdempotencyKey != "" {
		existing, err := s.bookingRepo.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil && !errors.Is(err, apperrors.ErrBookingNotFound) {
			return nil, err
		}
		if existing != nil {
			if existing.UserID != req.UserID || existing.SectionID != req.SectionID ||
				existing.MatchID != req.MatchID || existing.SeatCount != req.SeatCount {
				return nil, apperrors.ErrIdempotencyConflict
			}
			return existing, nil
		}
	}

	section, err := s.sectionRepo.FindBySectionID(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}

	// 1. 先鎖座位：同分區的請求在這裡被線性化
	remaining, err := s.store.TryLock(ctx, req.SectionID, req.SeatCount)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientSeats) {
			monitoring.ObserveReservation("reserve", "insufficient")
			return nil, &InsufficientSeatsError{Remaining: remaining}
		}
		return nil, err
	}

	baseAmount := section.SeatPrice.Mul(decimal.NewFromInt(int64(req.SeatCount)))
	convenienceFee := baseAmount.Mul(s.cfg.ConvenienceFeeRate).Round(2)
	platformFee := baseAmount.Mul(s.cfg.PlatformFeeRate).Round(2)

	now := s.clk.Now()
	var idempotencyKey *string
	if req.IdempotencyKey != "" {
		idempotencyKey = &req.IdempotencyKey
	}

	booking := &model.Booking{
		BookingID:      uuid.New(),
		UserID:         req.UserID,
		MatchID:        req.MatchID,
		SectionID:      req.SectionID,
		SeatCount:      req.SeatCount,
		BaseAmount:     baseAmount,
		ConvenienceFee: convenienceFee,
		PlatformFee:    platformFee,
		TotalAmount:    baseAmount.Add(convenienceFee).Add(platformFee),
		TransactionID:  uuid.New().String(),
		IdempotencyKey: idempotencyKey,
		Status:         model.BookingStatusPending,
		LockExpiresAt:  now.Add(s.cfg.LockTTL),
	}

	// 2. 持久化 booking；失敗就把座位放回去。
	// 釋放用 context.Background()，請求被取消也要保證座位回流。
	created, err := s.bookingRepo.Create(ctx, booking)
	if err != nil {
		if releaseErr := s.store.Release(context.Background(), req.SectionID, req.SeatCount); releaseErr != nil {
			logger.WithComponent("service").Error("release after failed create",
				zap.String("section_id", req.SectionID), zap.Error(releaseErr))
		}
		if errors.Is(err, apperrors.ErrIdempotencyConflict) && req.IdempotencyKey != "" {
			// 並發重送撞上唯一索引，重讀一次保持冪等
			existing, findErr := s.bookingRepo.FindByIdempotencyKey(ctx, req.IdempotencyKey)
			if findErr == nil && existing.SeatCount == req.SeatCount &&
				existing.UserID == req.UserID && existing.SectionID == req.SectionID {
				return existing, nil
			}
			return nil, apperrors.ErrIdempotencyConflict
		}
		return nil, err
	}

	monitoring.ObserveReservation("reserve", "ok")
	if availability, err := s.store.Availability(ctx, req.SectionID); err == nil {
		monitoring.SetLockedSeats(req.SectionID, availability.Locked)
	}

	return created, nil
}

func (s *ReservationServiceImpl) Confirm(ctx context.Context, bookingID uuid.UUID, paymentRef string, via model.ConfirmedVia) (*model.Booking, error) {
	booking, err := s.bookingRepo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status.IsTerminal() {
		// 重複 confirm 同一筆付款是冪等成功，其餘一律視為衝突
		if booking.Status == model.BookingStatusConfirmed && booking.PaymentRef == paymentRef {
			return booking, nil
		}
		return nil, apperrors.ErrAlreadyResolved
	}

	now := s.clk.Now()
	if booking.IsExpired(now) {
		// 過期但尚未被掃到：confirm 還是可以贏，條件是先贏下 CAS。
		logger.WithComponent("service").Warn("confirming expired booking, racing sweeper",
			zap.String("booking_id", bookingID.String()),
			zap.Time("lock_expires_at", booking.LockExpiresAt))
	}

	if via == "" {
		via = model.ConfirmedViaCheckout
	}

	won, err := s.bookingRepo.CompareAndSetStatus(ctx, bookingID,
		model.BookingStatusPending, model.BookingStatusConfirmed, via, paymentRef)
	if err != nil {
		return nil, err
	}
	if !won {
		monitoring.ObserveReservation("confirm", "conflict")
		return nil, apperrors.ErrAlreadyResolved
	}

	// CAS 贏家才能動座位計數，release / commitSold 不會同時發生
	if err := s.store.CommitSold(context.Background(), booking.SectionID, booking.SeatCount); err != nil {
		// 狀態已轉但計數沒跟上，留給 Reconcile 修復
		logger.WithComponent("service").Error("commit sold failed, counters skewed until reconcile",
			zap.String("booking_id", bookingID.String()),
			zap.String("section_id", booking.SectionID), zap.Error(err))
	}

	// 出票是外部出口，投遞失敗不影響 confirm 的結果
	issueReq := &model.TicketIssueRequest{
		BookingID: booking.BookingID,
		MatchID:   booking.MatchID,
		SectionID: booking.SectionID,
		SeatCount: booking.SeatCount,
	}
	if err := s.issueQueue.PublishIssueRequest(ctx, issueReq); err != nil {
		logger.WithComponent("service").Error("publish ticket issue request failed",
			zap.String("booking_id", bookingID.String()), zap.Error(err))
	}

	monitoring.ObserveReservation("confirm", "ok")

	booking.Status = model.BookingStatusConfirmed
	booking.ConfirmedVia = via
	booking.PaymentRef = paymentRef
	return booking, nil
}

func (s *ReservationServiceImpl) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.bookingRepo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}

	// 已終態的取消是 no-op，不是錯誤
	if booking.Status.IsTerminal() {
		return nil
	}

	won, err := s.bookingRepo.CompareAndSetStatus(ctx, bookingID,
		model.BookingStatusPending, model.BookingStatusCancelled, "", "")
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	if err := s.store.Release(context.Background(), booking.SectionID, booking.SeatCount); err != nil {
		logger.WithComponent("service").Error("release after cancel failed, counters skewed until reconcile",
			zap.String("booking_id", bookingID.String()),
			zap.String("section_id", booking.SectionID), zap.Error(err))
	}

	monitoring.ObserveReservation("cancel", "ok")
	return nil
}

func (s *ReservationServiceImpl) GetBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	return s.bookingRepo.FindByBookingID(ctx, bookingID)
}

func (s *ReservationServiceImpl) BookingList(ctx context.Context) ([]*model.Booking, error) {
	return s.bookingRepo.List(ctx)
}
