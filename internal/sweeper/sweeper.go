package sweeper

import (
	"context"
	"sync"
	"time"

	"seat-reservation-engine/internal/clock"
	"seat-reservation-engine/internal/inventory"
	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/internal/monitoring"
	"seat-reservation-engine/internal/repository"
	"seat-reservation-engine/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sweeper 背景回收過期的 pending booking。
// 走跟 cancel 相同的 CAS，跟並發的 confirm 之間保證只有一個贏家，
// 所以 release 和 commitSold 不可能對同一批座位都發生。
// 掃描間隔只影響回收延遲；sweeper 停擺時座位只是多鎖一陣子，不會超賣。
type Sweeper interface {
	// Start 啟動掃描循環，ctx 結束時在單筆處理完後停止
	Start(ctx context.Context)
	// SweepOnce 跑一輪掃描，回傳回收的座位數
	SweepOnce(ctx context.Context) (int, error)
}

// failThreshold 同一筆預訂連續失敗達此次數後進操作員隊列，不再無限重試
const failThreshold = 3

type SweeperImpl struct {
	bookingRepo repository.BookingRepository
	store       inventory.Store
	clk         clock.Clock
	interval    time.Duration
	batch       int

	// 連續失敗計數，booking_id -> 次數；超過門檻即隔離。
	// SweepOnce 可以並發呼叫，mu 保護兩張表
	mu          sync.Mutex
	failCounts  map[uuid.UUID]int
	quarantined map[uuid.UUID]bool
}

func NewSweeper(
	bookingRepo repository.BookingRepository,
	store inventory.Store,
	clk clock.Clock,
	interval time.Duration,
	batch int,
) *SweeperImpl {
	return &SweeperImpl{
		bookingRepo: bookingRepo,
		store:       store,
		clk:         clk,
		interval:    interval,
		batch:       batch,
		failCounts:  make(map[uuid.UUID]int),
		quarantined: make(map[uuid.UUID]bool),
	}
}

func (w *SweeperImpl) Start(ctx context.Context) {
	go func() {
		log := logger.WithComponent("sweeper")
		log.Info("sweeper started", zap.Duration("interval", w.interval), zap.Int("batch", w.batch))

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("sweeper stopped")
				return
			case <-ticker.C:
				if _, err := w.SweepOnce(ctx); err != nil {
					// 單輪失敗只記錄，下一輪重來
					log.Error("sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

func (w *SweeperImpl) SweepOnce(ctx context.Context) (int, error) {
	log := logger.WithComponent("sweeper")
	start := time.Now()

	expired, err := w.bookingRepo.FindExpiredPending(ctx, w.clk.Now(), w.batch)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	failures := 0

	for _, booking := range expired {
		// 協作式取消：單筆之間檢查，一個工作單位內就能停
		select {
		case <-ctx.Done():
			monitoring.ObserveSweep(time.Since(start), reclaimed, failures)
			return reclaimed, ctx.Err()
		default:
		}

		if w.isQuarantined(booking.BookingID) {
			continue
		}

		if err := w.reclaim(ctx, booking); err != nil {
			// 一筆壞記錄不能擋住整個分區的回收
			failures++
			attempts, quarantined := w.noteFailure(booking.BookingID)
			if quarantined {
				log.Error("booking quarantined for operator review",
					zap.String("booking_id", booking.BookingID.String()),
					zap.String("section_id", booking.SectionID),
					zap.Int("attempts", attempts),
					zap.Error(err))
			} else {
				log.Warn("reclaim failed, will retry next sweep",
					zap.String("booking_id", booking.BookingID.String()), zap.Error(err))
			}
			continue
		}

		w.clearFailures(booking.BookingID)
		reclaimed += booking.SeatCount
	}

	if reclaimed > 0 {
		log.Info("sweep reclaimed seats", zap.Int("seats", reclaimed), zap.Int("bookings", len(expired)))
	}

	monitoring.ObserveSweep(time.Since(start), reclaimed, failures)
	return reclaimed, nil
}

func (w *SweeperImpl) isQuarantined(bookingID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.quarantined[bookingID]
}

// noteFailure 累計一次失敗，達門檻時標記隔離並回報
func (w *SweeperImpl) noteFailure(bookingID uuid.UUID) (attempts int, quarantined bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.failCounts[bookingID]++
	attempts = w.failCounts[bookingID]
	if attempts >= failThreshold && !w.quarantined[bookingID] {
		w.quarantined[bookingID] = true
		return attempts, true
	}
	return attempts, false
}

func (w *SweeperImpl) clearFailures(bookingID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.failCounts, bookingID)
}

// reclaim 回收單筆過期預訂：CAS 輸了表示 confirm 或 cancel 先到，直接放過
func (w *SweeperImpl) reclaim(ctx context.Context, booking *model.Booking) error {
	won, err := w.bookingRepo.CompareAndSetStatus(ctx, booking.BookingID,
		model.BookingStatusPending, model.BookingStatusCancelled, "", "")
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	return w.store.Release(ctx, booking.SectionID, booking.SeatCount)
}
