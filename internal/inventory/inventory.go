package inventory

import (
	"context"
	"seat-reservation-engine/internal/model"
)

// Store 每個分區的座位計數（available / locked / sold）。
// 同一分區的 TryLock / Release / CommitSold 彼此線性化，
// 不同分區完全獨立，可平行進行。
type Store interface {
	// 預熱：把分區容量載入計數器，available = capacity - sold - locked
	WarmUp(ctx context.Context, sectionID string, capacity, sold, locked int) error
	// 鎖定：原子扣減 available 並加到 locked，全要或全不要。
	// 不足時回傳 ErrInsufficientSeats，remaining 為當下剩餘數供 UI 使用。
	TryLock(ctx context.Context, sectionID string, seatCount int) (remaining int, err error)
	// 釋放：locked -> available，取消或過期回收時呼叫
	Release(ctx context.Context, sectionID string, seatCount int) error
	// 售出：locked -> sold，available 不變
	CommitSold(ctx context.Context, sectionID string, seatCount int) error
	// 容量修正：原子調整 available += delta，可為負但不能讓 available 變負，
	// 與並發中的 TryLock / Release 互不覆寫。回傳調整後的計數。
	AdjustCapacity(ctx context.Context, sectionID string, delta int) (model.SectionAvailability, error)
	// 讀取單一分區計數
	Availability(ctx context.Context, sectionID string) (model.SectionAvailability, error)
	// 批次讀取，報表快照用；缺漏的分區回傳零值計數
	Snapshot(ctx context.Context, sectionIDs []string) (map[string]model.SectionAvailability, error)
}
