package inventory

import (
	"context"
	"sync"

	"seat-reservation-engine/internal/model"
	apperrors "seat-reservation-engine/pkg/app_errors"
)

// MemoryStore 單機版計數器，語意與 RedisStore 相同。
// 每個分區一把鎖，跨分區互不阻塞；測試與單節點部署使用。
type MemoryStore struct {
	mu       sync.RWMutex
	sections map[string]*sectionCounters
}

type sectionCounters struct {
	mu        sync.Mutex
	available int
	locked    int
	sold      int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sections: make(map[string]*sectionCounters),
	}
}

func (s *MemoryStore) get(sectionID string) (*sectionCounters, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sections[sectionID]
	return c, ok
}

func (s *MemoryStore) WarmUp(ctx context.Context, sectionID string, capacity, sold, locked int) error {
	available := capacity - sold - locked
	if available < 0 {
		return apperrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.sections[sectionID]
	if !ok {
		c = &sectionCounters{}
		s.sections[sectionID] = c
	}

	c.mu.Lock()
	c.available = available
	c.locked = locked
	c.sold = sold
	c.mu.Unlock()
	return nil
}

func (s *MemoryStore) TryLock(ctx context.Context, sectionID string, seatCount int) (int, error) {
	c, ok := s.get(sectionID)
	if !ok {
		return 0, apperrors.ErrSectionNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 全要或全不要
	if c.available < seatCount {
		return c.available, apperrors.ErrInsufficientSeats
	}

	c.available -= seatCount
	c.locked += seatCount
	return c.available, nil
}

func (s *MemoryStore) Release(ctx context.Context, sectionID string, seatCount int) error {
	return s.moveLocked(sectionID, seatCount, func(c *sectionCounters) {
		c.available += seatCount
	})
}

func (s *MemoryStore) CommitSold(ctx context.Context, sectionID string, seatCount int) error {
	return s.moveLocked(sectionID, seatCount, func(c *sectionCounters) {
		c.sold += seatCount
	})
}

func (s *MemoryStore) moveLocked(sectionID string, seatCount int, credit func(*sectionCounters)) error {
	c, ok := s.get(sectionID)
	if !ok {
		return apperrors.ErrSectionNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// locked 不足表示計數已偏移，拒絕而不是讓計數變負
	if c.locked < seatCount {
		return apperrors.ErrInvalidInput
	}

	c.locked -= seatCount
	credit(c)
	return nil
}

func (s *MemoryStore) AdjustCapacity(ctx context.Context, sectionID string, delta int) (model.SectionAvailability, error) {
	c, ok := s.get(sectionID)
	if !ok {
		return model.SectionAvailability{}, apperrors.ErrSectionNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 調整後 available 不能為負（容量下限 = sold + locked）
	if c.available+delta < 0 {
		return model.SectionAvailability{}, apperrors.ErrInvalidInput
	}

	c.available += delta
	return model.SectionAvailability{
		SectionID: sectionID,
		Available: c.available,
		Locked:    c.locked,
		Sold:      c.sold,
	}, nil
}

func (s *MemoryStore) Availability(ctx context.Context, sectionID string) (model.SectionAvailability, error) {
	c, ok := s.get(sectionID)
	if !ok {
		return model.SectionAvailability{}, apperrors.ErrSectionNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return model.SectionAvailability{
		SectionID: sectionID,
		Available: c.available,
		Locked:    c.locked,
		Sold:      c.sold,
	}, nil
}

func (s *MemoryStore) Snapshot(ctx context.Context, sectionIDs []string) (map[string]model.SectionAvailability, error) {
	snapshot := make(map[string]model.SectionAvailability, len(sectionIDs))
	for _, sectionID := range sectionIDs {
		availability, err := s.Availability(ctx, sectionID)
		if err != nil {
			snapshot[sectionID] = model.SectionAvailability{SectionID: sectionID}
			continue
		}
		snapshot[sectionID] = availability
	}
	return snapshot, nil
}
