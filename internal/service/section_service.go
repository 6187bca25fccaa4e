package service

import (
	"context"
	"errors"

	"seat-reservation-engine/internal/inventory"
	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/internal/repository"
	apperrors "seat-reservation-engine/pkg/app_errors"
	"seat-reservation-engine/pkg/logger"

	"go.uber.org/zap"
)

type SectionService interface {
	List(ctx context.Context) ([]*model.Section, error)
	GetBySectionID(ctx context.Context, sectionID string) (*model.Section, error)
	Create(ctx context.Context, section *model.Section) (*model.Section, error)
	// AdjustCapacity 管理員容量修正，不能低於 sold + locked
	AdjustCapacity(ctx context.Context, sectionID string, delta int) (*model.Section, error)
	// Delete 軟刪除分區；還有 pending 鎖定時拒絕
	Delete(ctx context.Context, sectionID string) error
	Availability(ctx context.Context, sectionID string) (model.SectionAvailability, error)
}

type SectionServiceImpl struct {
	repo  repository.SectionRepository
	store inventory.Store
}

func NewSectionService(repo repository.SectionRepository, store inventory.Store) SectionService {
	return &SectionServiceImpl{repo: repo, store: store}
}

func (s *SectionServiceImpl) List(ctx context.Context) ([]*model.Section, error) {
	return s.repo.List(ctx)
}

func (s *SectionServiceImpl) GetBySectionID(ctx context.Context, sectionID string) (*model.Section, error) {
	return s.repo.FindBySectionID(ctx, sectionID)
}

func (s *SectionServiceImpl) Create(ctx context.Context, section *model.Section) (*model.Section, error) {
	if section.Capacity < 1 {
		return nil, apperrors.ErrInvalidInput
	}

	created, err := s.repo.Create(ctx, section)
	if err != nil {
		return nil, err
	}

	// 新分區全部可售
	if err := s.store.WarmUp(ctx, created.SectionID, created.Capacity, 0, 0); err != nil {
		return nil, err
	}

	return created, nil
}

func (s *SectionServiceImpl) AdjustCapacity(ctx context.Context, sectionID string, delta int) (*model.Section, error) {
	if delta == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// 1. 先原子調整計數：只動 available，並發的 TryLock / Release 不會被覆寫，
	// 下限檢查（available + delta >= 0）也在同一步完成
	availability, err := s.store.AdjustCapacity(ctx, sectionID, delta)
	if err != nil {
		return nil, err
	}

	// 2. 持久化新容量；失敗就把計數調回去，
	// 補償用 context.Background()，請求被取消也要保證計數一致
	floor := availability.Sold + availability.Locked
	section, err := s.repo.AdjustCapacity(ctx, sectionID, delta, floor)
	if err != nil {
		if _, revertErr := s.store.AdjustCapacity(context.Background(), sectionID, -delta); revertErr != nil {
			logger.WithComponent("service").Error("revert capacity adjustment failed, counters skewed until reconcile",
				zap.String("section_id", sectionID), zap.Int("delta", delta), zap.Error(revertErr))
		}
		return nil, err
	}

	return section, nil
}

func (s *SectionServiceImpl) Delete(ctx context.Context, sectionID string) error {
	availability, err := s.store.Availability(ctx, sectionID)
	if err != nil && !errors.Is(err, apperrors.ErrSectionNotFound) {
		return err
	}
	// 有人還鎖著座位就不能下架；售出紀錄保留在軟刪除的列上
	if err == nil && availability.Locked > 0 {
		return apperrors.ErrInvalidInput
	}

	return s.repo.Delete(ctx, sectionID)
}

func (s *SectionServiceImpl) Availability(ctx context.Context, sectionID string) (model.SectionAvailability, error) {
	return s.store.Availability(ctx, sectionID)
}
