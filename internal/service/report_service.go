package service

import (
	"context"
	"time"

	"seat-reservation-engine/internal/inventory"
	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/internal/repository"
)

// ReportService 純讀取端。不動 booking 狀態、不動座位計數、不取鎖，
// 換來的是快照可能落後進行中的操作最多一個回收週期。
type ReportService interface {
	// Dashboard 儀表板快照
	Dashboard(ctx context.Context) (*model.DashboardSnapshot, error)
	// UsedSeatsBySection 指定 match 各分區已入場座位數
	UsedSeatsBySection(ctx context.Context, matchID string) ([]model.UsedSeatsReport, error)
	// Reconcile 對帳：從 booking 記錄重算計數並覆寫 inventory，
	// 修復崩潰造成的計數偏移；啟動預熱也走這裡
	Reconcile(ctx context.Context) error
}

type ReportServiceImpl struct {
	sectionRepo repository.SectionRepository
	bookingRepo repository.BookingRepository
	ticketRepo  repository.TicketRepository
	store       inventory.Store
}

func NewReportService(
	sectionRepo repository.SectionRepository,
	bookingRepo repository.BookingRepository,
	ticketRepo repository.TicketRepository,
	store inventory.Store,
) ReportService {
	return &ReportServiceImpl{
		sectionRepo: sectionRepo,
		bookingRepo: bookingRepo,
		ticketRepo:  ticketRepo,
		store:       store,
	}
}

func (s *ReportServiceImpl) Dashboard(ctx context.Context) (*model.DashboardSnapshot, error) {
	sections, err := s.sectionRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.bookingRepo.SectionTotals(ctx)
	if err != nil {
		return nil, err
	}
	totalsBySection := make(map[string]repository.SectionBookingTotals, len(totals))
	for _, t := range totals {
		totalsBySection[t.SectionID] = t
	}

	sectionIDs := make([]string, 0, len(sections))
	for _, section := range sections {
		sectionIDs = append(sectionIDs, section.SectionID)
	}

	availability, err := s.store.Snapshot(ctx, sectionIDs)
	if err != nil {
		return nil, err
	}

	snapshot := &model.DashboardSnapshot{
		PerSection: make([]model.SectionReport, 0, len(sections)),
	}

	for _, section := range sections {
		t := totalsBySection[section.SectionID]
		a := availability[section.SectionID]

		snapshot.PerSection = append(snapshot.PerSection, model.SectionReport{
			SectionID: section.SectionID,
			Bowl:      section.Bowl,
			Sold:      t.Sold,
			Cancelled: t.Cancelled,
			Remaining: a.Available,
			Locked:    a.Locked,
		})
		snapshot.TotalSeats += t.Sold
	}

	usedTickets, err := s.ticketRepo.TotalUsedSeats(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.TotalUsedTickets = usedTickets

	return snapshot, nil
}

func (s *ReportServiceImpl) UsedSeatsBySection(ctx context.Context, matchID string) ([]model.UsedSeatsReport, error) {
	return s.ticketRepo.UsedSeatsBySection(ctx, matchID)
}

func (s *ReportServiceImpl) Reconcile(ctx context.Context) error {
	sections, err := s.sectionRepo.List(ctx)
	if err != nil {
		return err
	}

	totals, err := s.bookingRepo.SectionTotals(ctx)
	if err != nil {
		return err
	}
	soldBySection := make(map[string]int, len(totals))
	for _, t := range totals {
		soldBySection[t.SectionID] = t.Sold
	}

	// 未過期的 pending 才算 locked，過期的等回收器處理，重算時視為可售
	pending, err := s.bookingRepo.PendingSeatTotals(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	for _, section := range sections {
		sold := soldBySection[section.SectionID]
		locked := pending[section.SectionID]
		if err := s.store.WarmUp(ctx, section.SectionID, section.Capacity, sold, locked); err != nil {
			return err
		}
	}

	return nil
}
