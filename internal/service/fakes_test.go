package service

import (
	"context"
	"sync"
	"time"

	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/internal/repository"
	apperrors "seat-reservation-engine/pkg/app_errors"

	"github.com/google/uuid"
)

// 記憶體版 repository 假件，CAS 語意跟 postgres 版一致，
// 讓 service 測試可以真的打併發

type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*model.Booking
	byKey     map[string]uuid.UUID
	createErr error
	nextID    int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[uuid.UUID]*model.Booking),
		byKey:    make(map[string]uuid.UUID),
	}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return nil, r.createErr
	}
	if booking.IdempotencyKey != nil {
		if _, exists := r.byKey[*booking.IdempotencyKey]; exists {
			return nil, apperrors.ErrIdempotencyConflict
		}
		r.byKey[*booking.IdempotencyKey] = booking.BookingID
	}

	r.nextID++
	stored := *booking
	stored.ID = r.nextID
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	r.bookings[booking.BookingID] = &stored

	result := stored
	return &result, nil
}

func (r *fakeBookingRepo) List(ctx context.Context) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bookings := make([]*model.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		copied := *b
		bookings = append(bookings, &copied)
	}
	return bookings, nil
}

func (r *fakeBookingRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepo) FindByIdempotencyKey(ctx context.Context, key string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byKey[key]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	copied := *r.bookings[id]
	return &copied, nil
}

func (r *fakeBookingRepo) CompareAndSetStatus(ctx context.Context, bookingID uuid.UUID, from, to model.BookingStatus, via model.ConfirmedVia, paymentRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[bookingID]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.ConfirmedVia = via
	b.PaymentRef = paymentRef
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *fakeBookingRepo) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*model.Booking
	for _, b := range r.bookings {
		if b.Status == model.BookingStatusPending && b.LockExpiresAt.Before(now) {
			copied := *b
			expired = append(expired, &copied)
			if len(expired) == limit {
				break
			}
		}
	}
	return expired, nil
}

func (r *fakeBookingRepo) SectionTotals(ctx context.Context) ([]repository.SectionBookingTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bySection := make(map[string]*repository.SectionBookingTotals)
	for _, b := range r.bookings {
		t, ok := bySection[b.SectionID]
		if !ok {
			t = &repository.SectionBookingTotals{SectionID: b.SectionID}
			bySection[b.SectionID] = t
		}
		switch b.Status {
		case model.BookingStatusConfirmed:
			t.Sold += b.SeatCount
		case model.BookingStatusCancelled:
			t.Cancelled += b.SeatCount
		}
	}

	totals := make([]repository.SectionBookingTotals, 0, len(bySection))
	for _, t := range bySection {
		totals = append(totals, *t)
	}
	return totals, nil
}

func (r *fakeBookingRepo) PendingSeatTotals(ctx context.Context, now time.Time) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	totals := make(map[string]int)
	for _, b := range r.bookings {
		if b.Status == model.BookingStatusPending && !b.LockExpiresAt.Before(now) {
			totals[b.SectionID] += b.SeatCount
		}
	}
	return totals, nil
}

type fakeSectionRepo struct {
	mu        sync.Mutex
	sections  map[string]*model.Section
	adjustErr error
}

func newFakeSectionRepo(sections ...*model.Section) *fakeSectionRepo {
	r := &fakeSectionRepo{sections: make(map[string]*model.Section)}
	for _, s := range sections {
		r.sections[s.SectionID] = s
	}
	return r
}

func (r *fakeSectionRepo) Create(ctx context.Context, section *model.Section) (*model.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sections[section.SectionID] = section
	copied := *section
	return &copied, nil
}

func (r *fakeSectionRepo) List(ctx context.Context) ([]*model.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sections := make([]*model.Section, 0, len(r.sections))
	for _, s := range r.sections {
		copied := *s
		sections = append(sections, &copied)
	}
	return sections, nil
}

func (r *fakeSectionRepo) FindBySectionID(ctx context.Context, sectionID string) (*model.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sections[sectionID]
	if !ok {
		return nil, apperrors.ErrSectionNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSectionRepo) AdjustCapacity(ctx context.Context, sectionID string, delta int, floor int) (*model.Section, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adjustErr != nil {
		return nil, r.adjustErr
	}
	s, ok := r.sections[sectionID]
	if !ok || s.Capacity+delta < floor {
		return nil, apperrors.ErrInvalidInput
	}
	s.Capacity += delta
	copied := *s
	return &copied, nil
}

func (r *fakeSectionRepo) Delete(ctx context.Context, sectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sections[sectionID]; !ok {
		return apperrors.ErrSectionNotFound
	}
	delete(r.sections, sectionID)
	return nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]*model.Ticket // keyed by booking id
	bowls   map[string]string
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[uuid.UUID]*model.Ticket),
		bowls:   make(map[string]string),
	}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.tickets[ticket.BookingID]; ok {
		copied := *existing
		return &copied, nil
	}
	stored := *ticket
	stored.IssuedAt = time.Now().UTC()
	r.tickets[ticket.BookingID] = &stored
	copied := stored
	return &copied, nil
}

func (r *fakeTicketRepo) FindByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.TicketID == ticketID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, apperrors.ErrTicketNotFound
}

func (r *fakeTicketRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[bookingID]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTicketRepo) MarkUsed(ctx context.Context, ticketID uuid.UUID, usedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.TicketID == ticketID {
			if t.Used {
				return false, nil
			}
			t.Used = true
			t.UsedAt = &usedAt
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) UsedSeatsBySection(ctx context.Context, matchID string) ([]model.UsedSeatsReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bySection := make(map[string]int)
	for _, t := range r.tickets {
		if t.MatchID == matchID && t.Used {
			bySection[t.SectionID] += t.SeatCount
		}
	}
	reports := make([]model.UsedSeatsReport, 0, len(bySection))
	for sectionID, used := range bySection {
		reports = append(reports, model.UsedSeatsReport{
			SectionID: sectionID,
			Bowl:      r.bowls[sectionID],
			UsedSeats: used,
		})
	}
	return reports, nil
}

func (r *fakeTicketRepo) TotalUsedSeats(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, t := range r.tickets {
		if t.Used {
			total += t.SeatCount
		}
	}
	return total, nil
}
