package service

import (
	"context"

	"seat-reservation-engine/internal/clock"
	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/internal/repository"
	apperrors "seat-reservation-engine/pkg/app_errors"

	"github.com/google/uuid"
)

type TicketService interface {
	GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error)
	// MarkUsed 入場核銷，重複核銷回傳 ErrAlreadyResolved
	MarkUsed(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error)
}

type TicketServiceImpl struct {
	repo repository.TicketRepository
	clk  clock.Clock
}

func NewTicketService(repo repository.TicketRepository, clk clock.Clock) TicketService {
	return &TicketServiceImpl{repo: repo, clk: clk}
}

func (s *TicketServiceImpl) GetByTicketID(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	return s.repo.FindByTicketID(ctx, ticketID)
}

func (s *TicketServiceImpl) MarkUsed(ctx context.Context, ticketID uuid.UUID) (*model.Ticket, error) {
	flipped, err := s.repo.MarkUsed(ctx, ticketID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	if !flipped {
		// 票不存在或已核銷過
		ticket, findErr := s.repo.FindByTicketID(ctx, ticketID)
		if findErr != nil {
			return nil, findErr
		}
		return ticket, apperrors.ErrAlreadyResolved
	}

	return s.repo.FindByTicketID(ctx, ticketID)
}
