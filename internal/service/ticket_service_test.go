package service

import (
	"context"
	"testing"
	"time"

	"seat-reservation-engine/internal/clock"
	"seat-reservation-engine/internal/model"
	apperrors "seat-reservation-engine/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketService_MarkUsed(t *testing.T) {
	ctx := context.Background()
	usedAt := time.Date(2025, 3, 1, 19, 30, 0, 0, time.UTC)

	setup := func(t *testing.T) (TicketService, *model.Ticket) {
		t.Helper()
		repo := newFakeTicketRepo()
		ticket, err := repo.Create(ctx, &model.Ticket{
			TicketID:  uuid.New(),
			BookingID: uuid.New(),
			MatchID:   "match-1",
			SectionID: "lower-bowl-3",
			SeatCount: 2,
		})
		require.NoError(t, err)
		return NewTicketService(repo, clock.NewFixed(usedAt)), ticket
	}

	t.Run("Success", func(t *testing.T) {
		svc, ticket := setup(t)

		used, err := svc.MarkUsed(ctx, ticket.TicketID)
		require.NoError(t, err)
		assert.True(t, used.Used)
		require.NotNil(t, used.UsedAt)
		assert.Equal(t, usedAt, *used.UsedAt)
	})

	t.Run("Failed - ErrAlreadyResolved 重複核銷，回傳原票", func(t *testing.T) {
		svc, ticket := setup(t)

		_, err := svc.MarkUsed(ctx, ticket.TicketID)
		require.NoError(t, err)

		again, err := svc.MarkUsed(ctx, ticket.TicketID)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyResolved)
		require.NotNil(t, again)
		assert.True(t, again.Used)
	})

	t.Run("Failed - ErrTicketNotFound", func(t *testing.T) {
		svc, _ := setup(t)

		_, err := svc.MarkUsed(ctx, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})
}

func TestTicketService_GetByTicketID(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTicketRepo()
	ticket, err := repo.Create(ctx, &model.Ticket{
		TicketID:  uuid.New(),
		BookingID: uuid.New(),
		MatchID:   "match-1",
		SectionID: "lower-bowl-3",
		SeatCount: 1,
	})
	require.NoError(t, err)

	svc := NewTicketService(repo, clock.NewSystem())

	found, err := svc.GetByTicketID(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, ticket.BookingID, found.BookingID)

	_, err = svc.GetByTicketID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}
