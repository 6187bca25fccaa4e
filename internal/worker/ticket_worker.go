package worker

import (
	"context"

	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/internal/queue"
	"seat-reservation-engine/internal/repository"
	"seat-reservation-engine/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketWorker interface {
	// 訂閱出票隊列
	Start(ctx context.Context) error
}

type TicketWorkerImpl struct {
	repo  repository.TicketRepository
	queue queue.TicketIssueQueue
}

func NewTicketWorker(repo repository.TicketRepository, queue queue.TicketIssueQueue) TicketWorker {
	return &TicketWorkerImpl{
		repo:  repo,
		queue: queue,
	}
}

func (w *TicketWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeIssueRequests(ctx)
	if err != nil {
		return err
	}

	go func() {
		log := logger.WithComponent("worker")
		for msg := range msgs {
			// 每個 confirmed booking 只出一張票，
			// booking_id 唯一索引保證重送也是冪等的
			ticket := &model.Ticket{
				TicketID:  uuid.New(),
				BookingID: msg.Data.BookingID,
				MatchID:   msg.Data.MatchID,
				SectionID: msg.Data.SectionID,
				SeatCount: msg.Data.SeatCount,
			}

			if _, err := w.repo.Create(ctx, ticket); err != nil {
				log.Error("issue ticket failed",
					zap.String("booking_id", msg.Data.BookingID.String()), zap.Error(err))
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}
