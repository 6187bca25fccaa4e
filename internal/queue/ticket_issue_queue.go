package queue

import (
	"context"

	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/pkg/logger"

	"go.uber.org/zap"
)

type Delivery struct {
	Data *model.TicketIssueRequest
	Ack  func()
	Nack func(requeue bool)
}

// TicketIssueQueue confirm 之後的出票出口。
// confirm 只負責投遞，不等待出票完成。
type TicketIssueQueue interface {
	// 發送出票請求到隊列
	PublishIssueRequest(ctx context.Context, req *model.TicketIssueRequest) error
	// 訂閱出票隊列
	SubscribeIssueRequests(ctx context.Context) (<-chan Delivery, error)
}

type TicketIssueQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *model.TicketIssueRequest
}

func NewTicketIssueQueue(bufferSize int) TicketIssueQueue {
	return &TicketIssueQueueImpl{
		ch: make(chan *model.TicketIssueRequest, bufferSize),
	}
}

func (q *TicketIssueQueueImpl) PublishIssueRequest(ctx context.Context, req *model.TicketIssueRequest) error {
	q.ch <- req
	return nil
}

func (q *TicketIssueQueueImpl) SubscribeIssueRequests(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case req, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: req,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if !requeue {
							return
						}
						// 非阻塞重回隊列：buffer 滿時丟棄，
						// 出票可由操作員經 reconcile 後補發，不值得卡死消費者
						select {
						case q.ch <- req:
						default:
							logger.WithComponent("mq").Warn("requeue dropped, buffer full",
								zap.String("booking_id", req.BookingID.String()))
						}
					},
				}
			}
		}
	}()

	return out, nil
}
