package queue

import (
	"context"
	"testing"
	"time"

	"seat-reservation-engine/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueRequest(seats int) *model.TicketIssueRequest {
	return &model.TicketIssueRequest{
		BookingID: uuid.New(),
		MatchID:   "match-1",
		SectionID: "lower-bowl-3",
		SeatCount: seats,
	}
}

func receive(t *testing.T, deliveries <-chan Delivery) Delivery {
	t.Helper()
	select {
	case d := <-deliveries:
		return d
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
		return Delivery{}
	}
}

func TestTicketIssueQueue_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewTicketIssueQueue(10)
	deliveries, err := q.SubscribeIssueRequests(ctx)
	require.NoError(t, err)

	req := issueRequest(3)
	require.NoError(t, q.PublishIssueRequest(ctx, req))

	d := receive(t, deliveries)
	assert.Equal(t, req.BookingID, d.Data.BookingID)
	assert.Equal(t, 3, d.Data.SeatCount)
	d.Ack()
}

func TestTicketIssueQueue_PreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewTicketIssueQueue(10)

	first := issueRequest(1)
	second := issueRequest(2)
	require.NoError(t, q.PublishIssueRequest(ctx, first))
	require.NoError(t, q.PublishIssueRequest(ctx, second))

	deliveries, err := q.SubscribeIssueRequests(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.BookingID, receive(t, deliveries).Data.BookingID)
	assert.Equal(t, second.BookingID, receive(t, deliveries).Data.BookingID)
}

func TestTicketIssueQueue_NackRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewTicketIssueQueue(10)
	deliveries, err := q.SubscribeIssueRequests(ctx)
	require.NoError(t, err)

	req := issueRequest(2)
	require.NoError(t, q.PublishIssueRequest(ctx, req))

	d := receive(t, deliveries)
	d.Nack(true)

	redelivered := receive(t, deliveries)
	assert.Equal(t, req.BookingID, redelivered.Data.BookingID)
	redelivered.Ack()
}

func TestTicketIssueQueue_NackWithoutRequeueDrops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewTicketIssueQueue(10)
	deliveries, err := q.SubscribeIssueRequests(ctx)
	require.NoError(t, err)

	require.NoError(t, q.PublishIssueRequest(ctx, issueRequest(1)))
	receive(t, deliveries).Nack(false)

	select {
	case d := <-deliveries:
		t.Fatalf("unexpected redelivery: %v", d.Data.BookingID)
	case <-time.After(50 * time.Millisecond):
	}
}

// buffer 滿時 Nack(requeue) 丟棄而不是卡死消費者
func TestTicketIssueQueue_NackOnFullBufferDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewTicketIssueQueue(1)
	deliveries, err := q.SubscribeIssueRequests(ctx)
	require.NoError(t, err)

	first := issueRequest(1)
	require.NoError(t, q.PublishIssueRequest(ctx, first))
	d := receive(t, deliveries)

	// 第三次發布回傳時，第二則已被消費者取走、buffer 裡塞滿第三則
	require.NoError(t, q.PublishIssueRequest(ctx, issueRequest(2)))
	require.NoError(t, q.PublishIssueRequest(ctx, issueRequest(3)))

	done := make(chan struct{})
	go func() {
		d.Nack(true)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nack blocked on full buffer")
	}

	// 後續兩則照常送達，被丟棄的第一則不再出現
	assert.Equal(t, 2, receive(t, deliveries).Data.SeatCount)
	assert.Equal(t, 3, receive(t, deliveries).Data.SeatCount)
	select {
	case redelivered := <-deliveries:
		t.Fatalf("unexpected redelivery: %v", redelivered.Data.BookingID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTicketIssueQueue_SubscribeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	q := NewTicketIssueQueue(10)
	deliveries, err := q.SubscribeIssueRequests(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-deliveries:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("subscription channel not closed after cancel")
	}
}
