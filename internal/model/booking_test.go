package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_IsValid(t *testing.T) {
	assert.True(t, BookingStatusPending.IsValid())
	assert.True(t, BookingStatusConfirmed.IsValid())
	assert.True(t, BookingStatusCancelled.IsValid())
	assert.False(t, BookingStatus("confirmed-through-api").IsValid())
	assert.False(t, BookingStatus("").IsValid())
}

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	t.Run("pending 可以轉到兩個終態", func(t *testing.T) {
		assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusConfirmed))
		assert.True(t, BookingStatusPending.CanTransitionTo(BookingStatusCancelled))
	})

	t.Run("終態不能再轉換", func(t *testing.T) {
		assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusCancelled))
		assert.False(t, BookingStatusConfirmed.CanTransitionTo(BookingStatusPending))
		assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusConfirmed))
		assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusPending))
	})
}

func TestBookingStatus_IsTerminal(t *testing.T) {
	assert.False(t, BookingStatusPending.IsTerminal())
	assert.True(t, BookingStatusConfirmed.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
}

func TestBooking_IsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pending 超過期限算過期", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPending, LockExpiresAt: now.Add(-time.Second)}
		assert.True(t, b.IsExpired(now))
	})

	t.Run("期限內不算過期", func(t *testing.T) {
		b := &Booking{Status: BookingStatusPending, LockExpiresAt: now.Add(time.Minute)}
		assert.False(t, b.IsExpired(now))
	})

	t.Run("終態不算過期", func(t *testing.T) {
		b := &Booking{Status: BookingStatusConfirmed, LockExpiresAt: now.Add(-time.Hour)}
		assert.False(t, b.IsExpired(now))
	})
}
