package handler

import (
	"errors"
	"net/http"

	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/internal/service"
	apperrors "seat-reservation-engine/pkg/app_errors"
	"seat-reservation-engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service service.ReservationService
}

func NewBookingHandler(service service.ReservationService) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("bookings", h.GetBookings)
		router.GET("bookings/:id", h.GetBooking)
		router.POST("bookings", h.CreateBooking)
		router.PUT("bookings/:id/confirm", h.ConfirmBooking)
		router.PUT("bookings/:id/cancel", h.CancelBooking)
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest

	if err := BindJson(c, &req); err != nil {
		return
	}

	booking, err := h.service.Reserve(c, req)
	if err != nil {
		h.handleBookingError(c, err, "CreateBooking")
		return
	}

	c.JSON(http.StatusCreated, booking.ToResponse())
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.handleBookingError(c, apperrors.ErrInvalidInput, "GetBooking")
		return
	}

	booking, err := h.service.GetBooking(c, bookingID)
	if err != nil {
		h.handleBookingError(c, err, "GetBooking")
		return
	}

	c.JSON(http.StatusOK, booking.ToResponse())
}

func (h *BookingHandler) GetBookings(c *gin.Context) {
	bookings, err := h.service.BookingList(c)
	if err != nil {
		h.handleBookingError(c, err, "GetBookings")
		return
	}

	responses := make([]model.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		responses = append(responses, booking.ToResponse())
	}

	c.JSON(http.StatusOK, responses)
}

func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.handleBookingError(c, apperrors.ErrInvalidInput, "ConfirmBooking")
		return
	}

	var req model.ConfirmBookingRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	via := model.ConfirmedVia(req.Via)
	if via != "" && via != model.ConfirmedViaCheckout && via != model.ConfirmedViaAPI {
		h.handleBookingError(c, apperrors.ErrInvalidInput, "ConfirmBooking")
		return
	}

	booking, err := h.service.Confirm(c, bookingID, req.PaymentRef, via)
	if err != nil {
		h.handleBookingError(c, err, "ConfirmBooking")
		return
	}

	c.JSON(http.StatusOK, booking.ToResponse())
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.handleBookingError(c, apperrors.ErrInvalidInput, "CancelBooking")
		return
	}

	if err := h.service.Cancel(c, bookingID); err != nil {
		h.handleBookingError(c, err, "CancelBooking")
		return
	}

	c.Status(http.StatusOK)
}

// Helper functions

func (h *BookingHandler) handleBookingError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	var insufficient *service.InsufficientSeatsError
	if errors.As(err, &insufficient) {
		// 帶回剩餘座位數，前端可以建議較小的數量
		log.Warn("Insufficient seats")
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Insufficient seats",
			"remaining": insufficient.Remaining,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrInsufficientSeats):
		log.Warn("Insufficient seats")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Insufficient seats",
		})
	case errors.Is(err, apperrors.ErrAlreadyResolved):
		// 跟付款失敗分開回報：這是「座位被別人處理掉了」
		log.Warn("Booking already resolved")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Booking already resolved",
		})
	case errors.Is(err, apperrors.ErrIdempotencyConflict):
		log.Warn("Idempotency conflict")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Idempotency key reused with different request",
		})
	case errors.Is(err, apperrors.ErrSectionNotFound):
		log.Warn("Section not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Section not found",
		})
	case errors.Is(err, apperrors.ErrBookingNotFound):
		log.Warn("Booking not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Booking not found",
		})
	case errors.Is(err, apperrors.ErrMatchNotFound):
		log.Warn("Match not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Match not found",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		log.Error("Store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Store unavailable, retry later",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
