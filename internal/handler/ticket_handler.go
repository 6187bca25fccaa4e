package handler

import (
	"errors"
	"net/http"

	"seat-reservation-engine/internal/service"
	apperrors "seat-reservation-engine/pkg/app_errors"
	"seat-reservation-engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("tickets/:id", h.GetTicket)
		router.PUT("tickets/:id/use", h.UseTicket)
	}
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.handleTicketError(c, apperrors.ErrInvalidInput, "GetTicket")
		return
	}

	ticket, err := h.service.GetByTicketID(c, ticketID)
	if err != nil {
		h.handleTicketError(c, err, "GetTicket")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// UseTicket 入場核銷
func (h *TicketHandler) UseTicket(c *gin.Context) {
	ticketID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.handleTicketError(c, apperrors.ErrInvalidInput, "UseTicket")
		return
	}

	ticket, err := h.service.MarkUsed(c, ticketID)
	if err != nil {
		h.handleTicketError(c, err, "UseTicket")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) handleTicketError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrTicketNotFound):
		log.Warn("Ticket not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Ticket not found",
		})
	case errors.Is(err, apperrors.ErrAlreadyResolved):
		log.Warn("Ticket already used")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Ticket already used",
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
