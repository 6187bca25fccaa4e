package handler

import (
	"errors"
	"net/http"

	"seat-reservation-engine/internal/model"
	"seat-reservation-engine/internal/service"
	apperrors "seat-reservation-engine/pkg/app_errors"
	"seat-reservation-engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SectionHandler struct {
	service service.SectionService
}

func NewSectionHandler(service service.SectionService) *SectionHandler {
	return &SectionHandler{service: service}
}

func (h *SectionHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("sections", h.GetSections)
		router.GET("sections/:id", h.GetSection)
		router.GET("sections/:id/availability", h.GetAvailability)
		router.POST("sections", h.CreateSection)
		router.PUT("sections/:id/capacity", h.AdjustCapacity)
		router.DELETE("sections/:id", h.DeleteSection)
	}
}

func (h *SectionHandler) GetSections(c *gin.Context) {
	sections, err := h.service.List(c)
	if err != nil {
		h.handleSectionError(c, err, "GetSections")
		return
	}

	c.JSON(http.StatusOK, sections)
}

func (h *SectionHandler) GetSection(c *gin.Context) {
	section, err := h.service.GetBySectionID(c, c.Param("id"))
	if err != nil {
		h.handleSectionError(c, err, "GetSection")
		return
	}

	c.JSON(http.StatusOK, section)
}

func (h *SectionHandler) GetAvailability(c *gin.Context) {
	availability, err := h.service.Availability(c, c.Param("id"))
	if err != nil {
		h.handleSectionError(c, err, "GetAvailability")
		return
	}

	c.JSON(http.StatusOK, availability)
}

func (h *SectionHandler) CreateSection(c *gin.Context) {
	var req model.CreateSectionRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	price, err := decimal.NewFromString(req.SeatPrice)
	if err != nil {
		h.handleSectionError(c, apperrors.ErrInvalidInput, "CreateSection")
		return
	}

	section := &model.Section{
		SectionID: req.SectionID,
		Bowl:      req.Bowl,
		Capacity:  req.Capacity,
		SeatPrice: price,
	}

	created, err := h.service.Create(c, section)
	if err != nil {
		h.handleSectionError(c, err, "CreateSection")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *SectionHandler) AdjustCapacity(c *gin.Context) {
	var req model.AdjustCapacityRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	section, err := h.service.AdjustCapacity(c, c.Param("id"), req.Delta)
	if err != nil {
		h.handleSectionError(c, err, "AdjustCapacity")
		return
	}

	c.JSON(http.StatusOK, section)
}

func (h *SectionHandler) DeleteSection(c *gin.Context) {
	if err := h.service.Delete(c, c.Param("id")); err != nil {
		h.handleSectionError(c, err, "DeleteSection")
		return
	}

	c.Status(http.StatusOK)
}

func (h *SectionHandler) handleSectionError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrSectionNotFound):
		log.Warn("Section not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Section not found",
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
