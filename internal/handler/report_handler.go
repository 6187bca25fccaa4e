package handler

import (
	"net/http"

	"seat-reservation-engine/internal/service"
	"seat-reservation-engine/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(service service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("reports/dashboard", h.GetDashboard)
		router.GET("reports/used-seats", h.GetUsedSeats)
		router.POST("reconcile", h.Reconcile)
	}
}

func (h *ReportHandler) GetDashboard(c *gin.Context) {
	snapshot, err := h.service.Dashboard(c)
	if err != nil {
		logger.WithComponent("handler").Error("dashboard failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *ReportHandler) GetUsedSeats(c *gin.Context) {
	matchID := c.Query("match_id")
	if matchID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "match_id is required",
		})
		return
	}

	reports, err := h.service.UsedSeatsBySection(c, matchID)
	if err != nil {
		logger.WithComponent("handler").Error("used seats report failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"used_seats_by_section": reports})
}

// Reconcile 操作員手動觸發的計數修復
func (h *ReportHandler) Reconcile(c *gin.Context) {
	if err := h.service.Reconcile(c); err != nil {
		logger.WithComponent("handler").Error("reconcile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.Status(http.StatusOK)
}
