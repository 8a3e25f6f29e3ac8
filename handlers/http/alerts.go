package httpHandler

import (
	"net/http"

	"energy-server/middleware"
	"energy-server/usecases"

	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	useCase *usecases.AlertUseCase
}

func NewAlertHandler(useCase *usecases.AlertUseCase) *AlertHandler {
	return &AlertHandler{useCase: useCase}
}

// List handles GET /api/alerts
func (h *AlertHandler) List(c *gin.Context) {
	alerts, err := h.useCase.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// MarkRead handles PUT /api/alerts/:id/read
func (h *AlertHandler) MarkRead(c *gin.Context) {
	if err := h.useCase.MarkRead(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert marked as read."})
}
