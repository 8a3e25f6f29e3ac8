package httpHandler

import (
	"net/http"
	"strconv"

	"energy-server/middleware"
	"energy-server/usecases"

	"github.com/gin-gonic/gin"
)

type UsageHandler struct {
	useCase *usecases.UsageUseCase
}

func NewUsageHandler(useCase *usecases.UsageUseCase) *UsageHandler {
	return &UsageHandler{useCase: useCase}
}

// Log handles POST /api/usage/log
func (h *UsageHandler) Log(c *gin.Context) {
	var in usecases.LogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "device_id, duration_minutes, and units_consumed are required.")
		return
	}

	record, err := h.useCase.Log(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Usage logged successfully.", "id": record.ID})
}

// History handles GET /api/usage/history?limit=N
func (h *UsageHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer.")
			return
		}
		limit = n
	}

	history, err := h.useCase.History(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
