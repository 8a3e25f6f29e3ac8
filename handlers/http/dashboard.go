package httpHandler

import (
	"net/http"
	"time"

	"energy-server/middleware"
	"energy-server/services"
	"energy-server/usecases"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	useCase *usecases.AccountingUseCase
	meter   *services.Meter
}

func NewDashboardHandler(useCase *usecases.AccountingUseCase, meter *services.Meter) *DashboardHandler {
	return &DashboardHandler{useCase: useCase, meter: meter}
}

// Dashboard handles GET /api/users/dashboard
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	dash, err := h.useCase.Dashboard(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// RunMeter handles POST /api/users/meter/run. It meters only the caller.
func (h *DashboardHandler) RunMeter(c *gin.Context) {
	dash, records, err := h.meter.RunForUser(c.Request.Context(), middleware.UserID(c), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Meter run completed.",
		"records":   records,
		"dashboard": dash,
	})
}
