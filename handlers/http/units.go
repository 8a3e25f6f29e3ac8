package httpHandler

import (
	"net/http"

	"energy-server/middleware"
	"energy-server/usecases"

	"github.com/gin-gonic/gin"
)

type UnitHandler struct {
	useCase *usecases.UnitUseCase
}

func NewUnitHandler(useCase *usecases.UnitUseCase) *UnitHandler {
	return &UnitHandler{useCase: useCase}
}

type purchaseRequest struct {
	UnitsAmount *float64 `json:"units_amount"`
}

// Purchase handles POST /api/users/units
func (h *UnitHandler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UnitsAmount == nil {
		badRequest(c, "Valid units_amount (positive number) is required.")
		return
	}

	purchase, err := h.useCase.Purchase(c.Request.Context(), middleware.UserID(c), *req.UnitsAmount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Power units added successfully.",
		"id":          purchase.ID,
		"units_added": purchase.UnitsAmount,
	})
}

// Balance handles GET /api/users/units/balance
func (h *UnitHandler) Balance(c *gin.Context) {
	summary, err := h.useCase.Summary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
