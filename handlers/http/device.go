package httpHandler

import (
	"net/http"

	"energy-server/middleware"
	"energy-server/usecases"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	useCase *usecases.DeviceUseCase
}

func NewDeviceHandler(useCase *usecases.DeviceUseCase) *DeviceHandler {
	return &DeviceHandler{
		useCase: useCase,
	}
}

// HouseholdItems handles GET /api/devices/household-items
func (h *DeviceHandler) HouseholdItems(c *gin.Context) {
	c.JSON(http.StatusOK, h.useCase.HouseholdItems())
}

// ListDevices handles GET /api/users/devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	selections, err := h.useCase.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, selections)
}

// UpsertDevice handles POST /api/users/devices
func (h *DeviceHandler) UpsertDevice(c *gin.Context) {
	var in usecases.UpsertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Device ID and quantity are required.")
		return
	}

	device, created, err := h.useCase.Upsert(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Device added successfully.", "id": device.ID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device updated successfully.", "id": device.ID})
}

// RemoveDevice handles DELETE /api/users/devices/:id
func (h *DeviceHandler) RemoveDevice(c *gin.Context) {
	if err := h.useCase.Remove(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device removed successfully."})
}

type toggleRequest struct {
	IsActive *bool `json:"is_active"`
}

// ToggleDevice handles PUT /api/users/devices/:id/toggle
func (h *DeviceHandler) ToggleDevice(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		badRequest(c, "is_active (boolean) is required in the body.")
		return
	}

	device, err := h.useCase.SetActive(c.Request.Context(), c.Param("id"), middleware.UserID(c), *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	state := "deactivated"
	if device.IsActive {
		state = "activated"
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device " + state + " successfully.", "device": device})
}
