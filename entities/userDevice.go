package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserDevice is a user's selection of a catalog item. One row per
// (user, device) pair by convention; the table does not enforce it.
type UserDevice struct {
	ID         string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string  `gorm:"type:varchar(36);index;not null" json:"user_id"`
	DeviceID   string  `gorm:"type:varchar(64);not null" json:"device_id"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	IsActive   bool    `gorm:"not null" json:"is_active"`
	CustomName *string `json:"custom_name"`
	// ActivatedAt is when the selection was last switched on; nil while off.
	ActivatedAt *time.Time `json:"activated_at"`
}

func (d *UserDevice) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// Selection is a UserDevice joined with its catalog entry.
type Selection struct {
	UserDevice
	Name             string  `json:"name"`
	Category         string  `json:"category"`
	PowerConsumption float64 `json:"power_consumption"`
	Icon             string  `json:"icon"`
	RecommendedHours float64 `json:"recommended_hours"`
}

// Draw is the selection's contribution to the household draw in kW.
func (s Selection) Draw() float64 {
	return s.PowerConsumption * float64(s.Quantity)
}
