package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AlertLowUnits        = "low_units"
	AlertNoUnits         = "no_units"
	AlertHighConsumption = "high_consumption"
)

type Alert struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	AlertType string    `gorm:"type:varchar(32);not null" json:"alert_type"`
	Message   string    `gorm:"not null" json:"message"`
	IsRead    bool      `gorm:"not null" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}
