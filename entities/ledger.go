package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PowerUnitPurchase is an append-only credit to a user's unit ledger.
type PowerUnitPurchase struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	UnitsAmount  float64   `gorm:"not null" json:"units_amount"`
	PurchaseDate time.Time `gorm:"not null" json:"purchase_date"`
}

func (p *PowerUnitPurchase) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = time.Now().UTC()
	}
	return nil
}

// UsageRecord is an append-only consumption event.
type UsageRecord struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Timestamp       time.Time `gorm:"index;not null" json:"timestamp"`
	DeviceID        string    `gorm:"type:varchar(64);not null" json:"device_id"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	UnitsConsumed   float64   `gorm:"not null" json:"units_consumed"`
}

func (u *UsageRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now().UTC()
	}
	return nil
}

// UnitSummary reconciles purchases against logged consumption.
// Balance keeps its ledger meaning: the sum of purchases.
type UnitSummary struct {
	Balance   float64 `json:"balance"`
	Consumed  float64 `json:"consumed"`
	Remaining float64 `json:"remaining"`
}
