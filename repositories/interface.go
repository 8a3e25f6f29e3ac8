package repositories

import (
	"context"
	"errors"
	"time"

	"energy-server/db"
	"energy-server/entities"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, id string, update entities.ProfileUpdate) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type UserDeviceRepository interface {
	Create(ctx context.Context, device *entities.UserDevice) error
	GetByID(ctx context.Context, id, userID string) (*entities.UserDevice, error)
	GetByUserAndDevice(ctx context.Context, userID, deviceID string) (*entities.UserDevice, error)
	GetByUserID(ctx context.Context, userID string) ([]entities.UserDevice, error)
	// UpdateSelection writes quantity and custom_name of an owned row.
	UpdateSelection(ctx context.Context, device *entities.UserDevice) error
	// SetActive writes is_active and activated_at of an owned row.
	SetActive(ctx context.Context, id, userID string, active bool, activatedAt *time.Time) (*entities.UserDevice, error)
	Delete(ctx context.Context, id, userID string) error
	// ListActive returns active selections across all users.
	ListActive(ctx context.Context) ([]entities.UserDevice, error)
}

type UnitRepository interface {
	Create(ctx context.Context, purchase *entities.PowerUnitPurchase) error
	SumByUser(ctx context.Context, userID string) (float64, error)
}

type UsageRepository interface {
	Create(ctx context.Context, record *entities.UsageRecord) error
	// ListByUser returns records newest first. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]entities.UsageRecord, error)
	SumConsumedByUser(ctx context.Context, userID string) (float64, error)
}

type AlertRepository interface {
	Create(ctx context.Context, alert *entities.Alert) error
	ListUnread(ctx context.Context, userID string) ([]entities.Alert, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// Store bundles one implementation of every repository.
type Store struct {
	Users   UserRepository
	Devices UserDeviceRepository
	Units   UnitRepository
	Usage   UsageRepository
	Alerts  AlertRepository
}

func NewPgStore(database db.Database) Store {
	return Store{
		Users:   NewUserPgRepository(database),
		Devices: NewUserDevicePgRepository(database),
		Units:   NewUnitPgRepository(database),
		Usage:   NewUsagePgRepository(database),
		Alerts:  NewAlertPgRepository(database),
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
