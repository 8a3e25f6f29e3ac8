package repositories

import (
	"context"
	"time"

	"energy-server/db"
	"energy-server/entities"

	"gorm.io/gorm/clause"
)

type userDevicePgRepository struct {
	db db.Database
}

func NewUserDevicePgRepository(database db.Database) UserDeviceRepository {
	return &userDevicePgRepository{db: database}
}

func (r *userDevicePgRepository) Create(ctx context.Context, device *entities.UserDevice) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(device).Error)
}

func (r *userDevicePgRepository) GetByID(ctx context.Context, id, userID string) (*entities.UserDevice, error) {
	var device entities.UserDevice
	err := r.db.GetDB().WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&device).Error
	if err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (r *userDevicePgRepository) GetByUserAndDevice(ctx context.Context, userID, deviceID string) (*entities.UserDevice, error) {
	var device entities.UserDevice
	err := r.db.GetDB().WithContext(ctx).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		First(&device).Error
	if err != nil {
		return nil, translate(err)
	}
	return &device, nil
}

func (r *userDevicePgRepository) GetByUserID(ctx context.Context, userID string) ([]entities.UserDevice, error) {
	var devices []entities.UserDevice
	err := r.db.GetDB().WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&devices).Error
	return devices, translate(err)
}

func (r *userDevicePgRepository) UpdateSelection(ctx context.Context, device *entities.UserDevice) error {
	res := r.db.GetDB().WithContext(ctx).
		Model(&entities.UserDevice{}).
		Where("id = ? AND user_id = ?", device.ID, device.UserID).
		Updates(map[string]interface{}{
			"quantity":    device.Quantity,
			"custom_name": device.CustomName,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userDevicePgRepository) SetActive(ctx context.Context, id, userID string, active bool, activatedAt *time.Time) (*entities.UserDevice, error) {
	var device entities.UserDevice
	res := r.db.GetDB().WithContext(ctx).
		Model(&device).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_active":    active,
			"activated_at": activatedAt,
		})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &device, nil
}

func (r *userDevicePgRepository) Delete(ctx context.Context, id, userID string) error {
	res := r.db.GetDB().WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.UserDevice{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userDevicePgRepository) ListActive(ctx context.Context) ([]entities.UserDevice, error) {
	var devices []entities.UserDevice
	err := r.db.GetDB().WithContext(ctx).Where("is_active = ?", true).Order("user_id").Find(&devices).Error
	return devices, translate(err)
}
