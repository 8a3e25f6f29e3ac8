package repositories

import (
	"context"

	"energy-server/db"
	"energy-server/entities"
)

type alertPgRepository struct {
	db db.Database
}

func NewAlertPgRepository(database db.Database) AlertRepository {
	return &alertPgRepository{db: database}
}

func (r *alertPgRepository) Create(ctx context.Context, alert *entities.Alert) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(alert).Error)
}

func (r *alertPgRepository) ListUnread(ctx context.Context, userID string) ([]entities.Alert, error) {
	var alerts []entities.Alert
	err := r.db.GetDB().WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, translate(err)
}

// MarkRead only moves is_read from false to true; a second call on the
// same alert still succeeds because the row matches.
func (r *alertPgRepository) MarkRead(ctx context.Context, id, userID string) error {
	res := r.db.GetDB().WithContext(ctx).
		Model(&entities.Alert{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
