package repositories

import (
	"context"

	"energy-server/db"
	"energy-server/entities"
)

type usagePgRepository struct {
	db db.Database
}

func NewUsagePgRepository(database db.Database) UsageRepository {
	return &usagePgRepository{db: database}
}

func (r *usagePgRepository) Create(ctx context.Context, record *entities.UsageRecord) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(record).Error)
}

func (r *usagePgRepository) ListByUser(ctx context.Context, userID string, limit int) ([]entities.UsageRecord, error) {
	var records []entities.UsageRecord
	q := r.db.GetDB().WithContext(ctx).Where("user_id = ?", userID).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, translate(err)
}

func (r *usagePgRepository) SumConsumedByUser(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := r.db.GetDB().WithContext(ctx).
		Model(&entities.UsageRecord{}).
		Select("COALESCE(SUM(units_consumed), 0)").
		Where("user_id = ?", userID).
		Row().
		Scan(&total)
	return total, translate(err)
}
