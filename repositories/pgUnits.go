package repositories

import (
	"context"

	"energy-server/db"
	"energy-server/entities"
)

type unitPgRepository struct {
	db db.Database
}

func NewUnitPgRepository(database db.Database) UnitRepository {
	return &unitPgRepository{db: database}
}

func (r *unitPgRepository) Create(ctx context.Context, purchase *entities.PowerUnitPurchase) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(purchase).Error)
}

func (r *unitPgRepository) SumByUser(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := r.db.GetDB().WithContext(ctx).
		Model(&entities.PowerUnitPurchase{}).
		Select("COALESCE(SUM(units_amount), 0)").
		Where("user_id = ?", userID).
		Row().
		Scan(&total)
	return total, translate(err)
}
