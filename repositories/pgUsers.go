package repositories

import (
	"context"
	"time"

	"energy-server/db"
	"energy-server/entities"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

func (r *userPgRepository) Create(ctx context.Context, user *entities.User) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(user).Error)
}

func (r *userPgRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	if err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userPgRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.GetDB().WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userPgRepository) Update(ctx context.Context, id string, update entities.ProfileUpdate) error {
	res := r.db.GetDB().WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", id).
		Updates(update.Columns())
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userPgRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return translate(r.db.GetDB().WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error)
}
