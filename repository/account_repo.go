package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
	"gorm.io/gorm"
)

// AccountRepo backs the AccountDirectory collaborator with simple
// existence checks against the users table.
type AccountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&count).Error
	if err != nil {
		return false, storeErr(err)
	}
	return count > 0, nil
}
