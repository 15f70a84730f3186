package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
	"github.com/hoangvu1204/consult_care/services"
	"gorm.io/gorm"
)

// ServiceRepo backs the ServiceCatalog collaborator with read-only
// lookups over the consultation service catalog.
type ServiceRepo struct {
	db *gorm.DB
}

func NewServiceRepo(db *gorm.DB) *ServiceRepo {
	return &ServiceRepo{db: db}
}

func (r *ServiceRepo) Get(ctx context.Context, id uuid.UUID) (*models.ConsultationService, error) {
	var svc models.ConsultationService
	err := r.db.WithContext(ctx).First(&svc, "id = ? AND is_active = ?", id, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrServiceNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &svc, nil
}

func (r *ServiceRepo) Price(ctx context.Context, id uuid.UUID) (float64, error) {
	svc, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return svc.Price, nil
}
