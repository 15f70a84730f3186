package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
	"github.com/hoangvu1204/consult_care/services"
	"gorm.io/gorm"
)

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", services.ErrStore, err)
}

type SlotRepo struct {
	db *gorm.DB
}

func NewSlotRepo(db *gorm.DB) *SlotRepo {
	return &SlotRepo{db: db}
}

func (r *SlotRepo) Get(ctx context.Context, id uuid.UUID) (*models.SlotTime, error) {
	var slot models.SlotTime
	err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrSlotNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &slot, nil
}

// Reserve is the double-booking defense: one conditional UPDATE whose
// affected-row count decides the winner. Concurrent reservations of
// the same slot serialize on the row and all but one see zero rows.
func (r *SlotRepo) Reserve(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.SlotTime{}).
		Where("id = ? AND status = ?", id, models.SlotAvailable).
		Update("status", models.SlotBooked)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return services.ErrSlotUnavailable
	}
	return nil
}

// Release frees a booked slot. Releasing a slot that is already
// available is a no-op; cancelled or deleted slots are never
// resurrected.
func (r *SlotRepo) Release(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.SlotTime{}).
		Where("id = ? AND status = ?", id, models.SlotBooked).
		Update("status", models.SlotAvailable)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *SlotRepo) Create(ctx context.Context, slot *models.SlotTime) error {
	if err := r.db.WithContext(ctx).Create(slot).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *SlotRepo) ListAvailable(ctx context.Context, consultantID *uuid.UUID, from, to time.Time) ([]models.SlotTime, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND start_time >= ? AND start_time < ?", models.SlotAvailable, from, to).
		Order("start_time asc")
	if consultantID != nil {
		q = q.Where("consultant_id = ?", *consultantID)
	}

	var slots []models.SlotTime
	if err := q.Find(&slots).Error; err != nil {
		return nil, storeErr(err)
	}
	return slots, nil
}
