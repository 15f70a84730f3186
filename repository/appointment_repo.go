package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hoangvu1204/consult_care/models"
	"github.com/hoangvu1204/consult_care/services"
	"gorm.io/gorm"
)

type AppointmentRepo struct {
	db *gorm.DB
}

func NewAppointmentRepo(db *gorm.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) Create(ctx context.Context, appt *models.Appointment) error {
	if err := r.db.WithContext(ctx).Create(appt).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *AppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.WithContext(ctx).First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, services.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &appt, nil
}

// TransitionStatus writes the new status, and any extra columns, in one
// UPDATE guarded by the current status. Duplicate webhook deliveries
// and a cancel racing a callback both serialize here: first writer
// wins, the second sees zero affected rows.
func (r *AppointmentRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string, extra map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return services.ErrInvalidTransition
	}
	return nil
}

// Delete hard-deletes a pending appointment. The status guard lives in
// the statement itself so a callback confirming the appointment in
// between cannot be lost.
func (r *AppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.AppointmentPending).
		Delete(&models.Appointment{})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return services.ErrInvalidState
	}
	return nil
}

func (r *AppointmentRepo) ListStalePending(ctx context.Context, before time.Time) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.AppointmentPending, before).
		Find(&appts).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return appts, nil
}

func (r *AppointmentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Slot").
		Preload("Service").
		Where("user_id = ?", userID).
		Order("date_booking desc").
		Find(&appts).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return appts, nil
}
