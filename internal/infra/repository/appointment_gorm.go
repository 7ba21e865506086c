package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Client").
		Preload("Services", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Services.Service")
}

func (r *GormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		services := ap.Services

		if err := tx.Omit(clause.Associations).Create(ap).Error; err != nil {
			return err
		}

		for i := range services {
			services[i].AppointmentID = ap.ID
		}
		if len(services) > 0 {
			if err := tx.Omit("Service").Create(&services).Error; err != nil {
				return err
			}
		}

		ap.Services = services
		return nil
	})
}

func (r *GormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := withDetails(r.db.WithContext(ctx)).
		First(&ap, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ap, nil
}

func (r *GormRepository) GetAppointmentForUpdate(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := withDetails(r.db.WithContext(ctx)).
		Clauses(lockForUpdate).
		First(&ap, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ap, nil
}

func (r *GormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(ap).Error
}

// ListAppointmentsForPeriod returns appointments with date in [start, end),
// every status included.
func (r *GormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	apps := []models.Appointment{}
	if err := withDetails(r.db.WithContext(ctx)).
		Where("date >= ? AND date < ?", dateParam(start), dateParam(end)).
		Order("date ASC, start_minute ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *GormRepository) CountPaidAppointments(
	ctx context.Context,
	clientID uint,
	excludeID uint,
) (int64, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			"client_id = ? AND id <> ? AND payment_status <> ?",
			clientID, excludeID, string(domain.PaymentUnpaid),
		).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormRepository) CountInvoicesWithPrefix(
	ctx context.Context,
	prefix string,
) (int64, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
