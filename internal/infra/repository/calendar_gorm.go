package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// --------------------------------------------------
// Locks
// --------------------------------------------------

// LockDate only holds inside Transaction; the lock is released at commit or
// rollback.
func (r *GormRepository) LockDate(ctx context.Context, date time.Time) error {
	return r.advisoryLock(ctx, lockNamespaceDate, dateLockKey(date))
}

func (r *GormRepository) LockInvoiceMonth(ctx context.Context, t time.Time) error {
	return r.advisoryLock(ctx, lockNamespaceInvoice, monthLockKey(t))
}

func (r *GormRepository) LockBirthdayYear(ctx context.Context, year int) error {
	return r.advisoryLock(ctx, lockNamespaceBirthday, int32(year))
}

// --------------------------------------------------
// Working hours
// --------------------------------------------------

func (r *GormRepository) GetWorkingHours(
	ctx context.Context,
	weekday int,
) (*models.WorkingHours, error) {

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("weekday = ?", weekday).
		First(&wh).Error; err != nil {
		return nil, notFound(err)
	}
	return &wh, nil
}

func (r *GormRepository) ListWorkingHours(ctx context.Context) ([]models.WorkingHours, error) {
	hours := []models.WorkingHours{}
	if err := r.db.WithContext(ctx).
		Order("weekday ASC").
		Find(&hours).Error; err != nil {
		return nil, err
	}
	return hours, nil
}

func (r *GormRepository) ReplaceWorkingHours(
	ctx context.Context,
	hours []models.WorkingHours,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.WorkingHours{}).Error; err != nil {
			return err
		}
		if len(hours) == 0 {
			return nil
		}
		return tx.Create(&hours).Error
	})
}

// --------------------------------------------------
// Blocked slots
// --------------------------------------------------

func (r *GormRepository) ListBlockedSlots(
	ctx context.Context,
	date time.Time,
) ([]models.BlockedSlot, error) {

	blocks := []models.BlockedSlot{}
	if err := r.db.WithContext(ctx).
		Where("date = ?", dateParam(date)).
		Order("start_time ASC").
		Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *GormRepository) CreateBlockedSlot(ctx context.Context, b *models.BlockedSlot) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *GormRepository) DeleteBlockedSlot(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.BlockedSlot{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}
