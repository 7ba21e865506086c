package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// --------------------------------------------------
// Profile
// --------------------------------------------------

func (r *GormRepository) GetProfileForUpdate(
	ctx context.Context,
	clientID uint,
) (*models.LoyaltyProfile, error) {

	var p models.LoyaltyProfile
	if err := r.db.WithContext(ctx).
		Clauses(lockForUpdate).
		Where("client_id = ?", clientID).
		First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *GormRepository) SaveProfile(ctx context.Context, p *models.LoyaltyProfile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// --------------------------------------------------
// History
// --------------------------------------------------

func (r *GormRepository) HasHistory(
	ctx context.Context,
	appointmentID uint,
	actions []string,
) (bool, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LoyaltyHistory{}).
		Where("appointment_id = ? AND action IN ?", appointmentID, actions).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) AppendHistory(ctx context.Context, e *models.LoyaltyHistory) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *GormRepository) ListHistory(
	ctx context.Context,
	f loyalty.HistoryFilter,
) ([]models.LoyaltyHistory, int64, error) {

	where := sq.And{}
	if f.ClientID != 0 {
		where = append(where, sq.Eq{"client_id": f.ClientID})
	}
	if f.Action != "" {
		where = append(where, sq.Eq{"action": f.Action})
	}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		where = append(where, sq.Lt{"created_at": *f.To})
	}

	return rawPage[models.LoyaltyHistory](
		ctx, r.db, "loyalty_histories", where,
		[]string{"created_at DESC", "id DESC"},
		f.Limit, f.Offset,
	)
}

// --------------------------------------------------
// Discounts
// --------------------------------------------------

func (r *GormRepository) ListDiscounts(ctx context.Context, clientID uint) ([]models.Discount, error) {
	discounts := []models.Discount{}
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id ASC").
		Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

func (r *GormRepository) GetDiscountForUpdate(ctx context.Context, id uint) (*models.Discount, error) {
	var d models.Discount
	if err := r.db.WithContext(ctx).
		Clauses(lockForUpdate).
		First(&d, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *GormRepository) CreateDiscount(ctx context.Context, d *models.Discount) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *GormRepository) SaveDiscount(ctx context.Context, d *models.Discount) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *GormRepository) FindPendingReferralDiscount(
	ctx context.Context,
	sponsorID uint,
	referredClientID uint,
) (*models.Discount, error) {

	var d models.Discount
	if err := r.db.WithContext(ctx).
		Clauses(lockForUpdate).
		Where(
			"client_id = ? AND type = ? AND status = ? AND referred_client_id = ?",
			sponsorID, loyalty.TypeReferralSponsor, loyalty.StatusPending, referredClientID,
		).
		Order("id ASC").
		First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// --------------------------------------------------
// Notifications
// --------------------------------------------------

func (r *GormRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *GormRepository) MarkNotificationsDispatched(
	ctx context.Context,
	ids []uint,
	at time.Time,
) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id IN ?", ids).
		Update("dispatched_at", at).Error
}
