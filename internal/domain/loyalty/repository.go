package loyalty

import (
	"context"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

type HistoryFilter struct {
	ClientID uint
	Action   string
	From     *time.Time
	To       *time.Time

	Limit  int
	Offset int
}

type Repository interface {
	// -------- Profile --------

	// GetProfileForUpdate locks the client's profile row for the rest of the
	// transaction. Returns httperr.ErrNotFound when the profile was never created.
	GetProfileForUpdate(
		ctx context.Context,
		clientID uint,
	) (*models.LoyaltyProfile, error)

	// SaveProfile inserts or updates.
	SaveProfile(
		ctx context.Context,
		p *models.LoyaltyProfile,
	) error

	// -------- History --------
	HasHistory(
		ctx context.Context,
		appointmentID uint,
		actions []string,
	) (bool, error)

	AppendHistory(
		ctx context.Context,
		e *models.LoyaltyHistory,
	) error

	ListHistory(
		ctx context.Context,
		f HistoryFilter,
	) ([]models.LoyaltyHistory, int64, error)

	// -------- Discount --------
	ListDiscounts(
		ctx context.Context,
		clientID uint,
	) ([]models.Discount, error)

	GetDiscountForUpdate(
		ctx context.Context,
		id uint,
	) (*models.Discount, error)

	CreateDiscount(
		ctx context.Context,
		d *models.Discount,
	) error

	SaveDiscount(
		ctx context.Context,
		d *models.Discount,
	) error

	FindPendingReferralDiscount(
		ctx context.Context,
		sponsorID uint,
		referredClientID uint,
	) (*models.Discount, error)

	// LockBirthdayYear serializes birthday grants of one calendar year until
	// the transaction ends.
	LockBirthdayYear(
		ctx context.Context,
		year int,
	) error

	// -------- Notification --------
	CreateNotification(
		ctx context.Context,
		n *models.Notification,
	) error

	MarkNotificationsDispatched(
		ctx context.Context,
		ids []uint,
		at time.Time,
	) error
}

// LoadProfile locks the client's profile, or returns a fresh unsaved one when
// the client has none yet. SaveProfile inserts it.
func LoadProfile(ctx context.Context, repo Repository, clientID uint) (*models.LoyaltyProfile, error) {
	p, err := repo.GetProfileForUpdate(ctx, clientID)
	if httperr.IsNotFound(err) {
		return NewProfile(clientID), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
