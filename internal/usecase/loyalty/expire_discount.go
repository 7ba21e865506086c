package loyalty

import (
	"context"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

type ExpireDiscount struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	metrics *metrics.Metrics

	now func() time.Time
}

func NewExpireDiscount(
	repo domain.Repository,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
) *ExpireDiscount {
	return &ExpireDiscount{
		repo:    repo,
		audit:   audit,
		metrics: metrics,
		now:     timezone.Now,
	}
}

func (uc *ExpireDiscount) Execute(
	ctx context.Context,
	userID *uint,
	discountID uint,
) (*models.Discount, error) {

	now := uc.now()
	var d *models.Discount

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		d, err = tx.GetDiscountForUpdate(ctx, discountID)
		if err != nil {
			if httperr.IsNotFound(err) {
				return httperr.ErrBusiness(httperr.CodeDiscountNotFound)
			}
			return err
		}

		if err := loyalty.Transition(d, loyalty.StatusExpired, now); err != nil {
			return err
		}
		return tx.SaveDiscount(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.DiscountTransition(d.Type, d.Status)

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   "discount_expired",
		Entity:   "discount",
		EntityID: &d.ID,
	})

	return d, nil
}
