package loyalty

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/notify"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

// GrantBirthdayDiscounts gives every client whose birthday is today one
// available birthday discount per calendar year.
type GrantBirthdayDiscounts struct {
	repo      domain.Repository
	audit     *audit.Dispatcher
	metrics   *metrics.Metrics
	publisher notify.Publisher

	now func() time.Time
}

func NewGrantBirthdayDiscounts(
	repo domain.Repository,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	publisher notify.Publisher,
) *GrantBirthdayDiscounts {
	return &GrantBirthdayDiscounts{
		repo:      repo,
		audit:     audit,
		metrics:   metrics,
		publisher: publisher,
		now:       timezone.Now,
	}
}

// Execute returns the discounts created.
func (uc *GrantBirthdayDiscounts) Execute(
	ctx context.Context,
	userID *uint,
) ([]models.Discount, error) {

	now := uc.now()

	var (
		granted  []models.Discount
		outgoing []models.Notification
	)

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		granted, outgoing = nil, nil

		// Uma execução por ano de cada vez: a verificação abaixo lê e depois insere.
		if err := tx.LockBirthdayYear(ctx, now.Year()); err != nil {
			return err
		}

		clients, err := birthdayClients(ctx, tx, now)
		if err != nil {
			return err
		}

		for _, c := range clients {
			if c.Birthday == nil || !loyalty.IsBirthday(*c.Birthday, now) {
				continue
			}

			discounts, err := tx.ListDiscounts(ctx, c.ID)
			if err != nil {
				return err
			}
			if loyalty.HasBirthdayDiscountIn(discounts, now.Year()) {
				continue
			}

			d := loyalty.NewBirthdayDiscount(c.ID, now)
			if err := tx.CreateDiscount(ctx, d); err != nil {
				return err
			}

			if err := tx.AppendHistory(ctx, &models.LoyaltyHistory{
				ClientID:    c.ID,
				Action:      loyalty.ActionDiscountGranted,
				Description: d.Reason,
				CreatedAt:   now,
			}); err != nil {
				return err
			}

			n := loyalty.BirthdayDiscountGranted(d)
			if err := tx.CreateNotification(ctx, &n); err != nil {
				return err
			}

			granted = append(granted, *d)
			outgoing = append(outgoing, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify.Deliver(ctx, uc.publisher, uc.repo, outgoing, now)

	for _, d := range granted {
		uc.metrics.DiscountTransition(d.Type, d.Status)
	}

	log.Info().
		Str("date", now.Format("2006-01-02")).
		Int("granted", len(granted)).
		Msg("birthday discounts granted")

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   "birthday_discounts_granted",
		Entity:   "discount",
		Metadata: map[string]any{"count": len(granted)},
	})

	return granted, nil
}

// birthdayClients also picks 29 February birthdays on 28 February of
// non-leap years.
func birthdayClients(ctx context.Context, repo domain.Repository, now time.Time) ([]models.Client, error) {
	clients, err := repo.ListClientsWithBirthday(ctx, now.Month(), now.Day())
	if err != nil {
		return nil, err
	}

	leapDay := time.Date(now.Year(), time.February, 29, 0, 0, 0, 0, now.Location())
	if now.Month() == time.February && now.Day() == 28 && leapDay.Month() != time.February {
		extra, err := repo.ListClientsWithBirthday(ctx, time.February, 29)
		if err != nil {
			return nil, err
		}
		clients = append(clients, extra...)
	}

	return clients, nil
}
