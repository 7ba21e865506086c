package loyalty

import (
	"context"
	"strings"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
	"github.com/BruksfildServices01/salon-scheduler/internal/validators"
)

type RegisterClientInput struct {
	Name     string
	Phone    string
	Email    string
	Birthday *time.Time

	// ReferralCode is the sponsor's code, optional.
	ReferralCode string
}

// RegisterClient signs a client up. With a sponsor code, the new client's
// profile remembers the sponsor and the sponsor gets a pending referral
// discount.
type RegisterClient struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	metrics *metrics.Metrics

	now func() time.Time
}

func NewRegisterClient(
	repo domain.Repository,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
) *RegisterClient {
	return &RegisterClient{
		repo:    repo,
		audit:   audit,
		metrics: metrics,
		now:     timezone.Now,
	}
}

func (uc *RegisterClient) Execute(
	ctx context.Context,
	in RegisterClientInput,
) (*models.Client, error) {

	now := uc.now()
	code := loyalty.NormalizeReferralCode(in.ReferralCode)

	var (
		client  *models.Client
		pending *models.Discount
	)

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {

		// --------------------------------------------------
		// 1️⃣ Padrinho
		// --------------------------------------------------
		var sponsor *models.Client
		if code != "" {
			s, err := tx.FindClientByReferralCode(ctx, code)
			if err != nil {
				if httperr.IsNotFound(err) {
					return httperr.ErrBusiness(httperr.CodeInvalidReferralCode)
				}
				return err
			}
			sponsor = s
		}

		// --------------------------------------------------
		// 2️⃣ Cliente
		// --------------------------------------------------
		client = &models.Client{
			Name:         strings.TrimSpace(in.Name),
			Phone:        strings.TrimSpace(in.Phone),
			Email:        validators.NormalizeEmail(in.Email),
			Birthday:     in.Birthday,
			ReferralCode: loyalty.NewReferralCode(),
		}
		if err := tx.CreateClient(ctx, client); err != nil {
			return err
		}

		if sponsor == nil {
			return nil
		}

		// --------------------------------------------------
		// 3️⃣ Perfil do indicado + desconto pendente do padrinho
		// --------------------------------------------------
		profile := loyalty.NewProfile(client.ID)
		profile.ReferredBy = code
		if err := tx.SaveProfile(ctx, profile); err != nil {
			return err
		}

		pending = loyalty.NewReferralDiscount(sponsor.ID, client.ID, code, now)
		return tx.CreateDiscount(ctx, pending)
	})
	if err != nil {
		return nil, err
	}

	if pending != nil {
		uc.metrics.DiscountTransition(pending.Type, pending.Status)
	}

	uc.audit.Dispatch(audit.Event{
		Action:   "client_registered",
		Entity:   "client",
		EntityID: &client.ID,
		Metadata: map[string]any{"referred": pending != nil},
	})

	return client, nil
}
