package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

// ReversePayment corrects the monetary record only. Redeemed discounts stay
// used and loyalty counters are untouched; the invoice number is kept.
type ReversePayment struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	metrics *metrics.Metrics

	now func() time.Time
}

func NewReversePayment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
) *ReversePayment {
	return &ReversePayment{
		repo:    repo,
		audit:   audit,
		metrics: metrics,
		now:     timezone.Now,
	}
}

func (uc *ReversePayment) Execute(
	ctx context.Context,
	userID *uint,
	appointmentID uint,
) (*models.Appointment, error) {

	now := uc.now()

	var (
		ap       *models.Appointment
		reversed decimal.Decimal
	)

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		ap, err = tx.GetAppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			if httperr.IsNotFound(err) {
				return httperr.ErrBusiness(httperr.CodeAppointmentNotFound)
			}
			return err
		}

		// nada registrado: reversão é no-op
		reversed = ap.PaymentAmount
		if ap.PaymentStatus == string(domain.PaymentUnpaid) && reversed.IsZero() {
			return nil
		}

		profile, err := loyalty.LoadProfile(ctx, tx, ap.ClientID)
		if err != nil {
			return err
		}

		points := loyalty.UndoPayment(profile, reversed)
		if err := tx.SaveProfile(ctx, profile); err != nil {
			return err
		}

		apID := ap.ID
		if err := tx.AppendHistory(ctx, &models.LoyaltyHistory{
			ClientID:      ap.ClientID,
			Action:        loyalty.ActionPaymentReversed,
			Points:        points,
			Description:   fmt.Sprintf("Pagamento de %s € estornado", reversed.StringFixed(2)),
			AppointmentID: &apID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		ap.PaymentAmount = decimal.Zero
		ap.PaymentStatus = string(domain.PaymentUnpaid)
		ap.PaymentMethod = ""
		ap.PaymentDate = nil

		return tx.UpdateAppointment(ctx, ap)
	})
	err = reconciliationFailure(err)
	uc.metrics.Payment("reverse", err)

	if err != nil {
		var rf *ReconciliationError
		if errors.As(err, &rf) {
			log.Error().
				Err(rf.Cause).
				Uint("appointment_id", appointmentID).
				Msg("payment reversal failed")
		}
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   "payment_reversed",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{"amount": reversed.StringFixed(2)},
	})

	return ap, nil
}
