package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/notify"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

// CompleteAppointment marks the service as rendered and credits the loyalty
// ledger in the same transaction.
type CompleteAppointment struct {
	repo      domain.Repository
	audit     *audit.Dispatcher
	metrics   *metrics.Metrics
	publisher notify.Publisher

	now func() time.Time
}

func NewCompleteAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	publisher notify.Publisher,
) *CompleteAppointment {
	return &CompleteAppointment{
		repo:      repo,
		audit:     audit,
		metrics:   metrics,
		publisher: publisher,
		now:       timezone.Now,
	}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	userID *uint,
	appointmentID uint,
) (*models.Appointment, error) {

	now := uc.now()

	var (
		ap       *models.Appointment
		granted  *models.Discount
		outgoing []models.Notification
	)

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {

		// --------------------------------------------------
		// 1️⃣ Agendamento
		// --------------------------------------------------
		var err error
		ap, err = tx.GetAppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			if httperr.IsNotFound(err) {
				return httperr.ErrBusiness(httperr.CodeAppointmentNotFound)
			}
			return err
		}

		if err := domain.Complete(ap, now); err != nil {
			return err
		}
		if err := tx.UpdateAppointment(ctx, ap); err != nil {
			return err
		}

		// --------------------------------------------------
		// 2️⃣ Ledger (idempotente por agendamento)
		// --------------------------------------------------
		recorded, err := tx.HasHistory(ctx, ap.ID, loyalty.CompletionActions)
		if err != nil {
			return err
		}

		profile, err := loyalty.LoadProfile(ctx, tx, ap.ClientID)
		if err != nil {
			return err
		}

		discounts, err := tx.ListDiscounts(ctx, ap.ClientID)
		if err != nil {
			return err
		}

		completion := loyalty.RecordCompletion(profile, ap, recorded, discounts, now)
		if completion == nil {
			return nil
		}

		if err := tx.SaveProfile(ctx, profile); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, &completion.Entry); err != nil {
			return err
		}

		// --------------------------------------------------
		// 3️⃣ Desconto de fidelidade
		// --------------------------------------------------
		if completion.Granted == nil {
			return nil
		}

		granted = completion.Granted
		if err := tx.CreateDiscount(ctx, granted); err != nil {
			return err
		}

		apID := ap.ID
		if err := tx.AppendHistory(ctx, &models.LoyaltyHistory{
			ClientID:      ap.ClientID,
			Action:        loyalty.ActionDiscountGranted,
			Description:   granted.Reason,
			AppointmentID: &apID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		n := completion.Notification
		if err := tx.CreateNotification(ctx, n); err != nil {
			return err
		}
		outgoing = append(outgoing, *n)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 4️⃣ Pós-commit: notificação, métricas, auditoria
	// --------------------------------------------------
	notify.Deliver(ctx, uc.publisher, uc.repo, outgoing, now)

	if granted != nil {
		uc.metrics.DiscountTransition(granted.Type, granted.Status)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   "appointment_completed",
		Entity:   "appointment",
		EntityID: &ap.ID,
		Metadata: map[string]any{"is_package": ap.IsPackage},
	})

	return ap, nil
}
