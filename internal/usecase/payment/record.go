package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/notify"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type RecordInput struct {
	UserID *uint

	AppointmentID uint
	Amount        decimal.Decimal
	Method        string

	// Discounts redeemed on this payment; each must be available and owned
	// by the appointment's client.
	DiscountIDs []uint
	Resets      loyalty.ResetFlags
}

// ======================================================
// USE CASE
// ======================================================

// RecordPayment is the payment reconciler. Every step runs in one
// transaction: redeem discounts, apply counter resets, record spend, assign
// the invoice number and activate the sponsor's referral discount.
type RecordPayment struct {
	repo      domain.Repository
	audit     *audit.Dispatcher
	metrics   *metrics.Metrics
	publisher notify.Publisher

	now func() time.Time
}

func NewRecordPayment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	publisher notify.Publisher,
) *RecordPayment {
	return &RecordPayment{
		repo:      repo,
		audit:     audit,
		metrics:   metrics,
		publisher: publisher,
		now:       timezone.Now,
	}
}

// reconciliation carries what the transaction produced.
type reconciliation struct {
	ap        *models.Appointment
	redeemed  []models.Discount
	activated *models.Discount
	outgoing  []models.Notification
}

func (uc *RecordPayment) Execute(
	ctx context.Context,
	in RecordInput,
) (*models.Appointment, error) {

	if in.Amount.IsNegative() {
		return nil, httperr.ErrBusiness(httperr.CodeInvalidAmount)
	}

	now := uc.now()
	var out reconciliation

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		out = reconciliation{}
		return uc.reconcile(ctx, tx, in, now, &out)
	})
	err = reconciliationFailure(err)
	uc.metrics.Payment("record", err)

	if err != nil {
		var rf *ReconciliationError
		if errors.As(err, &rf) {
			log.Error().
				Err(rf.Cause).
				Uint("appointment_id", in.AppointmentID).
				Msg("payment reconciliation failed")
		}
		return nil, err
	}

	// --------------------------------------------------
	// Pós-commit
	// --------------------------------------------------
	notify.Deliver(ctx, uc.publisher, uc.repo, out.outgoing, now)

	for _, d := range out.redeemed {
		uc.metrics.DiscountTransition(d.Type, d.Status)
	}
	if out.activated != nil {
		uc.metrics.DiscountTransition(out.activated.Type, out.activated.Status)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   in.UserID,
		Action:   "payment_recorded",
		Entity:   "appointment",
		EntityID: &out.ap.ID,
		Metadata: map[string]any{
			"amount":         in.Amount.StringFixed(2),
			"method":         in.Method,
			"discount_ids":   in.DiscountIDs,
			"invoice_number": out.ap.InvoiceNumber,
		},
	})

	return out.ap, nil
}

func (uc *RecordPayment) reconcile(
	ctx context.Context,
	tx domain.Repository,
	in RecordInput,
	now time.Time,
	out *reconciliation,
) error {

	ap, err := tx.GetAppointmentForUpdate(ctx, in.AppointmentID)
	if err != nil {
		if httperr.IsNotFound(err) {
			return httperr.ErrBusiness(httperr.CodeAppointmentNotFound)
		}
		return err
	}
	if domain.Status(ap.Status) == domain.StatusCancelled {
		return httperr.ErrBusiness(httperr.CodeInvalidState)
	}
	out.ap = ap

	apID := ap.ID
	wasPaid := ap.PaymentStatus != string(domain.PaymentUnpaid)

	// --------------------------------------------------
	// 1️⃣ + 2️⃣ Descontos: validar e marcar como usados
	// --------------------------------------------------
	for _, id := range in.DiscountIDs {
		d, err := tx.GetDiscountForUpdate(ctx, id)
		if err != nil {
			if httperr.IsNotFound(err) {
				return loyalty.NotAvailable(id)
			}
			return err
		}

		if err := loyalty.Redeem(d, ap.ClientID, ap.ID, now); err != nil {
			return err
		}
		if err := tx.SaveDiscount(ctx, d); err != nil {
			return err
		}

		ap.DiscountTotal = ap.DiscountTotal.Add(d.Amount)

		if err := tx.AppendHistory(ctx, &models.LoyaltyHistory{
			ClientID:      ap.ClientID,
			Action:        loyalty.ActionDiscountUsed,
			Description:   fmt.Sprintf("Desconto %s de %s € utilizado", d.Type, d.Amount.StringFixed(2)),
			AppointmentID: &apID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		out.redeemed = append(out.redeemed, *d)
	}

	// --------------------------------------------------
	// 3️⃣ Reset dos contadores resgatados
	// --------------------------------------------------
	if err := loyalty.CheckResets(in.Resets, out.redeemed); err != nil {
		return err
	}

	profile, err := loyalty.LoadProfile(ctx, tx, ap.ClientID)
	if err != nil {
		return err
	}
	loyalty.ApplyResets(profile, in.Resets)

	// --------------------------------------------------
	// 4️⃣ Gasto acumulado + pontos
	// --------------------------------------------------
	points := loyalty.RecordPayment(profile, in.Amount)
	if err := tx.SaveProfile(ctx, profile); err != nil {
		return err
	}

	if err := tx.AppendHistory(ctx, &models.LoyaltyHistory{
		ClientID:      ap.ClientID,
		Action:        loyalty.ActionPaymentRecorded,
		Points:        points,
		Description:   fmt.Sprintf("Pagamento de %s € (%s)", in.Amount.StringFixed(2), in.Method),
		AppointmentID: &apID,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	ap.PaymentAmount = ap.PaymentAmount.Add(in.Amount)
	ap.PaymentMethod = strings.TrimSpace(in.Method)
	ap.PaymentDate = &now
	ap.PaymentStatus = string(domain.PaymentStatusFor(ap))

	if ap.InvoiceNumber == nil && ap.PaymentStatus != string(domain.PaymentUnpaid) {
		if err := assignInvoice(ctx, tx, ap, now); err != nil {
			return err
		}
	}

	if err := tx.UpdateAppointment(ctx, ap); err != nil {
		return err
	}

	// --------------------------------------------------
	// 5️⃣ Indicação: primeiro pagamento do indicado
	// --------------------------------------------------
	if wasPaid || !in.Amount.IsPositive() || profile.ReferredBy == "" {
		return nil
	}

	return activateReferral(ctx, tx, ap, profile, now, out)
}

// assignInvoice gives ap the next FAC-YYYYMM-NNNN number of the month.
func assignInvoice(
	ctx context.Context,
	tx domain.Repository,
	ap *models.Appointment,
	now time.Time,
) error {

	if err := tx.LockInvoiceMonth(ctx, now); err != nil {
		return err
	}

	prior, err := tx.CountInvoicesWithPrefix(ctx, domain.InvoicePrefix(now))
	if err != nil {
		return err
	}

	number := domain.InvoiceNumber(now, prior)
	ap.InvoiceNumber = &number
	return nil
}

func activateReferral(
	ctx context.Context,
	tx domain.Repository,
	ap *models.Appointment,
	profile *models.LoyaltyProfile,
	now time.Time,
	out *reconciliation,
) error {

	paidBefore, err := tx.CountPaidAppointments(ctx, ap.ClientID, ap.ID)
	if err != nil {
		return err
	}
	if paidBefore > 0 {
		return nil
	}

	sponsor, err := tx.FindClientByReferralCode(ctx, profile.ReferredBy)
	if httperr.IsNotFound(err) {
		log.Warn().
			Uint("client_id", ap.ClientID).
			Str("referral_code", profile.ReferredBy).
			Msg("referral sponsor not found")
		return nil
	}
	if err != nil {
		return err
	}

	d, err := tx.FindPendingReferralDiscount(ctx, sponsor.ID, ap.ClientID)
	if httperr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := loyalty.ActivateReferral(d, now); err != nil {
		return err
	}
	if err := tx.SaveDiscount(ctx, d); err != nil {
		return err
	}

	if err := tx.AppendHistory(ctx, &models.LoyaltyHistory{
		ClientID:    sponsor.ID,
		Action:      loyalty.ActionReferralActivated,
		Description: fmt.Sprintf("Indicado #%d: primeira visita paga", ap.ClientID),
		CreatedAt:   now,
	}); err != nil {
		return err
	}

	n := loyalty.ReferralSucceeded(d)
	if err := tx.CreateNotification(ctx, &n); err != nil {
		return err
	}

	out.activated = d
	out.outgoing = append(out.outgoing, n)
	return nil
}
