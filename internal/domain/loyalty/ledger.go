package loyalty

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const (
	ServicesThreshold = 5
	PackagesThreshold = 3
)

var pointsDivisor = decimal.NewFromInt(10)

// ===============================
// Ações do histórico
// ===============================

const (
	ActionServiceCompleted  = "SERVICE_COMPLETED"
	ActionPackageCompleted  = "PACKAGE_COMPLETED"
	ActionDiscountGranted   = "DISCOUNT_GRANTED"
	ActionDiscountUsed      = "DISCOUNT_USED"
	ActionPaymentRecorded   = "PAYMENT_RECORDED"
	ActionPaymentReversed   = "PAYMENT_REVERSED"
	ActionReferralActivated = "REFERRAL_ACTIVATED"
)

// CompletionActions guard against counting the same appointment twice.
var CompletionActions = []string{ActionServiceCompleted, ActionPackageCompleted}

func NewProfile(clientID uint) *models.LoyaltyProfile {
	return &models.LoyaltyProfile{
		ClientID:   clientID,
		TotalSpent: decimal.Zero,
	}
}

// PointsFor is floor(totalSpent / 10).
func PointsFor(totalSpent decimal.Decimal) int64 {
	if !totalSpent.IsPositive() {
		return 0
	}
	return totalSpent.Div(pointsDivisor).Floor().IntPart()
}

// Completion is what RecordCompletion asks the caller to persist.
type Completion struct {
	Entry        models.LoyaltyHistory
	Granted      *models.Discount
	Notification *models.Notification
}

// RecordCompletion credits one completed appointment to the profile. When
// alreadyRecorded is true (a completion entry exists for the appointment) it
// changes nothing and returns nil.
//
// Reaching a threshold makes a fidelity discount available but does not reset
// the counter; the reset happens when the discount is redeemed.
func RecordCompletion(
	p *models.LoyaltyProfile,
	ap *models.Appointment,
	alreadyRecorded bool,
	discounts []models.Discount,
	now time.Time,
) *Completion {

	if alreadyRecorded {
		return nil
	}

	action := ActionServiceCompleted
	description := "Serviço concluído"
	if ap.IsPackage {
		p.PackagesCount++
		action = ActionPackageCompleted
		description = "Pacote concluído"
	} else {
		p.IndividualServicesCount++
	}

	visit := now
	p.LastVisit = &visit

	apID := ap.ID
	out := &Completion{
		Entry: models.LoyaltyHistory{
			ClientID:      ap.ClientID,
			Action:        action,
			Points:        1,
			Description:   fmt.Sprintf("%s (agendamento #%d)", description, ap.ID),
			AppointmentID: &apID,
			CreatedAt:     now,
		},
	}

	if d := fidelityGrant(p, ap.IsPackage, discounts, now); d != nil {
		out.Granted = d
		n := FidelityDiscountAvailable(d)
		out.Notification = &n
	}

	return out
}

func fidelityGrant(
	p *models.LoyaltyProfile,
	isPackage bool,
	discounts []models.Discount,
	now time.Time,
) *models.Discount {

	kind, count, threshold, amount := TypeFidelityService, p.IndividualServicesCount, ServicesThreshold, FidelityServiceAmount
	if isPackage {
		kind, count, threshold, amount = TypeFidelityPackage, p.PackagesCount, PackagesThreshold, FidelityPackageAmount
	}

	if count < threshold || HasOpenDiscount(discounts, kind) {
		return nil
	}

	return &models.Discount{
		ClientID:    p.ClientID,
		Type:        kind,
		Amount:      amount,
		Status:      StatusAvailable,
		Reason:      fmt.Sprintf("Fidelidade: %d visitas", count),
		AvailableAt: &now,
		CreatedAt:   now,
	}
}

// RecordPayment adds amount to the lifetime spend and returns the points delta.
func RecordPayment(p *models.LoyaltyProfile, amount decimal.Decimal) int64 {
	before := p.LoyaltyPoints
	p.TotalSpent = p.TotalSpent.Add(amount)
	p.LoyaltyPoints = PointsFor(p.TotalSpent)
	return p.LoyaltyPoints - before
}

// UndoPayment removes a previously recorded amount, never going below zero.
func UndoPayment(p *models.LoyaltyProfile, amount decimal.Decimal) int64 {
	before := p.LoyaltyPoints
	p.TotalSpent = p.TotalSpent.Sub(amount)
	if p.TotalSpent.IsNegative() {
		p.TotalSpent = decimal.Zero
	}
	p.LoyaltyPoints = PointsFor(p.TotalSpent)
	return p.LoyaltyPoints - before
}

type ResetFlags struct {
	Individual bool
	Package    bool
}

// CheckResets accepts a counter reset only together with the redemption of
// the fidelity discount of the same cycle.
func CheckResets(flags ResetFlags, redeemed []models.Discount) error {
	has := func(typ string) bool {
		return slices.ContainsFunc(redeemed, func(d models.Discount) bool {
			return d.Type == typ
		})
	}

	if flags.Individual && !has(TypeFidelityService) {
		return httperr.ErrBusinessMeta(httperr.CodeInvalidState, map[string]any{
			"reset": "individual",
		})
	}
	if flags.Package && !has(TypeFidelityPackage) {
		return httperr.ErrBusinessMeta(httperr.CodeInvalidState, map[string]any{
			"reset": "package",
		})
	}
	return nil
}

// ApplyResets restarts the fidelity cycles redeemed by a payment. Callers
// validate flags with CheckResets first.
func ApplyResets(p *models.LoyaltyProfile, flags ResetFlags) {
	if flags.Individual {
		p.IndividualServicesCount = 0
	}
	if flags.Package {
		p.PackagesCount = 0
	}
}
