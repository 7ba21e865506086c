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
	TypeFidelityService = "fidelity_service"
	TypeFidelityPackage = "fidelity_package"
	TypeReferralSponsor = "referral_sponsor"
	TypeBirthday        = "birthday"
)

const (
	StatusPending   = "pending"
	StatusAvailable = "available"
	StatusUsed      = "used"
	StatusExpired   = "expired"
)

var (
	FidelityServiceAmount = decimal.NewFromInt(20)
	FidelityPackageAmount = decimal.NewFromInt(30)
	ReferralAmount        = decimal.NewFromInt(15)
	BirthdayAmount        = decimal.NewFromInt(10)
)

// used e expired são terminais
var transitions = map[string][]string{
	StatusPending:   {StatusAvailable},
	StatusAvailable: {StatusUsed, StatusExpired},
}

func CanTransition(from, to string) bool {
	return slices.Contains(transitions[from], to)
}

// Transition moves d to status `to`, stamping the matching timestamp.
func Transition(d *models.Discount, to string, now time.Time) error {
	if !CanTransition(d.Status, to) {
		return httperr.ErrBusinessMeta(httperr.CodeInvalidDiscountTransition, map[string]any{
			"discount_id": d.ID,
			"from":        d.Status,
			"to":          to,
		})
	}

	d.Status = to
	switch to {
	case StatusAvailable:
		d.AvailableAt = &now
	case StatusUsed:
		d.UsedAt = &now
	case StatusExpired:
		d.ExpiredAt = &now
	}
	return nil
}

// Redeem marks an available discount of clientID as used on appointmentID.
func Redeem(d *models.Discount, clientID, appointmentID uint, now time.Time) error {
	if d.ClientID != clientID || d.Status != StatusAvailable {
		return NotAvailable(d.ID)
	}
	if err := Transition(d, StatusUsed, now); err != nil {
		return err
	}
	d.UsedOnAppointmentID = &appointmentID
	return nil
}

func NotAvailable(discountID uint) error {
	return httperr.ErrBusinessMeta(httperr.CodeDiscountNotAvailable, map[string]any{
		"discount_id": discountID,
	})
}

// HasOpenDiscount reports a pending or available discount of the given type.
func HasOpenDiscount(discounts []models.Discount, kind string) bool {
	for _, d := range discounts {
		if d.Type == kind && (d.Status == StatusPending || d.Status == StatusAvailable) {
			return true
		}
	}
	return false
}

// ===============================
// Indicação
// ===============================

// NewReferralDiscount is created pending for the sponsor when the referred
// client signs up. It has no expiry.
func NewReferralDiscount(sponsorID, referredClientID uint, code string, now time.Time) *models.Discount {
	referred := referredClientID
	return &models.Discount{
		ClientID:         sponsorID,
		Type:             TypeReferralSponsor,
		Amount:           ReferralAmount,
		Status:           StatusPending,
		Reason:           fmt.Sprintf("Indicação do cliente #%d", referredClientID),
		ReferralCode:     code,
		ReferredClientID: &referred,
		CreatedAt:        now,
	}
}

func ActivateReferral(d *models.Discount, now time.Time) error {
	return Transition(d, StatusAvailable, now)
}

// ===============================
// Aniversário
// ===============================

func NewBirthdayDiscount(clientID uint, now time.Time) *models.Discount {
	return &models.Discount{
		ClientID:    clientID,
		Type:        TypeBirthday,
		Amount:      BirthdayAmount,
		Status:      StatusAvailable,
		Reason:      fmt.Sprintf("Aniversário %d", now.Year()),
		AvailableAt: &now,
		CreatedAt:   now,
	}
}

// HasBirthdayDiscountIn reports a birthday discount created during year.
func HasBirthdayDiscountIn(discounts []models.Discount, year int) bool {
	for _, d := range discounts {
		if d.Type == TypeBirthday && d.CreatedAt.Year() == year {
			return true
		}
	}
	return false
}

// IsBirthday compares month and day. 29 February birthdays fall on
// 28 February in non-leap years.
func IsBirthday(birthday, today time.Time) bool {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeap(today.Year()) {
		day = 28
	}
	return today.Month() == month && today.Day() == day
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
