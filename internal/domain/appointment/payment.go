package appointment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// AmountDue is the price left after discounts, never negative.
func AmountDue(ap *models.Appointment) decimal.Decimal {
	due := ap.TotalPrice.Sub(ap.DiscountTotal)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// PaymentStatusFor derives the payment sub-state after a payment is recorded.
// An appointment fully covered by discounts counts as paid.
func PaymentStatusFor(ap *models.Appointment) PaymentStatus {
	due := AmountDue(ap)
	switch {
	case ap.PaymentAmount.IsPositive() && ap.PaymentAmount.GreaterThanOrEqual(due):
		return PaymentPaid
	case due.IsZero() && ap.DiscountTotal.IsPositive():
		return PaymentPaid
	case ap.PaymentAmount.IsPositive():
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

// ===============================
// Invoice number
// ===============================

// InvoicePrefix is "FAC-YYYYMM-" for the month of t.
func InvoicePrefix(t time.Time) string {
	return fmt.Sprintf("FAC-%04d%02d-", t.Year(), int(t.Month()))
}

// InvoiceNumber formats the (priorInMonth+1)-th invoice of the month of t,
// e.g. FAC-202603-0007.
func InvoiceNumber(t time.Time, priorInMonth int64) string {
	return fmt.Sprintf("%s%04d", InvoicePrefix(t), priorInMonth+1)
}
