package appointment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

func TestLifecycle(t *testing.T) {
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	ap := &models.Appointment{Status: string(InitialStatus())}
	require.NoError(t, Confirm(ap, now))
	assert.Equal(t, string(StatusConfirmed), ap.Status)
	assert.True(t, httperr.IsBusiness(Confirm(ap, now), httperr.CodeInvalidState))

	require.NoError(t, Complete(ap, now))
	assert.Equal(t, now, *ap.CompletedAt)
	assert.True(t, httperr.IsBusiness(Complete(ap, now), httperr.CodeAlreadyCompleted))
	assert.True(t, httperr.IsBusiness(Cancel(ap, now), httperr.CodeInvalidState))

	cancelled := &models.Appointment{Status: string(StatusPending)}
	require.NoError(t, Cancel(cancelled, now))
	assert.True(t, httperr.IsBusiness(Complete(cancelled, now), httperr.CodeInvalidState))
	assert.False(t, StatusCancelled.OccupiesCalendar())

	noShow := &models.Appointment{Status: string(StatusConfirmed)}
	require.NoError(t, MarkNoShow(noShow))
	assert.Equal(t, string(StatusNoShow), noShow.Status)
	assert.True(t, StatusNoShow.OccupiesCalendar())
}

func TestInvoiceNumber(t *testing.T) {
	march := time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "FAC-202603-", InvoicePrefix(march))
	assert.Equal(t, "FAC-202603-0001", InvoiceNumber(march, 0))
	assert.Equal(t, "FAC-202603-0042", InvoiceNumber(march, 41))
	assert.Equal(t, "FAC-202611-10000", InvoiceNumber(time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC), 9999))
}

func TestPaymentStatusFor(t *testing.T) {
	d := decimal.RequireFromString

	cases := []struct {
		name     string
		price    string
		discount string
		paid     string
		want     PaymentStatus
	}{
		{"nothing paid", "50", "0", "0", PaymentUnpaid},
		{"deposit", "50", "0", "20", PaymentPartial},
		{"exact", "50", "0", "50", PaymentPaid},
		{"net of discount", "50", "20", "30", PaymentPaid},
		{"tip over due", "50", "0", "55", PaymentPaid},
		{"covered by discount", "20", "20", "0", PaymentPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ap := &models.Appointment{
				TotalPrice:    d(tc.price),
				DiscountTotal: d(tc.discount),
				PaymentAmount: d(tc.paid),
			}
			assert.Equal(t, tc.want, PaymentStatusFor(ap))
		})
	}

	over := &models.Appointment{TotalPrice: d("10"), DiscountTotal: d("30")}
	assert.True(t, AmountDue(over).IsZero())
}
