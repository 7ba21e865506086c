package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PackageFlagFromBooking      = "booking"
	PackageFlagFromLegacyRepair = "legacy_repair"
)

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint   `gorm:"index" json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"client"`

	Date        time.Time `gorm:"type:date;index;not null" json:"date"`
	StartMinute int       `gorm:"not null" json:"start_minute"`
	DurationMin int       `gorm:"not null" json:"duration_min"`

	Services          []AppointmentService `gorm:"constraint:OnDelete:CASCADE;" json:"services"`
	IsPackage         bool                 `gorm:"default:false" json:"is_package"`
	PackageFlagSource string               `gorm:"size:20" json:"-"`

	TotalPrice    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"total_price"`
	DiscountTotal decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"discount_total"`

	Status string `gorm:"size:20;default:'pending'" json:"status"`

	PaymentStatus string          `gorm:"size:20;default:'unpaid'" json:"payment_status"`
	PaymentAmount decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"payment_amount"`
	PaymentMethod string          `gorm:"size:30" json:"payment_method"`
	PaymentDate   *time.Time      `json:"payment_date"`
	InvoiceNumber *string         `gorm:"size:20;uniqueIndex" json:"invoice_number"`

	Notes       string     `gorm:"size:255" json:"notes"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceIDs returns the booked services in booking order.
func (a Appointment) ServiceIDs() []uint {
	ids := make([]uint, 0, len(a.Services))
	for _, s := range a.Services {
		ids = append(ids, s.ServiceID)
	}
	return ids
}

type AppointmentService struct {
	ID uint `gorm:"primaryKey" json:"-"`

	AppointmentID uint    `gorm:"index;not null" json:"-"`
	ServiceID     uint    `gorm:"not null" json:"service_id"`
	Service       Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"service"`

	Position  int  `json:"position"`
	IsPackage bool `json:"is_package"`
}
