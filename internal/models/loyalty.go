package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoyaltyProfile struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint `gorm:"uniqueIndex;not null" json:"client_id"`

	IndividualServicesCount int             `gorm:"not null;default:0" json:"individual_services_count"`
	PackagesCount           int             `gorm:"not null;default:0" json:"packages_count"`
	TotalSpent              decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"total_spent"`
	LoyaltyPoints           int64           `gorm:"not null;default:0" json:"loyalty_points"`
	LastVisit               *time.Time      `json:"last_visit"`

	ReferredBy string `gorm:"size:20" json:"referred_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoyaltyHistory é append-only; nunca atualizado nem apagado.
type LoyaltyHistory struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID      uint   `gorm:"index;not null" json:"client_id"`
	Action        string `gorm:"size:30;not null" json:"action"`
	Points        int64  `json:"points"`
	Description   string `gorm:"size:255" json:"description"`
	AppointmentID *uint  `gorm:"index" json:"appointment_id"`

	CreatedAt time.Time `json:"created_at"`
}

type Discount struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint            `gorm:"index;not null" json:"client_id"`
	Type     string          `gorm:"size:30;not null" json:"type"`
	Amount   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status   string          `gorm:"size:20;not null" json:"status"`
	Reason   string          `gorm:"size:255" json:"reason"`

	ReferralCode     string `gorm:"size:20" json:"referral_code,omitempty"`
	ReferredClientID *uint  `gorm:"index" json:"referred_client_id,omitempty"`

	UsedOnAppointmentID *uint      `json:"used_on_appointment_id"`
	AvailableAt         *time.Time `json:"available_at"`
	UsedAt              *time.Time `json:"used_at"`
	ExpiredAt           *time.Time `json:"expired_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Notification struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint   `gorm:"index;not null" json:"client_id"`
	Kind     string `gorm:"size:50;not null" json:"kind"`
	Message  string `gorm:"size:255" json:"message"`

	DispatchedAt *time.Time `json:"dispatched_at"`
	CreatedAt    time.Time  `json:"created_at"`
}
