package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Service struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	Category    string `gorm:"size:50" json:"category"`

	DurationMin  int                 `gorm:"not null" json:"duration_min"`
	Price        decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"price"`
	PackagePrice decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"package_price"`
	Active       bool                `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPackagePrice reports whether the service can be booked as part of a package.
func (s Service) HasPackagePrice() bool {
	return s.PackagePrice.Valid
}
