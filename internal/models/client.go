package models

import "time"

// Cliente sem login; referral_code é o código que ele repassa aos indicados.
type Client struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name     string     `gorm:"size:100;not null" json:"name"`
	Phone    string     `gorm:"size:20;uniqueIndex" json:"phone"`
	Email    string     `gorm:"size:100" json:"email"`
	Birthday *time.Time `gorm:"type:date" json:"birthday"`

	ReferralCode string `gorm:"size:20;uniqueIndex" json:"referral_code"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
