package loyalty

import (
	"fmt"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const (
	NotifyReferralSucceeded         = "referral_succeeded"
	NotifyBirthdayDiscountGranted   = "birthday_discount_granted"
	NotifyFidelityDiscountAvailable = "fidelity_discount_available"
)

func ReferralSucceeded(d *models.Discount) models.Notification {
	return models.Notification{
		ClientID: d.ClientID,
		Kind:     NotifyReferralSucceeded,
		Message:  fmt.Sprintf("Sua indicação pagou a primeira visita: %s € de desconto disponível.", d.Amount.StringFixed(2)),
	}
}

func BirthdayDiscountGranted(d *models.Discount) models.Notification {
	return models.Notification{
		ClientID: d.ClientID,
		Kind:     NotifyBirthdayDiscountGranted,
		Message:  fmt.Sprintf("Feliz aniversário! %s € de desconto esperando por você.", d.Amount.StringFixed(2)),
	}
}

func FidelityDiscountAvailable(d *models.Discount) models.Notification {
	return models.Notification{
		ClientID: d.ClientID,
		Kind:     NotifyFidelityDiscountAvailable,
		Message:  fmt.Sprintf("Obrigado pela fidelidade: %s € de desconto disponível.", d.Amount.StringFixed(2)),
	}
}
