package dto

import (
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/salon-scheduler/internal/domain/scheduling"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

type AppointmentListDTO struct {
	ID            uint            `json:"id"`
	Date          string          `json:"date"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	ClientID      uint            `json:"client_id"`
	ClientName    string          `json:"client_name"`
	Services      []string        `json:"services"`
	IsPackage     bool            `json:"is_package"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	InvoiceNumber *string         `json:"invoice_number"`
}

// NewAppointmentListDTO expects Client and Services.Service loaded. EndTime
// uses the occupied length recorded at booking.
func NewAppointmentListDTO(ap models.Appointment) AppointmentListDTO {
	names := make([]string, 0, len(ap.Services))
	for _, s := range ap.Services {
		names = append(names, s.Service.Name)
	}

	return AppointmentListDTO{
		ID:            ap.ID,
		Date:          ap.Date.Format("2006-01-02"),
		StartTime:     scheduling.FormatClock(ap.StartMinute),
		EndTime:       scheduling.FormatClock(ap.StartMinute + ap.DurationMin),
		Status:        ap.Status,
		PaymentStatus: ap.PaymentStatus,
		ClientID:      ap.ClientID,
		ClientName:    ap.Client.Name,
		Services:      names,
		IsPackage:     ap.IsPackage,
		TotalPrice:    ap.TotalPrice,
		InvoiceNumber: ap.InvoiceNumber,
	}
}
