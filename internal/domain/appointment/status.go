package appointment

import "github.com/BruksfildServices01/salon-scheduler/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// IsOpen: ainda pode ser confirmado, concluído, cancelado ou marcado como falta.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusConfirmed
}

// OccupiesCalendar reports whether the appointment still blocks its slot.
func (s Status) OccupiesCalendar() bool {
	return s != StatusCancelled
}

// ===============================
// Validations
// ===============================

func CanConfirm(current Status) error {
	if current != StatusPending {
		return httperr.ErrBusiness(httperr.CodeInvalidState)
	}
	return nil
}

func CanCancel(current Status) error {
	if !current.IsOpen() {
		return httperr.ErrBusiness(httperr.CodeInvalidState)
	}
	return nil
}

func CanMarkNoShow(current Status) error {
	return CanCancel(current)
}

// CanComplete distingue o "já concluído" dos demais estados inválidos.
func CanComplete(current Status) error {
	if current == StatusCompleted {
		return httperr.ErrBusiness(httperr.CodeAlreadyCompleted)
	}
	if !current.IsOpen() {
		return httperr.ErrBusiness(httperr.CodeInvalidState)
	}
	return nil
}

func InitialStatus() Status {
	return StatusPending
}
