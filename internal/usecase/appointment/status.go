package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

// StatusAction is a staff transition that has no ledger effect.
type StatusAction string

const (
	ActionConfirm StatusAction = "confirm"
	ActionCancel  StatusAction = "cancel"
	ActionNoShow  StatusAction = "no_show"
)

var auditActions = map[StatusAction]string{
	ActionConfirm: "appointment_confirmed",
	ActionCancel:  "appointment_cancelled",
	ActionNoShow:  "appointment_no_show",
}

type ChangeStatus struct {
	repo  domain.Repository
	audit *audit.Dispatcher

	now func() time.Time
}

func NewChangeStatus(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *ChangeStatus {
	return &ChangeStatus{
		repo:  repo,
		audit: audit,
		now:   timezone.Now,
	}
}

func (uc *ChangeStatus) Execute(
	ctx context.Context,
	userID *uint,
	appointmentID uint,
	action StatusAction,
) (*models.Appointment, error) {

	now := uc.now()
	var ap *models.Appointment

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		ap, err = tx.GetAppointmentForUpdate(ctx, appointmentID)
		if err != nil {
			if httperr.IsNotFound(err) {
				return httperr.ErrBusiness(httperr.CodeAppointmentNotFound)
			}
			return err
		}

		switch action {
		case ActionConfirm:
			err = domain.Confirm(ap, now)
		case ActionCancel:
			err = domain.Cancel(ap, now)
		case ActionNoShow:
			err = domain.MarkNoShow(ap)
		default:
			err = httperr.ErrBusiness(httperr.CodeInvalidState)
		}
		if err != nil {
			return err
		}

		return tx.UpdateAppointment(ctx, ap)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   auditActions[action],
		Entity:   "appointment",
		EntityID: &ap.ID,
	})

	return ap, nil
}
