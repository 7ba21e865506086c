package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// Repository is the persistence boundary of the scheduler and the ledger.
// Lookups of missing rows return httperr.ErrNotFound.
type Repository interface {
	// Transaction runs fn atomically. Every write made through tx is rolled
	// back when fn returns an error.
	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// -------- Calendar --------

	// LockDate serializes check-then-insert for one calendar date until the
	// surrounding transaction ends.
	LockDate(
		ctx context.Context,
		date time.Time,
	) error

	GetWorkingHours(
		ctx context.Context,
		weekday int,
	) (*models.WorkingHours, error)

	ListWorkingHours(
		ctx context.Context,
	) ([]models.WorkingHours, error)

	ReplaceWorkingHours(
		ctx context.Context,
		hours []models.WorkingHours,
	) error

	ListBlockedSlots(
		ctx context.Context,
		date time.Time,
	) ([]models.BlockedSlot, error)

	CreateBlockedSlot(
		ctx context.Context,
		b *models.BlockedSlot,
	) error

	DeleteBlockedSlot(
		ctx context.Context,
		id uint,
	) error

	// -------- Catalog --------
	ListServices(
		ctx context.Context,
	) ([]models.Service, error)

	GetService(
		ctx context.Context,
		id uint,
	) (*models.Service, error)

	CreateService(
		ctx context.Context,
		s *models.Service,
	) error

	UpdateService(
		ctx context.Context,
		s *models.Service,
	) error

	// -------- Client --------
	GetClient(
		ctx context.Context,
		id uint,
	) (*models.Client, error)

	FindClientByPhone(
		ctx context.Context,
		phone string,
	) (*models.Client, error)

	FindClientByReferralCode(
		ctx context.Context,
		code string,
	) (*models.Client, error)

	CreateClient(
		ctx context.Context,
		c *models.Client,
	) error

	ListClients(
		ctx context.Context,
		query string,
	) ([]models.Client, error)

	ListClientsWithBirthday(
		ctx context.Context,
		month time.Month,
		day int,
	) ([]models.Client, error)

	// -------- Appointment --------

	// CreateAppointment inserts the appointment with its service rows.
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// GetAppointment loads services (with catalog rows) and client.
	GetAppointment(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	// GetAppointmentForUpdate is GetAppointment holding a row lock.
	GetAppointmentForUpdate(
		ctx context.Context,
		id uint,
	) (*models.Appointment, error)

	// UpdateAppointment saves the appointment columns, not its service rows.
	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	ListAppointmentsForPeriod(
		ctx context.Context,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	// CountPaidAppointments counts the client's appointments with a recorded
	// payment, ignoring excludeID.
	CountPaidAppointments(
		ctx context.Context,
		clientID uint,
		excludeID uint,
	) (int64, error)

	// -------- Invoice --------
	LockInvoiceMonth(
		ctx context.Context,
		t time.Time,
	) error

	CountInvoicesWithPrefix(
		ctx context.Context,
		prefix string,
	) (int64, error)

	loyalty.Repository
}
