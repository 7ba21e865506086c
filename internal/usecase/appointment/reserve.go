package appointment

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/loyalty"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/scheduling"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type ReserveInput struct {
	UserID *uint

	ClientID    uint
	Date        time.Time
	StartMinute int
	Services    []ServiceSelection
	Notes       string
}

// ReserveResult is either an accepted booking or a rejection with the
// reason and the minute worth retrying (scheduling.NoSuggestion if none).
type ReserveResult struct {
	Accepted    bool
	Appointment *models.Appointment

	Reason          scheduling.Reason
	SuggestedMinute int
	ConflictWith    uint
}

func (r ReserveResult) Decision() scheduling.Decision {
	return scheduling.Decision{
		Accepted:       r.Accepted,
		Reason:         r.Reason,
		NextFreeMinute: r.SuggestedMinute,
		ConflictWith:   r.ConflictWith,
	}
}

// ======================================================
// USE CASE
// ======================================================

type CheckAndReserve struct {
	repo       domain.Repository
	audit      *audit.Dispatcher
	metrics    *metrics.Metrics
	minAdvance time.Duration

	now func() time.Time
}

func NewCheckAndReserve(
	repo domain.Repository,
	audit *audit.Dispatcher,
	metrics *metrics.Metrics,
	minAdvance time.Duration,
) *CheckAndReserve {
	return &CheckAndReserve{
		repo:       repo,
		audit:      audit,
		metrics:    metrics,
		minAdvance: minAdvance,
		now:        timezone.Now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CheckAndReserve) Execute(
	ctx context.Context,
	in ReserveInput,
) (*ReserveResult, error) {

	// --------------------------------------------------
	// 1️⃣ Seleção
	// --------------------------------------------------
	if len(in.Services) == 0 {
		return nil, httperr.ErrBusiness(httperr.CodeEmptySelection)
	}

	// --------------------------------------------------
	// 2️⃣ Data local + antecedência mínima
	// --------------------------------------------------
	date := timezone.StartOfDay(in.Date)
	if in.StartMinute < 0 || in.StartMinute >= scheduling.MinutesPerDay {
		return nil, httperr.ErrBusiness(httperr.CodeOutsideWorkingHours)
	}

	start := timezone.At(date, in.StartMinute)
	if start.Before(uc.now().Add(uc.minAdvance)) {
		return nil, httperr.ErrBusiness(httperr.CodeTooSoon)
	}

	// --------------------------------------------------
	// 3️⃣ Cliente
	// --------------------------------------------------
	if _, err := uc.repo.GetClient(ctx, in.ClientID); err != nil {
		if httperr.IsNotFound(err) {
			return nil, httperr.ErrBusiness(httperr.CodeClientNotFound)
		}
		return nil, err
	}

	// --------------------------------------------------
	// 4️⃣ Verificação + gravação sob o lock da data
	// --------------------------------------------------
	result := &ReserveResult{SuggestedMinute: scheduling.NoSuggestion}

	err := uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		if err := tx.LockDate(ctx, date); err != nil {
			return err
		}

		day, err := loadDay(ctx, tx, date)
		if err != nil {
			return err
		}

		ids := selectionIDs(in.Services)
		duration, err := day.catalog.BookableMinutes(ids)
		if err != nil {
			return err
		}

		price, err := priceOf(in.Services, day.services)
		if err != nil {
			return err
		}

		decision := scheduling.CheckSlot(in.StartMinute, duration, day.schedule, day.booked, day.catalog)
		if !decision.Accepted {
			result.Reason = decision.Reason
			result.SuggestedMinute = decision.NextFreeMinute
			result.ConflictWith = decision.ConflictWith
			return nil
		}

		ap := newAppointment(in, date, duration, price)
		if err := tx.CreateAppointment(ctx, ap); err != nil {
			return err
		}

		result.Accepted = true
		result.Appointment = ap
		return nil
	})
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 5️⃣ Métricas / auditoria
	// --------------------------------------------------
	uc.metrics.BookingDecision(result.Accepted, string(result.Reason))

	if !result.Accepted {
		log.Info().
			Str("date", date.Format("2006-01-02")).
			Str("start", scheduling.FormatClock(in.StartMinute)).
			Str("reason", string(result.Reason)).
			Int("suggested_minute", result.SuggestedMinute).
			Msg("booking rejected")
		return result, nil
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   in.UserID,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: &result.Appointment.ID,
		Metadata: map[string]any{
			"date":       date.Format("2006-01-02"),
			"start":      scheduling.FormatClock(in.StartMinute),
			"is_package": result.Appointment.IsPackage,
		},
	})

	return result, nil
}

// priceOf sums the base price of each service, or its package price when
// booked as a package.
func priceOf(sel []ServiceSelection, services map[uint]models.Service) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, s := range sel {
		svc := services[s.ServiceID]
		if !s.Package {
			total = total.Add(svc.Price)
			continue
		}
		if !svc.HasPackagePrice() {
			return decimal.Zero, httperr.ErrBusinessMeta(httperr.CodeNotAPackage, map[string]any{
				"service_id": s.ServiceID,
			})
		}
		total = total.Add(svc.PackagePrice.Decimal)
	}
	return total, nil
}

func newAppointment(
	in ReserveInput,
	date time.Time,
	duration int,
	price decimal.Decimal,
) *models.Appointment {

	rows := make([]models.AppointmentService, 0, len(in.Services))
	markers := make([]bool, 0, len(in.Services))
	for i, s := range in.Services {
		rows = append(rows, models.AppointmentService{
			ServiceID: s.ServiceID,
			Position:  i,
			IsPackage: s.Package,
		})
		markers = append(markers, s.Package)
	}

	return &models.Appointment{
		ClientID:          in.ClientID,
		Date:              date,
		StartMinute:       in.StartMinute,
		DurationMin:       duration,
		Services:          rows,
		IsPackage:         loyalty.IsPackageSelection(markers),
		PackageFlagSource: models.PackageFlagFromBooking,
		TotalPrice:        price,
		DiscountTotal:     decimal.Zero,
		Status:            string(domain.InitialStatus()),
		PaymentStatus:     string(domain.PaymentUnpaid),
		PaymentAmount:     decimal.Zero,
		Notes:             in.Notes,
	}
}
