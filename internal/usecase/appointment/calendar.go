package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/scheduling"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// ServiceSelection is one requested service, optionally booked at its
// package price.
type ServiceSelection struct {
	ServiceID uint `json:"service_id"`
	Package   bool `json:"package"`
}

func selectionIDs(sel []ServiceSelection) []uint {
	ids := make([]uint, 0, len(sel))
	for _, s := range sel {
		ids = append(ids, s.ServiceID)
	}
	return ids
}

// dayState is everything the slot checker needs for one date.
type dayState struct {
	schedule scheduling.DaySchedule
	booked   []scheduling.Booked
	catalog  scheduling.Catalog
	services map[uint]models.Service
}

func catalogOf(services []models.Service) (scheduling.Catalog, map[uint]models.Service) {
	catalog := make(scheduling.Catalog, len(services))
	byID := make(map[uint]models.Service, len(services))
	for _, s := range services {
		catalog[s.ID] = scheduling.ServiceInfo{
			ID:          s.ID,
			Name:        s.Name,
			DurationMin: s.DurationMin,
			Active:      s.Active,
		}
		byID[s.ID] = s
	}
	return catalog, byID
}

// loadDay reads working hours, blocks, catalog and the calendar-occupying
// appointments of date (local midnight).
func loadDay(ctx context.Context, repo domain.Repository, date time.Time) (*dayState, error) {

	wh, err := repo.GetWorkingHours(ctx, int(date.Weekday()))
	if err != nil && !httperr.IsNotFound(err) {
		return nil, err
	}

	blocks, err := repo.ListBlockedSlots(ctx, date)
	if err != nil {
		return nil, err
	}

	schedule, err := scheduling.BuildDaySchedule(wh, blocks)
	if err != nil {
		return nil, err
	}

	services, err := repo.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	catalog, byID := catalogOf(services)

	appointments, err := repo.ListAppointmentsForPeriod(ctx, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	booked := make([]scheduling.Booked, 0, len(appointments))
	for _, ap := range appointments {
		if !domain.Status(ap.Status).OccupiesCalendar() {
			continue
		}
		booked = append(booked, scheduling.Booked{
			AppointmentID: ap.ID,
			Start:         ap.StartMinute,
			ServiceIDs:    ap.ServiceIDs(),
			SnapshotMin:   ap.DurationMin,
		})
	}

	return &dayState{
		schedule: schedule,
		booked:   booked,
		catalog:  catalog,
		services: byID,
	}, nil
}
