package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/domain/scheduling"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

type AvailabilityInput struct {
	Date     time.Time
	Services []ServiceSelection
}

// TimeSlot is a bookable start; End includes the preparation buffer.
type TimeSlot struct {
	StartMinute int    `json:"start_minute"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type GetAvailability struct {
	repo domain.Repository
	step int
}

func NewGetAvailability(repo domain.Repository, stepMinutes int) *GetAvailability {
	return &GetAvailability{repo: repo, step: stepMinutes}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	in AvailabilityInput,
) ([]TimeSlot, error) {

	if len(in.Services) == 0 {
		return nil, httperr.ErrBusiness(httperr.CodeEmptySelection)
	}

	date := timezone.StartOfDay(in.Date)

	day, err := loadDay(ctx, uc.repo, date)
	if err != nil {
		return nil, err
	}

	duration, err := day.catalog.BookableMinutes(selectionIDs(in.Services))
	if err != nil {
		return nil, err
	}
	if _, err := priceOf(in.Services, day.services); err != nil {
		return nil, err
	}

	starts := scheduling.FreeStarts(duration, uc.step, day.schedule, day.booked, day.catalog)

	slots := make([]TimeSlot, 0, len(starts))
	for _, s := range starts {
		slots = append(slots, TimeSlot{
			StartMinute: s,
			Start:       scheduling.FormatClock(s),
			End:         scheduling.FormatClock(s + duration),
		})
	}

	return slots, nil
}
