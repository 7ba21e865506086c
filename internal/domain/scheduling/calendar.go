package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const MinutesPerDay = 24 * 60

// Interval is a half-open minute range [Start, End).
type Interval struct {
	Start int
	End   int
}

// Overlaps is the single disjointness test used for every overlap shape
// (partial either side, containment either side, equality).
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

func (i Interval) Contains(o Interval) bool {
	return i.Start <= o.Start && o.End <= i.End
}

// DaySchedule é o expediente de uma data já resolvido em minutos.
type DaySchedule struct {
	Closed  bool
	Windows []Interval
	Blocked []Interval
}

// admits reports whether req fits inside one open window without touching a
// blocked sub-range.
func (d DaySchedule) admits(req Interval) bool {
	if d.Closed || req.Start < 0 || req.End > MinutesPerDay || req.End <= req.Start {
		return false
	}

	inWindow := false
	for _, w := range d.Windows {
		if w.Contains(req) {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return false
	}

	for _, b := range d.Blocked {
		if b.Overlaps(req) {
			return false
		}
	}
	return true
}

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" closes the day.
func ParseClock(hm string) (int, error) {
	if hm == "24:00" {
		return MinutesPerDay, nil
	}
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", hm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// BuildDaySchedule resolves the working hours of a weekday plus the blocks of
// a specific date into minute intervals. A nil or inactive working day, or any
// full-day block, closes the date.
func BuildDaySchedule(
	wh *models.WorkingHours,
	blocks []models.BlockedSlot,
) (DaySchedule, error) {

	var day DaySchedule

	if wh == nil || !wh.Active || wh.StartTime == "" || wh.EndTime == "" {
		day.Closed = true
		return day, nil
	}

	open, err := parseRange(wh.StartTime, wh.EndTime)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("working hours weekday %d: %w", wh.Weekday, err)
	}
	day.Windows = []Interval{open}

	// almoço é um sub-intervalo bloqueado
	if wh.LunchStart != "" && wh.LunchEnd != "" {
		lunch, err := parseRange(wh.LunchStart, wh.LunchEnd)
		if err != nil {
			return DaySchedule{}, fmt.Errorf("lunch weekday %d: %w", wh.Weekday, err)
		}
		day.Blocked = append(day.Blocked, lunch)
	}

	for _, b := range blocks {
		if b.IsFullDay() {
			day.Closed = true
			continue
		}
		r, err := parseRange(b.StartTime, b.EndTime)
		if err != nil {
			return DaySchedule{}, fmt.Errorf("blocked slot %d: %w", b.ID, err)
		}
		day.Blocked = append(day.Blocked, r)
	}

	sort.Slice(day.Blocked, func(i, j int) bool {
		return day.Blocked[i].Start < day.Blocked[j].Start
	})

	return day, nil
}

func parseRange(from, to string) (Interval, error) {
	start, err := ParseClock(from)
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseClock(to)
	if err != nil {
		return Interval{}, err
	}
	if end <= start {
		return Interval{}, fmt.Errorf("range %s-%s is empty", from, to)
	}
	return Interval{Start: start, End: end}, nil
}
