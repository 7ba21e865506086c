package scheduling

import (
	"sort"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
)

type Reason string

const (
	ReasonOutsideWorkingHours Reason = httperr.CodeOutsideWorkingHours
	ReasonSlotConflict        Reason = httperr.CodeSlotConflict
)

// NoSuggestion marks a rejection with no next minute to offer.
const NoSuggestion = -1

// Booked is an existing, non-cancelled appointment of the date being checked.
type Booked struct {
	AppointmentID uint
	Start         int
	ServiceIDs    []uint

	// SnapshotMin is the occupied length recorded at booking time. It is only
	// used when a service was since removed from the catalog.
	SnapshotMin int
}

// Interval recomputes the occupied range from the current catalog.
func (b Booked) Interval(catalog Catalog) Interval {
	minutes, err := catalog.OccupiedMinutes(b.ServiceIDs)
	if err != nil {
		minutes = b.SnapshotMin
	}
	return Interval{Start: b.Start, End: b.Start + minutes}
}

type Decision struct {
	Accepted       bool
	Reason         Reason
	NextFreeMinute int
	ConflictWith   uint
}

// Meta is the context attached to a rejection when it travels as an error.
func (d Decision) Meta() map[string]any {
	meta := map[string]any{"reason": string(d.Reason)}
	if d.NextFreeMinute != NoSuggestion {
		meta["next_free_minute"] = d.NextFreeMinute
		meta["next_free_time"] = FormatClock(d.NextFreeMinute)
	}
	if d.ConflictWith != 0 {
		meta["conflicting_appointment_id"] = d.ConflictWith
	}
	return meta
}

// CheckSlot decides whether [start, start+duration) can be booked on a day.
// It performs no I/O; the caller must hold the per-date lock between this
// check and the insert.
func CheckSlot(
	startMinute int,
	durationMin int,
	day DaySchedule,
	existing []Booked,
	catalog Catalog,
) Decision {

	requested := Interval{Start: startMinute, End: startMinute + durationMin}

	// --------------------------------------------------
	// 1️⃣ Expediente / bloqueios
	// --------------------------------------------------
	if !day.admits(requested) {
		return Decision{
			Reason:         ReasonOutsideWorkingHours,
			NextFreeMinute: day.suggestAfter(requested),
		}
	}

	// --------------------------------------------------
	// 2️⃣ Conflito com agendamentos existentes
	// --------------------------------------------------
	for _, b := range sortedByStart(existing) {
		occupied := b.Interval(catalog)
		if requested.Overlaps(occupied) {
			return Decision{
				Reason:         ReasonSlotConflict,
				NextFreeMinute: occupied.End,
				ConflictWith:   b.AppointmentID,
			}
		}
	}

	return Decision{Accepted: true, NextFreeMinute: NoSuggestion}
}

// suggestAfter offers the earliest start the day itself admits for a request
// of the same length: the end of the first block hit by req, or a later block
// end or window start.
func (d DaySchedule) suggestAfter(req Interval) int {
	if d.Closed {
		return NoSuggestion
	}

	length := req.End - req.Start
	from := req.Start
	for _, b := range d.Blocked {
		if b.Overlaps(req) {
			from = b.End
			break
		}
	}

	candidates := make([]int, 0, len(d.Windows)+len(d.Blocked))
	for _, w := range d.Windows {
		candidates = append(candidates, w.Start)
	}
	for _, b := range d.Blocked {
		candidates = append(candidates, b.End)
	}
	sort.Ints(candidates)

	for _, c := range candidates {
		if c >= from && d.admits(Interval{Start: c, End: c + length}) {
			return c
		}
	}

	return NoSuggestion
}

func sortedByStart(in []Booked) []Booked {
	out := make([]Booked, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}
