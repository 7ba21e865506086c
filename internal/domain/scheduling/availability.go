package scheduling

// FreeStarts lists, in order, every start minute on the step grid of each
// window that CheckSlot would accept for the given duration.
func FreeStarts(
	durationMin int,
	step int,
	day DaySchedule,
	existing []Booked,
	catalog Catalog,
) []int {

	if day.Closed || durationMin <= 0 {
		return []int{}
	}
	if step <= 0 {
		step = PreparationBufferMinutes
	}

	starts := []int{}
	for _, w := range day.Windows {
		for cur := w.Start; cur+durationMin <= w.End; cur += step {
			if CheckSlot(cur, durationMin, day, existing, catalog).Accepted {
				starts = append(starts, cur)
			}
		}
	}
	return starts
}
