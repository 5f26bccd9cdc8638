package participation

// Aggregate is the derived standing of a student in a course: the running
// cumulative score, the number of graded days, and the ceiling that grows
// with every graded day. It is always computed over the full ledger, never
// over a display-limited window.
type Aggregate struct {
	Cumulative     int `json:"cumulative"`
	DaysGraded     int `json:"daysGraded"`
	MaxPointsSoFar int `json:"maxPointsSoFar"`
}

// Summarize folds a student's records into an Aggregate. It is a pure
// function: no I/O, no mutation, and the same record set always yields the
// same triple. Duplicate dates are counted once (first occurrence wins),
// matching the store's one-record-per-day invariant.
func Summarize(records []Record) Aggregate {
	seen := make(map[string]struct{}, len(records))
	agg := Aggregate{}
	for _, r := range records {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		agg.Cumulative += r.Score
		agg.DaysGraded++
	}
	agg.MaxPointsSoFar = agg.DaysGraded * PerDayMax
	return agg
}
