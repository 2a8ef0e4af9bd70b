package timeline

import (
	"sort"
	"strings"
)

// ProcessStat is an aggregated per-process row. Buckets folds the process's
// seconds by hour of day, the same axis the weekly grid uses.
type ProcessStat struct {
	Process string    `json:"process"`
	Seconds int64     `json:"seconds"`
	Count   int64     `json:"count"`
	Buckets [24]int64 `json:"hour_buckets"`
}

// Exclusions filters noise processes out of rankings. Matching is
// case-insensitive; excluded processes still accumulate in the raw tables.
type Exclusions map[string]struct{}

// NewExclusions builds a case-insensitive exclusion set.
func NewExclusions(names []string) Exclusions {
	out := make(Exclusions, len(names))
	for _, n := range names {
		out[strings.ToLower(n)] = struct{}{}
	}
	return out
}

// Contains reports whether the process name is excluded.
func (x Exclusions) Contains(process string) bool {
	_, ok := x[strings.ToLower(process)]
	return ok
}

// Accumulator tallies per-process duration, frequency and hour buckets in
// first-seen order. Ties in the rankings resolve to the earlier-seen
// process.
type Accumulator struct {
	order []string
	stats map[string]*ProcessStat
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{stats: make(map[string]*ProcessStat)}
}

// Add records one interval for its process.
func (a *Accumulator) Add(iv Interval) {
	st, ok := a.stats[iv.Process]
	if !ok {
		st = &ProcessStat{Process: iv.Process}
		a.stats[iv.Process] = st
		a.order = append(a.order, iv.Process)
	}
	st.Seconds += iv.Seconds()
	st.Count++
	for _, s := range SliceByHour(iv) {
		st.Buckets[s.Hour.Hour()] += s.Seconds
	}
}

// Index returns the first-seen position of a process, or -1 if unseen.
// It drives stable palette assignment across refreshes of the same window.
func (a *Accumulator) Index(process string) int {
	for i, name := range a.order {
		if name == process {
			return i
		}
	}
	return -1
}

// Stats returns all accumulated rows in first-seen order.
func (a *Accumulator) Stats() []ProcessStat {
	out := make([]ProcessStat, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, *a.stats[name])
	}
	return out
}

// TopByDuration returns up to n non-excluded processes ranked by total
// seconds descending.
func (a *Accumulator) TopByDuration(n int, excl Exclusions) []ProcessStat {
	return a.top(n, excl, func(x, y ProcessStat) bool { return x.Seconds > y.Seconds })
}

// TopByFrequency returns up to n non-excluded processes ranked by interval
// count descending.
func (a *Accumulator) TopByFrequency(n int, excl Exclusions) []ProcessStat {
	return a.top(n, excl, func(x, y ProcessStat) bool { return x.Count > y.Count })
}

func (a *Accumulator) top(n int, excl Exclusions, less func(x, y ProcessStat) bool) []ProcessStat {
	ranked := make([]ProcessStat, 0, len(a.order))
	for _, st := range a.Stats() {
		if excl.Contains(st.Process) {
			continue
		}
		ranked = append(ranked, st)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
