package timeline

import "time"

// BucketSlice is the portion of an interval that falls inside a single
// clock hour.
type BucketSlice struct {
	Hour    time.Time // truncated to the hour, interval's location
	Day     time.Weekday
	Seconds int64
}

func floorHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// SliceByHour walks an interval across hour boundaries and returns one
// slice per overlapped hour. The slice seconds always sum back to the
// interval's whole-second duration.
func SliceByHour(iv Interval) []BucketSlice {
	if !iv.End.After(iv.Start) {
		return nil
	}
	var out []BucketSlice
	for cursor := iv.Start; cursor.Before(iv.End); {
		hour := floorHour(cursor)
		next := hour.Add(time.Hour)
		sliceEnd := minTime(next, iv.End)
		secs := int64(sliceEnd.Sub(cursor) / time.Second)
		if secs > 0 {
			out = append(out, BucketSlice{
				Hour:    hour,
				Day:     hour.Weekday(),
				Seconds: secs,
			})
		}
		cursor = sliceEnd
	}
	return out
}

// HourBuckets accumulates per-hour seconds for a set of intervals, keyed by
// the hour's start. Conservation holds: the bucket totals equal the summed
// interval durations.
func HourBuckets(intervals []Interval) map[time.Time]int64 {
	out := make(map[time.Time]int64)
	for _, iv := range intervals {
		for _, s := range SliceByHour(iv) {
			out[s.Hour] += s.Seconds
		}
	}
	return out
}

// WeeklyBuckets folds intervals into a day-of-week x hour-of-day grid.
// Day 0 is Sunday. Each slice is attributed to the calendar date its hour
// falls on, not to the interval's start.
func WeeklyBuckets(intervals []Interval) [7][24]int64 {
	var grid [7][24]int64
	for _, iv := range intervals {
		for _, s := range SliceByHour(iv) {
			grid[int(s.Day)][s.Hour.Hour()] += s.Seconds
		}
	}
	return grid
}
