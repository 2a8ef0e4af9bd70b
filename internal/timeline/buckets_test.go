package timeline

import (
	"testing"
	"time"
)

func TestSliceByHour_SingleHour(t *testing.T) {
	iv := Interval{Start: at(9, 10, 0), End: at(9, 40, 0)}

	slices := SliceByHour(iv)
	if len(slices) != 1 {
		t.Fatalf("got %d slices, want 1", len(slices))
	}
	if !slices[0].Hour.Equal(at(9, 0, 0)) {
		t.Errorf("hour = %v, want 09:00", slices[0].Hour)
	}
	if slices[0].Seconds != 1800 {
		t.Errorf("seconds = %d, want 1800", slices[0].Seconds)
	}
}

func TestSliceByHour_CrossesBoundaries(t *testing.T) {
	iv := Interval{Start: at(9, 50, 0), End: at(12, 10, 0)}

	slices := SliceByHour(iv)
	if len(slices) != 4 {
		t.Fatalf("got %d slices, want 4", len(slices))
	}

	want := []struct {
		hour time.Time
		secs int64
	}{
		{at(9, 0, 0), 600},
		{at(10, 0, 0), 3600},
		{at(11, 0, 0), 3600},
		{at(12, 0, 0), 600},
	}
	var sum int64
	for i, s := range slices {
		if !s.Hour.Equal(want[i].hour) || s.Seconds != want[i].secs {
			t.Errorf("slice %d = %v/%d, want %v/%d", i, s.Hour, s.Seconds, want[i].hour, want[i].secs)
		}
		sum += s.Seconds
	}
	if sum != iv.Seconds() {
		t.Errorf("slice total = %d, interval duration = %d", sum, iv.Seconds())
	}
}

func TestSliceByHour_ExactBoundary(t *testing.T) {
	iv := Interval{Start: at(9, 0, 0), End: at(10, 0, 0)}

	slices := SliceByHour(iv)
	if len(slices) != 1 {
		t.Fatalf("got %d slices, want 1 (end boundary excluded)", len(slices))
	}
	if slices[0].Seconds != 3600 {
		t.Errorf("seconds = %d, want 3600", slices[0].Seconds)
	}
}

func TestHourBuckets_Conservation(t *testing.T) {
	intervals := []Interval{
		{Start: at(9, 30, 0), End: at(10, 30, 0)},
		{Start: at(10, 0, 0), End: at(10, 15, 0)},
		{Start: at(22, 50, 0), End: at(23, 5, 0)},
	}

	buckets := HourBuckets(intervals)
	var bucketTotal int64
	for _, secs := range buckets {
		bucketTotal += secs
	}
	if bucketTotal != totalSeconds(intervals) {
		t.Errorf("bucket total = %d, interval total = %d", bucketTotal, totalSeconds(intervals))
	}
	if buckets[at(10, 0, 0)] != 1800+900 {
		t.Errorf("10:00 bucket = %d, want 2700", buckets[at(10, 0, 0)])
	}
}

func TestWeeklyBuckets_DayAndHourKeying(t *testing.T) {
	// 2025-06-02 is a Monday; the interval spans Monday 23:30 to Tuesday 00:30.
	intervals := []Interval{
		{Start: at(23, 30, 0), End: testDay.AddDate(0, 0, 1).Add(30 * time.Minute)},
	}

	grid := WeeklyBuckets(intervals)
	if grid[int(time.Monday)][23] != 1800 {
		t.Errorf("Monday 23h = %d, want 1800", grid[int(time.Monday)][23])
	}
	if grid[int(time.Tuesday)][0] != 1800 {
		t.Errorf("Tuesday 0h = %d, want 1800", grid[int(time.Tuesday)][0])
	}

	var total int64
	for d := 0; d < 7; d++ {
		for h := 0; h < 24; h++ {
			total += grid[d][h]
		}
	}
	if total != 3600 {
		t.Errorf("grid total = %d, want 3600", total)
	}
}
