package timeline

import (
	"time"

	"github.com/vigilhq/vigil/internal/model"
)

const (
	// appOpenTail caps the inferred duration of the final focus interval.
	// A focus change with no successor is not assumed to persist.
	appOpenTail = 5 * time.Minute

	// inputMergeGap is the largest gap between keystroke markers that still
	// counts as one continuous input run.
	inputMergeGap = 120 * time.Second

	// inputChunkCap splits long input runs into fixed-size chunks.
	inputChunkCap = 600 * time.Second
)

// explicitSpan resolves the [start, end) range of an explicit-duration
// event. The event timestamp marks the end of the span unless the payload
// carries its own end_time; a missing start_time is derived from the
// duration. Returns false for spans that resolve empty or inverted.
func explicitSpan(ts, start, end time.Time, durationSeconds int64) (time.Time, time.Time, bool) {
	e := ts
	if !end.IsZero() {
		e = end
	}
	s := start
	if s.IsZero() {
		if durationSeconds <= 0 {
			return time.Time{}, time.Time{}, false
		}
		s = e.Add(-time.Duration(durationSeconds) * time.Second)
	}
	if !e.After(s) {
		return time.Time{}, time.Time{}, false
	}
	return s, e, true
}

// AppIntervals reconstructs app-usage intervals from a chronological event
// stream. Explicit screen_time spans are preferred; when none exist in the
// window, durations are inferred from foreground_change adjacency with the
// open-tail cap applied to the final marker. Returns the intervals clamped
// to the window plus the number of discarded records.
func AppIntervals(events []model.Event, win Window, now time.Time) ([]Interval, int) {
	var spans, markers []model.Event
	for _, ev := range events {
		switch ev.Type {
		case model.EventScreenTime:
			spans = append(spans, ev)
		case model.EventForegroundChange:
			markers = append(markers, ev)
		}
	}
	if len(spans) > 0 {
		return appIntervalsFromSpans(spans, win)
	}
	return appIntervalsFromMarkers(markers, win, now)
}

func appIntervalsFromSpans(spans []model.Event, win Window) ([]Interval, int) {
	var out []Interval
	dropped := 0
	for _, ev := range spans {
		p := ev.ScreenTime
		if p == nil {
			dropped++
			continue
		}
		start, end, ok := explicitSpan(ev.Timestamp, p.StartTime, time.Time{}, p.DurationSeconds)
		if !ok {
			dropped++
			continue
		}
		iv, ok := Clamp(Interval{
			Category: CategoryApp,
			Process:  processOf(p.ProcessName),
			Title:    p.Title,
			Start:    start,
			End:      end,
			SourceID: ev.ID,
		}, win)
		if !ok {
			dropped++
			continue
		}
		out = append(out, iv)
	}
	return out, dropped
}

func appIntervalsFromMarkers(markers []model.Event, win Window, now time.Time) ([]Interval, int) {
	var out []Interval
	dropped := 0
	for i, ev := range markers {
		if ev.Foreground == nil {
			dropped++
			continue
		}
		start := ev.Timestamp
		var end time.Time
		if i+1 < len(markers) {
			end = markers[i+1].Timestamp
		} else {
			end = minTime(start.Add(appOpenTail), now)
			end = minTime(end, win.To)
		}
		iv, ok := Clamp(Interval{
			Category: CategoryApp,
			Process:  processOf(ev.Foreground.ProcessName),
			Title:    ev.Foreground.Title,
			Start:    start,
			End:      end,
			SourceID: ev.ID,
		}, win)
		if !ok {
			dropped++
			continue
		}
		out = append(out, iv)
	}
	return out, dropped
}

// PresenceIntervals reconstructs AFK/active intervals. Explicit afk_end
// spans are preferred; without them a flip-flop state machine consumes the
// mixed event stream once: mouse_idle flips to AFK, any activity event
// flips back. The stream starts in an undefined state; the final state
// extends to the window end.
func PresenceIntervals(events []model.Event, win Window) ([]Interval, int) {
	var explicit []model.Event
	for _, ev := range events {
		if ev.Type == model.EventAFKEnd {
			explicit = append(explicit, ev)
		}
	}
	if len(explicit) > 0 {
		return presenceFromExplicit(explicit, win)
	}
	return presenceFromTransitions(events, win)
}

func presenceFromExplicit(events []model.Event, win Window) ([]Interval, int) {
	var out []Interval
	dropped := 0
	for _, ev := range events {
		p := ev.AFK
		if p == nil {
			dropped++
			continue
		}
		start, end, ok := explicitSpan(ev.Timestamp, p.StartTime, p.EndTime, p.DurationSeconds)
		if !ok {
			dropped++
			continue
		}
		iv, ok := Clamp(Interval{
			Category: CategoryPresence,
			AFK:      true,
			Start:    start,
			End:      end,
			SourceID: ev.ID,
		}, win)
		if !ok {
			dropped++
			continue
		}
		out = append(out, iv)
	}
	return out, dropped
}

func presenceFromTransitions(events []model.Event, win Window) ([]Interval, int) {
	const (
		stateNone = iota
		stateActive
		stateAFK
	)
	state := stateNone
	var stateStart time.Time
	var stateID int64

	var out []Interval
	emit := func(afk bool, end time.Time) {
		iv, ok := Clamp(Interval{
			Category: CategoryPresence,
			AFK:      afk,
			Start:    stateStart,
			End:      end,
			SourceID: stateID,
		}, win)
		if ok {
			out = append(out, iv)
		}
	}

	for _, ev := range events {
		next := stateNone
		switch ev.Type {
		case model.EventMouseIdle:
			next = stateAFK
		case model.EventMouseActive, model.EventForegroundChange, model.EventKeyCount:
			next = stateActive
		default:
			continue
		}
		if next == state {
			continue
		}
		if state != stateNone {
			emit(state == stateAFK, ev.Timestamp)
		}
		state = next
		stateStart = ev.Timestamp
		stateID = ev.ID
	}
	if state != stateNone {
		emit(state == stateAFK, win.To)
	}
	return out, 0
}

// InputIntervals reconstructs input-burst intervals. Explicit
// key_count_segment spans are preferred; without them consecutive
// key_count markers are merged into runs (gap <= 120s) and runs longer
// than 600s are split into fixed 600s chunks.
func InputIntervals(events []model.Event, win Window) ([]Interval, int) {
	var explicit, markers []model.Event
	for _, ev := range events {
		switch ev.Type {
		case model.EventKeyCountSegment:
			explicit = append(explicit, ev)
		case model.EventKeyCount:
			markers = append(markers, ev)
		}
	}
	if len(explicit) > 0 {
		return inputFromExplicit(explicit, win)
	}
	return inputFromMarkers(markers, win)
}

func inputFromExplicit(events []model.Event, win Window) ([]Interval, int) {
	var out []Interval
	dropped := 0
	for _, ev := range events {
		p := ev.KeyCountSegment
		if p == nil {
			dropped++
			continue
		}
		start, end, ok := explicitSpan(ev.Timestamp, p.StartTime, p.EndTime, p.DurationSeconds)
		if !ok {
			dropped++
			continue
		}
		iv, ok := Clamp(Interval{
			Category: CategoryInput,
			KeyCount: p.Count,
			Start:    start,
			End:      end,
			SourceID: ev.ID,
		}, win)
		if !ok {
			dropped++
			continue
		}
		out = append(out, iv)
	}
	return out, dropped
}

func inputFromMarkers(markers []model.Event, win Window) ([]Interval, int) {
	var out []Interval
	var runStart, runEnd time.Time
	var runID, runKeys int64

	flush := func() {
		if runStart.IsZero() {
			return
		}
		run := Interval{
			Category: CategoryInput,
			KeyCount: runKeys,
			Start:    runStart,
			End:      runEnd,
			SourceID: runID,
		}
		if run.Duration() <= inputChunkCap {
			if iv, ok := Clamp(run, win); ok {
				out = append(out, iv)
			}
			return
		}
		// Chunk boundaries advance by exactly the cap; the last chunk is
		// truncated to the run's actual end.
		for cursor := runStart; cursor.Before(runEnd); cursor = cursor.Add(inputChunkCap) {
			chunk := run
			chunk.Start = cursor
			chunk.End = minTime(cursor.Add(inputChunkCap), runEnd)
			chunk.Chunked = true
			if iv, ok := Clamp(chunk, win); ok {
				out = append(out, iv)
			}
		}
	}

	for _, ev := range markers {
		var count int64
		if ev.KeyCount != nil {
			count = ev.KeyCount.Count
		}
		if runStart.IsZero() {
			runStart, runEnd, runID, runKeys = ev.Timestamp, ev.Timestamp, ev.ID, count
			continue
		}
		if ev.Timestamp.Sub(runEnd) <= inputMergeGap {
			runEnd = ev.Timestamp
			runKeys += count
			continue
		}
		flush()
		runStart, runEnd, runID, runKeys = ev.Timestamp, ev.Timestamp, ev.ID, count
	}
	flush()
	return out, 0
}

func processOf(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}
