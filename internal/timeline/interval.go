package timeline

import "time"

// Category identifies one of the reconstructed interval streams.
type Category string

const (
	CategoryApp      Category = "app"
	CategoryPresence Category = "afk"
	CategoryInput    Category = "input"
)

// Window is the half-open query range [From, To) an aggregation runs over.
type Window struct {
	From time.Time
	To   time.Time
}

// Valid reports whether the window spans a positive duration.
func (w Window) Valid() bool {
	return w.From.Before(w.To)
}

// Seconds returns the window length in whole seconds.
func (w Window) Seconds() int64 {
	return int64(w.To.Sub(w.From) / time.Second)
}

// LastHours returns a window covering the h hours ending at now.
func LastHours(now time.Time, h int) Window {
	return Window{From: now.Add(-time.Duration(h) * time.Hour), To: now}
}

// Interval is one reconstructed [Start, End) span with its category label.
// End is always after Start; empty spans are never represented.
type Interval struct {
	Category Category
	Process  string // app
	Title    string // app
	AFK      bool   // presence
	KeyCount int64  // input
	Start    time.Time
	End      time.Time
	SourceID int64
	Chunked  bool // split out of a longer input run
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Seconds returns the interval length in whole seconds.
func (iv Interval) Seconds() int64 {
	return int64(iv.Duration() / time.Second)
}

// Clamp clips the interval to the window. The second return value is false
// when nothing of the interval survives.
func Clamp(iv Interval, win Window) (Interval, bool) {
	if iv.Start.Before(win.From) {
		iv.Start = win.From
	}
	if iv.End.After(win.To) {
		iv.End = win.To
	}
	if !iv.End.After(iv.Start) {
		return Interval{}, false
	}
	return iv, true
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
