package timeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vigilhq/vigil/internal/model"
)

const weeklyTopApps = 6

// AnomalyHook is notified when a reconstruction pass discards malformed
// records. The engine never logs directly; the caller decides what a
// discard means operationally.
type AnomalyHook func(hostname string, category Category, dropped int)

// Engine runs full-window aggregations for one host at a time. It is
// stateless between calls and safe for concurrent use.
type Engine struct {
	source     model.EventSource
	exclusions Exclusions
	now        func() time.Time
	anomaly    AnomalyHook
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the engine's clock, used by tests and replay tooling.
func WithNow(nowFn func() time.Time) Option {
	return func(e *Engine) { e.now = nowFn }
}

// WithAnomalyHook installs a discard observer.
func WithAnomalyHook(hook AnomalyHook) Option {
	return func(e *Engine) { e.anomaly = hook }
}

// WithExclusions replaces the default ranking exclusion set.
func WithExclusions(names []string) Option {
	return func(e *Engine) { e.exclusions = NewExclusions(names) }
}

// NewEngine builds an aggregation engine over the given event source.
func NewEngine(source model.EventSource, opts ...Option) *Engine {
	e := &Engine{
		source:     source,
		exclusions: NewExclusions(model.DefaultExcludedProcesses),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AggregateResult is the complete answer for one host and window.
type AggregateResult struct {
	Window Window `json:"-"`

	TopProcessByDuration  string     `json:"top_process_by_duration"`
	TopProcessByFrequency string     `json:"top_process_by_frequency"`
	TopProcessSeconds     int64      `json:"top_process_seconds"`
	PeakHour              *time.Time `json:"peak_hour,omitempty"`

	TotalSecondsByProcess map[string]int64     `json:"total_seconds_by_process"`
	HourBucketsByProcess  map[string][24]int64 `json:"hour_buckets_by_process"`
	TopByDuration         []ProcessStat        `json:"top_by_duration"`
	TopByFrequency        []ProcessStat        `json:"top_by_frequency"`

	WeeklyBuckets      [7][24]int64  `json:"weekly_buckets"`
	WeeklyTotalSeconds int64         `json:"weekly_total_seconds"`
	WeeklyTopApps      []ProcessStat `json:"weekly_top_apps"`

	Segments map[Category][]DisplaySegment `json:"segments"`

	LastEventID int64     `json:"last_event_id"`
	GeneratedAt time.Time `json:"generated_at"`
}

var (
	appEventTypes = []model.EventType{
		model.EventScreenTime, model.EventForegroundChange,
	}
	presenceEventTypes = []model.EventType{
		model.EventAFKEnd, model.EventMouseIdle, model.EventMouseActive,
		model.EventForegroundChange, model.EventKeyCount,
	}
	inputEventTypes = []model.EventType{
		model.EventKeyCountSegment, model.EventKeyCount,
	}
)

// Aggregate reconstructs all three interval lanes over the window, ranks
// app usage, fills hour and weekly buckets, and renders display segments.
// An invalid window returns an empty result rather than an error.
func (e *Engine) Aggregate(ctx context.Context, hostname string, win Window, topN int) (*AggregateResult, error) {
	now := e.now()
	res := &AggregateResult{
		Window:                win,
		TotalSecondsByProcess: make(map[string]int64),
		HourBucketsByProcess:  make(map[string][24]int64),
		Segments:              make(map[Category][]DisplaySegment),
		GeneratedAt:           now,
	}
	if !win.Valid() {
		return res, nil
	}

	weekWin := Window{From: win.To.Add(-7 * 24 * time.Hour), To: win.To}

	var appEvents, presenceEvents, inputEvents, weekEvents []model.Event
	var maxID int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		appEvents, err = e.source.EventsByHost(gctx, hostname, appEventTypes, win.From, win.To)
		return err
	})
	g.Go(func() error {
		var err error
		presenceEvents, err = e.source.EventsByHost(gctx, hostname, presenceEventTypes, win.From, win.To)
		return err
	})
	g.Go(func() error {
		var err error
		inputEvents, err = e.source.EventsByHost(gctx, hostname, inputEventTypes, win.From, win.To)
		return err
	})
	g.Go(func() error {
		var err error
		weekEvents, err = e.source.EventsByHost(gctx, hostname, appEventTypes, weekWin.From, weekWin.To)
		return err
	})
	g.Go(func() error {
		var err error
		maxID, err = e.source.MaxEventID(gctx, hostname)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.LastEventID = maxID

	apps, droppedApps := AppIntervals(appEvents, win, now)
	presence, droppedPresence := PresenceIntervals(presenceEvents, win)
	input, droppedInput := InputIntervals(inputEvents, win)
	e.reportDropped(hostname, CategoryApp, droppedApps)
	e.reportDropped(hostname, CategoryPresence, droppedPresence)
	e.reportDropped(hostname, CategoryInput, droppedInput)

	acc := NewAccumulator()
	for _, iv := range apps {
		acc.Add(iv)
	}
	for _, st := range acc.Stats() {
		res.TotalSecondsByProcess[st.Process] = st.Seconds
		res.HourBucketsByProcess[st.Process] = st.Buckets
	}

	res.TopByDuration = acc.TopByDuration(topN, e.exclusions)
	res.TopByFrequency = acc.TopByFrequency(topN, e.exclusions)
	if len(res.TopByDuration) > 0 {
		res.TopProcessByDuration = res.TopByDuration[0].Process
		res.TopProcessSeconds = res.TopByDuration[0].Seconds
	}
	if len(res.TopByFrequency) > 0 {
		res.TopProcessByFrequency = res.TopByFrequency[0].Process
	}
	res.PeakHour = peakHour(HourBuckets(apps))

	weekIntervals, droppedWeek := AppIntervals(weekEvents, weekWin, now)
	e.reportDropped(hostname, CategoryApp, droppedWeek)
	res.WeeklyBuckets = WeeklyBuckets(weekIntervals)
	weekAcc := NewAccumulator()
	for _, iv := range weekIntervals {
		weekAcc.Add(iv)
		res.WeeklyTotalSeconds += iv.Seconds()
	}
	res.WeeklyTopApps = weekAcc.TopByDuration(weeklyTopApps, e.exclusions)

	res.Segments[CategoryApp] = BuildSegments(apps, win, acc)
	res.Segments[CategoryPresence] = BuildSegments(presence, win, nil)
	res.Segments[CategoryInput] = BuildSegments(input, win, nil)

	return res, nil
}

func (e *Engine) reportDropped(hostname string, cat Category, n int) {
	if n > 0 && e.anomaly != nil {
		e.anomaly(hostname, cat, n)
	}
}

// peakHour returns the hour with the most accumulated seconds, earliest
// hour winning ties. Nil when no activity exists.
func peakHour(buckets map[time.Time]int64) *time.Time {
	var best time.Time
	var bestSecs int64
	for hour, secs := range buckets {
		if secs > bestSecs || (secs == bestSecs && secs > 0 && hour.Before(best)) {
			best = hour
			bestSecs = secs
		}
	}
	if bestSecs == 0 {
		return nil
	}
	return &best
}
