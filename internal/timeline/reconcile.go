package timeline

import (
	"context"
	"time"

	"github.com/vigilhq/vigil/internal/model"
)

// defaultDeltaWindow bounds the lookback of a poll when the client's cursor
// carries no server time.
const defaultDeltaWindow = 5 * time.Minute

// Cursor marks a client's position in a host's event stream.
type Cursor struct {
	LastEventID    int64     `json:"last_event_id"`
	LastServerTime time.Time `json:"last_server_time"`
}

// Patch is the incremental answer to a poll: new display segments, the
// advanced cursor, and whether the client must discard its view and
// resynchronize from a full aggregation.
type Patch struct {
	Segments       []DisplaySegment `json:"segments"`
	Cursor         Cursor           `json:"cursor"`
	ResyncRequired bool             `json:"resync_required"`
}

// Reconciler serves incremental timeline updates against an event source.
type Reconciler struct {
	source model.EventSource
	now    func() time.Time
}

// NewReconciler wires a reconciler to its event source. nowFn may be nil.
func NewReconciler(source model.EventSource, nowFn func() time.Time) *Reconciler {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Reconciler{source: source, now: nowFn}
}

// Poll computes the delta since the client's cursor. A nil cursor, or a
// detected gap between the cursor and the stream head, forces a resync
// instead of a partial patch. Source errors leave the cursor untouched.
func (r *Reconciler) Poll(ctx context.Context, hostname string, cur *Cursor) (*Patch, error) {
	now := r.now()

	maxID, err := r.source.MaxEventID(ctx, hostname)
	if err != nil {
		return nil, err
	}

	if cur == nil {
		return &Patch{
			Cursor:         Cursor{LastEventID: maxID, LastServerTime: now},
			ResyncRequired: true,
		}, nil
	}

	since := cur.LastServerTime
	if since.IsZero() {
		since = now.Add(-defaultDeltaWindow)
	}

	events, err := r.source.EventsSince(ctx, hostname, since)
	if err != nil {
		return nil, err
	}

	newCount := int64(0)
	for _, ev := range events {
		if ev.ID > cur.LastEventID {
			newCount++
		}
	}

	patch := &Patch{
		Cursor: Cursor{LastEventID: maxInt64(maxID, cur.LastEventID), LastServerTime: now},
	}

	// More stream growth than the delta fetch explains means events were
	// missed, usually a retention sweep or a restart between polls.
	if maxID > cur.LastEventID+newCount {
		patch.ResyncRequired = true
		return patch, nil
	}

	win := Window{From: since, To: now}
	patch.Segments = deltaSegments(events, win, now)
	return patch, nil
}

// deltaSegments reconstructs every lane over the delta window. Percent
// positions are deliberately left at zero; the client re-anchors patch
// segments against its own rendered window.
func deltaSegments(events []model.Event, win Window, now time.Time) []DisplaySegment {
	apps, _ := AppIntervals(events, win, now)
	presence, _ := PresenceIntervals(events, win)
	input, _ := InputIntervals(events, win)

	acc := NewAccumulator()
	for _, iv := range apps {
		acc.Add(iv)
	}

	var out []DisplaySegment
	for _, iv := range apps {
		out = append(out, BuildSegment(iv, Window{}, acc.Index(iv.Process)))
	}
	for _, iv := range presence {
		out = append(out, BuildSegment(iv, Window{}, -1))
	}
	for _, iv := range input {
		out = append(out, BuildSegment(iv, Window{}, -1))
	}
	return out
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
