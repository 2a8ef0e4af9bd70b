package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vigilhq/vigil/internal/model"
)

var (
	// ErrMissingType marks an event with no usable type field.
	ErrMissingType = errors.New("ingest: event missing type")
	// ErrMissingHostname marks an event with no hostname, its own or the
	// batch default.
	ErrMissingHostname = errors.New("ingest: event missing hostname")
)

// timestampLayouts are tried in order when the agent sends a string
// timestamp. Agents on different platforms disagree on the format.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseEvent normalizes one raw event object from an agent batch into the
// canonical form. A missing timestamp defaults to now; a missing hostname
// falls back to the batch default. The remaining fields stay in Data and
// are decoded per type.
func ParseEvent(raw map[string]interface{}, defaultHostname string, now time.Time) (*model.Event, error) {
	typ, _ := raw["type"].(string)
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return nil, ErrMissingType
	}

	hostname, _ := raw["hostname"].(string)
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		hostname = defaultHostname
	}
	if hostname == "" {
		return nil, ErrMissingHostname
	}

	ts, err := parseTimestamp(raw["timestamp"])
	if err != nil {
		return nil, err
	}
	if ts.IsZero() {
		ts = now
	}
	// Whole-second resolution; sub-second fractions would make hour bucket
	// sums drift from interval durations.
	ts = ts.Truncate(time.Second)

	data := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		switch k {
		case "type", "timestamp", "hostname":
			continue
		}
		data[k] = v
	}

	ev := &model.Event{
		Timestamp: ts,
		Type:      model.EventType(typ),
		Hostname:  hostname,
		Data:      data,
	}
	ev.DecodePayload()
	return ev, nil
}

func parseTimestamp(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		return time.Time{}, fmt.Errorf("ingest: unparseable timestamp %q", s)
	case float64:
		// Unix seconds, possibly fractional.
		sec := int64(t)
		nsec := int64((t - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("ingest: unsupported timestamp type %T", v)
}
