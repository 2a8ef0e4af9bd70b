package model

import "time"

// EventType identifies the kind of telemetry an endpoint agent emitted.
type EventType string

const (
	EventForegroundChange EventType = "foreground_change"
	EventScreenTime       EventType = "screen_time"
	EventAFKEnd           EventType = "afk_end"
	EventKeyCount         EventType = "key_count"
	EventKeyCountSegment  EventType = "key_count_segment"
	EventMouseActive      EventType = "mouse_active"
	EventMouseIdle        EventType = "mouse_idle"
	EventMetadata         EventType = "metadata"
)

// Event represents a single telemetry record used across the system.
// It is the canonical type for storage, ingest, and the timeline engine.
// Data holds the raw payload as received; the typed pointers are populated
// by DecodePayload and are nil when the payload does not validate.
type Event struct {
	ID        int64                  `json:"id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Type      EventType              `json:"type"`
	Hostname  string                 `json:"hostname"`
	Data      map[string]interface{} `json:"data,omitempty"`

	Foreground      *ForegroundPayload      `json:"-"`
	ScreenTime      *ScreenTimePayload      `json:"-"`
	AFK             *AFKPayload             `json:"-"`
	KeyCount        *KeyCountPayload        `json:"-"`
	KeyCountSegment *KeyCountSegmentPayload `json:"-"`
	Metadata        *MetadataPayload        `json:"-"`
}

// ForegroundPayload describes a window-focus change marker.
type ForegroundPayload struct {
	ProcessName string
	Title       string
	URL         string
}

// ScreenTimePayload describes an explicit app-usage span. The event's
// timestamp marks the end of the span unless StartTime is set.
type ScreenTimePayload struct {
	ProcessName     string
	Title           string
	StartTime       time.Time // zero value = derive from duration
	DurationSeconds int64
}

// AFKPayload describes an explicit away-from-keyboard span reported when
// the endpoint returns to activity.
type AFKPayload struct {
	StartTime       time.Time
	EndTime         time.Time // zero value = event timestamp
	DurationSeconds int64
}

// KeyCountPayload describes a point-in-time keystroke count marker.
type KeyCountPayload struct {
	Count int64
}

// KeyCountSegmentPayload describes an explicit input burst span.
type KeyCountSegmentPayload struct {
	Count           int64
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int64
}

// MetadataPayload carries endpoint system information used to maintain
// the device registry.
type MetadataPayload struct {
	Platform     string
	AgentVersion string
	CPUCount     int
	MemoryTotal  int64
	MACAddresses []string
}

// Device represents a registered monitored endpoint.
type Device struct {
	Hostname     string    `json:"hostname"`
	Token        string    `json:"token"`
	Platform     string    `json:"platform"`
	AgentVersion string    `json:"agent_version"`
	CPUCount     int       `json:"cpu_count"`
	MemoryTotal  int64     `json:"memory_total"`
	MACAddresses []string  `json:"mac_addresses"`
	LastSeen     time.Time `json:"last_seen"`
}

// TypeCount represents grouped event counts by event type.
type TypeCount struct {
	Type  EventType
	Count int64
}

// HourTypeCounts represents per-type event counts for one clock hour.
type HourTypeCounts struct {
	Hour   time.Time
	Counts map[EventType]int64
}
