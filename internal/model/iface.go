package model

import (
	"context"
	"time"
)

// EventSource provides read access to stored telemetry events, ordered by
// timestamp ascending. It is the only collaborator the timeline engine
// talks to.
type EventSource interface {
	EventsByHost(ctx context.Context, hostname string, types []EventType, from, to time.Time) ([]Event, error)
	EventsSince(ctx context.Context, hostname string, since time.Time) ([]Event, error)
	MaxEventID(ctx context.Context, hostname string) (int64, error)
}

// EventWriter provides append-oriented write operations for telemetry events.
type EventWriter interface {
	InsertEventBatch(events []*Event) error
}

// DeviceRegistry maintains the set of known monitored endpoints.
type DeviceRegistry interface {
	UpsertDevice(hostname string, meta *MetadataPayload, seen time.Time) error
	Device(hostname string) (*Device, error)
	ListDevices() ([]Device, error)
}
