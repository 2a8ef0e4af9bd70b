package ingest

import (
	"log"
	"time"

	"github.com/vigilhq/vigil/internal/model"
)

// EventSink accepts normalized events for asynchronous storage.
type EventSink interface {
	Add(event *model.Event)
}

// Processor normalizes raw agent batches, maintains the device registry,
// and routes events to the storage sink.
type Processor struct {
	sink    EventSink
	devices model.DeviceRegistry
	now     func() time.Time
}

// NewProcessor creates a batch processor. devices may be nil when no
// registry is attached. nowFn may be nil.
func NewProcessor(sink EventSink, devices model.DeviceRegistry, nowFn func() time.Time) *Processor {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Processor{sink: sink, devices: devices, now: nowFn}
}

// BatchResult reports how a batch was consumed.
type BatchResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// ProcessBatch normalizes and stores a batch of raw events. Malformed
// events are counted and skipped; a batch never fails as a whole.
// Metadata events additionally refresh the sending host's registry entry.
func (p *Processor) ProcessBatch(raw []map[string]interface{}, defaultHostname string) BatchResult {
	var res BatchResult
	now := p.now()

	seen := make(map[string]time.Time)
	for _, item := range raw {
		ev, err := ParseEvent(item, defaultHostname, now)
		if err != nil {
			res.Rejected++
			log.Printf("ingest: rejecting event: %v", err)
			continue
		}

		if ev.Type == model.EventMetadata && p.devices != nil {
			if err := p.devices.UpsertDevice(ev.Hostname, ev.Metadata, ev.Timestamp); err != nil {
				log.Printf("ingest: device upsert failed for %s: %v", ev.Hostname, err)
			}
		} else if last, ok := seen[ev.Hostname]; !ok || ev.Timestamp.After(last) {
			seen[ev.Hostname] = ev.Timestamp
		}

		if p.sink != nil {
			p.sink.Add(ev)
		}
		res.Accepted++
	}

	// One last-seen touch per host per batch, not per event.
	if p.devices != nil {
		for hostname, ts := range seen {
			if err := p.devices.UpsertDevice(hostname, nil, ts); err != nil {
				log.Printf("ingest: last-seen update failed for %s: %v", hostname, err)
			}
		}
	}
	return res
}
