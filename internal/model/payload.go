package model

import (
	"strconv"
	"strings"
	"time"
)

// DecodePayload validates the raw Data map against the fixed schema for the
// event's type and fills the matching typed payload pointer. Unknown event
// types and malformed fields are tolerated: missing or mistyped numeric
// fields decode as zero, which downstream stages treat as a discardable
// record rather than an error.
func (e *Event) DecodePayload() {
	switch e.Type {
	case EventForegroundChange:
		e.Foreground = &ForegroundPayload{
			ProcessName: payloadString(e.Data, "process_name"),
			Title:       payloadString(e.Data, "title"),
			URL:         payloadString(e.Data, "url"),
		}
	case EventScreenTime:
		e.ScreenTime = &ScreenTimePayload{
			ProcessName:     payloadString(e.Data, "process_name"),
			Title:           payloadString(e.Data, "title"),
			StartTime:       payloadTime(e.Data, "start_time"),
			DurationSeconds: payloadInt(e.Data, "duration_seconds"),
		}
	case EventAFKEnd:
		e.AFK = &AFKPayload{
			StartTime:       payloadTime(e.Data, "start_time"),
			EndTime:         payloadTime(e.Data, "end_time"),
			DurationSeconds: payloadInt(e.Data, "duration_seconds"),
		}
	case EventKeyCount:
		e.KeyCount = &KeyCountPayload{
			Count: payloadInt(e.Data, "count"),
		}
	case EventKeyCountSegment:
		e.KeyCountSegment = &KeyCountSegmentPayload{
			Count:           payloadInt(e.Data, "count"),
			StartTime:       payloadTime(e.Data, "start_time"),
			EndTime:         payloadTime(e.Data, "end_time"),
			DurationSeconds: payloadInt(e.Data, "duration_seconds"),
		}
	case EventMetadata:
		e.Metadata = &MetadataPayload{
			Platform:     payloadString(e.Data, "platform"),
			AgentVersion: payloadString(e.Data, "agent_version"),
			CPUCount:     int(payloadInt(e.Data, "cpu_count")),
			MemoryTotal:  payloadInt(e.Data, "memory_total"),
			MACAddresses: payloadStrings(e.Data, "mac_addresses"),
		}
	}
}

// ProcessName returns the process name carried by the event's payload, or
// "Unknown" when the payload has none.
func (e *Event) ProcessName() string {
	switch {
	case e.Foreground != nil && e.Foreground.ProcessName != "":
		return e.Foreground.ProcessName
	case e.ScreenTime != nil && e.ScreenTime.ProcessName != "":
		return e.ScreenTime.ProcessName
	}
	return "Unknown"
}

func payloadString(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func payloadInt(data map[string]interface{}, key string) int64 {
	if data == nil {
		return 0
	}
	switch v := data[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func payloadTime(data map[string]interface{}, key string) time.Time {
	s := payloadString(data, key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func payloadStrings(data map[string]interface{}, key string) []string {
	if data == nil {
		return nil
	}
	items, ok := data[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
