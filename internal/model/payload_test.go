package model

import (
	"testing"
	"time"
)

func TestDecodePayload_Foreground(t *testing.T) {
	ev := Event{
		Type: EventForegroundChange,
		Data: map[string]interface{}{
			"process_name": "chrome.exe",
			"title":        "Inbox",
			"url":          "https://mail.example.com",
		},
	}
	ev.DecodePayload()

	if ev.Foreground == nil {
		t.Fatal("foreground payload not decoded")
	}
	if ev.Foreground.ProcessName != "chrome.exe" || ev.Foreground.Title != "Inbox" {
		t.Errorf("decoded payload = %+v", ev.Foreground)
	}
}

func TestDecodePayload_ScreenTime(t *testing.T) {
	ev := Event{
		Type: EventScreenTime,
		Data: map[string]interface{}{
			"process_name":     "code.exe",
			"duration_seconds": float64(600),
			"start_time":       "2025-06-02T09:00:00Z",
		},
	}
	ev.DecodePayload()

	if ev.ScreenTime == nil {
		t.Fatal("screen time payload not decoded")
	}
	if ev.ScreenTime.DurationSeconds != 600 {
		t.Errorf("duration = %d, want 600", ev.ScreenTime.DurationSeconds)
	}
	want := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if !ev.ScreenTime.StartTime.Equal(want) {
		t.Errorf("start time = %v, want %v", ev.ScreenTime.StartTime, want)
	}
}

func TestDecodePayload_MalformedFieldsDecodeAsZero(t *testing.T) {
	ev := Event{
		Type: EventScreenTime,
		Data: map[string]interface{}{
			"process_name":     "code.exe",
			"duration_seconds": "not a number",
			"start_time":       "garbage",
		},
	}
	ev.DecodePayload()

	if ev.ScreenTime == nil {
		t.Fatal("payload pointer missing for malformed data")
	}
	if ev.ScreenTime.DurationSeconds != 0 {
		t.Errorf("malformed duration = %d, want 0", ev.ScreenTime.DurationSeconds)
	}
	if !ev.ScreenTime.StartTime.IsZero() {
		t.Errorf("malformed start time = %v, want zero", ev.ScreenTime.StartTime)
	}
}

func TestDecodePayload_NumericStrings(t *testing.T) {
	ev := Event{
		Type: EventKeyCount,
		Data: map[string]interface{}{"count": " 42 "},
	}
	ev.DecodePayload()

	if ev.KeyCount == nil || ev.KeyCount.Count != 42 {
		t.Errorf("key count payload = %+v, want count 42", ev.KeyCount)
	}
}

func TestDecodePayload_Metadata(t *testing.T) {
	ev := Event{
		Type: EventMetadata,
		Data: map[string]interface{}{
			"platform":      "windows",
			"agent_version": "1.4.2",
			"cpu_count":     float64(8),
			"memory_total":  float64(17179869184),
			"mac_addresses": []interface{}{"aa:bb:cc:dd:ee:ff", ""},
		},
	}
	ev.DecodePayload()

	if ev.Metadata == nil {
		t.Fatal("metadata payload not decoded")
	}
	if ev.Metadata.CPUCount != 8 {
		t.Errorf("cpu count = %d, want 8", ev.Metadata.CPUCount)
	}
	if len(ev.Metadata.MACAddresses) != 1 {
		t.Errorf("mac addresses = %v, empty entries should be dropped", ev.Metadata.MACAddresses)
	}
}

func TestDecodePayload_UnknownTypeLeavesPointersNil(t *testing.T) {
	ev := Event{Type: EventType("custom_probe"), Data: map[string]interface{}{"x": 1}}
	ev.DecodePayload()

	if ev.Foreground != nil || ev.ScreenTime != nil || ev.AFK != nil ||
		ev.KeyCount != nil || ev.KeyCountSegment != nil || ev.Metadata != nil {
		t.Error("unknown event type should not decode any payload")
	}
}

func TestProcessName(t *testing.T) {
	ev := Event{Type: EventForegroundChange, Data: map[string]interface{}{"process_name": "chrome.exe"}}
	ev.DecodePayload()
	if got := ev.ProcessName(); got != "chrome.exe" {
		t.Errorf("ProcessName = %q, want chrome.exe", got)
	}

	blank := Event{Type: EventMouseIdle}
	blank.DecodePayload()
	if got := blank.ProcessName(); got != "Unknown" {
		t.Errorf("ProcessName = %q, want Unknown", got)
	}
}
