package duckdb

import (
	"errors"
	"testing"
	"time"

	"github.com/vigilhq/vigil/internal/model"
)

func TestUpsertDevice_RegistersAndRefreshes(t *testing.T) {
	store := newTestStore(t)
	seen := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	meta := &model.MetadataPayload{
		Platform:     "windows",
		AgentVersion: "1.4.2",
		CPUCount:     8,
		MemoryTotal:  17179869184,
		MACAddresses: []string{"aa:bb:cc:dd:ee:ff"},
	}
	if err := store.UpsertDevice("web1", meta, seen); err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}

	dev, err := store.Device("web1")
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if dev.Platform != "windows" || dev.AgentVersion != "1.4.2" {
		t.Errorf("device metadata = %s/%s, want windows/1.4.2", dev.Platform, dev.AgentVersion)
	}
	if dev.Token == "" {
		t.Error("new device was not issued a token")
	}
	if len(dev.MACAddresses) != 1 {
		t.Errorf("mac addresses = %v, want one entry", dev.MACAddresses)
	}

	// A metadata refresh keeps the token.
	meta.AgentVersion = "1.5.0"
	later := seen.Add(time.Hour)
	if err := store.UpsertDevice("web1", meta, later); err != nil {
		t.Fatalf("UpsertDevice refresh: %v", err)
	}
	refreshed, err := store.Device("web1")
	if err != nil {
		t.Fatalf("Device after refresh: %v", err)
	}
	if refreshed.Token != dev.Token {
		t.Error("refresh changed the device token")
	}
	if refreshed.AgentVersion != "1.5.0" {
		t.Errorf("agent version = %s, want 1.5.0", refreshed.AgentVersion)
	}
	if !refreshed.LastSeen.After(dev.LastSeen) {
		t.Error("last seen did not advance")
	}
}

func TestUpsertDevice_NilMetaTouchesLastSeen(t *testing.T) {
	store := newTestStore(t)
	seen := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	if err := store.UpsertDevice("web1", nil, seen); err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}
	dev, err := store.Device("web1")
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if dev.Token == "" {
		t.Error("device registered without a token")
	}

	if err := store.UpsertDevice("web1", nil, seen.Add(time.Minute)); err != nil {
		t.Fatalf("UpsertDevice touch: %v", err)
	}
	touched, err := store.Device("web1")
	if err != nil {
		t.Fatalf("Device after touch: %v", err)
	}
	if !touched.LastSeen.After(dev.LastSeen) {
		t.Error("last seen did not advance on touch")
	}
}

func TestDevice_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Device("nope")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Device(unknown) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestListDevices_OrderedByLastSeen(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	if err := store.UpsertDevice("old", nil, base); err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}
	if err := store.UpsertDevice("fresh", nil, base.Add(time.Hour)); err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}

	devices, err := store.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("ListDevices returned %d devices, want 2", len(devices))
	}
	if devices[0].Hostname != "fresh" {
		t.Errorf("first device = %s, want fresh", devices[0].Hostname)
	}
}
