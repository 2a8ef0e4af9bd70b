package duckdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vigilhq/vigil/internal/model"
)

// ErrDeviceNotFound is returned when a hostname has never registered.
var ErrDeviceNotFound = errors.New("duckdb: device not found")

// UpsertDevice registers a host or refreshes its metadata and last-seen
// time. A new device is issued a random token; an existing device keeps
// its token. meta may be nil when only the last-seen time advances.
func (s *Store) UpsertDevice(hostname string, meta *model.MetadataPayload, seen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM devices WHERE hostname = ?", hostname).Scan(&exists)
	if err != nil {
		return err
	}

	if exists == 0 {
		macs := "[]"
		var platform, agentVersion string
		var cpuCount int
		var memoryTotal int64
		if meta != nil {
			platform = meta.Platform
			agentVersion = meta.AgentVersion
			cpuCount = meta.CPUCount
			memoryTotal = meta.MemoryTotal
			macs = marshalMACs(meta.MACAddresses)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO devices (hostname, token, platform, agent_version, cpu_count, memory_total, mac_addresses, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			hostname, uuid.NewString(), platform, agentVersion, cpuCount, memoryTotal, macs, seen)
		return err
	}

	if meta == nil {
		_, err = s.db.ExecContext(ctx,
			"UPDATE devices SET last_seen = ? WHERE hostname = ?", seen, hostname)
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE devices
		SET platform = ?, agent_version = ?, cpu_count = ?, memory_total = ?, mac_addresses = ?, last_seen = ?
		WHERE hostname = ?`,
		meta.Platform, meta.AgentVersion, meta.CPUCount, meta.MemoryTotal,
		marshalMACs(meta.MACAddresses), seen, hostname)
	return err
}

// Device returns the registered device for a hostname.
func (s *Store) Device(hostname string) (*model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT hostname, token, platform, agent_version, cpu_count, memory_total, mac_addresses::VARCHAR AS mac_addresses, last_seen
		FROM devices WHERE hostname = ?`, hostname)

	dev, err := scanDevice(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// ListDevices returns all registered devices, most recently seen first.
func (s *Store) ListDevices() ([]model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT hostname, token, platform, agent_version, cpu_count, memory_total, mac_addresses::VARCHAR AS mac_addresses, last_seen
		FROM devices ORDER BY last_seen DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Device
	for rows.Next() {
		dev, err := scanDevice(rows.Scan)
		if err != nil {
			log.Printf("duckdb scan error (ListDevices): %v", err)
			continue
		}
		results = append(results, *dev)
	}
	return results, rows.Err()
}

func scanDevice(scan func(dest ...any) error) (*model.Device, error) {
	var dev model.Device
	var macsJSON sql.NullString
	var lastSeen sql.NullTime
	if err := scan(&dev.Hostname, &dev.Token, &dev.Platform, &dev.AgentVersion,
		&dev.CPUCount, &dev.MemoryTotal, &macsJSON, &lastSeen); err != nil {
		return nil, err
	}
	if macsJSON.Valid && macsJSON.String != "" {
		if err := json.Unmarshal([]byte(macsJSON.String), &dev.MACAddresses); err != nil {
			log.Printf("duckdb: malformed mac_addresses for %s: %v", dev.Hostname, err)
		}
	}
	if lastSeen.Valid {
		dev.LastSeen = lastSeen.Time
	}
	return &dev, nil
}

func marshalMACs(macs []string) string {
	if len(macs) == 0 {
		return "[]"
	}
	data, err := json.Marshal(macs)
	if err != nil {
		return "[]"
	}
	return string(data)
}
