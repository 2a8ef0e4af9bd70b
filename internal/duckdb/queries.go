package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vigilhq/vigil/internal/model"
)

// queryCtx returns a context with the store's configured query timeout.
func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

func scanEvent(rows *sql.Rows) (model.Event, error) {
	var ev model.Event
	var typ, dataJSON string
	if err := rows.Scan(&ev.ID, &ev.Timestamp, &typ, &ev.Hostname, &dataJSON); err != nil {
		return ev, err
	}
	ev.Type = model.EventType(typ)
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &ev.Data); err != nil {
			log.Printf("duckdb: malformed event data (id=%d): %v", ev.ID, err)
		}
	}
	ev.DecodePayload()
	return ev, nil
}

// EventsByHost returns a host's events of the given types within [from, to),
// ordered by timestamp then id ascending. An empty type list matches all
// types.
func (s *Store) EventsByHost(ctx context.Context, hostname string, types []model.EventType, from, to time.Time) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qctx, cancel := context.WithTimeout(ctx, s.QueryTimeout)
	defer cancel()

	args := []interface{}{hostname, from, to}
	typeClause := ""
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, t := range types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		typeClause = fmt.Sprintf(" AND event_type IN (%s)", strings.Join(placeholders, ", "))
	}

	query := fmt.Sprintf(`
		SELECT id, timestamp, event_type, hostname, data::VARCHAR AS data
		FROM events
		WHERE hostname = ? AND timestamp >= ? AND timestamp < ?%s
		ORDER BY timestamp, id`, typeClause)

	rows, err := s.db.QueryContext(qctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			log.Printf("duckdb scan error (EventsByHost): %v", err)
			continue
		}
		results = append(results, ev)
	}
	return results, rows.Err()
}

// EventsSince returns a host's events strictly after since, ordered by
// timestamp then id ascending.
func (s *Store) EventsSince(ctx context.Context, hostname string, since time.Time) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qctx, cancel := context.WithTimeout(ctx, s.QueryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(qctx, `
		SELECT id, timestamp, event_type, hostname, data::VARCHAR AS data
		FROM events
		WHERE hostname = ? AND timestamp > ?
		ORDER BY timestamp, id`, hostname, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			log.Printf("duckdb scan error (EventsSince): %v", err)
			continue
		}
		results = append(results, ev)
	}
	return results, rows.Err()
}

// EventsByTypeSince returns events of one type newer than the cutoff,
// across all hosts or for one host when hostname is non-empty. Ordered by
// timestamp then id ascending.
func (s *Store) EventsByTypeSince(typ model.EventType, hostname string, since time.Time) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	query := `
		SELECT id, timestamp, event_type, hostname, data::VARCHAR AS data
		FROM events
		WHERE event_type = ? AND timestamp > ?`
	args := []interface{}{string(typ), since}
	if hostname != "" {
		query += " AND hostname = ?"
		args = append(args, hostname)
	}
	query += " ORDER BY timestamp, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			log.Printf("duckdb scan error (EventsByTypeSince): %v", err)
			continue
		}
		results = append(results, ev)
	}
	return results, rows.Err()
}

// MaxEventID returns the highest event id stored for a host, 0 when the
// host has no events.
func (s *Store) MaxEventID(ctx context.Context, hostname string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qctx, cancel := context.WithTimeout(ctx, s.QueryTimeout)
	defer cancel()

	var id sql.NullInt64
	err := s.db.QueryRowContext(qctx,
		"SELECT MAX(id) FROM events WHERE hostname = ?", hostname).Scan(&id)
	if err != nil {
		return 0, err
	}
	if !id.Valid {
		return 0, nil
	}
	return id.Int64, nil
}

// RecentEvents returns the newest events across all hosts, newest first.
func (s *Store) RecentEvents(limit int) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, event_type, hostname, data::VARCHAR AS data
		FROM events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			log.Printf("duckdb scan error (RecentEvents): %v", err)
			continue
		}
		results = append(results, ev)
	}
	return results, rows.Err()
}

// EventTypeCounts returns the per-type event counts since the cutoff.
func (s *Store) EventTypeCounts(since time.Time) ([]model.TypeCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) AS count
		FROM events
		WHERE timestamp >= ?
		GROUP BY event_type
		ORDER BY count DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.TypeCount
	for rows.Next() {
		var tc model.TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			log.Printf("duckdb scan error (EventTypeCounts): %v", err)
			continue
		}
		results = append(results, tc)
	}
	return results, rows.Err()
}

// HourlyTypeCounts returns per-hour, per-type event counts since the cutoff,
// oldest hour first.
func (s *Store) HourlyTypeCounts(since time.Time) ([]model.HourTypeCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date_trunc('hour', timestamp) AS hour, event_type, COUNT(*) AS count
		FROM events
		WHERE timestamp >= ?
		GROUP BY hour, event_type
		ORDER BY hour`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byHour := make(map[time.Time]map[model.EventType]int64)
	var order []time.Time
	for rows.Next() {
		var hour time.Time
		var typ string
		var count int64
		if err := rows.Scan(&hour, &typ, &count); err != nil {
			log.Printf("duckdb scan error (HourlyTypeCounts): %v", err)
			continue
		}
		if _, ok := byHour[hour]; !ok {
			byHour[hour] = make(map[model.EventType]int64)
			order = append(order, hour)
		}
		byHour[hour][model.EventType(typ)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]model.HourTypeCounts, 0, len(order))
	for _, hour := range order {
		results = append(results, model.HourTypeCounts{Hour: hour, Counts: byHour[hour]})
	}
	return results, nil
}

// TotalEventCount returns the number of stored events.
func (s *Store) TotalEventCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&count)
	return count, err
}

// CountEventsSince returns the number of events newer than the cutoff.
func (s *Store) CountEventsSince(since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE timestamp >= ?", since).Scan(&count)
	return count, err
}

// ActiveDeviceCount returns how many distinct hosts reported events since
// the cutoff.
func (s *Store) ActiveDeviceCount(since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT hostname) FROM events WHERE timestamp >= ?", since).Scan(&count)
	return count, err
}

// DeleteBefore removes events older than the cutoff and returns the number
// of rows deleted.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
