package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vigilhq/vigil/internal/duckdb"
	"github.com/vigilhq/vigil/internal/model"
	"github.com/vigilhq/vigil/internal/timeline"
)

const (
	defaultWindowHours = 24
	maxWindowHours     = 24 * 90
	defaultTopN        = 5
)

func (s *Server) handleHealth(c *gin.Context) {
	eventCount, err := s.store.TotalEventCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read health metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.startTime).String(),
		"event_count": eventCount,
	})
}

func (s *Server) handleIngest(c *gin.Context) {
	var req struct {
		Hostname string                   `json:"hostname"`
		Events   []map[string]interface{} `json:"events" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing events field"})
		return
	}

	res := s.processor.ProcessBatch(req.Events, req.Hostname)
	c.JSON(http.StatusOK, gin.H{
		"accepted": res.Accepted,
		"rejected": res.Rejected,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	now := time.Now()
	dayAgo := now.Add(-24 * time.Hour)

	total, err := s.store.TotalEventCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read event counts"})
		return
	}
	last24h, err := s.store.CountEventsSince(dayAgo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read event counts"})
		return
	}
	activeDevices, err := s.store.ActiveDeviceCount(dayAgo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read device counts"})
		return
	}
	typeCounts, err := s.store.EventTypeCounts(dayAgo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read type counts"})
		return
	}

	byType := make(map[string]int64, len(typeCounts))
	for _, tc := range typeCounts {
		byType[string(tc.Type)] = tc.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"total_events":    total,
		"events_24h":      last24h,
		"active_devices":  activeDevices,
		"events_by_type":  byType,
		"server_time":     now,
	})
}

func (s *Server) handleDevices(c *gin.Context) {
	devices, err := s.store.ListDevices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list devices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (s *Server) handleRecentEvents(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}

	events, err := s.store.RecentEvents(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleActivityTimeline(c *gin.Context) {
	hours, ok := hoursParam(c)
	if !ok {
		return
	}

	counts, err := s.store.HourlyTypeCounts(time.Now().Add(-time.Duration(hours) * time.Hour))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read hourly counts"})
		return
	}

	out := make([]gin.H, 0, len(counts))
	for _, hc := range counts {
		byType := make(map[string]int64, len(hc.Counts))
		for typ, n := range hc.Counts {
			byType[string(typ)] = n
		}
		out = append(out, gin.H{"hour": hc.Hour, "counts": byType})
	}
	c.JSON(http.StatusOK, gin.H{"hours": out})
}

func (s *Server) handleTopDomains(c *gin.Context) {
	hours, ok := hoursParam(c)
	if !ok {
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	events, err := s.store.EventsByTypeSince(model.EventForegroundChange, c.Query("hostname"), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"domains": timeline.TopDomains(events, limit)})
}

func (s *Server) handleSummary(c *gin.Context) {
	hostname, ok := s.knownHost(c)
	if !ok {
		return
	}
	win, ok := windowParams(c)
	if !ok {
		return
	}
	topN := defaultTopN
	if v := c.Query("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must be between 1 and 50"})
			return
		}
		topN = n
	}

	res, err := s.engine.Aggregate(c.Request.Context(), hostname, win, topN)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hostname":                 hostname,
		"window_start":             win.From,
		"window_end":               win.To,
		"top_process_by_duration":  res.TopProcessByDuration,
		"top_process_by_frequency": res.TopProcessByFrequency,
		"top_process_seconds":      res.TopProcessSeconds,
		"peak_hour":                res.PeakHour,
		"top_by_duration":          res.TopByDuration,
		"top_by_frequency":         res.TopByFrequency,
		"total_seconds_by_process": res.TotalSecondsByProcess,
		"hour_buckets_by_process":  res.HourBucketsByProcess,
		"weekly_buckets":           res.WeeklyBuckets,
		"weekly_total_seconds":     res.WeeklyTotalSeconds,
		"weekly_top_apps":          res.WeeklyTopApps,
		"generated_at":             res.GeneratedAt,
	})
}

func (s *Server) handleTimeline(c *gin.Context) {
	hostname, ok := s.knownHost(c)
	if !ok {
		return
	}
	win, ok := windowParams(c)
	if !ok {
		return
	}

	res, err := s.engine.Aggregate(c.Request.Context(), hostname, win, defaultTopN)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hostname":      hostname,
		"window_start":  win.From,
		"window_end":    win.To,
		"segments":      res.Segments,
		"last_event_id": res.LastEventID,
		"server_time":   res.GeneratedAt,
	})
}

func (s *Server) handleTimelineUpdates(c *gin.Context) {
	hostname, ok := s.knownHost(c)
	if !ok {
		return
	}

	var cur *timeline.Cursor
	if v := c.Query("last_event_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "last_event_id must be a non-negative integer"})
			return
		}
		cur = &timeline.Cursor{LastEventID: id}
		if since := c.Query("since"); since != "" {
			ts, err := time.Parse(time.RFC3339, since)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
				return
			}
			cur.LastServerTime = ts
		}
	}

	patch, err := s.reconciler.Poll(c.Request.Context(), hostname, cur)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update poll failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"segments":        patch.Segments,
		"last_event_id":   patch.Cursor.LastEventID,
		"server_time":     patch.Cursor.LastServerTime,
		"resync_required": patch.ResyncRequired,
	})
}

// knownHost resolves the path hostname against the device registry and
// writes the error response when it is unknown.
func (s *Server) knownHost(c *gin.Context) (string, bool) {
	hostname := c.Param("hostname")
	if _, err := s.store.Device(hostname); err != nil {
		if errors.Is(err, duckdb.ErrDeviceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown device"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read device"})
		}
		return "", false
	}
	return hostname, true
}

func hoursParam(c *gin.Context) (int, bool) {
	hours := defaultWindowHours
	if v := c.Query("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxWindowHours {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours out of range"})
			return 0, false
		}
		hours = n
	}
	return hours, true
}

// windowParams resolves the query window: explicit from/to beat the hours
// shorthand. An inverted explicit window is rejected.
func windowParams(c *gin.Context) (timeline.Window, bool) {
	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr != "" || toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return timeline.Window{}, false
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return timeline.Window{}, false
		}
		win := timeline.Window{From: from, To: to}
		if !win.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window start must precede end"})
			return timeline.Window{}, false
		}
		return win, true
	}

	hours, ok := hoursParam(c)
	if !ok {
		return timeline.Window{}, false
	}
	return timeline.LastHours(time.Now(), hours), true
}
