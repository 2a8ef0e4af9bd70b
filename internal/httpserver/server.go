package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vigilhq/vigil/internal/ingest"
	"github.com/vigilhq/vigil/internal/model"
	"github.com/vigilhq/vigil/internal/timeline"
)

// QueryStore is the narrow store contract required by the HTTP API.
type QueryStore interface {
	model.EventSource
	model.DeviceRegistry
	TotalEventCount() (int64, error)
	CountEventsSince(since time.Time) (int64, error)
	ActiveDeviceCount(since time.Time) (int64, error)
	EventTypeCounts(since time.Time) ([]model.TypeCount, error)
	HourlyTypeCounts(since time.Time) ([]model.HourTypeCounts, error)
	EventsByTypeSince(typ model.EventType, hostname string, since time.Time) ([]model.Event, error)
	RecentEvents(limit int) ([]model.Event, error)
}

// Config holds the server's runtime settings.
type Config struct {
	Addr     string
	APIToken string // empty disables ingest auth
}

// Server provides the ingest endpoint and the dashboard/timeline API.
type Server struct {
	conf       Config
	store      QueryStore
	processor  *ingest.Processor
	engine     *timeline.Engine
	reconciler *timeline.Reconciler
	server     *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
	startTime  time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(conf Config, store QueryStore, processor *ingest.Processor, engine *timeline.Engine, reconciler *timeline.Reconciler) *Server {
	if conf.Addr == "" {
		conf.Addr = "0.0.0.0:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		conf:       conf,
		store:      store,
		processor:  processor,
		engine:     engine,
		reconciler: reconciler,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.POST("/api/events", s.requireToken, s.handleIngest)

	r.GET("/api/dashboard/stats", s.handleStats)
	r.GET("/api/dashboard/devices", s.handleDevices)
	r.GET("/api/dashboard/recent_events", s.handleRecentEvents)
	r.GET("/api/dashboard/activity_timeline", s.handleActivityTimeline)
	r.GET("/api/dashboard/top_domains", s.handleTopDomains)

	r.GET("/api/devices/:hostname/summary", s.handleSummary)
	r.GET("/api/devices/:hostname/timeline", s.handleTimeline)
	r.GET("/api/devices/:hostname/timeline/updates", s.handleTimelineUpdates)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.conf.Addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// requireToken enforces Bearer auth on the ingest endpoint. Auth is
// disabled when no token is configured.
func (s *Server) requireToken(c *gin.Context) {
	if s.conf.APIToken == "" {
		return
	}
	auth := c.GetHeader("Authorization")
	if auth != "Bearer "+s.conf.APIToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
	}
}
