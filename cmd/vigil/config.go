package main

import (
	"time"

	"github.com/vigilhq/vigil/internal/model"
)

const (
	defaultBindHost            = "0.0.0.0"
	defaultAPIPort             = 3000
	defaultQueryTimeout        = model.DefaultQueryTimeout
	defaultInsertBatchSize     = 500
	defaultInsertFlushInterval = 200 * time.Millisecond
	defaultInsertFlushQueue    = 64
	defaultEventRetention      = model.DefaultEventRetention
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Host                string        `mapstructure:"host"`
	APIPort             int           `mapstructure:"api-port"`
	APIAddr             string        `mapstructure:"api-addr"`
	APIToken            string        `mapstructure:"api-token"`
	DBPath              string        `mapstructure:"db-path"`
	QueryTimeout        time.Duration `mapstructure:"query-timeout"`
	InsertBatchSize     int           `mapstructure:"insert-batch-size"`
	InsertFlushInterval time.Duration `mapstructure:"insert-flush-interval"`
	InsertFlushQueue    int           `mapstructure:"insert-flush-queue-size"`
	JournalEnabled      bool          `mapstructure:"journal-enabled"`
	JournalPath         string        `mapstructure:"journal-path"`
	EventRetention      int           `mapstructure:"event-retention"`
	ExcludedProcesses   []string      `mapstructure:"excluded-processes"`
	ConfigPath          string        `mapstructure:"-"` // not from config file
}
