package duckdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vigilhq/vigil/internal/journal"
	"github.com/vigilhq/vigil/internal/model"
)

// DefaultFlushQueueSize is the number of batches that can be queued for async flushing.
const DefaultFlushQueueSize = 64

type journaledEvent struct {
	seq   uint64
	event *model.Event
}

type durableJournal interface {
	Append(event *model.Event) (uint64, error)
	Commit(seq uint64) error
	Close() error
}

// InsertBuffer batches telemetry events and flushes them to DuckDB
// asynchronously. Add() never blocks on DuckDB writes - events are sent to
// a flush goroutine.
type InsertBuffer struct {
	writer        model.EventWriter
	mu            sync.Mutex
	pending       []journaledEvent
	flushChan     chan []journaledEvent // async flush queue
	maxBatch      int
	flushInterval time.Duration
	done          chan struct{}
	wg            sync.WaitGroup
	tickWg        sync.WaitGroup // separate WaitGroup for tickLoop
	stopOnce      sync.Once
	journal       durableJournal

	// backpressureCount tracks inline flushes for throttled logging.
	backpressureCount atomic.Int64
	lastBPLog         atomic.Int64 // unix timestamp of last backpressure log
}

// InsertBufferConfig holds tunable parameters for the insert buffer.
type InsertBufferConfig struct {
	BatchSize      int
	FlushInterval  time.Duration
	FlushQueueSize int
	Journal        *journal.Journal
}

// NewInsertBuffer creates a new insert buffer that flushes to the store.
// The flush goroutine processes batches asynchronously so Add() never blocks on IO.
func NewInsertBuffer(writer model.EventWriter, conf ...InsertBufferConfig) *InsertBuffer {
	batchSize := 500
	flushInterval := 200 * time.Millisecond
	flushQueueSize := DefaultFlushQueueSize
	if len(conf) > 0 {
		if conf[0].BatchSize > 0 {
			batchSize = conf[0].BatchSize
		}
		if conf[0].FlushInterval > 0 {
			flushInterval = conf[0].FlushInterval
		}
		if conf[0].FlushQueueSize > 0 {
			flushQueueSize = conf[0].FlushQueueSize
		}
	}

	b := &InsertBuffer{
		writer:        writer,
		pending:       make([]journaledEvent, 0, batchSize),
		flushChan:     make(chan []journaledEvent, flushQueueSize),
		maxBatch:      batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}
	if len(conf) > 0 && conf[0].Journal != nil {
		b.journal = conf[0].Journal
	}

	b.wg.Add(1)
	go b.flushWorker()

	b.wg.Add(1)
	b.tickWg.Add(1)
	go b.tickLoop()

	return b
}

// tickLoop periodically drains the pending buffer.
func (b *InsertBuffer) tickLoop() {
	defer b.wg.Done()
	defer b.tickWg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.drainPending()
		case <-b.done:
			b.drainPending() // final drain
			return
		}
	}
}

// logBackpressure emits a throttled warning (at most once per 10 seconds) when
// the flush channel is full and an inline flush is triggered.
func (b *InsertBuffer) logBackpressure() {
	count := b.backpressureCount.Add(1)
	now := time.Now().Unix()
	last := b.lastBPLog.Load()
	if now-last >= 10 && b.lastBPLog.CompareAndSwap(last, now) {
		log.Printf("duckdb: backpressure, %d inline flushes (flush channel full, DuckDB falling behind)", count)
	}
}

// drainPending moves pending events to the flush channel without blocking on DuckDB.
func (b *InsertBuffer) drainPending() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = make([]journaledEvent, 0, b.maxBatch)
	b.mu.Unlock()

	// Non-blocking send to flush channel. If channel is full, flush synchronously
	// as a safety valve (this means DuckDB is falling behind).
	select {
	case b.flushChan <- batch:
	default:
		b.logBackpressure()
		if err := b.flushBatch(batch); err != nil {
			log.Printf("duckdb flush error (inline): %v", err)
		}
	}
}

// flushWorker processes batches from the flush channel.
func (b *InsertBuffer) flushWorker() {
	defer b.wg.Done()
	for batch := range b.flushChan {
		if err := b.flushBatch(batch); err != nil {
			log.Printf("duckdb flush error: %v", err)
		}
	}
}

// Add queues an event for batch insertion. This never blocks on DuckDB IO.
func (b *InsertBuffer) Add(event *model.Event) {
	seq := uint64(0)
	if b.journal != nil {
		for {
			var err error
			seq, err = b.journal.Append(event)
			if err == nil {
				break
			}
			log.Printf("duckdb: journal append failed, retrying: %v", err)
			select {
			case <-b.done:
				return
			case <-time.After(200 * time.Millisecond):
			}
		}
	}

	b.mu.Lock()
	b.pending = append(b.pending, journaledEvent{
		seq:   seq,
		event: event,
	})
	shouldFlush := len(b.pending) >= b.maxBatch
	var batch []journaledEvent
	if shouldFlush {
		batch = b.pending
		b.pending = make([]journaledEvent, 0, b.maxBatch)
	}
	b.mu.Unlock()

	if shouldFlush {
		select {
		case b.flushChan <- batch:
		default:
			// Backpressure safety valve: flush inline instead of spawning
			// unbounded goroutines under sustained overload.
			b.logBackpressure()
			if err := b.flushBatch(batch); err != nil {
				log.Printf("duckdb flush error (overflow-inline): %v", err)
			}
		}
	}
}

// Stop flushes remaining events and waits for all writes to complete.
func (b *InsertBuffer) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		// Wait for tickLoop to finish its final drain before closing flushChan,
		// ensuring all pending events are sent to the flush channel.
		b.tickWg.Wait()
		close(b.flushChan)
		b.wg.Wait()
		if b.journal != nil {
			if err := b.journal.Close(); err != nil {
				log.Printf("duckdb: journal close error: %v", err)
			}
		}
	})
}

func (b *InsertBuffer) flushBatch(batch []journaledEvent) error {
	if len(batch) == 0 {
		return nil
	}

	events := make([]*model.Event, 0, len(batch))
	for _, item := range batch {
		events = append(events, item.event)
	}

	if err := b.writer.InsertEventBatch(events); err != nil {
		return err
	}

	if b.journal != nil {
		maxSeq := uint64(0)
		for _, item := range batch {
			if item.seq > maxSeq {
				maxSeq = item.seq
			}
		}
		if maxSeq > 0 {
			if err := b.journal.Commit(maxSeq); err != nil {
				return fmt.Errorf("journal commit seq=%d: %w", maxSeq, err)
			}
		}
	}
	return nil
}

// InsertEventBatch appends a batch of events into DuckDB in a single transaction.
// If any individual event fails to insert, the entire batch is rolled back and retried
// event-by-event to salvage as many events as possible.
func (s *Store) InsertEventBatch(events []*model.Event) error {
	if len(events) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.QueryTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.insertBatchTx(ctx, events)
	if err == nil {
		return nil
	}

	// Batch failed, retry event-by-event to salvage what we can.
	var failed int
	for _, ev := range events {
		if rerr := s.insertBatchTx(ctx, []*model.Event{ev}); rerr != nil {
			failed++
			log.Printf("duckdb: dropping event (host=%s type=%s): %v", ev.Hostname, ev.Type, rerr)
		}
	}
	if failed > 0 {
		log.Printf("duckdb: batch partially failed, %d/%d events dropped", failed, len(events))
	}
	return nil
}

// insertBatchTx inserts events in a single transaction.
func (s *Store) insertBatchTx(ctx context.Context, events []*model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events (timestamp, event_type, hostname, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		dataJSON := []byte("{}")
		if len(ev.Data) > 0 {
			if data, merr := json.Marshal(ev.Data); merr != nil {
				log.Printf("duckdb: failed to marshal event data, using empty: %v", merr)
			} else {
				dataJSON = data
			}
		}

		if _, err := stmt.ExecContext(
			ctx,
			ev.Timestamp, string(ev.Type), ev.Hostname, string(dataJSON),
		); err != nil {
			return fmt.Errorf("event insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
