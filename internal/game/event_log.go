package game

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	EventBufferSize      = 1024
	MaxEventsPerSec      = 10000                  // global rate limit
	MaxEventsPerPlayer   = 100                    // per-player rate limit per second
	BatchFlushSize       = 64                     // records per write batch
	BatchFlushInterval   = 100 * time.Millisecond // how often the writer drains
	PlayerLimiterCleanup = 5 * time.Minute
)

// AuditVersion is written into every record.
const AuditVersion uint8 = 1

// AuditRecord is one line of the JSONL audit log.
type AuditRecord struct {
	Version   uint8           `json:"version"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"` // unix nano
	Sequence  uint64          `json:"sequence"`
	Tick      uint64          `json:"tick"`
	PlayerID  string          `json:"playerId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EventLog is a bounded, rate-limited audit trail of combat and membership
// events. It implements Publisher; state snapshots are not recorded.
//
// Records go into a ring buffer; a background writer appends them to a file
// as newline-delimited JSON. When the buffer is full the oldest records are
// dropped.
type EventLog struct {
	buffer    [EventBufferSize]AuditRecord
	bufMu     sync.Mutex
	writeHead uint64
	readHead  uint64

	globalLimiter  *rate.Limiter
	playerLimiters sync.Map // map[string]*playerLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	file   *os.File
	fileMu sync.Mutex
	logger *log.Logger

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
}

type playerLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// NewEventLog creates a stopped event log.
func NewEventLog(logger *log.Logger) *EventLog {
	if logger == nil {
		logger = log.Default()
	}
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
		logger:        logger.WithPrefix("audit"),
	}
}

// Start opens path for append and launches the writer. An empty path keeps
// records in memory only.
func (el *EventLog) Start(path string) error {
	if el.running.Load() {
		return nil
	}

	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()

	el.logger.Info("event log started", "path", path)
	return nil
}

// Stop flushes pending records and closes the file. Safe to call twice.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Publish records every non-state event.
func (el *EventLog) Publish(events []Event) {
	for _, ev := range events {
		if ev.Type == EventState {
			continue
		}
		el.Record(ev)
	}
}

// Record appends one event. It returns false when the event was rate limited
// or the log is not running.
func (el *EventLog) Record(ev Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}
	if ev.PlayerID != "" && !el.playerLimiter(ev.PlayerID).Allow() {
		el.droppedCount.Add(1)
		return false
	}

	payload, err := json.Marshal(ev.Data)
	if err != nil {
		el.droppedCount.Add(1)
		return false
	}

	rec := AuditRecord{
		Version:   AuditVersion,
		Type:      ev.Type.String(),
		Timestamp: time.Now().UnixNano(),
		Tick:      ev.Tick,
		PlayerID:  ev.PlayerID,
		Payload:   payload,
	}

	el.bufMu.Lock()
	el.writeHead++
	if el.writeHead-el.readHead > EventBufferSize {
		el.readHead++
		el.droppedCount.Add(1)
	}
	rec.Sequence = el.writeHead
	el.buffer[el.writeHead%EventBufferSize] = rec
	el.bufMu.Unlock()

	el.totalCount.Add(1)
	return true
}

func (el *EventLog) playerLimiter(playerID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.playerLimiters.Load(playerID); ok {
		e := v.(*playerLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &playerLimiterEntry{limiter: rate.NewLimiter(MaxEventsPerPlayer, MaxEventsPerPlayer/10)}
	entry.lastUsed.Store(now)
	actual, _ := el.playerLimiters.LoadOrStore(playerID, entry)
	return actual.(*playerLimiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]AuditRecord, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(PlayerLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-PlayerLimiterCleanup).UnixNano()
			el.playerLimiters.Range(func(key, value any) bool {
				if value.(*playerLimiterEntry).lastUsed.Load() < cutoff {
					el.playerLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

// collectBatch moves up to BatchFlushSize records out of the ring buffer.
func (el *EventLog) collectBatch(batch []AuditRecord) []AuditRecord {
	el.bufMu.Lock()
	defer el.bufMu.Unlock()

	for el.readHead < el.writeHead && len(batch) < BatchFlushSize {
		el.readHead++
		batch = append(batch, el.buffer[el.readHead%EventBufferSize])
	}
	return batch
}

func (el *EventLog) flushBatch(batch []AuditRecord) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}

	for _, rec := range batch {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		data = append(data, '\n')
		if _, err := el.file.Write(data); err != nil {
			el.logger.Error("event log write failed", "err", err)
			return
		}
	}
}

// Stats reports totals for monitoring.
func (el *EventLog) Stats() map[string]any {
	el.bufMu.Lock()
	pending := el.writeHead - el.readHead
	el.bufMu.Unlock()

	return map[string]any{
		"total":   el.totalCount.Load(),
		"dropped": el.droppedCount.Load(),
		"pending": pending,
		"running": el.running.Load(),
	}
}

// DroppedCount returns how many records were discarded.
func (el *EventLog) DroppedCount() uint64 { return el.droppedCount.Load() }

// TotalCount returns how many records were accepted.
func (el *EventLog) TotalCount() uint64 { return el.totalCount.Load() }
