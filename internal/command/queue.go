package command

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"skyarena/internal/metrics"
)

// slowCommand is the queue wait above which a command is logged.
const slowCommand = 100 * time.Millisecond

// Queue sits between the connection read loops and the World. Enqueue never
// blocks; a full buffer drops the command.
//
// With one worker (the default) commands apply in arrival order, so a
// connection's join always lands before its first input.
type Queue struct {
	handler *Handler
	logger  *log.Logger
	pending chan Command
	workers int

	mu      sync.Mutex
	running bool
	quit    chan struct{}
	wg      sync.WaitGroup

	enqueued  atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	maxWait   atomic.Int64 // nanoseconds, since start
}

// QueueConfig sizes the queue.
type QueueConfig struct {
	BufferSize int
	Workers    int
}

// DefaultQueueConfig is one ordered worker with room for about half a
// second of input from a full server.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{BufferSize: 4096, Workers: 1}
}

// NewQueue creates a stopped queue.
func NewQueue(handler *Handler, cfg QueueConfig) *Queue {
	def := DefaultQueueConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	return &Queue{
		handler: handler,
		logger:  handler.logger,
		pending: make(chan Command, cfg.BufferSize),
		workers: cfg.Workers,
	}
}

// Start launches the workers. Calling it on a running queue does nothing.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	q.quit = make(chan struct{})

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(q.quit)
	}
	q.logger.Info("command queue started", "workers", q.workers, "buffer", cap(q.pending))
}

// Stop waits for the workers to exit. Buffered commands stay buffered.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.quit)
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("command queue stopped",
		"enqueued", q.enqueued.Load(), "processed", q.processed.Load(), "dropped", q.dropped.Load())
}

// Enqueue stamps and buffers cmd. It reports false when the buffer is full.
func (q *Queue) Enqueue(cmd Command) bool {
	cmd.ReceivedAt = time.Now()

	select {
	case q.pending <- cmd:
		q.enqueued.Add(1)
		return true
	default:
	}

	metrics.RecordCommand(cmd.Type.String(), "dropped")
	if n := q.dropped.Add(1); n%100 == 1 {
		q.logger.Warn("command queue full", "session", cmd.Session.ID, "dropped", n)
	}
	return false
}

// Disconnect removes the session's player at once, ahead of anything the
// session still has buffered.
func (q *Queue) Disconnect(s *Session) {
	q.handler.Disconnect(s)
}

func (q *Queue) work(quit <-chan struct{}) {
	defer q.wg.Done()

	for {
		select {
		case <-quit:
			return
		case cmd := <-q.pending:
			q.observeWait(cmd)
			if reply, ok := q.handler.ProcessCommand(cmd); ok && cmd.Reply != nil {
				cmd.Reply(reply)
			}
			q.processed.Add(1)
		}
	}
}

func (q *Queue) observeWait(cmd Command) {
	wait := time.Since(cmd.ReceivedAt)
	for {
		cur := q.maxWait.Load()
		if int64(wait) <= cur || q.maxWait.CompareAndSwap(cur, int64(wait)) {
			break
		}
	}
	if wait > slowCommand {
		q.logger.Warn("command waited in queue", "type", cmd.Type, "wait", wait)
	}
}

// QueueStats is a point-in-time view of the queue.
type QueueStats struct {
	Enqueued       uint64  `json:"enqueued"`
	Processed      uint64  `json:"processed"`
	Dropped        uint64  `json:"dropped"`
	Pending        uint64  `json:"pending"`
	BufferSize     uint64  `json:"bufferSize"`
	MaxWaitMs      float64 `json:"maxWaitMs"`
	BufferUsagePct float64 `json:"bufferUsagePct"`
}

// Stats returns the current counters.
func (q *Queue) Stats() QueueStats {
	pending, size := len(q.pending), cap(q.pending)
	return QueueStats{
		Enqueued:       q.enqueued.Load(),
		Processed:      q.processed.Load(),
		Dropped:        q.dropped.Load(),
		Pending:        uint64(pending),
		BufferSize:     uint64(size),
		MaxWaitMs:      float64(q.maxWait.Load()) / float64(time.Millisecond),
		BufferUsagePct: float64(pending) / float64(size) * 100,
	}
}
