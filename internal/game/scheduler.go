package game

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"skyarena/internal/metrics"
)

// Scheduler drives a World at a fixed simulation timestep.
//
// Wall-clock time measured between dispatches feeds an accumulator; each
// dispatch runs whole steps of 1/TickRate seconds while the accumulator
// allows, up to maxSteps. Time beyond that is dropped and counted so a stall
// cannot snowball into an ever-growing catch-up.
type Scheduler struct {
	world     *World
	publisher Publisher
	clock     Clock
	logger    *log.Logger

	step     time.Duration
	maxSteps int

	mu          sync.Mutex
	accumulator time.Duration
	last        time.Time

	running  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler creates a stopped scheduler. publisher may be nil.
func NewScheduler(world *World, publisher Publisher) *Scheduler {
	tickRate := world.cfg.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}
	maxSteps := world.cfg.MaxCatchUpSteps
	if maxSteps <= 0 {
		maxSteps = 1
	}

	return &Scheduler{
		world:     world,
		publisher: publisher,
		clock:     world.clock,
		logger:    world.logger.WithPrefix("scheduler"),
		step:      time.Second / time.Duration(tickRate),
		maxSteps:  maxSteps,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the tick loop. It returns immediately; the loop ends on
// Stop or when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s.running.Swap(true) {
		return
	}

	s.mu.Lock()
	s.last = s.clock.Now()
	s.mu.Unlock()

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.step)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.dispatch()
			case <-s.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Info("simulation started", "tickRate", int(time.Second/s.step), "maxCatchUp", s.maxSteps)
}

// Stop ends the loop and waits for the in-flight tick. Safe to call twice.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		if s.running.Load() {
			<-s.done
		}
		s.logger.Info("simulation stopped")
	})
}

// dispatch measures elapsed time since the previous dispatch and advances.
func (s *Scheduler) dispatch() {
	now := s.clock.Now()

	s.mu.Lock()
	elapsed := now.Sub(s.last)
	s.last = now
	s.mu.Unlock()

	s.Advance(elapsed)
}

// Advance adds elapsed wall time to the accumulator and runs the steps it
// pays for. It returns the number of steps run.
func (s *Scheduler) Advance(elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}

	s.mu.Lock()
	s.accumulator += elapsed
	steps := 0
	for s.accumulator >= s.step && steps < s.maxSteps {
		s.accumulator -= s.step
		steps++
	}
	if s.accumulator >= s.step {
		dropped := int(s.accumulator / s.step)
		s.accumulator %= s.step
		metrics.RecordTicksDropped(dropped)
		s.logger.Warn("simulation fell behind, dropping ticks", "dropped", dropped)
	}
	s.mu.Unlock()

	dt := s.step.Seconds()
	for i := 0; i < steps; i++ {
		res := s.world.Step(dt)
		if s.publisher != nil {
			s.publisher.Publish(res.Events())
		}
	}
	return steps
}
