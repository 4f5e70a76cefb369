package game

import (
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"skyarena/internal/config"
)

var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// testSim is the default configuration without power-ups, so pickups never
// interfere with combat tests.
func testSim() config.SimConfig {
	cfg := config.DefaultSim()
	cfg.PowerUps = nil
	return cfg
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestWorld(t *testing.T, cfg config.SimConfig, opts ...Option) (*World, *ManualClock) {
	t.Helper()
	clock := NewManualClock(testEpoch)
	base := []Option{
		WithClock(clock),
		WithRand(rand.New(rand.NewSource(1))),
		WithLogger(quietLogger()),
	}
	return NewWorld(cfg, append(base, opts...)...), clock
}

// mustJoin adds a player with a fixed id and places it at pos.
func mustJoin(t *testing.T, w *World, id string, team Team, pos Vec3) *Player {
	t.Helper()
	if _, err := w.Join(JoinRequest{ID: id, Name: id, Team: team}); err != nil {
		t.Fatalf("Join(%s) failed: %v", id, err)
	}
	p := w.store.Player(id)
	p.Position = pos
	return p
}

func approxEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}

func vecApprox(a, b Vec3) bool {
	return approxEqual(a.X, b.X) && approxEqual(a.Y, b.Y) && approxEqual(a.Z, b.Z)
}
