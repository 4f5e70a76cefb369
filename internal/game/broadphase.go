package game

import (
	"skyarena/internal/game/spatial"
)

// BroadPhase narrows the players a projectile segment has to be tested against.
// Candidates must return a superset of the players whose center lies within
// radius of the segment; the exact test happens in the combat resolver.
type BroadPhase interface {
	// Rebuild indexes the players for the current tick.
	Rebuild(players []*Player)
	// Candidates returns players that may be within radius of start→end.
	// The returned slice is only valid until the next call.
	Candidates(start, end Vec3, radius float64) []*Player
}

// bruteForce tests every player against every projectile.
type bruteForce struct {
	players []*Player
}

// NewBruteForce returns the default O(players × projectiles) broad phase.
func NewBruteForce() BroadPhase { return &bruteForce{} }

func (b *bruteForce) Rebuild(players []*Player) { b.players = players }

func (b *bruteForce) Candidates(_, _ Vec3, _ float64) []*Player { return b.players }

// gridBroadPhase buckets living players on the XZ plane.
type gridBroadPhase struct {
	grid    *spatial.Grid
	players []*Player
	out     []*Player
}

// NewGridBroadPhase returns a broad phase backed by a uniform grid covering
// a world of edge worldSize centred on the origin.
func NewGridBroadPhase(worldSize, cellSize float64, maxPlayers int) BroadPhase {
	half := worldSize / 2
	return &gridBroadPhase{
		grid: spatial.NewGrid(-half, -half, worldSize, worldSize, cellSize, maxPlayers),
	}
}

func (g *gridBroadPhase) Rebuild(players []*Player) {
	g.players = players
	g.grid.Clear()
	for i, p := range players {
		if p.IsAlive {
			g.grid.Insert(uint32(i), p.Position.X, p.Position.Z)
		}
	}
}

// Candidates queries the circle that bounds the segment (widened by radius)
// in the XZ plane. Height is left to the exact test.
func (g *gridBroadPhase) Candidates(start, end Vec3, radius float64) []*Player {
	mid := start.Add(end).Scale(0.5)
	reach := end.Sub(start).Length()/2 + radius

	g.out = g.out[:0]
	for _, idx := range g.grid.QueryRadius(mid.X, mid.Z, reach) {
		g.out = append(g.out, g.players[idx])
	}
	return g.out
}

// sweepBroadPhase keeps living players sorted along X.
type sweepBroadPhase struct {
	axis    *spatial.SweepAxis
	players []*Player
	xs      []float64
	dead    []bool
	out     []*Player
}

// NewSweepBroadPhase returns a broad phase that range-queries players by X
// coordinate. It suits arenas where players spread along one axis.
func NewSweepBroadPhase(maxPlayers int) BroadPhase {
	return &sweepBroadPhase{axis: spatial.NewSweepAxis(maxPlayers)}
}

func (s *sweepBroadPhase) Rebuild(players []*Player) {
	s.players = players
	s.xs = s.xs[:0]
	s.dead = s.dead[:0]
	for _, p := range players {
		s.xs = append(s.xs, p.Position.X)
		s.dead = append(s.dead, !p.IsAlive)
	}
	s.axis.Update(s.xs, s.dead)
}

func (s *sweepBroadPhase) Candidates(start, end Vec3, radius float64) []*Player {
	lo, hi := start.X, end.X
	if lo > hi {
		lo, hi = hi, lo
	}

	s.out = s.out[:0]
	for _, idx := range s.axis.Query(lo-radius, hi+radius) {
		s.out = append(s.out, s.players[idx])
	}
	return s.out
}
