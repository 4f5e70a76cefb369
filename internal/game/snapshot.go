package game

import "time"

// Snapshot is an immutable copy of the world at the end of a tick.
// It holds values only, so the transport may encode it after the next tick
// has already started mutating the store.
type Snapshot struct {
	Tick        uint64                `json:"tick" msgpack:"tick"`
	ServerTime  int64                 `json:"serverTime" msgpack:"serverTime"` // unix milliseconds
	Mode        GameMode              `json:"mode" msgpack:"mode"`
	TeamScores  TeamScores            `json:"teamScores" msgpack:"teamScores"`
	Players     map[string]PlayerView `json:"players" msgpack:"players"`
	Projectiles []ProjectileView      `json:"projectiles" msgpack:"projectiles"`
	PowerUps    []PowerUpView         `json:"powerUps" msgpack:"powerUps"`
}

// buildSnapshot copies the store into a fresh Snapshot.
func (w *World) buildSnapshot(now time.Time) *Snapshot {
	players := w.store.Players()
	projectiles := w.store.Projectiles()
	powerUps := w.store.PowerUps()

	snap := &Snapshot{
		Tick:        w.tick,
		ServerTime:  now.UnixMilli(),
		Mode:        w.mode,
		TeamScores:  w.teamScores,
		Players:     make(map[string]PlayerView, len(players)),
		Projectiles: make([]ProjectileView, len(projectiles)),
		PowerUps:    make([]PowerUpView, len(powerUps)),
	}

	for _, p := range players {
		snap.Players[p.ID] = p.View()
	}
	for i, pr := range projectiles {
		snap.Projectiles[i] = pr.View()
	}
	for i := range powerUps {
		snap.PowerUps[i] = powerUps[i].View()
	}

	return snap
}
