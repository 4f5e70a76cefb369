package game

import (
	"math/rand"
	"sort"

	"skyarena/internal/config"
)

// Store owns every entity record of the world in flat, id-keyed tables.
// Relations are id fields only (Projectile.OwnerID, BotState.ID).
//
// Store is not safe for concurrent use; World serializes access.
type Store struct {
	players map[string]*Player
	sorted  []*Player // id-ordered view of players, rebuilt lazily
	dirty   bool

	projectiles []*Projectile
	powerUps    []PowerUp

	bots     map[string]*BotState
	botOrder []string // creation order; lowest ordinal first

	maxHealth  int
	freeSpawns []Vec3
	redSpawns  []Vec3
	blueSpawns []Vec3
	rng        *rand.Rand
}

// NewStore creates an empty store with the configured spawn pools.
func NewStore(cfg *config.SimConfig, rng *rand.Rand, powerUps []PowerUp) *Store {
	return &Store{
		players:     make(map[string]*Player),
		projectiles: make([]*Projectile, 0, 256),
		powerUps:    powerUps,
		bots:        make(map[string]*BotState),
		maxHealth:   cfg.MaxHealth,
		freeSpawns:  toVecs(cfg.SpawnPoints),
		redSpawns:   toVecs(cfg.RedSpawnPoints),
		blueSpawns:  toVecs(cfg.BlueSpawnPoints),
		rng:         rng,
	}
}

func toVecs(in []config.Vec) []Vec3 {
	out := make([]Vec3, len(in))
	for i, v := range in {
		out[i] = Vec3{X: v.X, Y: v.Y, Z: v.Z}
	}
	return out
}

// =============================================================================
// PLAYERS
// =============================================================================

// AddPlayer creates a living player at a spawn point for team and stores it.
// When id is taken the existing record is returned untouched with false.
func (s *Store) AddPlayer(id, name string, team Team) (*Player, bool) {
	if existing, ok := s.players[id]; ok {
		return existing, false
	}

	p := &Player{
		ID:        id,
		Name:      name,
		Team:      team,
		MaxHealth: s.maxHealth,
	}
	p.revive(s.SpawnPoint(team))

	s.players[id] = p
	s.dirty = true
	return p, true
}

// RemovePlayer deletes the player together with every projectile it owns and
// its bot state. It reports whether the player existed.
func (s *Store) RemovePlayer(id string) bool {
	if _, ok := s.players[id]; !ok {
		return false
	}
	delete(s.players, id)
	s.dirty = true

	s.RemoveProjectiles(func(pr *Projectile) bool { return pr.OwnerID == id })

	if _, ok := s.bots[id]; ok {
		delete(s.bots, id)
		n := 0
		for _, b := range s.botOrder {
			if b != id {
				s.botOrder[n] = b
				n++
			}
		}
		s.botOrder = s.botOrder[:n]
	}
	return true
}

// Player returns the player with id, or nil.
func (s *Store) Player(id string) *Player {
	return s.players[id]
}

// Players returns every player in ascending id order.
// The slice is shared; callers must not modify it.
func (s *Store) Players() []*Player {
	if s.dirty {
		s.sorted = s.sorted[:0]
		for _, p := range s.players {
			s.sorted = append(s.sorted, p)
		}
		sort.Slice(s.sorted, func(i, j int) bool { return s.sorted[i].ID < s.sorted[j].ID })
		s.dirty = false
	}
	return s.sorted
}

// PlayerCount returns the number of players, bots included.
func (s *Store) PlayerCount() int { return len(s.players) }

// SpawnPoint picks a uniformly random point from the pool for team.
// TeamNone uses the free-flight pool.
func (s *Store) SpawnPoint(team Team) Vec3 {
	pool := s.freeSpawns
	switch team {
	case TeamRed:
		pool = s.redSpawns
	case TeamBlue:
		pool = s.blueSpawns
	}
	if len(pool) == 0 {
		pool = s.freeSpawns
	}
	if len(pool) == 0 {
		return Vec3{}
	}
	return pool[s.rng.Intn(len(pool))]
}

// =============================================================================
// PROJECTILES
// =============================================================================

// AddProjectile stores a new projectile.
func (s *Store) AddProjectile(pr *Projectile) {
	s.projectiles = append(s.projectiles, pr)
}

// RemoveProjectiles deletes every projectile matching pred and returns how
// many were removed. Order of the survivors is preserved.
func (s *Store) RemoveProjectiles(pred func(*Projectile) bool) int {
	n := 0
	for _, pr := range s.projectiles {
		if !pred(pr) {
			s.projectiles[n] = pr
			n++
		}
	}
	removed := len(s.projectiles) - n
	clear(s.projectiles[n:])
	s.projectiles = s.projectiles[:n]
	return removed
}

// Projectiles returns the live projectiles in creation order.
func (s *Store) Projectiles() []*Projectile { return s.projectiles }

// =============================================================================
// POWER-UPS AND BOTS
// =============================================================================

// PowerUps returns the fixed power-up list. Elements are mutated in place.
func (s *Store) PowerUps() []PowerUp { return s.powerUps }

// AddBot registers bot metadata for an existing player.
func (s *Store) AddBot(b *BotState) {
	if _, ok := s.bots[b.ID]; !ok {
		s.botOrder = append(s.botOrder, b.ID)
	}
	s.bots[b.ID] = b
}

// Bot returns the bot state for id, or nil.
func (s *Store) Bot(id string) *BotState { return s.bots[id] }

// Bots returns bot states in creation order.
func (s *Store) Bots() []*BotState {
	out := make([]*BotState, 0, len(s.botOrder))
	for _, id := range s.botOrder {
		out = append(out, s.bots[id])
	}
	return out
}

// BotCount returns the number of bots.
func (s *Store) BotCount() int { return len(s.bots) }
