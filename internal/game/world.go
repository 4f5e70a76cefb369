package game

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"skyarena/internal/config"
	"skyarena/internal/metrics"
)

// World is the authoritative simulation. Every exported method takes the
// world lock, so network handlers and the tick never interleave: an input
// applied between two ticks is visible to the next one.
type World struct {
	mu sync.Mutex

	cfg    config.SimConfig
	bots   config.BotConfig
	limits config.ResourceLimits

	clock  Clock
	rng    *rand.Rand
	logger *log.Logger

	store     *Store
	broad     BroadPhase
	weapons   weaponTable
	botWeapon WeaponType

	mode       GameMode
	teamScores TeamScores
	practice   bool
	botSeq     int

	tick      uint64
	startedAt time.Time

	// Membership events raised between ticks, flushed by the next Step
	outbox []Event

	leaderboard *Leaderboard
	latest      atomic.Pointer[Snapshot]
}

// Option customizes a World.
type Option func(*World)

// WithClock replaces the system clock.
func WithClock(c Clock) Option { return func(w *World) { w.clock = c } }

// WithRand sets the random source used for spawns and bot wandering.
func WithRand(r *rand.Rand) Option { return func(w *World) { w.rng = r } }

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) Option { return func(w *World) { w.logger = l } }

// WithBots sets the practice-mode bot configuration.
func WithBots(cfg config.BotConfig) Option { return func(w *World) { w.bots = cfg } }

// WithLimits sets the player and projectile caps.
func WithLimits(l config.ResourceLimits) Option { return func(w *World) { w.limits = l } }

// WithBroadPhase replaces the broad phase picked from the config.
func WithBroadPhase(b BroadPhase) Option { return func(w *World) { w.broad = b } }

// NewWorld creates an empty ffa world with its power-ups in place.
func NewWorld(cfg config.SimConfig, opts ...Option) *World {
	w := &World{
		cfg:         cfg,
		bots:        config.DefaultBots(),
		limits:      config.DefaultLimits(),
		clock:       SystemClock{},
		logger:      log.Default().WithPrefix("world"),
		weapons:     newWeaponTable(cfg.Weapons),
		mode:        ModeFFA,
		leaderboard: NewLeaderboard(),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.rng == nil {
		w.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if w.broad == nil {
		switch strings.ToLower(cfg.BroadPhase) {
		case "grid":
			w.broad = NewGridBroadPhase(cfg.WorldSize, cfg.GridCellSize, w.limits.MaxPlayers)
		case "sweep":
			w.broad = NewSweepBroadPhase(w.limits.MaxPlayers)
		default:
			w.broad = NewBruteForce()
		}
	}

	botWeapon, err := ParseWeaponType(w.bots.Weapon)
	if err != nil {
		w.logger.Warn("bot weapon not recognised, using laser", "weapon", w.bots.Weapon)
		botWeapon = WeaponLaser
	}
	w.botWeapon = botWeapon

	powerUps, errs := newPowerUps(cfg.PowerUps)
	for _, err := range errs {
		w.logger.Warn("skipping power-up placement", "err", err)
	}

	w.store = NewStore(&w.cfg, w.rng, powerUps)
	w.startedAt = w.clock.Now()
	return w
}

// =============================================================================
// INBOUND OPERATIONS
// =============================================================================

// JoinRequest describes a player entering the world.
type JoinRequest struct {
	ID          string // optional; a uuid is generated when empty
	Name        string
	Team        Team    // honoured in team mode only
	Mode        string  // "practice" turns on bots
	BotBehavior BotMode // aggressive unless passive
}

// Join adds a human player. In team mode the requested team is used when
// given, otherwise the smaller team.
func (w *World) Join(req JoinRequest) (PlayerView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.store.PlayerCount() >= w.limits.MaxPlayers {
		return PlayerView{}, fmt.Errorf("join %q: %w", req.Name, ErrWorldFull)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Pilot-" + id[:min(4, len(id))]
	}

	team := TeamNone
	if w.mode == ModeTeam {
		team = req.Team
		if team == TeamNone {
			team = smallerTeam(w.store.Players())
		}
	}

	p, ok := w.store.AddPlayer(id, name, team)
	if !ok {
		return PlayerView{}, fmt.Errorf("join %q: %w", id, ErrDuplicatePlayer)
	}
	p.LastUpdateTime = w.clock.Now()
	view := p.View()

	w.leaderboard.UpdateScore(id, 0)
	w.queueMembership(EventJoined, id, JoinedEvent{Player: view})
	w.logger.Info("player joined", "id", id, "name", name, "team", team)

	if strings.EqualFold(req.Mode, "practice") && !w.practice {
		w.practice = true
		w.spawnBots(w.bots.Count, req.BotBehavior)
	}

	return view, nil
}

// Input is one frame of player controls. Axes are in [-1, 1].
type Input struct {
	Forward   float64
	Strafe    float64
	Vertical  float64
	Pitch     float64
	Yaw       float64
	Roll      float64
	Boost     bool
	Timestamp int64
}

// ApplyInput rotates the player incrementally and sets its velocity from the
// control axes in the ship's local frame. Dead or unknown players are ignored.
func (w *World) ApplyInput(id string, in Input) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.store.Player(id)
	if p == nil || !p.IsAlive {
		return
	}

	k := w.cfg.RotationStep
	delta := QuatFromEuler(finite(in.Pitch)*k, finite(in.Yaw)*k, finite(in.Roll)*k)
	p.Rotation = p.Rotation.Mul(delta).Normalize()

	speed := w.cfg.PlayerSpeed
	if in.Boost {
		speed *= w.cfg.BoostMultiplier
	}
	local := Vec3{X: finite(in.Strafe), Y: finite(in.Vertical), Z: -finite(in.Forward)}
	p.Velocity = p.Rotation.Rotate(local).Scale(speed)
	p.LastUpdateTime = w.clock.Now()
}

// Shoot fires weapon t from the player's position along direction.
// Unknown or dead players, a zero direction and a weapon still on cooldown
// are all ignored.
func (w *World) Shoot(id string, t WeaponType, direction Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.store.Player(id)
	if p == nil || !p.IsAlive || !t.Valid() {
		return
	}
	dir, ok := direction.Normalize()
	if !ok {
		return
	}

	now := w.clock.Now()
	if !p.canFire(t, w.weapons[t].Cooldown, now) {
		return
	}
	if w.spawnProjectile(p, t, dir, now) {
		p.lastShot[t] = now
	}
}

// spawnProjectile is the single path for player and bot shots.
// dir must be a unit vector.
func (w *World) spawnProjectile(p *Player, t WeaponType, dir Vec3, now time.Time) bool {
	if len(w.store.projectiles) >= w.limits.MaxProjectiles {
		metrics.RecordProjectileDropped()
		return false
	}

	spec := w.weapons[t]
	w.store.AddProjectile(&Projectile{
		ID:        uuid.NewString(),
		OwnerID:   p.ID,
		OwnerTeam: p.Team,
		Type:      t,
		Position:  p.Position,
		Velocity:  dir.Scale(spec.Speed),
		Damage:    spec.Damage,
		CreatedAt: now,
	})
	return true
}

// Respawn revives a dead player at a fresh spawn point.
func (w *World) Respawn(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.store.Player(id)
	if p == nil || p.IsAlive {
		return
	}
	w.respawnPlayer(p)
	w.queueMembership(EventRespawned, id, RespawnedEvent{Player: p.View()})
}

// respawnPlayer is shared by manual and bot respawns.
func (w *World) respawnPlayer(p *Player) {
	p.revive(w.store.SpawnPoint(p.Team))
}

// Disconnect removes the player, its projectiles and any bot state at once.
func (w *World) Disconnect(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.store.RemovePlayer(id) {
		return
	}
	w.leaderboard.RemovePlayer(id)
	w.queueMembership(EventLeft, id, LeftEvent{PlayerID: id})
	w.logger.Info("player left", "id", id)
}

// SetMode switches between ffa and team. Any other value is rejected with
// ErrInvalidMode and nothing changes. A real change resets team scores and
// either rebalances or clears teams.
func (w *World) SetMode(s string) error {
	mode, err := ParseGameMode(s)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if mode == w.mode {
		return nil
	}

	w.mode = mode
	w.teamScores = TeamScores{}
	if mode == ModeTeam {
		balanceTeams(w.store.Players())
	} else {
		clearTeams(w.store.Players())
	}

	w.logger.Info("game mode changed", "mode", mode)
	return nil
}

// Mode returns the current game mode.
func (w *World) Mode() GameMode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// Player returns a copy of one player.
func (w *World) Player(id string) (PlayerView, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := w.store.Player(id)
	if p == nil {
		return PlayerView{}, false
	}
	return p.View(), true
}

// Status summarizes the world for the control plane.
type Status struct {
	Players       int      `json:"players"`
	Bots          int      `json:"bots"`
	Projectiles   int      `json:"projectiles"`
	Mode          GameMode `json:"mode"`
	Practice      bool     `json:"practice"`
	Tick          uint64   `json:"tick"`
	UptimeSeconds float64  `json:"uptimeSeconds"`
}

// Status returns the current world summary.
func (w *World) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Status{
		Players:       w.store.PlayerCount(),
		Bots:          w.store.BotCount(),
		Projectiles:   len(w.store.projectiles),
		Mode:          w.mode,
		Practice:      w.practice,
		Tick:          w.tick,
		UptimeSeconds: w.clock.Now().Sub(w.startedAt).Seconds(),
	}
}

// Leaderboard returns the top n players by score.
func (w *World) Leaderboard(n int) []LeaderboardEntry {
	w.mu.Lock()
	defer w.mu.Unlock()

	top := w.leaderboard.GetTop(n)
	for i := range top {
		if p := w.store.Player(top[i].PlayerID); p != nil {
			top[i].Name = p.Name
			top[i].Kills = p.Kills
			top[i].Deaths = p.Deaths
			top[i].IsBot = p.IsBot
		}
	}
	return top
}

// Latest returns the snapshot of the most recent tick without taking the
// world lock. Before the first tick it builds one on demand.
func (w *World) Latest() *Snapshot {
	if s := w.latest.Load(); s != nil {
		return s
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buildSnapshot(w.clock.Now())
}

func (w *World) queueMembership(t EventType, playerID string, data any) {
	w.outbox = append(w.outbox, Event{Type: t, PlayerID: playerID, Data: data})
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// =============================================================================
// TICK
// =============================================================================

// TickResult is everything one tick produced.
type TickResult struct {
	Tick       uint64
	Membership []Event
	Hits       []HitEvent
	Kills      []KillEvent
	Pickups    []PickupEvent
	Snapshot   *Snapshot
}

// Events flattens the result into publish order: membership, hits, kills,
// pickups, then the state snapshot.
func (r TickResult) Events() []Event {
	events := make([]Event, 0, len(r.Membership)+len(r.Hits)+len(r.Kills)+len(r.Pickups)+1)
	events = append(events, r.Membership...)
	for _, h := range r.Hits {
		events = append(events, Event{Type: EventHit, Tick: r.Tick, PlayerID: h.TargetID, Data: h})
	}
	for _, k := range r.Kills {
		events = append(events, Event{Type: EventKilled, Tick: r.Tick, PlayerID: k.VictimID, Data: k})
	}
	for _, p := range r.Pickups {
		events = append(events, Event{Type: EventPowerUpCollected, Tick: r.Tick, PlayerID: p.PlayerID, Data: p})
	}
	if r.Snapshot != nil {
		events = append(events, Event{Type: EventState, Tick: r.Tick, Data: r.Snapshot})
	}
	return events
}

// Step advances the world by dt seconds in fixed order:
// bots, movement, combat, power-ups, snapshot.
func (w *World) Step(dt float64) TickResult {
	started := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.tick++
	now := w.clock.Now()

	res := TickResult{Tick: w.tick, Membership: w.outbox}
	w.outbox = nil
	for i := range res.Membership {
		res.Membership[i].Tick = w.tick
	}

	players := w.store.Players()

	if w.practice {
		w.updateBots(now, players)
	}
	w.integrate(players, dt)
	res.Hits, res.Kills = w.resolveCombat(now, dt, players)
	res.Pickups = w.updatePowerUps(now, players)

	res.Snapshot = w.buildSnapshot(now)
	w.latest.Store(res.Snapshot)

	for range res.Pickups {
		metrics.RecordPickup()
	}
	metrics.UpdateWorld(w.store.PlayerCount(), len(w.store.projectiles))
	metrics.RecordTick(time.Since(started))

	return res
}
