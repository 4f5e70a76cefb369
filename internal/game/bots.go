package game

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// BotMode selects how practice bots behave.
type BotMode string

const (
	BotAggressive BotMode = "aggressive"
	BotPassive    BotMode = "passive"
)

// ParseBotMode accepts "passive" (any case); everything else is aggressive.
func ParseBotMode(s string) BotMode {
	if strings.EqualFold(strings.TrimSpace(s), string(BotPassive)) {
		return BotPassive
	}
	return BotAggressive
}

// BotState is the controller's private record for one bot player.
type BotState struct {
	ID                  string
	TargetID            string
	LastShootTime       time.Time
	MoveDirection       Vec3
	ChangeDirectionTime time.Time
	RespawnTime         time.Time // zero when no respawn is pending
	Mode                BotMode
}

// spawnBots adds count bots, capped by the remaining player capacity.
func (w *World) spawnBots(count int, mode BotMode) int {
	added := 0
	for i := 0; i < count; i++ {
		if w.store.PlayerCount() >= w.limits.MaxPlayers {
			break
		}
		team := TeamNone
		if w.mode == ModeTeam {
			team = smallerTeam(w.store.Players())
		}

		// Skip ids a human already joined with.
		var p *Player
		for ok := false; !ok; {
			w.botSeq++
			p, ok = w.store.AddPlayer(fmt.Sprintf("bot-%d", w.botSeq), fmt.Sprintf("Bot %d", w.botSeq), team)
		}
		id := p.ID
		p.IsBot = true
		w.store.AddBot(&BotState{ID: id, Mode: mode})
		w.leaderboard.UpdateScore(id, 0)
		w.queueMembership(EventJoined, id, JoinedEvent{Player: p.View()})
		added++
	}

	w.logger.Info("practice bots spawned", "count", added, "mode", mode)
	return added
}

// updateBots runs one controller step for every bot.
//
// Only the lowest-ordinal living bot may attack; the others hold position
// facing their nearest target. Passive bots only wander.
func (w *World) updateBots(now time.Time, players []*Player) {
	attackerChosen := false

	for _, b := range w.store.Bots() {
		p := w.store.Player(b.ID)
		if p == nil {
			continue
		}
		w.guard("bot", b.ID, func() {
			if !p.IsAlive {
				w.botDead(b, p, now)
				return
			}

			target, dist := w.nearestTarget(p, players)
			b.TargetID = ""
			if target != nil {
				b.TargetID = target.ID
			}

			if b.Mode == BotPassive {
				w.botWander(b, p, now)
				return
			}

			if attackerChosen {
				w.botHold(p, target)
				return
			}
			attackerChosen = true

			if target != nil && dist <= w.bots.EngageRadius {
				w.botEngage(b, p, target, dist, now)
				return
			}
			w.botWander(b, p, now)
		})
	}
}

// botDead arms the respawn deadline the first time death is observed and
// revives the bot once it passes.
func (w *World) botDead(b *BotState, p *Player, now time.Time) {
	if b.RespawnTime.IsZero() {
		b.RespawnTime = now.Add(w.bots.RespawnDelay)
		return
	}
	if now.Before(b.RespawnTime) {
		return
	}

	w.respawnPlayer(p)
	b.RespawnTime = time.Time{}
	b.ChangeDirectionTime = time.Time{}
}

// nearestTarget returns the closest living human that is not on p's team.
func (w *World) nearestTarget(p *Player, players []*Player) (*Player, float64) {
	var best *Player
	bestDistSq := math.Inf(1)

	for _, o := range players {
		if o.IsBot || !o.IsAlive || o.ID == p.ID {
			continue
		}
		if w.mode == ModeTeam && p.Team != TeamNone && o.Team == p.Team {
			continue
		}
		if d := p.Position.DistanceSq(o.Position); d < bestDistSq {
			best, bestDistSq = o, d
		}
	}

	if best == nil {
		return nil, 0
	}
	return best, math.Sqrt(bestDistSq)
}

func (w *World) botWander(b *BotState, p *Player, now time.Time) {
	if b.MoveDirection == (Vec3{}) || !now.Before(b.ChangeDirectionTime) {
		heading := w.rng.Float64() * 2 * math.Pi
		pitch := (w.rng.Float64()*2 - 1) * w.bots.MaxWanderTilt
		b.MoveDirection = Vec3{
			X: math.Sin(heading) * math.Cos(pitch),
			Y: math.Sin(pitch),
			Z: math.Cos(heading) * math.Cos(pitch),
		}

		span := w.bots.WanderMax - w.bots.WanderMin
		wait := w.bots.WanderMin
		if span > 0 {
			wait += time.Duration(w.rng.Int63n(int64(span)))
		}
		b.ChangeDirectionTime = now.Add(wait)
	}

	p.Velocity = b.MoveDirection.Scale(w.bots.Speed)
	p.Rotation = QuatFromEuler(0, headingYaw(b.MoveDirection), 0)
}

func (w *World) botEngage(b *BotState, p, target *Player, dist float64, now time.Time) {
	dir, ok := target.Position.Sub(p.Position).Normalize()
	if !ok {
		p.Velocity = Vec3{}
		return
	}

	p.Velocity = dir.Scale(w.bots.Speed)
	p.Rotation = QuatFromEuler(0, yawToward(p.Position, target.Position), 0)

	if dist > w.bots.FireRadius {
		return
	}
	if !b.LastShootTime.IsZero() && now.Sub(b.LastShootTime) < w.bots.FireCooldown {
		return
	}

	w.spawnProjectile(p, w.botWeapon, dir, now)
	b.LastShootTime = now
}

// botHold parks an idle bot, turned toward target when there is one.
func (w *World) botHold(p, target *Player) {
	p.Velocity = Vec3{}
	if target != nil {
		p.Rotation = QuatFromEuler(0, yawToward(p.Position, target.Position), 0)
	}
}
