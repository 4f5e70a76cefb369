package game

import (
	"time"

	"skyarena/internal/metrics"
)

// resolveCombat advances every projectile along its swept segment for this
// tick and applies at most one hit per projectile.
//
// For each projectile the first player reached along the segment wins: the
// smallest projection t, ties broken by the smaller player id. A projectile
// that hits nothing is removed once it outlives its TTL or its swept end
// leaves the world; otherwise it moves to the swept end.
func (w *World) resolveCombat(now time.Time, dt float64, players []*Player) ([]HitEvent, []KillEvent) {
	var hits []HitEvent
	var kills []KillEvent

	w.broad.Rebuild(players)

	half := w.cfg.WorldSize / 2
	hitRadiusSq := w.cfg.HitRadius * w.cfg.HitRadius

	// In-place filter: survivors are compacted to the front
	projectiles := w.store.projectiles
	n := 0
	for _, pr := range projectiles {
		keep := false
		w.guard("projectile", pr.ID, func() {
			start := pr.Position
			delta := pr.Velocity.Scale(dt)
			moveDist := delta.Length()
			end := start.Add(delta)

			var rayDir Vec3
			if moveDist > 0 {
				rayDir = delta.Scale(1 / moveDist)
			}

			owner := w.store.Player(pr.OwnerID)
			ownerTeam := TeamNone
			if w.mode == ModeTeam {
				ownerTeam = pr.OwnerTeam
				if owner != nil {
					ownerTeam = owner.Team
				}
			}

			var target *Player
			bestT := 0.0
			for _, c := range w.broad.Candidates(start, end, w.cfg.HitRadius) {
				if !c.IsAlive || c.ID == pr.OwnerID {
					continue
				}
				if ownerTeam != TeamNone && c.Team == ownerTeam {
					continue
				}

				t, distSq := closestOnSegment(start, rayDir, moveDist, c.Position)
				if distSq >= hitRadiusSq {
					continue
				}
				if target == nil || t < bestT || (t == bestT && c.ID < target.ID) {
					target = c
					bestT = t
				}
			}

			if target != nil {
				hit, kill := w.applyHit(pr, owner, target, now)
				hits = append(hits, hit)
				if kill != nil {
					kills = append(kills, *kill)
				}
				return
			}

			if pr.expired(now, w.cfg.ProjectileTTL) || outOfWorld(end, half) {
				return
			}

			pr.Position = end
			keep = true
		})

		if keep {
			projectiles[n] = pr
			n++
		}
	}
	clear(projectiles[n:])
	w.store.projectiles = projectiles[:n]

	return hits, kills
}

// applyHit damages target with pr. owner may be nil when the shooter is gone,
// in which case nobody is credited with a kill.
func (w *World) applyHit(pr *Projectile, owner, target *Player, now time.Time) (HitEvent, *KillEvent) {
	killed := target.TakeDamage(pr.Damage)

	hit := HitEvent{
		TargetID:   target.ID,
		AttackerID: pr.OwnerID,
		Damage:     pr.Damage,
		NewHealth:  target.Health,
	}
	metrics.RecordHit(pr.Type.String())

	if !killed {
		return hit, nil
	}

	target.Deaths++
	kill := &KillEvent{
		VictimID:   target.ID,
		KillerID:   pr.OwnerID,
		VictimName: target.Name,
		Weapon:     pr.Type,
		Position:   target.Position,
	}

	if owner != nil {
		owner.Kills++
		owner.Score += w.cfg.KillScore
		kill.KillerName = owner.Name
		if w.mode == ModeTeam {
			w.teamScores.credit(owner.Team)
		}
		w.leaderboard.UpdateScore(owner.ID, float64(owner.Score))
	}

	if bot := w.store.Bot(target.ID); bot != nil {
		bot.RespawnTime = now.Add(w.bots.RespawnDelay)
	}

	metrics.RecordKill(pr.Type.String())
	return hit, kill
}
