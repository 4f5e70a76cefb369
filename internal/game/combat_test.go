package game

import (
	"testing"
	"time"
)

// TestLaserHitEndToEnd fires a laser at a player 50 units away. One 0.3s tick
// sweeps 60 units, so the projectile must hit and be consumed.
func TestLaserHitEndToEnd(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{})
	mustJoin(t, w, "b", TeamNone, Vec3{Z: 50})

	w.Shoot("a", WeaponLaser, Vec3{Z: 1})
	if n := len(w.store.Projectiles()); n != 1 {
		t.Fatalf("projectiles after Shoot = %d, want 1", n)
	}

	res := w.Step(0.3)

	if len(res.Hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(res.Hits))
	}
	hit := res.Hits[0]
	if hit.TargetID != "b" || hit.AttackerID != "a" || hit.Damage != 15 || hit.NewHealth != 85 {
		t.Errorf("hit = %+v", hit)
	}
	if b := w.store.Player("b"); b.Health != 85 {
		t.Errorf("b health = %d, want 85", b.Health)
	}
	if n := len(w.store.Projectiles()); n != 0 {
		t.Errorf("projectiles after hit = %d, want 0", n)
	}
	if len(res.Snapshot.Projectiles) != 0 {
		t.Error("snapshot still lists the consumed projectile")
	}
}

// TestFastProjectileDoesNotTunnel checks a target far inside one tick's sweep
// is still hit.
func TestFastProjectileDoesNotTunnel(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{})
	mustJoin(t, w, "b", TeamNone, Vec3{Z: 10})

	w.Shoot("a", WeaponMissile, Vec3{Z: 1})
	res := w.Step(1) // sweeps 100 units past a 5 unit target

	if len(res.Hits) != 1 || res.Hits[0].TargetID != "b" {
		t.Fatalf("hits = %+v, want one on b", res.Hits)
	}
}

func TestClosestTargetWins(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{})
	mustJoin(t, w, "near", TeamNone, Vec3{Z: 40})
	mustJoin(t, w, "far", TeamNone, Vec3{Z: 50})

	w.Shoot("a", WeaponLaser, Vec3{Z: 1})
	res := w.Step(0.3)

	if len(res.Hits) != 1 || res.Hits[0].TargetID != "near" {
		t.Fatalf("hits = %+v, want one on near", res.Hits)
	}
	if w.store.Player("far").Health != 100 {
		t.Error("projectile hit more than one target")
	}
}

// TestEqualDistanceTieBreak verifies the smaller id wins regardless of the
// order players joined.
func TestEqualDistanceTieBreak(t *testing.T) {
	for _, order := range [][]string{{"b", "c"}, {"c", "b"}} {
		w, _ := newTestWorld(t, testSim())
		mustJoin(t, w, "a", TeamNone, Vec3{})
		for _, id := range order {
			mustJoin(t, w, id, TeamNone, Vec3{Z: 50})
		}

		w.Shoot("a", WeaponLaser, Vec3{Z: 1})
		res := w.Step(0.3)

		if len(res.Hits) != 1 || res.Hits[0].TargetID != "b" {
			t.Errorf("join order %v: hits = %+v, want one on b", order, res.Hits)
		}
	}
}

func TestNoSelfDamage(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{})

	w.Shoot("a", WeaponLaser, Vec3{Z: 1})
	res := w.Step(0.01)

	if len(res.Hits) != 0 {
		t.Errorf("shooter hit itself: %+v", res.Hits)
	}
	if len(w.store.Projectiles()) != 1 {
		t.Error("projectile should still be in flight")
	}
}

func TestFriendlyFireOnlyInTeamMode(t *testing.T) {
	tests := []struct {
		mode     string
		wantHits int
	}{
		{"team", 0},
		{"ffa", 1},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			w, _ := newTestWorld(t, testSim())
			if err := w.SetMode("team"); err != nil {
				t.Fatal(err)
			}
			mustJoin(t, w, "a", TeamRed, Vec3{})
			mustJoin(t, w, "b", TeamRed, Vec3{Z: 50})
			if err := w.SetMode(tt.mode); err != nil {
				t.Fatal(err)
			}

			w.Shoot("a", WeaponLaser, Vec3{Z: 1})
			res := w.Step(0.3)

			if len(res.Hits) != tt.wantHits {
				t.Errorf("hits = %d, want %d", len(res.Hits), tt.wantHits)
			}
		})
	}
}

func TestDeadPlayersAreNotHit(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{})
	b := mustJoin(t, w, "b", TeamNone, Vec3{Z: 50})
	b.Health = 0
	b.IsAlive = false

	w.Shoot("a", WeaponLaser, Vec3{Z: 1})
	if res := w.Step(0.3); len(res.Hits) != 0 {
		t.Errorf("dead player was hit: %+v", res.Hits)
	}
}

// TestKillBookkeeping verifies victim, killer and team score updates.
func TestKillBookkeeping(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	if err := w.SetMode("team"); err != nil {
		t.Fatal(err)
	}
	a := mustJoin(t, w, "a", TeamRed, Vec3{})
	b := mustJoin(t, w, "b", TeamBlue, Vec3{Z: 50})
	b.Health = 10

	w.Shoot("a", WeaponLaser, Vec3{Z: 1})
	res := w.Step(0.3)

	if len(res.Kills) != 1 {
		t.Fatalf("kills = %d, want 1", len(res.Kills))
	}
	kill := res.Kills[0]
	if kill.VictimID != "b" || kill.KillerID != "a" || kill.KillerName != "a" || kill.VictimName != "b" {
		t.Errorf("kill = %+v", kill)
	}
	if kill.Weapon != WeaponLaser {
		t.Errorf("weapon = %v, want laser", kill.Weapon)
	}

	if b.IsAlive || b.Health != 0 || b.Deaths != 1 {
		t.Errorf("victim alive=%v health=%d deaths=%d", b.IsAlive, b.Health, b.Deaths)
	}
	if a.Kills != 1 || a.Score != 100 {
		t.Errorf("killer kills=%d score=%d", a.Kills, a.Score)
	}
	if res.Snapshot.TeamScores != (TeamScores{Red: 1}) {
		t.Errorf("team scores = %+v, want red 1", res.Snapshot.TeamScores)
	}

	top := w.Leaderboard(1)
	if len(top) != 1 || top[0].PlayerID != "a" || top[0].Score != 100 || top[0].Kills != 1 {
		t.Errorf("leaderboard top = %+v", top)
	}
}

func TestKillInFFADoesNotCreditTeams(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{})
	b := mustJoin(t, w, "b", TeamNone, Vec3{Z: 50})
	b.Health = 1

	w.Shoot("a", WeaponLaser, Vec3{Z: 1})
	res := w.Step(0.3)

	if len(res.Kills) != 1 {
		t.Fatalf("kills = %d, want 1", len(res.Kills))
	}
	if res.Snapshot.TeamScores != (TeamScores{}) {
		t.Errorf("team scores = %+v in ffa", res.Snapshot.TeamScores)
	}
}

// TestHitWithoutOwner applies damage from a projectile whose shooter is gone
// and credits nobody.
func TestHitWithoutOwner(t *testing.T) {
	w, clock := newTestWorld(t, testSim())
	b := mustJoin(t, w, "b", TeamNone, Vec3{Z: 50})
	b.Health = 5

	w.store.AddProjectile(&Projectile{
		ID:        "orphan",
		OwnerID:   "ghost",
		Type:      WeaponPlasma,
		Position:  Vec3{},
		Velocity:  Vec3{Z: 150},
		Damage:    25,
		CreatedAt: clock.Now(),
	})
	res := w.Step(0.5)

	if len(res.Hits) != 1 || res.Hits[0].AttackerID != "ghost" {
		t.Fatalf("hits = %+v", res.Hits)
	}
	if len(res.Kills) != 1 || res.Kills[0].KillerName != "" {
		t.Fatalf("kills = %+v", res.Kills)
	}
	if b.Deaths != 1 {
		t.Errorf("deaths = %d, want 1", b.Deaths)
	}
	if w.leaderboard.GetRank("ghost") != 0 {
		t.Error("missing owner was ranked")
	}
}

// TestOrphanShotKeepsOwnerTeam verifies a shot whose owner is gone still
// passes through the owner's teammates in team mode.
func TestOrphanShotKeepsOwnerTeam(t *testing.T) {
	w, clock := newTestWorld(t, testSim())
	if err := w.SetMode("team"); err != nil {
		t.Fatal(err)
	}
	mustJoin(t, w, "mate", TeamRed, Vec3{Z: 20})
	mustJoin(t, w, "rival", TeamBlue, Vec3{Z: 40})

	w.store.AddProjectile(&Projectile{
		ID:        "orphan",
		OwnerID:   "ghost",
		OwnerTeam: TeamRed,
		Type:      WeaponLaser,
		Velocity:  Vec3{Z: 200},
		Damage:    15,
		CreatedAt: clock.Now(),
	})
	res := w.Step(0.3)

	if len(res.Hits) != 1 || res.Hits[0].TargetID != "rival" {
		t.Errorf("hits = %+v, want only rival", res.Hits)
	}
}

// TestShotCarriesShooterTeam verifies Shoot records the shooter's team.
func TestShotCarriesShooterTeam(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	if err := w.SetMode("team"); err != nil {
		t.Fatal(err)
	}
	mustJoin(t, w, "a", TeamBlue, Vec3{})

	w.Shoot("a", WeaponLaser, Vec3{X: 1})
	prs := w.store.Projectiles()
	if len(prs) != 1 || prs[0].OwnerTeam != TeamBlue {
		t.Errorf("projectiles = %+v, want one blue shot", prs)
	}
}

func TestProjectileExpires(t *testing.T) {
	w, clock := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{})

	w.Shoot("a", WeaponMissile, Vec3{X: 1})
	w.Step(0.01)
	if len(w.store.Projectiles()) != 1 {
		t.Fatal("projectile removed too early")
	}

	clock.Advance(3 * time.Second)
	w.Step(0.01)
	if len(w.store.Projectiles()) != 1 {
		t.Fatal("projectile removed at exactly its TTL")
	}

	clock.Advance(time.Millisecond)
	w.Step(0.01)
	if n := len(w.store.Projectiles()); n != 0 {
		t.Errorf("projectiles after TTL = %d, want 0", n)
	}
}

func TestProjectileLeavesWorld(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{Z: 495})

	w.Shoot("a", WeaponLaser, Vec3{Z: 1})
	w.Step(0.1) // swept end at z = 515

	if n := len(w.store.Projectiles()); n != 0 {
		t.Errorf("projectiles after leaving world = %d, want 0", n)
	}
}

func TestProjectileAdvances(t *testing.T) {
	w, _ := newTestWorld(t, testSim())
	mustJoin(t, w, "a", TeamNone, Vec3{})

	w.Shoot("a", WeaponLaser, Vec3{X: 1})
	w.Step(0.5)

	prs := w.store.Projectiles()
	if len(prs) != 1 {
		t.Fatalf("projectiles = %d, want 1", len(prs))
	}
	if !vecApprox(prs[0].Position, Vec3{X: 100}) {
		t.Errorf("position = %v, want (100, 0, 0)", prs[0].Position)
	}
}
