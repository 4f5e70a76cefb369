package game

import (
	"testing"
	"time"
)

// TestPlayerTakeDamage verifies the shield absorbs damage before health.
func TestPlayerTakeDamage(t *testing.T) {
	tests := []struct {
		name       string
		health     int
		shield     int
		damage     int
		wantHealth int
		wantShield int
		wantKilled bool
	}{
		{"no shield", 100, 0, 15, 85, 0, false},
		{"shield absorbs all", 100, 50, 40, 100, 10, false},
		{"shield absorbs part", 100, 10, 25, 85, 0, false},
		{"exact kill", 15, 0, 15, 0, 0, true},
		{"overkill clamps to zero", 10, 0, 40, 0, 0, true},
		{"zero damage ignored", 50, 5, 0, 50, 5, false},
		{"negative damage ignored", 50, 5, -10, 50, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Player{Health: tt.health, MaxHealth: 100, Shield: tt.shield, IsAlive: true}
			killed := p.TakeDamage(tt.damage)

			if killed != tt.wantKilled {
				t.Errorf("killed = %v, want %v", killed, tt.wantKilled)
			}
			if p.Health != tt.wantHealth {
				t.Errorf("health = %d, want %d", p.Health, tt.wantHealth)
			}
			if p.Shield != tt.wantShield {
				t.Errorf("shield = %d, want %d", p.Shield, tt.wantShield)
			}
			if p.IsAlive == tt.wantKilled {
				t.Errorf("IsAlive = %v after killed = %v", p.IsAlive, killed)
			}
		})
	}
}

func TestDeadPlayerTakesNoDamage(t *testing.T) {
	p := &Player{Health: 0, MaxHealth: 100}
	if p.TakeDamage(10) {
		t.Error("dead player reported a second kill")
	}
	if p.Health != 0 {
		t.Errorf("health = %d, want 0", p.Health)
	}
}

func TestHealAndShieldCaps(t *testing.T) {
	p := &Player{Health: 90, MaxHealth: 100, IsAlive: true}
	p.Heal(25)
	if p.Health != 100 {
		t.Errorf("health = %d, want capped at 100", p.Health)
	}

	p.AddShield(80, 100)
	p.AddShield(50, 100)
	if p.Shield != 100 {
		t.Errorf("shield = %d, want capped at 100", p.Shield)
	}
}

func TestReviveResetsState(t *testing.T) {
	p := &Player{
		MaxHealth: 100,
		Velocity:  Vec3{X: 5},
		Rotation:  QuatFromEuler(0.5, 0.5, 0),
		Shield:    30,
	}
	p.revive(Vec3{Z: 300})

	if !p.IsAlive || p.Health != 100 || p.Shield != 0 {
		t.Errorf("revive left alive=%v health=%d shield=%d", p.IsAlive, p.Health, p.Shield)
	}
	if p.Velocity != (Vec3{}) || p.Rotation != IdentityQuat {
		t.Errorf("revive left velocity=%v rotation=%v", p.Velocity, p.Rotation)
	}
	if p.Position != (Vec3{Z: 300}) {
		t.Errorf("position = %v, want spawn point", p.Position)
	}
}

func TestCanFireCooldown(t *testing.T) {
	p := &Player{}
	now := testEpoch

	if !p.canFire(WeaponLaser, 200*time.Millisecond, now) {
		t.Fatal("first shot should be allowed")
	}
	p.lastShot[WeaponLaser] = now

	if p.canFire(WeaponLaser, 200*time.Millisecond, now.Add(199*time.Millisecond)) {
		t.Error("shot inside cooldown allowed")
	}
	if !p.canFire(WeaponLaser, 200*time.Millisecond, now.Add(200*time.Millisecond)) {
		t.Error("shot at cooldown boundary refused")
	}
	if !p.canFire(WeaponPlasma, time.Second, now) {
		t.Error("cooldowns should be per weapon")
	}
}
