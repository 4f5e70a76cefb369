package game

import (
	"fmt"
	"time"

	"skyarena/internal/config"
)

// PowerUpType is the closed set of pickups.
type PowerUpType uint8

const (
	PowerUpHealth PowerUpType = iota
	PowerUpShield
	PowerUpSpeed
	PowerUpRapidFire
	PowerUpDamage

	powerUpCount
)

var powerUpNames = [powerUpCount]string{
	PowerUpHealth:    "health",
	PowerUpShield:    "shield",
	PowerUpSpeed:     "speed",
	PowerUpRapidFire: "rapidfire",
	PowerUpDamage:    "damage",
}

// powerUpEffect applies a pickup to the collecting player.
type powerUpEffect func(p *Player, cfg *config.SimConfig)

// powerUpEffects is indexed by PowerUpType. speed, rapidfire and damage are
// recognised pickups without an effect: they cycle and emit events like the
// others but leave the player unchanged.
var powerUpEffects = [powerUpCount]powerUpEffect{
	PowerUpHealth: func(p *Player, cfg *config.SimConfig) { p.Heal(cfg.HealthPickupAmount) },
	PowerUpShield: func(p *Player, cfg *config.SimConfig) { p.AddShield(cfg.ShieldPickupAmount, cfg.ShieldCap) },
}

// String returns the wire name.
func (t PowerUpType) String() string {
	if t >= powerUpCount {
		return "unknown"
	}
	return powerUpNames[t]
}

// MarshalText encodes the power-up type as its wire name.
func (t PowerUpType) MarshalText() ([]byte, error) {
	if t >= powerUpCount {
		return nil, fmt.Errorf("power-up %d: %w", t, ErrUnknownPowerUp)
	}
	return []byte(powerUpNames[t]), nil
}

// UnmarshalText decodes a wire name.
func (t *PowerUpType) UnmarshalText(b []byte) error {
	v, err := ParsePowerUpType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParsePowerUpType maps a wire name to a PowerUpType.
func ParsePowerUpType(name string) (PowerUpType, error) {
	for i, n := range powerUpNames {
		if n == name {
			return PowerUpType(i), nil
		}
	}
	return 0, fmt.Errorf("power-up %q: %w", name, ErrUnknownPowerUp)
}

// PowerUp sits at a fixed position and toggles between active and inactive.
type PowerUp struct {
	ID          string
	Type        PowerUpType
	Position    Vec3
	IsActive    bool
	RespawnTime time.Time
}

// PowerUpView is the broadcast form of a power-up.
type PowerUpView struct {
	ID       string      `json:"id" msgpack:"id"`
	Type     PowerUpType `json:"type" msgpack:"type"`
	Position Vec3        `json:"position" msgpack:"position"`
	IsActive bool        `json:"isActive" msgpack:"isActive"`
}

// View copies the power-up into its broadcast form.
func (pu *PowerUp) View() PowerUpView {
	return PowerUpView{ID: pu.ID, Type: pu.Type, Position: pu.Position, IsActive: pu.IsActive}
}

// newPowerUps builds the fixed power-up list. Placements with an unknown
// type are skipped and returned as errors.
func newPowerUps(placements []config.PowerUpPlacement) ([]PowerUp, []error) {
	out := make([]PowerUp, 0, len(placements))
	var errs []error
	for i, pl := range placements {
		t, err := ParsePowerUpType(pl.Type)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, PowerUp{
			ID:       fmt.Sprintf("powerup-%d", i),
			Type:     t,
			Position: Vec3{X: pl.Position.X, Y: pl.Position.Y, Z: pl.Position.Z},
			IsActive: true,
		})
	}
	return out, errs
}

// updatePowerUps reactivates due power-ups and resolves pickups.
// A power-up that reactivates this tick can be collected from the next tick.
// Overlapping players are resolved in id order.
func (w *World) updatePowerUps(now time.Time, players []*Player) []PickupEvent {
	var pickups []PickupEvent

	powerUps := w.store.powerUps
	for i := range powerUps {
		pu := &powerUps[i]
		w.guard("powerup", pu.ID, func() {
			if !pu.IsActive {
				if !now.Before(pu.RespawnTime) {
					pu.IsActive = true
				}
				return
			}

			for _, p := range players {
				if !p.IsAlive || p.Position.Distance(pu.Position) >= w.cfg.PickupRadius {
					continue
				}

				if effect := powerUpEffects[pu.Type]; effect != nil {
					effect(p, &w.cfg)
				}
				pu.IsActive = false
				pu.RespawnTime = now.Add(w.cfg.PowerUpRespawn)

				pickups = append(pickups, PickupEvent{PowerUpID: pu.ID, PlayerID: p.ID, Type: pu.Type})
				break
			}
		})
	}

	return pickups
}
