package game

import "time"

// Player is one ship in the arena, human or bot.
// Invariants: 0 <= Health <= MaxHealth, and a dead player has zero health.
type Player struct {
	ID       string
	Name     string
	Position Vec3
	Velocity Vec3
	Rotation Quat

	Health    int
	MaxHealth int
	Shield    int

	Score  int
	Kills  int
	Deaths int

	Team    Team
	IsAlive bool
	IsBot   bool

	// LastUpdateTime is when the last input was applied.
	LastUpdateTime time.Time

	// lastShot is indexed by WeaponType; zero means never fired.
	lastShot [weaponCount]time.Time
}

// PlayerView is the broadcast form of a player.
type PlayerView struct {
	ID        string `json:"id" msgpack:"id"`
	Name      string `json:"name" msgpack:"name"`
	Position  Vec3   `json:"position" msgpack:"position"`
	Velocity  Vec3   `json:"velocity" msgpack:"velocity"`
	Rotation  Quat   `json:"rotation" msgpack:"rotation"`
	Health    int    `json:"health" msgpack:"health"`
	MaxHealth int    `json:"maxHealth" msgpack:"maxHealth"`
	Shield    int    `json:"shield" msgpack:"shield"`
	Score     int    `json:"score" msgpack:"score"`
	Kills     int    `json:"kills" msgpack:"kills"`
	Deaths    int    `json:"deaths" msgpack:"deaths"`
	Team      Team   `json:"team,omitempty" msgpack:"team,omitempty"`
	IsAlive   bool   `json:"isAlive" msgpack:"isAlive"`
	IsBot     bool   `json:"isBot" msgpack:"isBot"`
}

// View copies the player into its broadcast form.
func (p *Player) View() PlayerView {
	return PlayerView{
		ID:        p.ID,
		Name:      p.Name,
		Position:  p.Position,
		Velocity:  p.Velocity,
		Rotation:  p.Rotation,
		Health:    p.Health,
		MaxHealth: p.MaxHealth,
		Shield:    p.Shield,
		Score:     p.Score,
		Kills:     p.Kills,
		Deaths:    p.Deaths,
		Team:      p.Team,
		IsAlive:   p.IsAlive,
		IsBot:     p.IsBot,
	}
}

// TakeDamage applies one hit, draining shield before health.
// It reports whether this hit killed the player. Hits on a dead player are ignored.
func (p *Player) TakeDamage(damage int) (killed bool) {
	if !p.IsAlive || damage <= 0 {
		return false
	}

	absorbed := min(p.Shield, damage)
	p.Shield -= absorbed
	damage -= absorbed

	p.Health -= damage
	if p.Health < 0 {
		p.Health = 0
	}

	if p.Health == 0 {
		p.IsAlive = false
		return true
	}
	return false
}

// Heal adds health up to MaxHealth.
func (p *Player) Heal(amount int) {
	p.Health = min(p.Health+amount, p.MaxHealth)
}

// AddShield adds shield up to limit.
func (p *Player) AddShield(amount, limit int) {
	p.Shield = min(p.Shield+amount, limit)
}

// revive puts the player back in play at pos with a full reset of vitals.
func (p *Player) revive(pos Vec3) {
	p.Position = pos
	p.Velocity = Vec3{}
	p.Rotation = IdentityQuat
	p.Health = p.MaxHealth
	p.Shield = 0
	p.IsAlive = true
}

// canFire reports whether weapon w is off cooldown at now.
func (p *Player) canFire(w WeaponType, cooldown time.Duration, now time.Time) bool {
	last := p.lastShot[w]
	return last.IsZero() || now.Sub(last) >= cooldown
}
