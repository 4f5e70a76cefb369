package game

import "time"

// Projectile is a shot in flight. Damage and OwnerTeam are fixed when the
// shot is created.
type Projectile struct {
	ID        string
	OwnerID   string
	OwnerTeam Team
	Type      WeaponType
	Position  Vec3
	Velocity  Vec3
	Damage    int
	CreatedAt time.Time
}

// ProjectileView is the broadcast form of a projectile.
type ProjectileView struct {
	ID       string     `json:"id" msgpack:"id"`
	OwnerID  string     `json:"ownerId" msgpack:"ownerId"`
	Type     WeaponType `json:"type" msgpack:"type"`
	Position Vec3       `json:"position" msgpack:"position"`
	Velocity Vec3       `json:"velocity" msgpack:"velocity"`
}

// View copies the projectile into its broadcast form.
func (pr *Projectile) View() ProjectileView {
	return ProjectileView{
		ID:       pr.ID,
		OwnerID:  pr.OwnerID,
		Type:     pr.Type,
		Position: pr.Position,
		Velocity: pr.Velocity,
	}
}

// expired reports whether the projectile has outlived ttl at now.
func (pr *Projectile) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(pr.CreatedAt) > ttl
}
