package game

// integrate advances every living player by its velocity and clamps each axis
// to [-half, +half]. Dead players keep their velocity but do not move.
func (w *World) integrate(players []*Player, dt float64) {
	half := w.cfg.WorldSize / 2

	for _, p := range players {
		if !p.IsAlive {
			continue
		}
		w.guard("player", p.ID, func() {
			p.Position = clampToWorld(p.Position.Add(p.Velocity.Scale(dt)), half)
		})
	}
}

// clampToWorld clamps each axis independently.
func clampToWorld(v Vec3, half float64) Vec3 {
	return Vec3{
		X: clamp(v.X, -half, half),
		Y: clamp(v.Y, -half, half),
		Z: clamp(v.Z, -half, half),
	}
}

// outOfWorld reports whether any axis lies beyond ±half.
func outOfWorld(v Vec3, half float64) bool {
	return v.X < -half || v.X > half ||
		v.Y < -half || v.Y > half ||
		v.Z < -half || v.Z > half
}
