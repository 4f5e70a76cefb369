package game

import "math"

// Vec3 is a position, velocity or direction in world space.
// The world is Y-up; ships fly forward along their local -Z.
type Vec3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// LengthSq returns the squared length, avoiding a sqrt.
func (v Vec3) LengthSq() float64 { return v.Dot(v) }

// Length returns the Euclidean length.
func (v Vec3) Length() float64 { return math.Sqrt(v.LengthSq()) }

// Normalize returns the unit vector in the direction of v.
// ok is false for the zero vector, in which case the zero vector is returned.
func (v Vec3) Normalize() (n Vec3, ok bool) {
	l := v.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec3{}, false
	}
	return v.Scale(1 / l), true
}

// DistanceSq returns the squared distance between two points.
func (v Vec3) DistanceSq(o Vec3) float64 { return v.Sub(o).LengthSq() }

// Distance returns the distance between two points.
func (v Vec3) Distance(o Vec3) float64 { return math.Sqrt(v.DistanceSq(o)) }

// closestOnSegment projects point onto the segment that starts at start and
// runs length units along the unit vector dir. It returns the clamped
// projection t in [0, length] and the squared distance from point to the
// closest point on the segment.
func closestOnSegment(start, dir Vec3, length float64, point Vec3) (t, distSq float64) {
	t = point.Sub(start).Dot(dir)
	if t < 0 {
		t = 0
	} else if t > length {
		t = length
	}
	closest := start.Add(dir.Scale(t))
	return t, point.DistanceSq(closest)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Quat is a rotation stored as a unit quaternion.
type Quat struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
	W float64 `json:"w" msgpack:"w"`
}

// IdentityQuat is the "no rotation" orientation.
var IdentityQuat = Quat{W: 1}

// Mul returns the Hamilton product q ⊗ o (apply o, then q).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Normalize rescales q to unit length. A degenerate quaternion becomes identity.
func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l == 0 || math.IsNaN(l) {
		return IdentityQuat
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// QuatFromEuler builds a rotation from Euler angles (radians) applied in
// X (pitch), Y (yaw), Z (roll) order.
func QuatFromEuler(pitch, yaw, roll float64) Quat {
	c1, s1 := math.Cos(pitch/2), math.Sin(pitch/2)
	c2, s2 := math.Cos(yaw/2), math.Sin(yaw/2)
	c3, s3 := math.Cos(roll/2), math.Sin(roll/2)

	return Quat{
		X: s1*c2*c3 + c1*s2*s3,
		Y: c1*s2*c3 - s1*c2*s3,
		Z: c1*c2*s3 + s1*s2*c3,
		W: c1*c2*c3 - s1*s2*s3,
	}
}

// Rotate applies the rotation q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// yawToward returns the yaw that turns the ship's -Z nose from one point
// toward another in the horizontal plane.
func yawToward(from, to Vec3) float64 {
	return headingYaw(to.Sub(from))
}

// headingYaw returns the yaw that turns the -Z nose along dir's XZ
// component.
func headingYaw(dir Vec3) float64 {
	return math.Atan2(-dir.X, -dir.Z)
}
