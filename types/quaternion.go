package types

import "github.com/chewxy/math32"

// Quaternion implementation adapted from https://github.com/go-gl/mathgl/blob/master/mgl32/quat.go
type Quat struct {
	V Vec3
	W float32
}

// Create identity quaternion.
func QuatIdent() Quat {
	return Quat{
		V: Vec3{},
		W: 1.0,
	}
}

// Create a quaternion from an axis vector and an angle (in radians).
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	sin, cos := math32.Sincos(angle * 0.5)
	return Quat{
		V: axis.Normalize().Mul(sin),
		W: cos,
	}
}

// Create a quaternion that applies yaw (X axis), then pitch (Y axis) and
// finally roll (Z axis). Angles are in radians.
func QuatFromEuler(yaw, pitch, roll float32) Quat {
	yawQuat := QuatFromAxisAngle(Vec3{1, 0, 0}, yaw)
	pitchQuat := QuatFromAxisAngle(Vec3{0, 1, 0}, pitch)
	rollQuat := QuatFromAxisAngle(Vec3{0, 0, 1}, roll)
	return rollQuat.Mul(pitchQuat.Mul(yawQuat)).Normalize()
}

// Rotates a vector by the rotation this quaternion represents.
func (q1 Quat) Rotate(v Vec3) Vec3 {
	cross := q1.V.Cross(v)
	// v + 2q_w * (q_v x v) + 2q_v x (q_v x v)
	return v.Add(cross.Mul(2 * q1.W)).Add(q1.V.Mul(2).Cross(cross))
}

// Multiplies two quaternions. Multiplication is not commutative; q1.Mul(q2)
// applies q2 first.
func (q1 Quat) Mul(q2 Quat) Quat {
	return Quat{
		q1.V.Cross(q2.V).Add(q2.V.Mul(q1.W)).Add(q1.V.Mul(q2.W)),
		q1.W*q2.W - q1.V.Dot(q2.V),
	}
}

// Returns the Length of the quaternion.
func (q1 Quat) Len() float32 {
	return math32.Sqrt(q1.W*q1.W + q1.V.Dot(q1.V))
}

// Normalizes the quaternion, returning its versor (unit quaternion).
func (q1 Quat) Normalize() Quat {
	length := q1.Len()

	if math32.Abs(1-length) < floatCmpEpsilon {
		return q1
	}
	if length == 0 {
		return QuatIdent()
	}
	if math32.IsInf(length, 1) {
		length = math32.MaxFloat32
	}

	return Quat{q1.V.Mul(1 / length), q1.W / length}
}
