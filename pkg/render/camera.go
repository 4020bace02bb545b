package render

import (
	"math"

	"github.com/taigrr/rasteriso/pkg/math3d"
)

// Camera is a pinhole camera described directly by position and orientation
// vectors rather than Euler angles, matching the invariants the rasterizer
// core relies on: Forward and Up are always unit length, near > 0,
// far > near, fov ∈ (0, π).
type Camera struct {
	Position math3d.Vec3
	forward  math3d.Vec3 // unit
	up       math3d.Vec3 // unit

	fov    float64 // radians
	tanFov float64 // tan(fov/2), cached per spec C5 storage convention
	Aspect float64
	Near   float64
	Far    float64

	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
}

// NewCamera creates a camera at the origin looking down +Z with a 60°
// vertical field of view.
func NewCamera() *Camera {
	c := &Camera{
		Position:  math3d.V3(0, 0, 0),
		forward:   math3d.V3(0, 0, 1),
		up:        math3d.V3(0, 1, 0),
		Aspect:    16.0 / 9.0,
		Near:      0.1,
		Far:       1000,
		viewDirty: true,
	}
	c.SetFOV(math.Pi / 3)
	return c
}

// SetPosition sets the camera's world-space position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// SetOrientation sets the forward and up directions directly; both are
// normalized, and up is re-orthogonalized against forward.
func (c *Camera) SetOrientation(forward, up math3d.Vec3) {
	f := forward.Normalize()
	u := up.Reject(f).Normalize()
	c.forward = f
	c.up = u
	c.viewDirty = true
}

// LookAt points the camera from its current position toward target.
func (c *Camera) LookAt(target math3d.Vec3, up math3d.Vec3) {
	c.SetOrientation(target.Sub(c.Position), up)
}

// Forward returns the camera's unit forward vector.
func (c *Camera) Forward() math3d.Vec3 { return c.forward }

// Up returns the camera's unit up vector.
func (c *Camera) Up() math3d.Vec3 { return c.up }

// Right returns the camera's unit right vector, derived from forward/up.
func (c *Camera) Right() math3d.Vec3 {
	return c.up.Cross(c.forward).Normalize()
}

// SetFOV sets the vertical field of view in radians; fov must lie in
// (0, π). The value is cached internally as tan(fov/2), per spec.
func (c *Camera) SetFOV(fov float64) {
	c.fov = fov
	c.tanFov = math.Tan(fov / 2)
	c.projDirty = true
}

// FOV returns the vertical field of view in radians.
func (c *Camera) FOV() float64 { return c.fov }

// TanHalfFOV returns tan(fov/2), the cached storage form used by C5.
func (c *Camera) TanHalfFOV() float64 { return c.tanFov }

// SetAspect sets the aspect ratio (width / height).
func (c *Camera) SetAspect(aspect float64) {
	c.Aspect = aspect
	c.projDirty = true
}

// SetClipPlanes sets the near and far clip distances; near must be > 0 and
// far must be > near.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
}

// MoveForward moves the camera along its forward vector (or backward if
// distance is negative).
func (c *Camera) MoveForward(distance float64) {
	c.Position = c.Position.Add(c.forward.Scale(distance))
	c.viewDirty = true
}

// MoveRight moves the camera along its right vector.
func (c *Camera) MoveRight(distance float64) {
	c.Position = c.Position.Add(c.Right().Scale(distance))
	c.viewDirty = true
}

// MoveUp moves the camera along its up vector.
func (c *Camera) MoveUp(distance float64) {
	c.Position = c.Position.Add(c.up.Scale(distance))
	c.viewDirty = true
}

// View returns the left-handed look-at view matrix.
func (c *Camera) View() math3d.Mat4 {
	if c.viewDirty {
		c.viewMatrix = math3d.LookAt(c.Position, c.Position.Add(c.forward), c.up)
		c.viewDirty = false
	}
	return c.viewMatrix
}

// Projection returns the left-handed perspective projection matrix.
func (c *Camera) Projection() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.fov, c.Aspect, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() math3d.Mat4 {
	c.viewProjMatrix = c.Projection().Mul(c.View())
	return c.viewProjMatrix
}
