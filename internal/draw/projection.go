package draw

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	nearPlane = 0.5
	farPlane  = 1000.0
	maxPitch  = 1.4
)

// Camera orbits the world origin.
type Camera struct {
	Yaw      float64 // rad, around +Y
	Pitch    float64 // rad, above the XZ plane
	Distance float64 // Å from the origin
	FOV      float64 // vertical field of view, rad
}

// DefaultCamera frames a world cube of the given half size.
func DefaultCamera(halfSize float64) Camera {
	return Camera{Yaw: 0.6, Pitch: 0.35, Distance: halfSize * 3.6, FOV: mgl64.DegToRad(45)}
}

// Orbit turns the camera, keeping the pitch short of the poles.
func (c Camera) Orbit(dyaw, dpitch float64) Camera {
	c.Yaw = math.Mod(c.Yaw+dyaw, 2*math.Pi)
	c.Pitch = mgl64.Clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
	return c
}

// Eye returns the camera position.
func (c Camera) Eye() mgl64.Vec3 {
	cp := math.Cos(c.Pitch)
	return mgl64.Vec3{
		c.Distance * cp * math.Sin(c.Yaw),
		c.Distance * math.Sin(c.Pitch),
		c.Distance * cp * math.Cos(c.Yaw),
	}
}

// Projector maps world points onto a logical view.
type Projector struct {
	view, proj    mgl64.Mat4
	width, height int
	focal         float64 // logical units per Å at unit depth
}

// Projector builds a perspective projection for a view of the given
// logical size.
func (c Camera) Projector(width, height float64) Projector {
	w, h := int(math.Round(width)), int(math.Round(height))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	fov := c.FOV
	if fov <= 0 {
		fov = mgl64.DegToRad(45)
	}
	return Projector{
		view:   mgl64.LookAtV(c.Eye(), mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}),
		proj:   mgl64.Perspective(fov, float64(w)/float64(h), nearPlane, farPlane),
		width:  w,
		height: h,
		focal:  float64(h) / 2 / math.Tan(fov/2),
	}
}

// Project returns the view position of p and its distance in front of the
// camera. Points behind the near plane are not visible.
func (p Projector) Project(world mgl64.Vec3) (Point, float64, bool) {
	eye := p.view.Mul4x1(world.Vec4(1))
	depth := -eye.Z()
	if depth <= nearPlane {
		return Point{}, depth, false
	}
	win := mgl64.Project(world, p.view, p.proj, 0, 0, p.width, p.height)
	return Point{X: win.X(), Y: float64(p.height) - win.Y()}, depth, true
}

// Size returns the on-screen length of a world length seen at depth.
func (p Projector) Size(length, depth float64) float64 {
	if depth <= 0 {
		return 0
	}
	return length * p.focal / depth
}
