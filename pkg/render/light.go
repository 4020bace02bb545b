package render

import "github.com/taigrr/rasteriso/pkg/math3d"

// DirectionalLight is a single infinitely-distant light source. Direction
// points from the light toward the scene (the way the sun's rays travel),
// not toward the light.
type DirectionalLight struct {
	Direction math3d.Vec3
	Color     math3d.Color
	Intensity float64
}

// NewDirectionalLight creates a white light of intensity 1 pointing along dir.
func NewDirectionalLight(dir math3d.Vec3) *DirectionalLight {
	return &DirectionalLight{
		Direction: dir.Normalize(),
		Color:     math3d.ColorWhite(),
		Intensity: 1,
	}
}

// ToLight returns the unit vector pointing from a shaded surface back
// toward the light, i.e. the negation of Direction.
func (l *DirectionalLight) ToLight() math3d.Vec3 {
	return l.Direction.Negate().Normalize()
}
