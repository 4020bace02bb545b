// Package render provides software rasterization: transforming meshes
// through a camera and shading the result into a framebuffer, pixel by
// pixel, with no GPU involved.
package render

import (
	"math"

	"github.com/taigrr/rasteriso/pkg/math3d"
	"github.com/taigrr/rasteriso/pkg/models"
)

// CullMode selects which triangle winding is discarded before rasterization.
type CullMode int

const (
	CullBack  CullMode = iota // discard clockwise-in-screen-space triangles (default)
	CullFront                 // discard counter-clockwise triangles
	CullNone                  // draw both windings
)

// Config holds the render-time flags that change how DrawMesh behaves, kept
// as one plain struct rather than scattered package-level mutable state.
type Config struct {
	ShadingMode  ShadingMode
	CullMode     CullMode
	UseNormalMap bool
	DepthViz     bool // replace shading with a grayscale depth visualization
	BBoxViz      bool // fill each triangle's screen-space bounding box solid
	Wireframe    bool // draw triangle edges only, no fill
}

// DefaultConfig returns the engine's normal rendering configuration.
func DefaultConfig() Config {
	return Config{
		ShadingMode:  ShadeCombined,
		CullMode:     CullBack,
		UseNormalMap: true,
	}
}

// Rasterizer owns a color framebuffer and its matching depth buffer and
// draws meshes into them.
type Rasterizer struct {
	FB    *Framebuffer
	Depth *DepthBuffer
}

// NewRasterizer creates a rasterizer targeting fb, with a freshly cleared
// depth buffer of matching dimensions.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	return &Rasterizer{
		FB:    fb,
		Depth: NewDepthBuffer(fb.Width, fb.Height),
	}
}

// Resize rebuilds the depth buffer to match a new framebuffer size.
func (r *Rasterizer) Resize(fb *Framebuffer) {
	r.FB = fb
	r.Depth = NewDepthBuffer(fb.Width, fb.Height)
}

// ClearDepth resets the depth buffer to the far plane.
func (r *Rasterizer) ClearDepth() {
	r.Depth.Clear()
}

// screenVertex is a triangle corner after the viewport transform, carrying
// everything the per-pixel loop interpolates.
type screenVertex struct {
	X, Y float64 // screen-space pixel coordinates
	Z    float64 // NDC depth, [0, 1]
	W    float64 // original clip-space w, used for perspective correction
	Out  *models.VertexOut
}

// DrawMesh transforms mesh through camera's view-projection matrix and
// rasterizes every triangle into r.FB/r.Depth, shading fragments with light
// according to cfg.
func (r *Rasterizer) DrawMesh(mesh *models.Mesh, camera *Camera, light *DirectionalLight, cfg Config) {
	viewProj := camera.ViewProjection()
	transformMesh(mesh, viewProj)

	width, height := float64(r.FB.Width), float64(r.FB.Height)

	for t := range mesh.TriangleCount() {
		i0, i1, i2 := mesh.TriangleIndices(t)
		o0, o1, o2 := &mesh.Out[i0], &mesh.Out[i1], &mesh.Out[i2]

		if o0.BehindCamera || o1.BehindCamera || o2.BehindCamera {
			continue
		}
		if outsideFrustum(o0) || outsideFrustum(o1) || outsideFrustum(o2) {
			continue
		}

		sv := [3]screenVertex{
			toScreenVertex(o0, width, height),
			toScreenVertex(o1, width, height),
			toScreenVertex(o2, width, height),
		}

		// Signed area of the screen-space triangle; its sign encodes
		// winding (positive means the triangle appears clockwise on the
		// y-down screen).
		area2 := edgeFunction(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
		if area2 == 0 {
			continue // degenerate
		}

		if !mesh.Transparent {
			switch cfg.CullMode {
			case CullBack:
				if area2 > 0 {
					continue
				}
			case CullFront:
				if area2 < 0 {
					continue
				}
			}
		}

		minX := int(math.Max(0, math.Floor(minOf3(sv[0].X, sv[1].X, sv[2].X))))
		maxX := int(math.Min(width-1, math.Ceil(maxOf3(sv[0].X, sv[1].X, sv[2].X))))
		minY := int(math.Max(0, math.Floor(minOf3(sv[0].Y, sv[1].Y, sv[2].Y))))
		maxY := int(math.Min(height-1, math.Ceil(maxOf3(sv[0].Y, sv[1].Y, sv[2].Y))))
		if minX > maxX || minY > maxY {
			continue
		}

		if cfg.BBoxViz {
			r.FB.DrawRect(minX, minY, maxX-minX+1, maxY-minY+1, RGB(64, 64, 64))
			continue
		}
		if cfg.Wireframe {
			r.drawWireframeTriangle(sv)
			continue
		}

		invArea := 1.0 / area2
		minDepth := minOf3(sv[0].Z, sv[1].Z, sv[2].Z)

		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				idx := y*r.FB.Width + x

				// Early-depth reject: the triangle's nearest vertex is
				// already farther than what's stored, so no pixel of this
				// triangle in this row/col can possibly win.
				if minDepth > r.Depth.Values[idx] {
					continue
				}

				px, py := float64(x)+0.5, float64(y)+0.5

				w0 := edgeFunction(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y, px, py) * invArea
				w1 := edgeFunction(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y, px, py) * invArea
				w2 := edgeFunction(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y, px, py) * invArea

				if w0 < -1 || w0 > 1 || w1 < -1 || w1 > 1 || w2 < -1 || w2 > 1 {
					continue
				}
				if !sameSign(w0, w1, w2) {
					continue
				}
				if math.Abs(math.Abs(w0)+math.Abs(w1)+math.Abs(w2)-1) > 1e-4 {
					continue
				}

				z := rationalSelf(sv[0].Z, sv[1].Z, sv[2].Z, w0, w1, w2)
				wInterp := rationalSelf(sv[0].W, sv[1].W, sv[2].W, w0, w1, w2)

				if z < 0 || z > 1 || wInterp < 0 || z > r.Depth.Values[idx] {
					continue
				}

				frag := interpolateFragment(sv, w0, w1, w2, wInterp)

				var fragColor math3d.Color
				if cfg.DepthViz {
					g := math3d.Remap01(z, 0.998, 1.0)
					fragColor = math3d.Color{R: g, G: g, B: g, A: 1}
				} else {
					fragColor = r.shadePixel(mesh, &frag, camera, light, cfg)
				}

				if !mesh.Transparent {
					r.Depth.Values[idx] = z
				}

				existing := r.FB.GetPixel(x, y)
				blended := blendOver(fragColor, existing)
				r.FB.SetPixel(x, y, blended)
			}
		}
	}
}

// outsideFrustum reports whether o's NDC position lies outside the unit
// cube (x,y in [-1,1], z in [0,1]). A whole-triangle cheap cull; no partial
// clipping is performed against a single out-of-range vertex.
func outsideFrustum(o *models.VertexOut) bool {
	return o.Position.X < -1 || o.Position.X > 1 ||
		o.Position.Y < -1 || o.Position.Y > 1 ||
		o.Position.Z < 0 || o.Position.Z > 1
}

func toScreenVertex(o *models.VertexOut, width, height float64) screenVertex {
	return screenVertex{
		X:   (1 + o.Position.X) * 0.5 * width,
		Y:   (1 - o.Position.Y) * 0.5 * height,
		Z:   o.Position.Z,
		W:   o.Position.W,
		Out: o,
	}
}

// interpolatedFragment carries the rational-interpolation result for every
// per-vertex attribute at one pixel.
type interpolatedFragment struct {
	WorldPos math3d.Vec3
	Color    math3d.Color
	UV       math3d.Vec2
	Normal   math3d.Vec3
	Tangent  math3d.Vec3
}

func interpolateFragment(sv [3]screenVertex, w0, w1, w2, wInterp float64) interpolatedFragment {
	w := [3]float64{sv[0].W, sv[1].W, sv[2].W}

	lerp3 := func(a0, a1, a2 float64) float64 {
		return rationalInterp(a0, a1, a2, w0, w1, w2, w[0], w[1], w[2], wInterp)
	}

	var f interpolatedFragment
	f.WorldPos = math3d.V3(
		lerp3(sv[0].Out.WorldPos.X, sv[1].Out.WorldPos.X, sv[2].Out.WorldPos.X),
		lerp3(sv[0].Out.WorldPos.Y, sv[1].Out.WorldPos.Y, sv[2].Out.WorldPos.Y),
		lerp3(sv[0].Out.WorldPos.Z, sv[1].Out.WorldPos.Z, sv[2].Out.WorldPos.Z),
	)
	f.Color = math3d.Color{
		R: lerp3(sv[0].Out.Color.R, sv[1].Out.Color.R, sv[2].Out.Color.R),
		G: lerp3(sv[0].Out.Color.G, sv[1].Out.Color.G, sv[2].Out.Color.G),
		B: lerp3(sv[0].Out.Color.B, sv[1].Out.Color.B, sv[2].Out.Color.B),
		A: lerp3(sv[0].Out.Color.A, sv[1].Out.Color.A, sv[2].Out.Color.A),
	}
	f.UV = math3d.V2(
		lerp3(sv[0].Out.UV.X, sv[1].Out.UV.X, sv[2].Out.UV.X),
		lerp3(sv[0].Out.UV.Y, sv[1].Out.UV.Y, sv[2].Out.UV.Y),
	)
	f.Normal = math3d.V3(
		lerp3(sv[0].Out.Normal.X, sv[1].Out.Normal.X, sv[2].Out.Normal.X),
		lerp3(sv[0].Out.Normal.Y, sv[1].Out.Normal.Y, sv[2].Out.Normal.Y),
		lerp3(sv[0].Out.Normal.Z, sv[1].Out.Normal.Z, sv[2].Out.Normal.Z),
	).Normalize()
	f.Tangent = math3d.V3(
		lerp3(sv[0].Out.Tangent.X, sv[1].Out.Tangent.X, sv[2].Out.Tangent.X),
		lerp3(sv[0].Out.Tangent.Y, sv[1].Out.Tangent.Y, sv[2].Out.Tangent.Y),
		lerp3(sv[0].Out.Tangent.Z, sv[1].Out.Tangent.Z, sv[2].Out.Tangent.Z),
	).Normalize()
	return f
}

// rationalInterp performs perspective-correct interpolation of a scalar
// attribute given screen-space barycentric weights (w0,w1,w2, summing to 1)
// and the three vertices' clip-space w values, plus the already-computed
// wInterp = 1/(w0/W0 + w1/W1 + w2/W2).
func rationalInterp(a0, a1, a2, w0, w1, w2, wv0, wv1, wv2, wInterp float64) float64 {
	return (a0*w0*wv1*wv2 + a1*w1*wv0*wv2 + a2*w2*wv0*wv1) * wInterp / (wv0 * wv1 * wv2)
}

// rationalSelf is the same rational form as rationalInterp but applied with
// a value standing in for its own weight, used for NDC depth and
// clip-space w themselves: a0*a1*a2 / (w0*a1*a2 + w1*a0*a2 + w2*a0*a1).
func rationalSelf(a0, a1, a2, w0, w1, w2 float64) float64 {
	return (a0 * a1 * a2) / (w0*a1*a2 + w1*a0*a2 + w2*a0*a1)
}

func (r *Rasterizer) shadePixel(mesh *models.Mesh, frag *interpolatedFragment, camera *Camera, light *DirectionalLight, cfg Config) math3d.Color {
	cd := frag.Color
	if mesh.Diffuse != nil {
		sampled := mesh.Diffuse.Sample(frag.UV.X, frag.UV.Y)
		if mesh.Transparent {
			cd = math3d.Color{R: sampled.R, G: sampled.G, B: sampled.B, A: sampled.A}
		} else {
			cd = sampled.Mul(frag.Color)
		}
	}

	var normalSample math3d.Vec3
	if mesh.NormalMp != nil {
		s := mesh.NormalMp.Sample(frag.UV.X, frag.UV.Y)
		normalSample = math3d.V3(s.R, s.G, s.B)
	}

	var specularSample, glossSample math3d.Color
	if mesh.Specular != nil {
		specularSample = mesh.Specular.Sample(frag.UV.X, frag.UV.Y)
	}
	if mesh.Gloss != nil {
		glossSample = mesh.Gloss.Sample(frag.UV.X, frag.UV.Y)
	}

	viewDir := frag.WorldPos.Sub(camera.Position).Normalize()

	v := &models.VertexOut{WorldPos: frag.WorldPos, Normal: frag.Normal, Tangent: frag.Tangent}
	return shadeFragment(mesh, v, normalSample, cd, light, viewDir, cfg.ShadingMode, cfg.UseNormalMap, mesh.Shadow, specularSample, glossSample)
}

func (r *Rasterizer) drawWireframeTriangle(sv [3]screenVertex) {
	white := RGB(255, 255, 255)
	r.FB.DrawLine(int(sv[0].X), int(sv[0].Y), int(sv[1].X), int(sv[1].Y), white)
	r.FB.DrawLine(int(sv[1].X), int(sv[1].Y), int(sv[2].X), int(sv[2].Y), white)
	r.FB.DrawLine(int(sv[2].X), int(sv[2].Y), int(sv[0].X), int(sv[0].Y), white)
}

// blendOver alpha-blends src over dst and packs the result to 8-bit ARGB.
func blendOver(src math3d.Color, dst Color) Color {
	src = src.Saturate()
	if src.A >= 1 {
		return colorToRGBA(src)
	}
	if src.A <= 0 {
		return dst
	}
	dstColor := math3d.Color{
		R: float64(dst.R) / 255,
		G: float64(dst.G) / 255,
		B: float64(dst.B) / 255,
		A: float64(dst.A) / 255,
	}
	out := src.Lerp(dstColor, 1-src.A)
	out.A = src.A + dstColor.A*(1-src.A)
	return colorToRGBA(out.Saturate())
}

func colorToRGBA(c math3d.Color) Color {
	return RGBA(
		uint8(c.R*255+0.5),
		uint8(c.G*255+0.5),
		uint8(c.B*255+0.5),
		uint8(c.A*255+0.5),
	)
}

func edgeFunction(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func sameSign(a, b, c float64) bool {
	pos := a >= 0 && b >= 0 && c >= 0
	neg := a <= 0 && b <= 0 && c <= 0
	return pos || neg
}

func minOf3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func maxOf3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }
