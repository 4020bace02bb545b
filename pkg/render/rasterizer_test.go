package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/taigrr/rasteriso/pkg/math3d"
	"github.com/taigrr/rasteriso/pkg/models"
)

const testBGGray = 10

func newAxisCamera(w, h int) *Camera {
	cam := NewCamera()
	cam.SetAspect(float64(w) / float64(h))
	cam.SetClipPlanes(0.1, 100)
	cam.SetPosition(math3d.V3(0, 0, -5))
	cam.LookAt(math3d.V3(0, 0, 0), math3d.Up())
	return cam
}

// onAxisTriangle builds a flat triangle at world z, whose footprint
// straddles the camera's optical axis (x=0, y=0), so it always covers the
// screen-center pixel for any on-axis camera, regardless of depth.
func onAxisTriangle(z float64, color math3d.Color, reverseWinding bool) *models.Mesh {
	m := models.NewMesh("t")
	v0 := models.Vertex{Position: math3d.V3(-1, -1, z), Color: color, Normal: math3d.V3(0, 0, -1)}
	v1 := models.Vertex{Position: math3d.V3(1, -1, z), Color: color, Normal: math3d.V3(0, 0, -1)}
	v2 := models.Vertex{Position: math3d.V3(0, 1, z), Color: color, Normal: math3d.V3(0, 0, -1)}
	if reverseWinding {
		m.Vertices = []models.Vertex{v0, v2, v1}
	} else {
		m.Vertices = []models.Vertex{v0, v1, v2}
	}
	m.Indices = []uint32{0, 1, 2}
	return m
}

func newTestRasterizer(w, h int) *Rasterizer {
	fb := NewFramebuffer(w, h)
	fb.Clear(color.RGBA{R: testBGGray, G: testBGGray, B: testBGGray, A: 255})
	return NewRasterizer(fb)
}

func centerPixel(r *Rasterizer) color.RGBA {
	return r.FB.GetPixel(r.FB.Width/2, r.FB.Height/2)
}

func isBackground(c color.RGBA) bool {
	return c.R == testBGGray && c.G == testBGGray && c.B == testBGGray
}

func TestEdgeFunctionAndSameSign(t *testing.T) {
	// Triangle (0,0)-(4,0)-(0,4); interior point (1,1) should have
	// same-signed barycentrics summing to 1.
	ax, ay, bx, by, cx, cy := 0.0, 0.0, 4.0, 0.0, 0.0, 4.0
	area2 := edgeFunction(ax, ay, bx, by, cx, cy)
	if area2 == 0 {
		t.Fatal("expected nonzero signed area")
	}
	invArea := 1.0 / area2

	px, py := 1.0, 1.0
	w0 := edgeFunction(bx, by, cx, cy, px, py) * invArea
	w1 := edgeFunction(cx, cy, ax, ay, px, py) * invArea
	w2 := edgeFunction(ax, ay, bx, by, px, py) * invArea

	if !sameSign(w0, w1, w2) {
		t.Fatalf("expected same-signed barycentrics, got %v %v %v", w0, w1, w2)
	}
	sum := math.Abs(w0) + math.Abs(w1) + math.Abs(w2)
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("|u|+|v|+|w| = %v, want ~1", sum)
	}

	// A point well outside the triangle must not share signs.
	w0, w1, w2 = edgeFunction(bx, by, cx, cy, 10, 10)*invArea,
		edgeFunction(cx, cy, ax, ay, 10, 10)*invArea,
		edgeFunction(ax, ay, bx, by, 10, 10)*invArea
	if sameSign(w0, w1, w2) {
		t.Errorf("expected mismatched signs for an exterior point")
	}
}

func TestRasterizerOverlappingDepthOrderIndependent(t *testing.T) {
	red := math3d.Color{R: 1, A: 1}
	blue := math3d.Color{B: 1, A: 1}
	cfg := DefaultConfig()
	cfg.ShadingMode = ShadeDiffuse // no normal map is bound, so fragments are unlit and keep their vertex color

	// Draw near (z=0.2) first, far (z=0.8) second: far must lose depth test.
	r := newTestRasterizer(64, 64)
	cam := newAxisCamera(64, 64)
	near := onAxisTriangle(0.2, red, false)
	far := onAxisTriangle(0.8, blue, false)
	light := NewDirectionalLight(math3d.V3(0, 0, 1))
	r.DrawMesh(near, cam, light, cfg)
	r.DrawMesh(far, cam, light, cfg)
	c1 := centerPixel(r)

	// Reverse order: far first, near second: near must still win.
	r2 := newTestRasterizer(64, 64)
	r2.DrawMesh(far, cam, light, cfg)
	r2.DrawMesh(near, cam, light, cfg)
	c2 := centerPixel(r2)

	if c1.R == 0 || c1.B != 0 {
		t.Errorf("draw-order 1 (near then far): expected red to dominate at center, got %+v", c1)
	}
	if c2.R == 0 || c2.B != 0 {
		t.Errorf("draw-order 2 (far then near): expected red to dominate at center, got %+v", c2)
	}
}

func TestRasterizerDepthBufferRangeAfterFrame(t *testing.T) {
	r := newTestRasterizer(32, 32)
	cam := newAxisCamera(32, 32)
	mesh := onAxisTriangle(0.5, math3d.ColorWhite(), false)
	light := NewDirectionalLight(math3d.V3(0, 0, 1))
	r.DrawMesh(mesh, cam, light, DefaultConfig())

	for i, z := range r.Depth.Values {
		if z < 0 || z > 1 {
			t.Fatalf("depth[%d] = %v, want within [0,1]", i, z)
		}
	}
}

func TestRasterizerBackfaceCullingOppositeWindings(t *testing.T) {
	white := math3d.ColorWhite()
	light := NewDirectionalLight(math3d.V3(0, 0, 1))

	drawsCenter := func(reverse bool) bool {
		r := newTestRasterizer(64, 64)
		cam := newAxisCamera(64, 64)
		mesh := onAxisTriangle(0.5, white, reverse)
		r.DrawMesh(mesh, cam, light, DefaultConfig())
		return !isBackground(centerPixel(r))
	}

	forward := drawsCenter(false)
	reversed := drawsCenter(true)
	if forward == reversed {
		t.Fatalf("expected exactly one winding to survive back-face culling, got forward=%v reversed=%v", forward, reversed)
	}
}

func TestRasterizerCullNoneDrawsBothWindings(t *testing.T) {
	white := math3d.ColorWhite()
	light := NewDirectionalLight(math3d.V3(0, 0, 1))
	cfg := DefaultConfig()
	cfg.CullMode = CullNone

	for _, reverse := range []bool{false, true} {
		r := newTestRasterizer(64, 64)
		cam := newAxisCamera(64, 64)
		mesh := onAxisTriangle(0.5, white, reverse)
		r.DrawMesh(mesh, cam, light, cfg)
		if isBackground(centerPixel(r)) {
			t.Errorf("reverse=%v: expected CullNone to draw regardless of winding", reverse)
		}
	}
}

func TestTransparencyAlphaBoundaries(t *testing.T) {
	light := NewDirectionalLight(math3d.V3(0, 0, 1))

	t.Run("alpha=0 leaves buffers unchanged", func(t *testing.T) {
		r := newTestRasterizer(32, 32)
		cam := newAxisCamera(32, 32)
		before := append([]float64(nil), r.Depth.Values...)
		mesh := onAxisTriangle(0.5, math3d.Color{R: 1, A: 0}, false)
		mesh.Transparent = true
		r.DrawMesh(mesh, cam, light, DefaultConfig())

		if !isBackground(centerPixel(r)) {
			t.Errorf("alpha=0 triangle changed the color buffer")
		}
		for i, z := range r.Depth.Values {
			if z != before[i] {
				t.Fatalf("alpha=0 triangle changed the depth buffer at %d", i)
			}
		}
	})

	t.Run("alpha=1 matches opaque", func(t *testing.T) {
		color := math3d.Color{R: 0.6, G: 0.2, B: 0.2, A: 1}

		rOpaque := newTestRasterizer(32, 32)
		camOpaque := newAxisCamera(32, 32)
		opaqueMesh := onAxisTriangle(0.5, color, false)
		opaqueMesh.Diffuse = nil
		rOpaque.DrawMesh(opaqueMesh, camOpaque, light, DefaultConfig())

		rTrans := newTestRasterizer(32, 32)
		camTrans := newAxisCamera(32, 32)
		transMesh := onAxisTriangle(0.5, color, false)
		transMesh.Transparent = true
		rTrans.DrawMesh(transMesh, camTrans, light, DefaultConfig())

		cOpaque := centerPixel(rOpaque)
		cTrans := centerPixel(rTrans)
		if cOpaque != cTrans {
			t.Errorf("alpha=1 transparent pixel %+v != opaque pixel %+v", cTrans, cOpaque)
		}
	})
}

func TestBehindCameraVertexSkipsTriangle(t *testing.T) {
	r := newTestRasterizer(32, 32)
	cam := newAxisCamera(32, 32)
	light := NewDirectionalLight(math3d.V3(0, 0, 1))

	mesh := onAxisTriangle(0.5, math3d.ColorWhite(), false)
	// Move one vertex behind the camera's near side along its own axis.
	mesh.Vertices[0].Position = math3d.V3(-1, -1, -5)

	r.DrawMesh(mesh, cam, light, DefaultConfig())
	if !isBackground(centerPixel(r)) {
		t.Errorf("triangle touching a behind-camera vertex should not draw")
	}
}

func TestScreenToNDCRoundTrip(t *testing.T) {
	width, height := 200.0, 150.0
	cases := []struct{ ndcX, ndcY, z float64 }{
		{0, 0, 0.5},
		{-0.7, 0.3, 0.1},
		{0.99, -0.99, 0.9},
	}
	for _, c := range cases {
		sx := (1 + c.ndcX) * 0.5 * width
		sy := (1 - c.ndcY) * 0.5 * height

		gotX := (2*sx)/width - 1
		gotY := 1 - (2*sy)/height

		if math.Abs(gotX-c.ndcX) > 0.5/width*2 {
			t.Errorf("ndc.x round trip: got %v want %v", gotX, c.ndcX)
		}
		if math.Abs(gotY-c.ndcY) > 0.5/height*2 {
			t.Errorf("ndc.y round trip: got %v want %v", gotY, c.ndcY)
		}
	}
}

func TestRationalSelfMatchesStandardPerspectiveInterpolation(t *testing.T) {
	// rationalSelf(W0,W1,W2,...) must match the classic
	// 1/(u/W0+v/W1+w/W2) perspective-correct weight form.
	w0, w1, w2 := 0.2, 0.5, 0.3
	wv0, wv1, wv2 := 1.0, 2.0, 4.0

	got := rationalSelf(wv0, wv1, wv2, w0, w1, w2)
	want := 1.0 / (w0/wv0 + w1/wv1 + w2/wv2)

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("rationalSelf = %v, want %v", got, want)
	}
}
