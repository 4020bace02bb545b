package render

import (
	"math"
	"testing"

	"github.com/taigrr/rasteriso/pkg/math3d"
	"github.com/taigrr/rasteriso/pkg/models"
	"github.com/taigrr/rasteriso/pkg/texture"
)

func colorsClose(a, b math3d.Color, tol float64) bool {
	return math.Abs(a.R-b.R) <= tol && math.Abs(a.G-b.G) <= tol &&
		math.Abs(a.B-b.B) <= tol && math.Abs(a.A-b.A) <= tol
}

func baseVertexOut(normal, tangent, worldPos math3d.Vec3) *models.VertexOut {
	return &models.VertexOut{
		WorldPos: worldPos,
		Normal:   normal,
		Tangent:  tangent,
	}
}

func TestShadeFragmentUnlitWithoutNormalMap(t *testing.T) {
	cd := math3d.Color{R: 0.3, G: 0.6, B: 0.9, A: 0.5}
	light := NewDirectionalLight(math3d.V3(0, 0, 1))
	v := baseVertexOut(math3d.V3(0, 0, -1), math3d.V3(1, 0, 0), math3d.Zero3())

	cases := []struct {
		name         string
		mesh         *models.Mesh
		useNormalMap bool
	}{
		{"no texture bound", &models.Mesh{}, true},
		{"global toggle off", &models.Mesh{NormalMp: &texture.Texture{}}, false},
		{"mesh transparent", &models.Mesh{NormalMp: &texture.Texture{}, Transparent: true}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for _, mode := range []ShadingMode{ShadeCombined, ShadeObservedArea, ShadeDiffuse, ShadeSpecular} {
				got := shadeFragment(c.mesh, v, math3d.V3(0, 0, 1), cd, light, math3d.V3(0, 0, 1), mode, c.useNormalMap, nil, math3d.Color{}, math3d.Color{})
				if got != cd {
					t.Errorf("mode %v: got %+v, want unlit %+v", mode, got, cd)
				}
			}
		})
	}
}

func TestShadeFragmentObservedArea(t *testing.T) {
	cd := math3d.Color{R: 0.3, G: 0.6, B: 0.9, A: 0.5}
	mesh := &models.Mesh{NormalMp: &texture.Texture{}}
	normalSample := math3d.V3(0.5, 0.5, 1) // decodes to (0,0,1) tangent-space, i.e. geometric normal
	n := math3d.V3(0, 0, -1)
	tangent := math3d.V3(1, 0, 0)
	v := baseVertexOut(n, tangent, math3d.Zero3())

	t.Run("fully lit", func(t *testing.T) {
		light := NewDirectionalLight(math3d.V3(0, 0, 1)) // ToLight = (0,0,-1), observedArea = 1
		got := shadeFragment(mesh, v, normalSample, cd, light, math3d.V3(0, 0, 1), ShadeObservedArea, true, nil, math3d.Color{}, math3d.Color{})
		want := math3d.Color{R: 1, G: 1, B: 1, A: cd.A}
		if !colorsClose(got, want, 1e-6) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("facing away returns black", func(t *testing.T) {
		light := NewDirectionalLight(math3d.V3(0, 0, -1)) // ToLight = (0,0,1), observedArea = -1
		got := shadeFragment(mesh, v, normalSample, cd, light, math3d.V3(0, 0, 1), ShadeObservedArea, true, nil, math3d.Color{}, math3d.Color{})
		want := math3d.Color{A: cd.A}
		if !colorsClose(got, want, 1e-6) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})
}

func TestShadeFragmentDiffuseIgnoresObservedAreaSign(t *testing.T) {
	cd := math3d.Color{R: 0.8, G: 0.4, B: 0.2, A: 0.9}
	mesh := &models.Mesh{NormalMp: &texture.Texture{}}
	normalSample := math3d.V3(0.5, 0.5, 1)
	n := math3d.V3(0, 0, -1)
	tangent := math3d.V3(1, 0, 0)
	v := baseVertexOut(n, tangent, math3d.Zero3())
	want := math3d.Color{R: cd.R / math.Pi, G: cd.G / math.Pi, B: cd.B / math.Pi, A: cd.A}

	for _, lightDir := range []math3d.Vec3{math3d.V3(0, 0, 1), math3d.V3(0, 0, -1)} {
		light := NewDirectionalLight(lightDir)
		got := shadeFragment(mesh, v, normalSample, cd, light, math3d.V3(0, 0, 1), ShadeDiffuse, true, nil, math3d.Color{}, math3d.Color{})
		if !colorsClose(got, want, 1e-6) {
			t.Errorf("light dir %+v: got %+v, want %+v (lambert must not be gated by observed area)", lightDir, got, want)
		}
	}
}

func TestShadeFragmentSpecularFormula(t *testing.T) {
	cd := math3d.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}
	mesh := &models.Mesh{NormalMp: &texture.Texture{}}
	normalSample := math3d.V3(0.5, 0.5, 1)
	n := math3d.V3(0, 0, -1)
	tangent := math3d.V3(1, 0, 0)
	v := baseVertexOut(n, tangent, math3d.Zero3())
	light := NewDirectionalLight(math3d.V3(0, 0, 1)) // ToLight = (0,0,-1)
	viewDir := math3d.V3(0, 0, 1)
	specularSample := math3d.Color{B: 0.5}
	glossSample := math3d.Color{B: 0.8}

	got := shadeFragment(mesh, v, normalSample, cd, light, viewDir, ShadeSpecular, true, nil, specularSample, glossSample)

	dirToLight := math3d.V3(0, 0, -1)
	reflectDir := dirToLight.Reflect(n)
	cosAlpha := math.Max(0, reflectDir.Dot(viewDir))
	exp := glossSample.B * shininess
	wantRGB := specularSample.B * math.Pow(cosAlpha, exp)
	want := math3d.Color{R: wantRGB, G: wantRGB, B: wantRGB, A: cd.A}

	if !colorsClose(got, want, 1e-6) {
		t.Errorf("got %+v, want %+v (ks=%v cosAlpha=%v exp=%v)", got, want, specularSample.B, cosAlpha, exp)
	}
}

func TestShadeFragmentCombinedSumsTerms(t *testing.T) {
	cd := math3d.Color{R: 0.8, G: 0.4, B: 0.2, A: 0.9}
	mesh := &models.Mesh{NormalMp: &texture.Texture{}}
	normalSample := math3d.V3(0.5, 0.5, 1)
	n := math3d.V3(0, 0, -1)
	tangent := math3d.V3(1, 0, 0)
	v := baseVertexOut(n, tangent, math3d.Zero3())
	light := NewDirectionalLight(math3d.V3(0, 0, 1))
	viewDir := math3d.V3(0, 0, 1)
	specularSample := math3d.Color{B: 0.5}
	glossSample := math3d.Color{B: 0.8}

	got := shadeFragment(mesh, v, normalSample, cd, light, viewDir, ShadeCombined, true, nil, specularSample, glossSample)

	lambert := cd.Scale(light.Intensity / math.Pi)
	dirToLight := math3d.V3(0, 0, -1)
	reflectDir := dirToLight.Reflect(n)
	cosAlpha := math.Max(0, reflectDir.Dot(viewDir))
	exp := glossSample.B * shininess
	specRGB := specularSample.B * math.Pow(cosAlpha, exp)
	specular := math3d.Color{R: specRGB, G: specRGB, B: specRGB}
	want := lambert.Add(specular).Add(ambientColor)
	want = math3d.Color{R: want.R, G: want.G, B: want.B, A: cd.A}.Saturate()
	want.A = cd.A

	if !colorsClose(got, want, 1e-6) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestShadeFragmentCombinedFacingAwayIsBlack(t *testing.T) {
	cd := math3d.Color{R: 0.8, G: 0.4, B: 0.2, A: 0.9}
	mesh := &models.Mesh{NormalMp: &texture.Texture{}}
	normalSample := math3d.V3(0.5, 0.5, 1)
	n := math3d.V3(0, 0, -1)
	tangent := math3d.V3(1, 0, 0)
	v := baseVertexOut(n, tangent, math3d.Zero3())
	light := NewDirectionalLight(math3d.V3(0, 0, -1)) // ToLight = (0,0,1), observedArea = -1

	got := shadeFragment(mesh, v, normalSample, cd, light, math3d.V3(0, 0, 1), ShadeCombined, true, nil, math3d.Color{B: 0.5}, math3d.Color{B: 0.8})
	want := math3d.Color{A: cd.A}
	if !colorsClose(got, want, 1e-6) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

type constantShadow struct{ v float64 }

func (s constantShadow) Visibility(math3d.Vec3) float64 { return s.v }

func TestShadeFragmentShadowAttenuatesCombinedOnly(t *testing.T) {
	cd := math3d.Color{R: 0.8, G: 0.4, B: 0.2, A: 1}
	mesh := &models.Mesh{NormalMp: &texture.Texture{}}
	normalSample := math3d.V3(0.5, 0.5, 1)
	n := math3d.V3(0, 0, -1)
	tangent := math3d.V3(1, 0, 0)
	v := baseVertexOut(n, tangent, math3d.Zero3())
	light := NewDirectionalLight(math3d.V3(0, 0, 1))
	viewDir := math3d.V3(0, 0, 1)
	shadow := constantShadow{v: 0}

	litCombined := shadeFragment(mesh, v, normalSample, cd, light, viewDir, ShadeCombined, true, nil, math3d.Color{B: 0.5}, math3d.Color{B: 0.8})
	shadowedCombined := shadeFragment(mesh, v, normalSample, cd, light, viewDir, ShadeCombined, true, shadow, math3d.Color{B: 0.5}, math3d.Color{B: 0.8})
	if colorsClose(litCombined, shadowedCombined, 1e-9) {
		t.Errorf("full shadow should change the combined result: lit=%+v shadowed=%+v", litCombined, shadowedCombined)
	}
	want := math3d.Color{A: cd.A} // visibility 0 collapses the combined term to black
	if !colorsClose(shadowedCombined, want, 1e-6) {
		t.Errorf("fully shadowed combined = %+v, want %+v", shadowedCombined, want)
	}

	litDiffuse := shadeFragment(mesh, v, normalSample, cd, light, viewDir, ShadeDiffuse, true, nil, math3d.Color{}, math3d.Color{})
	shadowedDiffuse := shadeFragment(mesh, v, normalSample, cd, light, viewDir, ShadeDiffuse, true, shadow, math3d.Color{}, math3d.Color{})
	if !colorsClose(litDiffuse, shadowedDiffuse, 1e-9) {
		t.Errorf("debug diffuse mode must not be affected by the shadow hook: lit=%+v shadowed=%+v", litDiffuse, shadowedDiffuse)
	}
}
