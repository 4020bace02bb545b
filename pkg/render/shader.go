package render

import (
	"math"

	"github.com/taigrr/rasteriso/pkg/math3d"
	"github.com/taigrr/rasteriso/pkg/models"
)

// ShadingMode selects which term of the lighting equation a fragment's
// color is set to, mainly useful for debugging individual lighting terms.
type ShadingMode int

const (
	ShadeCombined     ShadingMode = iota // ambient + diffuse + specular, scaled by observed area (default)
	ShadeObservedArea                    // N·dir_to_light visualized as grayscale
	ShadeDiffuse                         // lambert diffuse term only
	ShadeSpecular                        // phong specular term only
)

const shininess = 25.0

var ambientColor = math3d.Color{R: 0.025, G: 0.025, B: 0.025, A: 1}

// shadeFragment computes the lit color of one interpolated fragment. cd is
// the already-sampled (or interpolated) diffuse color, carrying the
// fragment's alpha. viewDir points from the camera toward the surface.
func shadeFragment(
	mesh *models.Mesh,
	v *models.VertexOut,
	normalSample math3d.Vec3,
	cd math3d.Color,
	light *DirectionalLight,
	viewDir math3d.Vec3,
	mode ShadingMode,
	useNormalMap bool,
	shadow models.ShadowSampler,
	specularSample, glossSample math3d.Color,
) math3d.Color {
	geometricNormal := v.Normal
	usesNormalMap := useNormalMap && !mesh.Transparent && mesh.NormalMp != nil

	n := geometricNormal
	if usesNormalMap {
		tangent := v.Tangent.Reject(geometricNormal).Normalize()
		bitangent := geometricNormal.Cross(tangent)
		// Normal maps store components in [0,1]; remap to [-1,1] before
		// rotating into world space via the TBN basis.
		nx := normalSample.X*2 - 1
		ny := normalSample.Y*2 - 1
		nz := normalSample.Z*2 - 1
		n = tangent.Scale(nx).Add(bitangent.Scale(ny)).Add(geometricNormal.Scale(nz)).Normalize()
	}

	// A mesh drawing without an active normal map - transparent, toggled
	// off, or simply untextured with one - never receives lighting; its
	// diffuse sample is the final color. This is how the unlit fire layer
	// and every other unlit pass fall out of the same shading path.
	if !usesNormalMap {
		return cd
	}

	dirToLight := light.ToLight()
	observedArea := n.Dot(dirToLight)

	if mode == ShadeObservedArea {
		if observedArea <= 0 {
			return math3d.Color{A: cd.A}
		}
		return math3d.Color{R: observedArea, G: observedArea, B: observedArea, A: cd.A}
	}

	lambert := cd.Scale(light.Intensity / math.Pi)

	if mode == ShadeDiffuse {
		lambert.A = cd.A
		return lambert
	}

	ks := specularSample.B
	exp := glossSample.B * shininess
	reflectDir := dirToLight.Reflect(n)
	cosAlpha := math.Max(0, reflectDir.Dot(viewDir))
	specular := math3d.ColorWhite().Scale(ks * math.Pow(cosAlpha, exp))

	if mode == ShadeSpecular {
		specular.A = cd.A
		return specular
	}

	if observedArea <= 0 {
		return math3d.Color{A: cd.A}
	}

	visibility := 1.0
	if shadow != nil {
		visibility = shadow.Visibility(v.WorldPos)
	}

	color := lambert.Add(specular).Add(ambientColor).Scale(observedArea * visibility)
	color.A = cd.A
	return color.Saturate()
}
