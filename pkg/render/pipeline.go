package render

import (
	"github.com/taigrr/rasteriso/pkg/math3d"
	"github.com/taigrr/rasteriso/pkg/models"
)

// transformMesh runs every vertex of mesh through the world/view/projection
// chain and writes the result into mesh.Out, growing it to match
// mesh.Vertices if needed. It never perspective-divides a vertex whose
// clip-space w is non-positive; such vertices are flagged BehindCamera and
// the rasterizer rejects any triangle that touches one.
func transformMesh(mesh *models.Mesh, viewProj math3d.Mat4) {
	out := mesh.EnsureOut()
	world := mesh.World

	for i, v := range mesh.Vertices {
		worldPos := world.MulVec3(v.Position)
		clip := viewProj.MulVec4(math3d.V4FromV3(worldPos, 1))

		o := &out[i]
		o.WorldPos = worldPos
		o.Color = v.Color
		o.UV = v.UV
		o.Normal = world.MulVec3Dir(v.Normal).Normalize()
		o.Tangent = world.MulVec3Dir(v.Tangent).Normalize()

		if clip.W <= 0 {
			o.BehindCamera = true
			o.Position = clip
			continue
		}
		o.BehindCamera = false

		ndc := clip.PerspectiveDivide()
		// Position.W carries the original clip.w, not the divided value;
		// the rasterizer needs it for perspective-correct interpolation.
		o.Position = math3d.V4(ndc.X, ndc.Y, ndc.Z, clip.W)
	}
}
