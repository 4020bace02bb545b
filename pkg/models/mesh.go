// Package models provides mesh loading and storage for the rasterizer.
package models

import (
	"github.com/taigrr/rasteriso/pkg/math3d"
	"github.com/taigrr/rasteriso/pkg/texture"
)

// Topology selects how the index array is interpreted into triangles.
type Topology int

const (
	TriangleList  Topology = iota // indices step by 3, one triangle per group
	TriangleStrip                 // indices step by 1, N-2 triangles, alternating winding
)

// Vertex is model-space input data for one corner of a triangle. Normal and
// Tangent must be unit length; Tangent is orthogonal to Normal once a
// loader has run Gram-Schmidt reject on it.
type Vertex struct {
	Position math3d.Vec3
	Color    math3d.Color
	UV       math3d.Vec2
	Normal   math3d.Vec3
	Tangent  math3d.Vec3
}

// VertexOut is the per-vertex scratch record the pipeline (C6) produces and
// the rasterizer (C7) interpolates across a triangle's pixels.
//
// Position.W always carries the original clip-space w — never the
// perspective-divided value. The rasterizer reads it but does not
// overwrite it; interpolated values go into a separate per-pixel record.
// This is the invariant perspective-correct interpolation depends on.
type VertexOut struct {
	Position math3d.Vec4
	WorldPos math3d.Vec3
	Color    math3d.Color
	UV       math3d.Vec2
	Normal   math3d.Vec3
	Tangent  math3d.Vec3

	// BehindCamera marks a vertex whose clip.w <= 0; the pipeline does not
	// perspective-divide it, and the rasterizer rejects any triangle that
	// touches it.
	BehindCamera bool
}

// Mesh owns a vertex array, an index array, a topology, a world transform,
// a transparency flag, and up to four texture references. It performs no
// drawing itself.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Topology Topology

	World math3d.Mat4

	// Transparent disables normal-mapping and depth writes for this mesh,
	// and allows both triangle windings to draw regardless of cull_mode.
	Transparent bool

	Diffuse  *texture.Texture
	NormalMp *texture.Texture
	Specular *texture.Texture
	Gloss    *texture.Texture

	// Shadow, if set, attenuates direct light on this mesh at shading time.
	Shadow ShadowSampler

	// VertexOut scratch, resized to len(Vertices) on first use and
	// overwritten every frame by the pipeline.
	Out []VertexOut

	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// ShadowSampler is an optional hook that attenuates direct light at a
// world-space point, e.g. from a shadow map rendered by the caller. It
// returns the fraction of light reaching that point, in [0, 1]: 1 is fully
// lit, 0 is fully shadowed. A mesh with no ShadowSampler is never shadowed.
type ShadowSampler interface {
	Visibility(worldPos math3d.Vec3) float64
}

// NewMesh creates an empty mesh with an identity world transform.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:  name,
		World: math3d.Identity(),
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles implied by Indices and
// Topology.
func (m *Mesh) TriangleCount() int {
	switch m.Topology {
	case TriangleStrip:
		if len(m.Indices) < 3 {
			return 0
		}
		return len(m.Indices) - 2
	default:
		return len(m.Indices) / 3
	}
}

// EnsureOut resizes the VertexOut scratch array to match Vertices if needed.
func (m *Mesh) EnsureOut() []VertexOut {
	if len(m.Out) != len(m.Vertices) {
		m.Out = make([]VertexOut, len(m.Vertices))
	}
	return m.Out
}

// SetWorld updates the mesh's world matrix.
func (m *Mesh) SetWorld(world math3d.Mat4) {
	m.World = world
}

// CalculateBounds computes the model-space axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}
	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the model-space bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the model-space bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// CalculateNormals computes flat (per-face) normals and assigns them to
// each vertex of each triangle, duplicating shared corners' normals.
// Only meaningful when vertices are not shared across faces; used by
// ingest paths that lack authored normals.
func (m *Mesh) CalculateNormals() {
	forEachTriangle(m, func(i0, i1, i2 uint32) {
		v0, v1, v2 := m.Vertices[i0].Position, m.Vertices[i1].Position, m.Vertices[i2].Position
		n := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
		m.Vertices[i0].Normal = n
		m.Vertices[i1].Normal = n
		m.Vertices[i2].Normal = n
	})
}

// CalculateSmoothNormals computes area-weighted averaged normals across
// shared vertices.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}
	forEachTriangle(m, func(i0, i1, i2 uint32) {
		v0, v1, v2 := m.Vertices[i0].Position, m.Vertices[i1].Position, m.Vertices[i2].Position
		n := v1.Sub(v0).Cross(v2.Sub(v0)) // unnormalized: area-weighted
		m.Vertices[i0].Normal = m.Vertices[i0].Normal.Add(n)
		m.Vertices[i1].Normal = m.Vertices[i1].Normal.Add(n)
		m.Vertices[i2].Normal = m.Vertices[i2].Normal.Add(n)
	})
	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// TriangleIndices returns the three vertex indices of triangle t, accounting
// for topology: a triangle list steps by 3, a triangle strip steps by 1 and
// swaps the last two indices on odd triangles to preserve winding.
func (m *Mesh) TriangleIndices(t int) (i0, i1, i2 uint32) {
	if m.Topology == TriangleStrip {
		i0, i1, i2 = m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		if t%2 == 1 {
			i1, i2 = i2, i1
		}
		return
	}
	return m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
}

func forEachTriangle(m *Mesh, fn func(i0, i1, i2 uint32)) {
	n := m.TriangleCount()
	for t := range n {
		i0, i1, i2 := m.TriangleIndices(t)
		fn(i0, i1, i2)
	}
}

// Clone creates a deep copy of the mesh, sharing texture references.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:        m.Name,
		Vertices:    append([]Vertex(nil), m.Vertices...),
		Indices:     append([]uint32(nil), m.Indices...),
		Topology:    m.Topology,
		World:       m.World,
		Transparent: m.Transparent,
		Diffuse:     m.Diffuse,
		NormalMp:    m.NormalMp,
		Specular:    m.Specular,
		Gloss:       m.Gloss,
		Shadow:      m.Shadow,
		BoundsMin:   m.BoundsMin,
		BoundsMax:   m.BoundsMax,
	}
	return clone
}
