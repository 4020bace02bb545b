package models

import (
	"math"
	"testing"

	"github.com/taigrr/rasteriso/pkg/math3d"
)

func squareMesh() *Mesh {
	m := NewMesh("square")
	m.Vertices = []Vertex{
		{Position: math3d.V3(-1, -1, 0)},
		{Position: math3d.V3(1, -1, 0)},
		{Position: math3d.V3(1, 1, 0)},
		{Position: math3d.V3(-1, 1, 0)},
	}
	m.Indices = []uint32{0, 1, 2, 0, 2, 3}
	return m
}

func TestTriangleCountTriangleList(t *testing.T) {
	m := squareMesh()
	if got, want := m.TriangleCount(), 2; got != want {
		t.Errorf("TriangleCount() = %d, want %d", got, want)
	}
}

func TestTriangleCountTriangleStrip(t *testing.T) {
	m := NewMesh("strip")
	m.Topology = TriangleStrip
	m.Indices = []uint32{0, 1, 2, 3, 4}
	if got, want := m.TriangleCount(), 3; got != want {
		t.Errorf("TriangleCount() = %d, want %d", got, want)
	}
}

func TestTriangleIndicesStripSwapsOddWinding(t *testing.T) {
	m := NewMesh("strip")
	m.Topology = TriangleStrip
	m.Indices = []uint32{0, 1, 2, 3, 4}

	i0, i1, i2 := m.TriangleIndices(0)
	if i0 != 0 || i1 != 1 || i2 != 2 {
		t.Errorf("triangle 0 = (%d,%d,%d), want (0,1,2)", i0, i1, i2)
	}
	i0, i1, i2 = m.TriangleIndices(1)
	if i0 != 1 || i1 != 3 || i2 != 2 {
		t.Errorf("triangle 1 (odd, swapped) = (%d,%d,%d), want (1,3,2)", i0, i1, i2)
	}
}

func TestCalculateNormalsFacesCamera(t *testing.T) {
	m := squareMesh()
	m.CalculateNormals()
	for i, v := range m.Vertices {
		if math.Abs(v.Normal.Z-1) > 1e-9 || v.Normal.X != 0 || v.Normal.Y != 0 {
			t.Errorf("vertex %d normal = %+v, want (0,0,1)", i, v.Normal)
		}
	}
}

func TestCalculateSmoothNormalsAreUnitLength(t *testing.T) {
	m := squareMesh()
	m.CalculateSmoothNormals()
	for i, v := range m.Vertices {
		if math.Abs(v.Normal.Len()-1) > 1e-9 {
			t.Errorf("vertex %d normal not unit length: %v", i, v.Normal.Len())
		}
	}
}

func TestCloneIsIndependentOfSource(t *testing.T) {
	m := squareMesh()
	clone := m.Clone()
	clone.Vertices[0].Position = math3d.V3(99, 99, 99)
	clone.Indices[0] = 77

	if m.Vertices[0].Position == clone.Vertices[0].Position {
		t.Errorf("mutating the clone's vertices mutated the source")
	}
	if m.Indices[0] == clone.Indices[0] {
		t.Errorf("mutating the clone's indices mutated the source")
	}
}

func TestEnsureOutResizesOnVertexCountChange(t *testing.T) {
	m := squareMesh()
	out := m.EnsureOut()
	if len(out) != 4 {
		t.Fatalf("EnsureOut() len = %d, want 4", len(out))
	}
	m.Vertices = append(m.Vertices, Vertex{})
	out = m.EnsureOut()
	if len(out) != 5 {
		t.Errorf("EnsureOut() after growth len = %d, want 5", len(out))
	}
}

func TestCalculateBoundsAndCenter(t *testing.T) {
	m := squareMesh()
	m.CalculateBounds()
	if m.BoundsMin != math3d.V3(-1, -1, 0) {
		t.Errorf("BoundsMin = %+v, want (-1,-1,0)", m.BoundsMin)
	}
	if m.BoundsMax != math3d.V3(1, 1, 0) {
		t.Errorf("BoundsMax = %+v, want (1,1,0)", m.BoundsMax)
	}
	if m.Center() != math3d.Zero3() {
		t.Errorf("Center() = %+v, want origin", m.Center())
	}
}
