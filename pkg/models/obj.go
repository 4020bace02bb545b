package models

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/taigrr/rasteriso/pkg/math3d"
)

// LoadOBJ parses an ASCII Wavefront OBJ file (v/vt/vn/f directives only)
// into a Mesh. flipAxisAndWinding, when true (the default callers should
// use), negates the z-component of positions, normals, and tangents,
// stores v-coordinates as 1-v, and emits triangle indices in the order
// (0,2,1) — producing a left-handed mesh with winding matching the rest of
// the pipeline. Unsupported directives are ignored. A malformed face or
// vertex line is skipped; parsing continues with the rest of the file.
func LoadOBJ(path string, flipAxisAndWinding bool) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("models: open %q: %w", path, err)
	}
	defer f.Close()

	var positions []math3d.Vec3
	var uvs []math3d.Vec2
	var normals []math3d.Vec3

	mesh := NewMesh(path)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, ok := parseVec3(fields[1:])
			if !ok {
				continue
			}
			positions = append(positions, p)
		case "vt":
			v, ok := parseVec2(fields[1:])
			if !ok {
				continue
			}
			if flipAxisAndWinding {
				v.Y = 1 - v.Y
			}
			uvs = append(uvs, v)
		case "vn":
			n, ok := parseVec3(fields[1:])
			if !ok {
				continue
			}
			normals = append(normals, n)
		case "f":
			appendFace(mesh, fields[1:], positions, uvs, normals, flipAxisAndWinding)
		}
	}

	computeTangents(mesh)
	mesh.CalculateBounds()
	return mesh, nil
}

func parseVec3(fields []string) (math3d.Vec3, bool) {
	if len(fields) < 3 {
		return math3d.Vec3{}, false
	}
	x, err1 := strconv.ParseFloat(fields[0], 64)
	y, err2 := strconv.ParseFloat(fields[1], 64)
	z, err3 := strconv.ParseFloat(fields[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return math3d.Vec3{}, false
	}
	return math3d.V3(x, y, z), true
}

func parseVec2(fields []string) (math3d.Vec2, bool) {
	if len(fields) < 2 {
		return math3d.Vec2{}, false
	}
	x, err1 := strconv.ParseFloat(fields[0], 64)
	y, err2 := strconv.ParseFloat(fields[1], 64)
	if err1 != nil || err2 != nil {
		return math3d.Vec2{}, false
	}
	return math3d.V2(x, y), true
}

// faceVertex is a parsed p/t/n token; indices are 0-based, -1 if absent.
type faceVertex struct {
	p, t, n int
}

func parseFaceToken(tok string, posLen, uvLen, normLen int) (faceVertex, bool) {
	parts := strings.Split(tok, "/")
	fv := faceVertex{p: -1, t: -1, n: -1}

	resolve := func(s string, n int) (int, bool) {
		if s == "" {
			return -1, true
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		if i < 0 {
			i = n + i + 1
		}
		if i < 1 || i > n {
			return 0, false
		}
		return i - 1, true
	}

	var ok bool
	if len(parts) > 0 {
		if fv.p, ok = resolve(parts[0], posLen); !ok {
			return fv, false
		}
	}
	if len(parts) > 1 {
		if fv.t, ok = resolve(parts[1], uvLen); !ok {
			return fv, false
		}
	}
	if len(parts) > 2 {
		if fv.n, ok = resolve(parts[2], normLen); !ok {
			return fv, false
		}
	}
	if fv.p < 0 {
		return fv, false
	}
	return fv, true
}

// appendFace triangulates a face directive (fan triangulation for polygons
// beyond a triple) and appends three freshly-built Vertex records per
// triangle, per the non-deduplicated emission spec.md's OBJ ingest
// requires. Index order is (0,2,1) under the flip convention.
func appendFace(mesh *Mesh, tokens []string, positions []math3d.Vec3, uvs []math3d.Vec2, normals []math3d.Vec3, flip bool) {
	if len(tokens) < 3 {
		return
	}
	verts := make([]faceVertex, 0, len(tokens))
	for _, tok := range tokens {
		fv, ok := parseFaceToken(tok, len(positions), len(uvs), len(normals))
		if !ok {
			return
		}
		verts = append(verts, fv)
	}

	for i := 1; i+1 < len(verts); i++ {
		tri := [3]faceVertex{verts[0], verts[i], verts[i+1]}
		base := uint32(len(mesh.Vertices))
		for _, fv := range tri {
			v := Vertex{Position: positions[fv.p]}
			if fv.t >= 0 {
				v.UV = uvs[fv.t]
			}
			if fv.n >= 0 {
				v.Normal = normals[fv.n]
			}
			v.Color = math3d.ColorWhite()
			if flip {
				v.Position.Z = -v.Position.Z
				v.Normal.Z = -v.Normal.Z
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}
		if flip {
			mesh.Indices = append(mesh.Indices, base+0, base+2, base+1)
		} else {
			mesh.Indices = append(mesh.Indices, base+0, base+1, base+2)
		}
	}
}

// computeTangents accumulates per-triangle tangents from edge/UV
// derivatives, then orthonormalizes each vertex's accumulated tangent
// against its normal via Gram-Schmidt reject.
func computeTangents(mesh *Mesh) {
	accum := make([]math3d.Vec3, len(mesh.Vertices))

	n := mesh.TriangleCount()
	for t := range n {
		i0, i1, i2 := mesh.TriangleIndices(t)

		p0, p1, p2 := mesh.Vertices[i0].Position, mesh.Vertices[i1].Position, mesh.Vertices[i2].Position
		uv0, uv1, uv2 := mesh.Vertices[i0].UV, mesh.Vertices[i1].UV, mesh.Vertices[i2].UV

		e0 := p1.Sub(p0)
		e1 := p2.Sub(p0)
		du1, du2 := uv1.X-uv0.X, uv2.X-uv0.X
		dv1, dv2 := uv1.Y-uv0.Y, uv2.Y-uv0.Y

		denom := du1*dv2 - du2*dv1
		if denom == 0 {
			continue
		}
		r := 1.0 / denom
		tangent := e0.Scale(dv2 * r).Sub(e1.Scale(dv1 * r))

		accum[i0] = accum[i0].Add(tangent)
		accum[i1] = accum[i1].Add(tangent)
		accum[i2] = accum[i2].Add(tangent)
	}

	for i := range mesh.Vertices {
		mesh.Vertices[i].Tangent = accum[i].Reject(mesh.Vertices[i].Normal).Normalize()
	}
}
