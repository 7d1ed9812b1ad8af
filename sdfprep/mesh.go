package sdfprep

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// A Mesh is an indexed triangle mesh.
//
// Faces index into Vertices. Normals is either empty or holds one unit normal
// per vertex, as computed by ComputeVertexNormals().
type Mesh struct {
	Vertices []model3d.Coord3D
	Faces    [][3]int
	Normals  []model3d.Coord3D
}

// NewMeshModel3D creates an indexed mesh from a model3d mesh, merging
// triangle corners with exactly equal coordinates into shared vertices.
func NewMeshModel3D(m *model3d.Mesh) *Mesh {
	return NewMeshTriangles(m.TriangleSlice())
}

// NewMeshTriangles is like NewMeshModel3D, but for a raw triangle list.
func NewMeshTriangles(tris []*model3d.Triangle) *Mesh {
	res := &Mesh{Faces: make([][3]int, 0, len(tris))}
	indices := map[model3d.Coord3D]int{}
	for _, t := range tris {
		var face [3]int
		for i, c := range t {
			idx, ok := indices[c]
			if !ok {
				idx = len(res.Vertices)
				indices[c] = idx
				res.Vertices = append(res.Vertices, c)
			}
			face[i] = idx
		}
		res.Faces = append(res.Faces, face)
	}
	return res
}

// Model3D converts the mesh into a model3d mesh, preserving face orientation.
//
// Faces which reference the same vertex more than once are dropped.
func (m *Mesh) Model3D() *model3d.Mesh {
	return model3d.NewMeshTriangles(m.Triangles())
}

// Triangles returns one triangle per non-degenerate face.
func (m *Mesh) Triangles() []*model3d.Triangle {
	res := make([]*model3d.Triangle, 0, len(m.Faces))
	for _, f := range m.Faces {
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		res = append(res, &model3d.Triangle{
			m.Vertices[f[0]],
			m.Vertices[f[1]],
			m.Vertices[f[2]],
		})
	}
	return res
}

// Copy creates a deep copy of the mesh.
func (m *Mesh) Copy() *Mesh {
	return &Mesh{
		Vertices: append([]model3d.Coord3D{}, m.Vertices...),
		Faces:    append([][3]int{}, m.Faces...),
		Normals:  append([]model3d.Coord3D{}, m.Normals...),
	}
}

// Validate checks that every face references an existing vertex and that
// every vertex is a finite coordinate.
func (m *Mesh) Validate() error {
	for i, c := range m.Vertices {
		if !finiteCoord(c) {
			return errors.Errorf("vertex %d is not finite: %v", i, c)
		}
	}
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return errors.Errorf("face %d references vertex %d of %d", i, idx,
					len(m.Vertices))
			}
		}
	}
	return nil
}

// Min gets the minimum corner of the vertex bounding box.
func (m *Mesh) Min() model3d.Coord3D {
	if len(m.Vertices) == 0 {
		return model3d.Coord3D{}
	}
	res := m.Vertices[0]
	for _, c := range m.Vertices[1:] {
		res = res.Min(c)
	}
	return res
}

// Max gets the maximum corner of the vertex bounding box.
func (m *Mesh) Max() model3d.Coord3D {
	if len(m.Vertices) == 0 {
		return model3d.Coord3D{}
	}
	res := m.Vertices[0]
	for _, c := range m.Vertices[1:] {
		res = res.Max(c)
	}
	return res
}

// Area computes the total surface area.
func (m *Mesh) Area() float64 {
	var total float64
	for _, t := range m.Triangles() {
		total += t.Area()
	}
	return total
}

// IsWatertight checks if every edge is shared by exactly two faces, which
// traverse it in opposite directions.
func (m *Mesh) IsWatertight() bool {
	if len(m.Faces) == 0 {
		return false
	}
	counts := map[[2]int]int{}
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			counts[[2]int{f[i], f[(i+1)%3]}]++
		}
	}
	for edge, count := range counts {
		if count != 1 || counts[[2]int{edge[1], edge[0]}] != 1 {
			return false
		}
	}
	return true
}

// ComputeVertexNormals sets Normals to the area-weighted average of the
// normals of the faces touching each vertex.
//
// Vertices without any non-degenerate face get a zero normal.
func (m *Mesh) ComputeVertexNormals() {
	normals := make([]model3d.Coord3D, len(m.Vertices))
	for _, f := range m.Faces {
		p1, p2, p3 := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		// The cross product's norm is twice the area, giving area weighting.
		n := p2.Sub(p1).Cross(p3.Sub(p1))
		for _, idx := range f {
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i, n := range normals {
		if norm := n.Norm(); norm > 0 {
			normals[i] = n.Scale(1 / norm)
		}
	}
	m.Normals = normals
}

func finiteCoord(c model3d.Coord3D) bool {
	for _, x := range c.Array() {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
