package sdfprep

import "github.com/unixpickle/model3d/model3d"

// Normalize creates a copy of the mesh with the center of its bounding box at
// the origin, scaled so that the farthest vertex has norm exactly 1.
//
// Vertex normals of the result are recomputed.
func Normalize(mesh *Mesh) (*Mesh, error) {
	result := mesh.Copy()
	if len(result.Vertices) == 0 {
		return nil, &ZeroExtentError{}
	}
	translate := mesh.BoundsCenter()
	var maxNorm float64
	for i, c := range result.Vertices {
		c = c.Sub(translate)
		result.Vertices[i] = c
		if n := c.Norm(); n > maxNorm {
			maxNorm = n
		}
	}
	if maxNorm == 0 {
		return nil, &ZeroExtentError{NumVertices: len(result.Vertices)}
	}
	for i, c := range result.Vertices {
		result.Vertices[i] = c.Scale(1 / maxNorm)
	}
	result.ComputeVertexNormals()
	return result, nil
}

// MaxNorm computes the largest distance from the origin to a vertex.
func (m *Mesh) MaxNorm() float64 {
	var res float64
	for _, c := range m.Vertices {
		if n := c.Norm(); n > res {
			res = n
		}
	}
	return res
}

// BoundsCenter gets the center of the vertex bounding box.
func (m *Mesh) BoundsCenter() model3d.Coord3D {
	return m.Min().Mid(m.Max())
}
