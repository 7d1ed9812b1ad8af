package sdfprep

import (
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

const (
	// DefaultLaplacianIterations is the default number of smoothing steps
	// applied after watertight reconstruction.
	DefaultLaplacianIterations = 2

	// Cotangents are clamped to this range. Negative weights (from obtuse
	// angles) and huge weights (from slivers) make the update unstable.
	maxCotangent = 1e3

	minWeightSum = 1e-12
)

// Smooth applies Laplacian smoothing to a mesh, returning a new mesh with the
// same faces.
//
// Each iteration moves every vertex to a weighted average of its neighbors.
// If useCotangentWeights is true, the weight of an edge is the mean cotangent
// of the two angles opposite to it; otherwise, all neighbors are weighted
// equally. A vertex whose cotangent weights vanish falls back to uniform
// weights for that iteration.
//
// If iterations is 0, the result is an unmodified copy.
func Smooth(mesh *Mesh, iterations int, useCotangentWeights bool) *Mesh {
	result := mesh.Copy()
	if iterations <= 0 || len(mesh.Faces) == 0 {
		return result
	}

	topology := newEdgeTopology(mesh)
	weights := make([]float64, len(topology.Edges))
	next := make([]model3d.Coord3D, len(result.Vertices))
	for i := 0; i < iterations; i++ {
		if useCotangentWeights {
			topology.CotangentWeights(result.Vertices, weights)
		} else {
			for j := range weights {
				weights[j] = 1
			}
		}
		vertices := result.Vertices
		essentials.ConcurrentMap(0, len(vertices), func(v int) {
			next[v] = topology.Average(v, vertices, weights)
		})
		result.Vertices, next = next, vertices
	}
	if len(result.Normals) > 0 {
		result.ComputeVertexNormals()
	}
	return result
}

type adjacentEdge struct {
	Edge     int
	Neighbor int
}

// edgeTopology stores the undirected edges of a mesh and, for every face, the
// edge opposite to each of its corners.
type edgeTopology struct {
	Faces     [][3]int
	Edges     [][2]int
	Opposite  [][3]int
	Adjacency [][]adjacentEdge
}

func newEdgeTopology(mesh *Mesh) *edgeTopology {
	res := &edgeTopology{
		Faces:     mesh.Faces,
		Opposite:  make([][3]int, len(mesh.Faces)),
		Adjacency: make([][]adjacentEdge, len(mesh.Vertices)),
	}
	edgeIndices := map[[2]int]int{}
	for i, f := range mesh.Faces {
		for corner := 0; corner < 3; corner++ {
			v1, v2 := f[(corner+1)%3], f[(corner+2)%3]
			key := [2]int{v1, v2}
			if v2 < v1 {
				key = [2]int{v2, v1}
			}
			idx, ok := edgeIndices[key]
			if !ok {
				idx = len(res.Edges)
				edgeIndices[key] = idx
				res.Edges = append(res.Edges, key)
				if v1 != v2 {
					res.Adjacency[v1] = append(res.Adjacency[v1], adjacentEdge{idx, v2})
					res.Adjacency[v2] = append(res.Adjacency[v2], adjacentEdge{idx, v1})
				}
			}
			res.Opposite[i][corner] = idx
		}
	}
	return res
}

// CotangentWeights fills weights with half the sum of the cotangents of the
// angles opposite to each edge.
func (e *edgeTopology) CotangentWeights(vertices []model3d.Coord3D, weights []float64) {
	for i := range weights {
		weights[i] = 0
	}
	for i, f := range e.Faces {
		for corner := 0; corner < 3; corner++ {
			p := vertices[f[corner]]
			v1 := vertices[f[(corner+1)%3]].Sub(p)
			v2 := vertices[f[(corner+2)%3]].Sub(p)
			weights[e.Opposite[i][corner]] += cotangent(v1, v2) / 2
		}
	}
}

// Average computes the weighted average of the neighbors of vertex v.
func (e *edgeTopology) Average(v int, vertices []model3d.Coord3D,
	weights []float64) model3d.Coord3D {
	adjacent := e.Adjacency[v]
	if len(adjacent) == 0 {
		return vertices[v]
	}
	var sum model3d.Coord3D
	var totalWeight float64
	for _, a := range adjacent {
		w := weights[a.Edge]
		sum = sum.Add(vertices[a.Neighbor].Scale(w))
		totalWeight += w
	}
	if totalWeight < minWeightSum {
		sum = model3d.Coord3D{}
		for _, a := range adjacent {
			sum = sum.Add(vertices[a.Neighbor])
		}
		totalWeight = float64(len(adjacent))
	}
	return sum.Scale(1 / totalWeight)
}

// cotangent computes the clamped cotangent of the angle between v1 and v2.
func cotangent(v1, v2 model3d.Coord3D) float64 {
	sin := v1.Cross(v2).Norm()
	cos := v1.Dot(v2)
	if sin == 0 {
		return 0
	}
	cot := cos / sin
	if cot < 0 {
		return 0
	} else if cot > maxCotangent {
		return maxCotangent
	}
	return cot
}
