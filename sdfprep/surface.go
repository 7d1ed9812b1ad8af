package sdfprep

import (
	"math/rand"

	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

// A SurfaceSampler draws points uniformly from the surface of a mesh.
//
// Faces are chosen with probability proportional to their area, and points
// are placed uniformly within each face using barycentric coordinates.
type SurfaceSampler struct {
	triangles []*model3d.Triangle

	// cumulative[i] is the total area of triangles[:i+1].
	cumulative []float64
}

// NewSurfaceSampler creates a sampler for the faces of a mesh.
//
// Faces with zero area are ignored. If the total area is zero, a
// *DegenerateMeshError is returned.
func NewSurfaceSampler(mesh *Mesh) (*SurfaceSampler, error) {
	res := &SurfaceSampler{}
	var total float64
	for _, t := range mesh.Triangles() {
		area := t.Area()
		if area == 0 {
			continue
		}
		total += area
		res.triangles = append(res.triangles, t)
		res.cumulative = append(res.cumulative, total)
	}
	if len(res.triangles) == 0 {
		return nil, &DegenerateMeshError{Reason: "zero surface area"}
	}
	return res, nil
}

// Area gets the total area of the sampled surface.
func (s *SurfaceSampler) Area() float64 {
	return s.cumulative[len(s.cumulative)-1]
}

// Sample produces a single random point on the surface.
func (s *SurfaceSampler) Sample(gen *rand.Rand) model3d.Coord3D {
	t := s.triangle(gen)
	u, v := gen.Float64(), gen.Float64()
	if u+v > 1 {
		// Reflect into the lower half of the unit square.
		u, v = 1-u, 1-v
	}
	return t[0].Add(t[1].Sub(t[0]).Scale(u)).Add(t[2].Sub(t[0]).Scale(v))
}

// Generate produces n random points on the surface.
func (s *SurfaceSampler) Generate(gen *rand.Rand, n int) []model3d.Coord3D {
	res := make([]model3d.Coord3D, n)
	for i := range res {
		res[i] = s.Sample(gen)
	}
	return res
}

func (s *SurfaceSampler) triangle(gen *rand.Rand) *model3d.Triangle {
	f := gen.Float64() * s.Area()
	idx, _ := slices.BinarySearch(s.cumulative, f)
	if idx >= len(s.triangles) {
		// Rounding error put us past the end.
		idx = len(s.triangles) - 1
	}
	return s.triangles[idx]
}
