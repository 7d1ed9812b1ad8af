package sdfprep

import (
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

// A DistanceOracle answers signed distance queries for a closed mesh.
//
// Distances are negative inside the mesh, positive outside, and zero on the
// surface. The oracle is immutable after construction, so it may be queried
// from many Goroutines at once.
type DistanceOracle struct {
	sdf model3d.SDF

	// Concurrency is the maximum number of Goroutines used by Query.
	// If 0, GOMAXPROCS is used.
	Concurrency int
}

// NewDistanceOracle builds a bounding volume hierarchy over the triangles of
// a closed mesh.
func NewDistanceOracle(mesh *Mesh) (*DistanceOracle, error) {
	tris := mesh.Triangles()
	if len(tris) == 0 {
		return nil, &DegenerateMeshError{Reason: "no faces"}
	}
	return &DistanceOracle{
		sdf: model3d.MeshToSDF(model3d.NewMeshTriangles(tris)),
	}, nil
}

// Min gets the minimum corner of the mesh bounds.
func (d *DistanceOracle) Min() model3d.Coord3D {
	return d.sdf.Min()
}

// Max gets the maximum corner of the mesh bounds.
func (d *DistanceOracle) Max() model3d.Coord3D {
	return d.sdf.Max()
}

// SignedDistance computes the signed distance for a single point.
func (d *DistanceOracle) SignedDistance(c model3d.Coord3D) (float64, error) {
	if !finiteCoord(c) {
		return 0, &OracleQueryError{Point: c.Array()}
	}
	return d.signedDistance(c), nil
}

// Query computes the signed distance for every point in a batch.
//
// If any point is not finite, no distances are computed and an
// *OracleQueryError identifies the first offending point.
func (d *DistanceOracle) Query(points []model3d.Coord3D) ([]float64, error) {
	for i, c := range points {
		if !finiteCoord(c) {
			return nil, &OracleQueryError{Index: i, Point: c.Array()}
		}
	}
	res := make([]float64, len(points))
	essentials.ConcurrentMap(d.Concurrency, len(points), func(i int) {
		res[i] = d.signedDistance(points[i])
	})
	return res, nil
}

func (d *DistanceOracle) signedDistance(c model3d.Coord3D) float64 {
	// model3d uses positive values for the inside of a surface.
	return -d.sdf.SDF(c)
}
