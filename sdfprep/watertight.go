package sdfprep

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
)

const (
	// DefaultResolution is the default approximate number of voxels which
	// touch the surface during watertight reconstruction.
	DefaultResolution = 20000

	minReconstructionCells = 4

	voxelMargin = 2
)

// Reconstruct converts an arbitrary triangle mesh into a closed manifold mesh.
//
// The mesh is voxelized, the voxels reachable from outside the mesh are found
// with a flood fill, and the surface of the remaining voxels is extracted with
// marching cubes. Holes smaller than a voxel, duplicate triangles, and
// inconsistent orientation do not affect the result.
//
// The resolution is the approximate number of voxels touching the surface of
// a roughly cube-shaped mesh. Higher values preserve more detail.
func Reconstruct(mesh *Mesh, resolution int) (*Mesh, error) {
	if resolution <= 0 {
		return nil, errors.Errorf("reconstruct: invalid resolution %d", resolution)
	}
	if err := mesh.Validate(); err != nil {
		return nil, errors.Wrap(err, "reconstruct")
	}
	tris := mesh.Triangles()
	if len(tris) == 0 {
		return nil, &DegenerateMeshError{Reason: "no faces"}
	}
	var area float64
	for _, t := range tris {
		area += t.Area()
	}
	if area == 0 {
		return nil, &DegenerateMeshError{Reason: "zero surface area"}
	}
	size := mesh.Max().Sub(mesh.Min())
	maxSize := size.MaxCoord()
	if math.Min(math.Min(size.X, size.Y), size.Z) <= maxSize*1e-8 {
		return nil, &DegenerateMeshError{Reason: "zero volume"}
	}

	collider := model3d.MeshToCollider(model3d.NewMeshTriangles(tris))
	grid := newVoxelGrid(collider, reconstructionCells(resolution))
	grid.FloodFill()
	if grid.NumOccupied() == 0 {
		return nil, &DegenerateMeshError{Reason: "no enclosed voxels"}
	}

	surface := model3d.MarchingCubesSearch(grid.Solid(), grid.CellSize, 8)
	result := NewMeshModel3D(surface)
	if len(result.Faces) == 0 {
		return nil, &DegenerateMeshError{Reason: "empty reconstruction"}
	}
	if !result.IsWatertight() {
		return nil, errors.New("reconstruct: extracted surface is not watertight")
	}
	return result, nil
}

func reconstructionCells(resolution int) int {
	return essentials.MaxInt(
		minReconstructionCells,
		int(math.Round(math.Sqrt(float64(resolution)/6))),
	)
}

// A voxelGrid tracks which voxels around a mesh can be reached from outside
// of the mesh without crossing its surface.
//
// The grid has a margin of voxelMargin voxels around the mesh bounds, so the
// outer layers of voxels are always reachable and never occupied.
type voxelGrid struct {
	Collider model3d.Collider
	Origin   model3d.Coord3D
	CellSize float64
	Dims     [3]int

	reachable []bool
	border    []bool
	occupied  []bool
}

func newVoxelGrid(collider model3d.Collider, cells int) *voxelGrid {
	min, max := collider.Min(), collider.Max()
	size := max.Sub(min)
	cellSize := size.MaxCoord() / float64(cells)

	var dims [3]int
	var gridSize [3]float64
	for i, s := range size.Array() {
		dims[i] = int(math.Ceil(s/cellSize)) + 2*voxelMargin
		gridSize[i] = float64(dims[i]) * cellSize
	}
	center := min.Mid(max)
	origin := center.Sub(model3d.NewCoord3DArray(gridSize).Scale(0.5))

	count := dims[0] * dims[1] * dims[2]
	return &voxelGrid{
		Collider:  collider,
		Origin:    origin,
		CellSize:  cellSize,
		Dims:      dims,
		reachable: make([]bool, count),
		border:    make([]bool, count),
	}
}

// FloodFill finds every voxel reachable from the corner of the grid.
//
// Each breadth-first layer is expanded concurrently, since connectivity
// checks dominate the runtime.
func (v *voxelGrid) FloodFill() {
	start := [3]int{0, 0, 0}
	v.reachable[v.index(start)] = true
	frontier := [][3]int{start}

	type expansion struct {
		Neighbors [6][3]int
		Valid     [6]bool
		Connected [6]bool
		Border    bool
	}

	for len(frontier) > 0 {
		results := make([]expansion, len(frontier))
		essentials.ConcurrentMap(0, len(frontier), func(i int) {
			coord := frontier[i]
			res := &results[i]
			v.neighbors(coord, func(j int, neighbor [3]int) {
				res.Neighbors[j] = neighbor
				res.Valid[j] = true
				connected, onEdge := v.connect(coord, neighbor)
				res.Connected[j] = connected
				if onEdge {
					res.Border = true
				}
			})
		})

		var next [][3]int
		for i, res := range results {
			if res.Border {
				v.border[v.index(frontier[i])] = true
			}
			for j, neighbor := range res.Neighbors {
				if !res.Valid[j] || !res.Connected[j] {
					continue
				}
				idx := v.index(neighbor)
				if !v.reachable[idx] {
					v.reachable[idx] = true
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}

	v.occupied = make([]bool, len(v.reachable))
	for i, r := range v.reachable {
		v.occupied[i] = !r || v.border[i]
	}
}

// NumOccupied counts the voxels inside or bordering the surface.
func (v *voxelGrid) NumOccupied() int {
	var count int
	for _, o := range v.occupied {
		if o {
			count++
		}
	}
	return count
}

// Solid creates a solid from the occupied voxels by trilinearly
// interpolating occupancy between voxel centers.
//
// A layer of occupied voxels one voxel thick has occupancy exactly 0.5 at
// its voxel corners, so the threshold is inclusive to keep such layers.
func (v *voxelGrid) Solid() model3d.Solid {
	max := v.Origin.Add(model3d.XYZ(
		float64(v.Dims[0]),
		float64(v.Dims[1]),
		float64(v.Dims[2]),
	).Scale(v.CellSize))
	return model3d.CheckedFuncSolid(v.Origin, max, func(c model3d.Coord3D) bool {
		return v.occupancy(c) >= 0.5
	})
}

func (v *voxelGrid) occupancy(c model3d.Coord3D) float64 {
	// Voxel centers are at integer coordinates in this space.
	local := c.Sub(v.Origin).Scale(1 / v.CellSize).AddScalar(-0.5).Array()
	var base [3]int
	var frac [3]float64
	for i, x := range local {
		f := math.Floor(x)
		base[i] = int(f)
		frac[i] = x - f
	}
	var result float64
	for corner := 0; corner < 8; corner++ {
		weight := 1.0
		var coord [3]int
		for axis := 0; axis < 3; axis++ {
			if corner&(1<<axis) != 0 {
				coord[axis] = base[axis] + 1
				weight *= frac[axis]
			} else {
				coord[axis] = base[axis]
				weight *= 1 - frac[axis]
			}
		}
		if weight != 0 && v.inBounds(coord) && v.occupied[v.index(coord)] {
			result += weight
		}
	}
	return result
}

// connect attempts to make a connection between the centers of two
// neighboring voxels.
//
// If no surface is in the way, the first return value is true. Otherwise, the
// second return value indicates whether the blocking surface is at least as
// close to c1 as to c2. A surface exactly on the shared voxel face marks c1,
// so faces on voxel boundaries are never lost.
func (v *voxelGrid) connect(c1, c2 [3]int) (connected, sourceBorder bool) {
	p1 := v.center(c1)
	p2 := v.center(c2)

	// A sphere check only looks at a local neighborhood, which is
	// much cheaper than a ray query.
	if !v.Collider.SphereCollision(p1.Mid(p2), p1.Dist(p2)/(2-1e-8)) {
		return true, false
	}

	ray := &model3d.Ray{
		Origin:    p1,
		Direction: p2.Sub(p1),
	}
	coll, ok := v.Collider.FirstRayCollision(ray)
	if !ok || coll.Scale > 1 {
		return true, false
	}
	return false, coll.Scale <= 0.5
}

func (v *voxelGrid) neighbors(c [3]int, f func(int, [3]int)) {
	i := 0
	for axis := 0; axis < 3; axis++ {
		for _, delta := range []int{-1, 1} {
			n := c
			n[axis] += delta
			if v.inBounds(n) {
				f(i, n)
			}
			i++
		}
	}
}

func (v *voxelGrid) center(c [3]int) model3d.Coord3D {
	return v.Origin.Add(model3d.XYZ(
		float64(c[0])+0.5,
		float64(c[1])+0.5,
		float64(c[2])+0.5,
	).Scale(v.CellSize))
}

func (v *voxelGrid) inBounds(c [3]int) bool {
	for i, x := range c {
		if x < 0 || x >= v.Dims[i] {
			return false
		}
	}
	return true
}

func (v *voxelGrid) index(c [3]int) int {
	return c[0] + v.Dims[0]*(c[1]+v.Dims[1]*c[2])
}
