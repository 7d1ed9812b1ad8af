package sdfprep

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/mat"
)

// A SamplePool is a list of points with their signed distances.
type SamplePool struct {
	Points    []model3d.Coord3D
	Distances []float64
}

// ConcatPools joins pools in order.
func ConcatPools(pools ...*SamplePool) *SamplePool {
	res := &SamplePool{}
	for _, p := range pools {
		res.Points = append(res.Points, p.Points...)
		res.Distances = append(res.Distances, p.Distances...)
	}
	return res
}

func (s *SamplePool) Len() int {
	return len(s.Points)
}

// Matrix creates a (N, 4) matrix of rows (x, y, z, signed distance).
func (s *SamplePool) Matrix() *mat.Dense {
	data := make([]float64, 0, s.Len()*4)
	for i, c := range s.Points {
		data = append(data, c.X, c.Y, c.Z, s.Distances[i])
	}
	return denseOrEmpty(s.Len(), 4, data)
}

// PointMatrix creates a (N, 3) matrix of point coordinates.
func (s *SamplePool) PointMatrix() *mat.Dense {
	data := make([]float64, 0, s.Len()*3)
	for _, c := range s.Points {
		data = append(data, c.X, c.Y, c.Z)
	}
	return denseOrEmpty(s.Len(), 3, data)
}

// NewSamplePoolMatrix is the inverse of Matrix() and PointMatrix().
//
// For a matrix with 3 columns, all distances are 0.
func NewSamplePoolMatrix(m mat.Matrix) (*SamplePool, error) {
	rows, cols := m.Dims()
	if rows == 0 {
		return &SamplePool{}, nil
	}
	if cols != 3 && cols != 4 {
		return nil, errors.Errorf("expected 3 or 4 columns but got %d", cols)
	}
	res := &SamplePool{
		Points:    make([]model3d.Coord3D, rows),
		Distances: make([]float64, rows),
	}
	for i := 0; i < rows; i++ {
		res.Points[i] = model3d.XYZ(m.At(i, 0), m.At(i, 1), m.At(i, 2))
		if cols == 4 {
			res.Distances[i] = m.At(i, 3)
		}
	}
	return res, nil
}

// mat.NewDense panics on zero dimensions, so empty pools use an empty
// matrix.
func denseOrEmpty(rows, cols int, data []float64) *mat.Dense {
	if rows == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(rows, cols, data)
}

// SampleSurface draws points uniformly from a surface.
//
// The signed distance of every point is exactly 0 by construction.
func SampleSurface(gen *rand.Rand, surface *SurfaceSampler, numSamples int) *SamplePool {
	return &SamplePool{
		Points:    surface.Generate(gen, numSamples),
		Distances: make([]float64, numSamples),
	}
}

// SampleNearSurface draws surface points perturbed by Gaussian noise,
// rejecting those outside the unit ball, and queries their signed distances.
func SampleNearSurface(
	gen *rand.Rand,
	surface *SurfaceSampler,
	oracle *DistanceOracle,
	config NearSurfaceConfig,
	maxRounds int,
) (*SamplePool, error) {
	sampler := &RejectionSampler{
		Generator: &GaussianPerturbation{Surface: surface, Scale: config.Scale},
		Accept:    InUnitBall,
		Buffer:    config.Buffer,
		MaxRounds: maxRounds,
	}
	return sampleWithOracle(gen, sampler, oracle, config.NumSamples)
}

// SampleUnitBall draws points uniformly from the unit ball and queries their
// signed distances.
func SampleUnitBall(
	gen *rand.Rand,
	oracle *DistanceOracle,
	config UnitBallConfig,
	maxRounds int,
) (*SamplePool, error) {
	sampler := &RejectionSampler{
		Generator: UniformCube{},
		Accept:    InUnitBall,
		Buffer:    config.Buffer,
		MaxRounds: maxRounds,
	}
	return sampleWithOracle(gen, sampler, oracle, config.NumSamples)
}

func sampleWithOracle(
	gen *rand.Rand,
	sampler *RejectionSampler,
	oracle *DistanceOracle,
	numSamples int,
) (*SamplePool, error) {
	points, err := sampler.Sample(gen, numSamples)
	if err != nil {
		return nil, err
	}
	distances, err := oracle.Query(points)
	if err != nil {
		return nil, err
	}
	return &SamplePool{Points: points, Distances: distances}, nil
}
