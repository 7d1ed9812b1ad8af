package sdfprep

import (
	"math"
	"math/rand"

	"github.com/unixpickle/model3d/model3d"
)

// DefaultMaxRounds is the default number of oversampling rounds a
// RejectionSampler may take before giving up.
const DefaultMaxRounds = 100

// A PointGenerator produces batches of random candidate points.
type PointGenerator interface {
	Generate(gen *rand.Rand, n int) []model3d.Coord3D
}

// A RejectionSampler draws an exact number of points from a PointGenerator,
// keeping only those which satisfy a predicate.
//
// Each round draws Buffer times the remaining quota, filters the candidates,
// and accumulates the survivors. If the pool overshoots the quota, it is
// subsampled uniformly with replacement, which does not bias the spatial
// distribution of the survivors.
type RejectionSampler struct {
	Generator PointGenerator
	Accept    func(c model3d.Coord3D) bool

	// Buffer is the oversampling multiplier. Values below 1 are treated as 1.
	Buffer float64

	// MaxRounds bounds the number of generate-and-filter rounds.
	// If 0, DefaultMaxRounds is used.
	MaxRounds int
}

// Sample produces exactly numSamples accepted points, or returns a
// *SamplingExhaustedError if the quota was not met in time.
func (r *RejectionSampler) Sample(gen *rand.Rand, numSamples int) ([]model3d.Coord3D, error) {
	if numSamples <= 0 {
		return []model3d.Coord3D{}, nil
	}
	maxRounds := r.MaxRounds
	if maxRounds == 0 {
		maxRounds = DefaultMaxRounds
	}
	buffer := math.Max(1, r.Buffer)

	accepted := make([]model3d.Coord3D, 0, numSamples)
	rounds := 0
	for len(accepted) < numSamples {
		if rounds == maxRounds {
			return nil, &SamplingExhaustedError{
				Target:   numSamples,
				Accepted: len(accepted),
				Rounds:   rounds,
			}
		}
		rounds++
		toSample := int(float64(numSamples-len(accepted)) * buffer)
		if toSample < 1 {
			toSample = 1
		}
		for _, c := range r.Generator.Generate(gen, toSample) {
			if r.Accept(c) {
				accepted = append(accepted, c)
			}
		}
	}

	if len(accepted) == numSamples {
		return accepted, nil
	}
	res := make([]model3d.Coord3D, numSamples)
	for i := range res {
		res[i] = accepted[gen.Intn(len(accepted))]
	}
	return res, nil
}

// InUnitBall checks if a point is inside the closed unit ball.
func InUnitBall(c model3d.Coord3D) bool {
	return c.Norm() <= 1
}

// UniformCube generates points uniformly inside the cube [-1, 1]^3.
type UniformCube struct{}

func (u UniformCube) Generate(gen *rand.Rand, n int) []model3d.Coord3D {
	res := make([]model3d.Coord3D, n)
	for i := range res {
		res[i] = model3d.XYZ(gen.Float64()*2-1, gen.Float64()*2-1, gen.Float64()*2-1)
	}
	return res
}

// A GaussianPerturbation generates points on a surface and displaces them by
// isotropic Gaussian noise.
type GaussianPerturbation struct {
	Surface *SurfaceSampler

	// Scale is the standard deviation of the noise along each axis.
	Scale float64
}

func (g *GaussianPerturbation) Generate(gen *rand.Rand, n int) []model3d.Coord3D {
	res := g.Surface.Generate(gen, n)
	for i, c := range res {
		noise := model3d.XYZ(gen.NormFloat64(), gen.NormFloat64(), gen.NormFloat64())
		res[i] = c.Add(noise.Scale(g.Scale))
	}
	return res
}
