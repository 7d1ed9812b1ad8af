package sdfprep

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/mat"
)

func TestSampleSurface(t *testing.T) {
	surface := testSurfaceSampler(t, 1)
	gen := rand.New(rand.NewSource(1337))
	pool := SampleSurface(gen, surface, 1000)
	if pool.Len() != 1000 || len(pool.Distances) != 1000 {
		t.Fatalf("expected 1000 samples but got %d", pool.Len())
	}
	for i, c := range pool.Points {
		if pool.Distances[i] != 0 {
			t.Fatalf("surface distance should be 0 but got %f", pool.Distances[i])
		}
		if r := c.Norm(); r > 1+1e-8 || r < 0.95 {
			t.Fatalf("point %v is not on the surface", c)
		}
	}
}

func TestSampleNearSurface(t *testing.T) {
	surface := testSurfaceSampler(t, 1)
	oracle := testSphereOracle(t)
	gen := rand.New(rand.NewSource(1337))
	config := NearSurfaceConfig{NumSamples: 1000, Scale: 0.005, Buffer: 1.1}
	pool, err := SampleNearSurface(gen, surface, oracle, config, DefaultMaxRounds)
	if err != nil {
		t.Fatal(err)
	}
	if pool.Len() != 1000 {
		t.Fatalf("expected 1000 samples but got %d", pool.Len())
	}
	for i, c := range pool.Points {
		if c.Norm() > 1 {
			t.Fatalf("point %v is outside the unit ball", c)
		}
		if d := pool.Distances[i]; math.Abs(d) > 0.05 {
			t.Fatalf("point %v has distance %f", c, d)
		}
	}
}

func TestSampleUnitBall(t *testing.T) {
	// A sphere of radius 0.5 fills 1/8 of the unit ball.
	mesh := NewMeshModel3D(model3d.NewMeshIcosphere(model3d.Origin, 0.5, 8))
	oracle, err := NewDistanceOracle(mesh)
	if err != nil {
		t.Fatal(err)
	}
	gen := rand.New(rand.NewSource(1337))
	config := UnitBallConfig{NumSamples: 4000, Buffer: 2}
	pool, err := SampleUnitBall(gen, oracle, config, DefaultMaxRounds)
	if err != nil {
		t.Fatal(err)
	}
	if pool.Len() != 4000 {
		t.Fatalf("expected 4000 samples but got %d", pool.Len())
	}
	var inside int
	for i, c := range pool.Points {
		if c.Norm() > 1 {
			t.Fatalf("point %v is outside the unit ball", c)
		}
		if pool.Distances[i] < 0 {
			inside++
		}
	}
	if frac := float64(inside) / 4000; math.Abs(frac-0.125) > 0.03 {
		t.Errorf("unexpected inside fraction: %f", frac)
	}
}

func TestSamplingDeterministic(t *testing.T) {
	surface := testSurfaceSampler(t, 1)
	config := NearSurfaceConfig{NumSamples: 100, Scale: 0.05, Buffer: 1.1}
	oracle := testSphereOracle(t)
	var pools [2]*SamplePool
	for i := range pools {
		var err error
		pools[i], err = SampleNearSurface(rand.New(rand.NewSource(42)), surface, oracle, config,
			DefaultMaxRounds)
		if err != nil {
			t.Fatal(err)
		}
	}
	if !mat.Equal(pools[0].Matrix(), pools[1].Matrix()) {
		t.Error("same seed gave different samples")
	}
}

func TestRejectionSamplerExhausted(t *testing.T) {
	sampler := &RejectionSampler{
		Generator: UniformCube{},
		Accept: func(c model3d.Coord3D) bool {
			return c.Norm() > 10
		},
		Buffer:    1.5,
		MaxRounds: 5,
	}
	_, err := sampler.Sample(rand.New(rand.NewSource(1337)), 100)
	var exhaustedErr *SamplingExhaustedError
	if !errors.As(err, &exhaustedErr) {
		t.Fatalf("expected SamplingExhaustedError but got %v", err)
	}
	if exhaustedErr.Target != 100 || exhaustedErr.Accepted != 0 || exhaustedErr.Rounds != 5 {
		t.Errorf("unexpected error fields: %+v", exhaustedErr)
	}
}

func TestRejectionSamplerExactCount(t *testing.T) {
	gen := rand.New(rand.NewSource(1337))
	for _, buffer := range []float64{0.5, 1, 1.1, 3} {
		sampler := &RejectionSampler{
			Generator: UniformCube{},
			Accept: func(c model3d.Coord3D) bool {
				return c.X > 0
			},
			Buffer: buffer,
		}
		points, err := sampler.Sample(gen, 777)
		if err != nil {
			t.Fatal(err)
		}
		if len(points) != 777 {
			t.Errorf("buffer %f: expected 777 points but got %d", buffer, len(points))
		}
		for _, p := range points {
			if p.X <= 0 {
				t.Fatalf("buffer %f: rejected point %v was returned", buffer, p)
			}
		}
	}
}

func TestSamplePoolMatrix(t *testing.T) {
	pool := &SamplePool{
		Points:    []model3d.Coord3D{model3d.XYZ(1, 2, 3), model3d.XYZ(-1, 0, 0.5)},
		Distances: []float64{0.25, -0.5},
	}
	m := pool.Matrix()
	if r, c := m.Dims(); r != 2 || c != 4 {
		t.Fatalf("unexpected shape (%d, %d)", r, c)
	}
	if m.At(1, 3) != -0.5 || m.At(0, 2) != 3 {
		t.Errorf("unexpected matrix: %v", mat.Formatted(m))
	}
	if r, c := pool.PointMatrix().Dims(); r != 2 || c != 3 {
		t.Fatalf("unexpected point shape (%d, %d)", r, c)
	}
	decoded, err := NewSamplePoolMatrix(m)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(decoded.Matrix(), m) {
		t.Error("decoded pool does not match")
	}
	if _, err := NewSamplePoolMatrix(mat.NewDense(1, 2, nil)); err == nil {
		t.Error("expected error for two columns")
	}
}

func TestSummarize(t *testing.T) {
	pool := &SamplePool{
		Points: []model3d.Coord3D{model3d.X(0.5), model3d.Y(-1), model3d.Z(0.25),
			model3d.Origin},
		Distances: []float64{-1, 1, 2, 2},
	}
	stats := Summarize(pool)
	if stats.Count != 4 || stats.MeanDistance != 1 || stats.MinDistance != -1 ||
		stats.MaxDistance != 2 || stats.MaxNorm != 1 || stats.InsideFraction != 0.25 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if math.Abs(stats.StdDistance-math.Sqrt(2)) > 1e-8 {
		t.Errorf("expected stddev %f but got %f", math.Sqrt(2), stats.StdDistance)
	}
	if s := Summarize(&SamplePool{}); s.Count != 0 || s.MaxNorm != 0 {
		t.Errorf("unexpected empty stats: %+v", s)
	}
}

func testSurfaceSampler(t *testing.T, radius float64) *SurfaceSampler {
	mesh := NewMeshModel3D(model3d.NewMeshIcosphere(model3d.Origin, radius, 8))
	surface, err := NewSurfaceSampler(mesh)
	if err != nil {
		t.Fatal(err)
	}
	return surface
}
