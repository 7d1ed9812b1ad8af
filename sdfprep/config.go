package sdfprep

import (
	"flag"

	"github.com/pkg/errors"
)

// MeshConfig controls how raw meshes are turned into normalized watertight
// meshes.
type MeshConfig struct {
	// Resolution is the watertight reconstruction fidelity.
	// See Reconstruct() for details.
	Resolution int `json:"resolution"`

	// Smoothing enables cotangent Laplacian smoothing after reconstruction.
	Smoothing bool `json:"smoothing"`

	// LaplacianIterations is the number of smoothing steps.
	LaplacianIterations int `json:"laplacian_num_iters"`
}

// DefaultMeshConfig gets the default mesh preprocessing settings.
func DefaultMeshConfig() MeshConfig {
	return MeshConfig{
		Resolution:          DefaultResolution,
		Smoothing:           true,
		LaplacianIterations: DefaultLaplacianIterations,
	}
}

// AddFlags registers a flag for every field, using the current values as
// defaults.
func (m *MeshConfig) AddFlags(f *flag.FlagSet) {
	f.IntVar(&m.Resolution, "resolution", m.Resolution, "watertight reconstruction resolution")
	f.BoolVar(&m.Smoothing, "smoothing", m.Smoothing, "apply Laplacian smoothing")
	f.IntVar(&m.LaplacianIterations, "laplacian-num-iters", m.LaplacianIterations,
		"number of Laplacian smoothing iterations")
}

func (m *MeshConfig) Validate() error {
	if m.Resolution <= 0 {
		return errors.Errorf("invalid resolution: %d", m.Resolution)
	}
	if m.LaplacianIterations < 0 {
		return errors.Errorf("invalid laplacian iterations: %d", m.LaplacianIterations)
	}
	return nil
}

// NearSurfaceConfig configures one near-surface sampling pass.
type NearSurfaceConfig struct {
	NumSamples int `json:"num_samples"`

	// Scale is the standard deviation of the Gaussian perturbation.
	Scale float64 `json:"scale"`

	// Buffer is the oversampling multiplier, which should exceed 1.
	Buffer float64 `json:"buffer"`
}

func (n *NearSurfaceConfig) addFlags(f *flag.FlagSet, suffix string) {
	f.IntVar(&n.NumSamples, "near-samples-"+suffix, n.NumSamples,
		"number of near-surface samples for pass "+suffix)
	f.Float64Var(&n.Scale, "near-scale-"+suffix, n.Scale,
		"Gaussian noise stddev for near-surface pass "+suffix)
	f.Float64Var(&n.Buffer, "near-buffer-"+suffix, n.Buffer,
		"oversampling multiplier for near-surface pass "+suffix)
}

func (n *NearSurfaceConfig) validate(name string) error {
	if n.NumSamples < 0 {
		return errors.Errorf("%s: invalid sample count %d", name, n.NumSamples)
	}
	if n.Scale < 0 {
		return errors.Errorf("%s: invalid scale %f", name, n.Scale)
	}
	if n.Buffer < 1 {
		return errors.Errorf("%s: buffer must be at least 1, got %f", name, n.Buffer)
	}
	return nil
}

// UnitBallConfig configures the uniform unit-ball sampling pass.
type UnitBallConfig struct {
	NumSamples int     `json:"num_samples"`
	Buffer     float64 `json:"buffer"`
}

// SampleConfig controls how points and signed distances are sampled from a
// normalized mesh.
type SampleConfig struct {
	// SurfaceSamples is the number of points sampled directly on the surface
	// for evaluation.
	SurfaceSamples int `json:"surface_samples"`

	// Near1 is the fine near-surface pass, and Near2 is the coarse one.
	Near1 NearSurfaceConfig `json:"near_1"`
	Near2 NearSurfaceConfig `json:"near_2"`

	Unit UnitBallConfig `json:"unit"`

	// MaxRounds bounds the oversampling rounds of every rejection loop.
	MaxRounds int `json:"max_rounds"`
}

// DefaultSampleConfig gets the default sampling settings.
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{
		SurfaceSamples: 50000,
		Near1: NearSurfaceConfig{
			NumSamples: 100000,
			Scale:      5e-3,
			Buffer:     1.1,
		},
		Near2: NearSurfaceConfig{
			NumSamples: 100000,
			Scale:      5e-2,
			Buffer:     1.1,
		},
		Unit: UnitBallConfig{
			NumSamples: 100000,
			Buffer:     2.0,
		},
		MaxRounds: DefaultMaxRounds,
	}
}

// AddFlags registers a flag for every field, using the current values as
// defaults.
func (s *SampleConfig) AddFlags(f *flag.FlagSet) {
	f.IntVar(&s.SurfaceSamples, "surface-samples", s.SurfaceSamples,
		"number of points sampled on the surface")
	s.Near1.addFlags(f, "1")
	s.Near2.addFlags(f, "2")
	f.IntVar(&s.Unit.NumSamples, "unit-samples", s.Unit.NumSamples,
		"number of points sampled in the unit ball")
	f.Float64Var(&s.Unit.Buffer, "unit-buffer", s.Unit.Buffer,
		"oversampling multiplier for unit ball sampling")
	f.IntVar(&s.MaxRounds, "max-rounds", s.MaxRounds,
		"maximum oversampling rounds per rejection sampler")
}

func (s *SampleConfig) Validate() error {
	if s.SurfaceSamples < 0 {
		return errors.Errorf("invalid surface sample count: %d", s.SurfaceSamples)
	}
	if err := s.Near1.validate("near 1"); err != nil {
		return err
	}
	if err := s.Near2.validate("near 2"); err != nil {
		return err
	}
	if s.Unit.NumSamples < 0 {
		return errors.Errorf("invalid unit sample count: %d", s.Unit.NumSamples)
	}
	if s.Unit.Buffer < 1 {
		return errors.Errorf("unit buffer must be at least 1, got %f", s.Unit.Buffer)
	}
	if s.MaxRounds < 0 {
		return errors.Errorf("invalid max rounds: %d", s.MaxRounds)
	}
	return nil
}

// TotalSDFSamples gets the number of rows in a record's SDF samples.
func (s *SampleConfig) TotalSDFSamples() int {
	return s.Unit.NumSamples + s.Near1.NumSamples + s.Near2.NumSamples
}
