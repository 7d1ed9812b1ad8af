package sdfprep

import (
	"fmt"
	"log"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// A Record is the training data for one object.
type Record struct {
	// Pools holding signed distances, in the order they are concatenated
	// into SDF samples.
	Unit  *SamplePool
	Near1 *SamplePool
	Near2 *SamplePool

	// Surface holds points on the surface, with all distances zero.
	Surface *SamplePool
}

// SDFSamples concatenates the unit ball, fine and coarse near-surface pools.
func (r *Record) SDFSamples() *SamplePool {
	return ConcatPools(r.Unit, r.Near1, r.Near2)
}

// SDFMatrix creates the (N, 4) training matrix of points and distances.
func (r *Record) SDFMatrix() *mat.Dense {
	return r.SDFSamples().Matrix()
}

// SurfaceMatrix creates the (M, 3) matrix of surface points.
func (r *Record) SurfaceMatrix() *mat.Dense {
	return r.Surface.PointMatrix()
}

// A Pipeline turns raw meshes into training records.
//
// A Pipeline holds no per-object state, so one value can be shared by many
// Goroutines.
type Pipeline struct {
	Mesh    MeshConfig
	Samples SampleConfig

	// Verbose, if true, logs each stage.
	Verbose bool

	// LogPrefix is prepended to verbose log lines, typically to name the
	// object being processed.
	LogPrefix string
}

// NewPipeline creates a pipeline with the default configuration.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Mesh:    DefaultMeshConfig(),
		Samples: DefaultSampleConfig(),
	}
}

func (p *Pipeline) Validate() error {
	if err := p.Mesh.Validate(); err != nil {
		return errors.Wrap(err, "mesh config")
	}
	if err := p.Samples.Validate(); err != nil {
		return errors.Wrap(err, "sample config")
	}
	return nil
}

// Preprocess runs every stage on a raw mesh: watertight reconstruction,
// smoothing, normalization, and sampling.
func (p *Pipeline) Preprocess(gen *rand.Rand, raw *Mesh) (*Record, error) {
	normalized, err := p.PrepareMesh(raw)
	if err != nil {
		return nil, err
	}
	return p.Sample(gen, normalized)
}

// PrepareMesh converts a raw mesh into a normalized watertight mesh.
func (p *Pipeline) PrepareMesh(raw *Mesh) (*Mesh, error) {
	if err := p.Mesh.Validate(); err != nil {
		return nil, errors.Wrap(err, "prepare mesh")
	}
	p.logf("reconstructing watertight mesh (%d faces)...", len(raw.Faces))
	mesh, err := Reconstruct(raw, p.Mesh.Resolution)
	if err != nil {
		return nil, errors.Wrap(err, "prepare mesh")
	}
	if p.Mesh.Smoothing {
		p.logf("smoothing %d vertices...", len(mesh.Vertices))
		mesh = Smooth(mesh, p.Mesh.LaplacianIterations, true)
	}
	mesh, err = Normalize(mesh)
	if err != nil {
		return nil, errors.Wrap(err, "prepare mesh")
	}
	return mesh, nil
}

// Sample creates a training record from a normalized mesh.
//
// The three signed distance strategies run concurrently against one shared
// oracle. Each uses its own generator seeded from gen, so results only depend
// on the state of gen.
func (p *Pipeline) Sample(gen *rand.Rand, normalized *Mesh) (*Record, error) {
	if err := p.Samples.Validate(); err != nil {
		return nil, errors.Wrap(err, "sample")
	}
	surface, err := NewSurfaceSampler(normalized)
	if err != nil {
		return nil, errors.Wrap(err, "sample")
	}
	p.logf("building distance oracle (%d faces)...", len(normalized.Faces))
	oracle, err := NewDistanceOracle(normalized)
	if err != nil {
		return nil, errors.Wrap(err, "sample")
	}

	cfg := p.Samples
	var gens [4]*rand.Rand
	for i := range gens {
		gens[i] = rand.New(rand.NewSource(gen.Int63()))
	}

	record := &Record{}
	var errs [3]error
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		record.Unit, errs[0] = SampleUnitBall(gens[0], oracle, cfg.Unit, cfg.MaxRounds)
		errs[0] = errors.Wrap(errs[0], "unit ball samples")
	}()
	go func() {
		defer wg.Done()
		record.Near1, errs[1] = SampleNearSurface(gens[1], surface, oracle, cfg.Near1,
			cfg.MaxRounds)
		errs[1] = errors.Wrap(errs[1], "near surface samples 1")
	}()
	go func() {
		defer wg.Done()
		record.Near2, errs[2] = SampleNearSurface(gens[2], surface, oracle, cfg.Near2,
			cfg.MaxRounds)
		errs[2] = errors.Wrap(errs[2], "near surface samples 2")
	}()
	record.Surface = SampleSurface(gens[3], surface, cfg.SurfaceSamples)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, errors.Wrap(err, "sample")
		}
	}
	p.logf("sampled %d sdf points and %d surface points", record.SDFSamples().Len(),
		record.Surface.Len())
	return record, nil
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.Verbose {
		log.Print(p.LogPrefix + fmt.Sprintf(format, args...))
	}
}
