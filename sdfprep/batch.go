package sdfprep

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"io"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
)

// A Stage selects how much of the pipeline a Runner executes.
type Stage int

const (
	// StageMesh only writes normalized meshes.
	StageMesh Stage = iota

	// StageSDF writes normalized meshes, sample arrays, and metadata.
	StageSDF
)

func (s Stage) String() string {
	switch s {
	case StageMesh:
		return "mesh"
	case StageSDF:
		return "sdf"
	default:
		return "unknown"
	}
}

// Done checks if the stage's artifacts already exist.
func (s Stage) Done(paths RecordPaths) bool {
	if s == StageMesh {
		return paths.MeshDone()
	}
	return paths.SDFDone()
}

// PendingIDs filters ids down to the ones which still need work, preserving
// order.
//
// If force is true, every id is returned.
func PendingIDs(ids []string, force bool, done func(id string) bool) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		if force || !done(id) {
			res = append(res, id)
		}
	}
	return res
}

// Metadata describes how one object's artifacts were produced.
type Metadata struct {
	ID          string       `json:"id"`
	Seed        int64        `json:"seed"`
	Mesh        MeshConfig   `json:"mesh"`
	Samples     SampleConfig `json:"samples"`
	NumVertices int          `json:"num_vertices"`
	NumFaces    int          `json:"num_faces"`

	Unit    PoolStats `json:"unit"`
	Near1   PoolStats `json:"near_1"`
	Near2   PoolStats `json:"near_2"`
	Surface PoolStats `json:"surface"`

	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func WriteMetadata(w io.Writer, m *Metadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(m), "write metadata")
}

func WriteMeshConfig(w io.Writer, m MeshConfig) error {
	return errors.Wrap(json.NewEncoder(w).Encode(m), "write mesh config")
}

func ReadMeshConfig(r io.Reader) (MeshConfig, error) {
	var res MeshConfig
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return res, errors.Wrap(err, "read mesh config")
	}
	return res, nil
}

func ReadMetadata(r io.Reader) (*Metadata, error) {
	var res Metadata
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, errors.Wrap(err, "read metadata")
	}
	return &res, nil
}

// SaveRecord writes the sample arrays and metadata of a record.
//
// The SDF samples are written last, since together with the surface samples
// they mark the object as done.
func SaveRecord(paths RecordPaths, record *Record, metadata *Metadata) error {
	for _, dir := range paths.Dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "save record")
		}
	}
	if err := Save(paths.Metadata, metadata, WriteMetadata); err != nil {
		return err
	}
	if err := Save(paths.SurfaceSamples, record.SurfaceMatrix(), WriteMatrix); err != nil {
		return err
	}
	return Save(paths.SDFSamples, record.SDFMatrix(), WriteMatrix)
}

// ObjectSeed derives a per-object seed from a global seed, so that an
// object's samples do not depend on which worker processed it.
func ObjectSeed(seed int64, id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return seed ^ int64(h.Sum64())
}

// BatchResult summarizes a Runner invocation.
type BatchResult struct {
	Total     int
	Skipped   int
	Succeeded []string
	Failed    map[string]error
}

// A Runner runs a pipeline stage over every object in a Catalog.
//
// A failure on one object is logged and recorded, but never stops the batch.
type Runner struct {
	Catalog  Catalog
	Pipeline *Pipeline
	Stage    Stage

	// Workers is the number of objects processed at once.
	// If 0, GOMAXPROCS is used.
	Workers int

	// Seed is combined with each object id to seed sampling.
	Seed int64

	// Force recomputes objects whose artifacts already exist.
	Force bool
}

// Run processes every pending object.
//
// When ctx is cancelled, no new objects are started, in-flight objects are
// finished, and ctx.Err() is returned along with the partial result.
func (r *Runner) Run(ctx context.Context) (*BatchResult, error) {
	if err := r.Pipeline.Validate(); err != nil {
		return nil, err
	}
	ids, err := r.Catalog.ObjectIDs()
	if err != nil {
		return nil, err
	}
	pending := PendingIDs(ids, r.Force, func(id string) bool {
		return r.Stage.Done(r.Catalog.OutputPaths(id))
	})
	result := &BatchResult{
		Total:   len(ids),
		Skipped: len(ids) - len(pending),
		Failed:  map[string]error{},
	}
	log.Printf("%s stage: %d objects, %d already done", r.Stage, len(ids), result.Skipped)

	numWorkers := r.Workers
	if numWorkers == 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	type objectResult struct {
		ID  string
		Err error
	}
	idCh := make(chan string)
	resCh := make(chan objectResult, numWorkers)

	go func() {
		defer close(idCh)
		for _, id := range pending {
			if ctx.Err() != nil {
				return
			}
			select {
			case idCh <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	doneCh := make(chan struct{})
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer func() { doneCh <- struct{}{} }()
			for id := range idCh {
				resCh <- objectResult{ID: id, Err: r.safeProcess(id)}
			}
		}()
	}
	go func() {
		for i := 0; i < numWorkers; i++ {
			<-doneCh
		}
		close(resCh)
	}()

	for res := range resCh {
		if res.Err != nil {
			log.Printf("object %s failed: %v", res.ID, res.Err)
			result.Failed[res.ID] = res.Err
		} else {
			result.Succeeded = append(result.Succeeded, res.ID)
		}
		n := len(result.Succeeded) + len(result.Failed)
		log.Printf("processed %d/%d objects", n, len(pending))
	}

	return result, ctx.Err()
}

// safeProcess is like process, but turns panics into errors so that one
// object cannot take down the batch.
func (r *Runner) safeProcess(id string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("panic: %v", p)
		}
	}()
	return r.process(id)
}

func (r *Runner) process(id string) error {
	startTime := time.Now()
	pipeline := *r.Pipeline
	pipeline.LogPrefix = id + ": "

	paths := r.Catalog.OutputPaths(id)
	for _, dir := range paths.Dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	normalized, err := r.normalizedMesh(&pipeline, id, paths)
	if err != nil {
		return err
	}
	if r.Stage == StageMesh {
		return nil
	}

	seed := ObjectSeed(r.Seed, id)
	record, err := pipeline.Sample(rand.New(rand.NewSource(seed)), normalized)
	if err != nil {
		return err
	}
	metadata := &Metadata{
		ID:             id,
		Seed:           seed,
		Mesh:           r.Pipeline.Mesh,
		Samples:        r.Pipeline.Samples,
		NumVertices:    len(normalized.Vertices),
		NumFaces:       len(normalized.Faces),
		Unit:           Summarize(record.Unit),
		Near1:          Summarize(record.Near1),
		Near2:          Summarize(record.Near2),
		Surface:        Summarize(record.Surface),
		ElapsedSeconds: time.Since(startTime).Seconds(),
	}
	return SaveRecord(paths, record, metadata)
}

// normalizedMesh reuses a normalized mesh from an earlier mesh stage when it
// was built with the same MeshConfig, and otherwise creates and saves one.
//
// The MeshConfig is saved next to the mesh, and the mesh is written last so
// that it never exists without its config.
func (r *Runner) normalizedMesh(p *Pipeline, id string, paths RecordPaths) (*Mesh, error) {
	if !r.Force && r.Stage == StageSDF && paths.MeshDone() {
		mesh, err := r.loadNormalizedMesh(p, paths)
		if err == nil {
			return mesh, nil
		}
		log.Printf("object %s: recomputing normalized mesh: %v", id, err)
	}
	rawPath, err := r.Catalog.MeshPath(id)
	if err != nil {
		return nil, err
	}
	raw, err := LoadMesh(rawPath)
	if err != nil {
		return nil, err
	}
	normalized, err := p.PrepareMesh(raw)
	if err != nil {
		return nil, err
	}
	if err := Save(paths.MeshConfig, p.Mesh, WriteMeshConfig); err != nil {
		return nil, err
	}
	if err := SaveMesh(paths.NormalizedMesh, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

func (r *Runner) loadNormalizedMesh(p *Pipeline, paths RecordPaths) (*Mesh, error) {
	config, err := Load(paths.MeshConfig, ReadMeshConfig)
	if err != nil {
		return nil, err
	}
	if config != p.Mesh {
		return nil, errors.Errorf("mesh config changed from %+v to %+v", config, p.Mesh)
	}
	return LoadMesh(paths.NormalizedMesh)
}
