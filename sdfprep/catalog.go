package sdfprep

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// File names used inside an object's output directory.
const (
	NormalizedMeshName = "normalized.obj"
	MeshConfigName     = "normalized.json"
	SurfaceSamplesName = "surface_samples.npy"
	SDFSamplesName     = "sdf_samples.npy"
	MetadataName       = "metadata.json"
)

// Raw mesh file names, in order of preference.
var rawMeshNames = []string{"mesh.stl", "mesh.obj"}

// RecordPaths locates every artifact produced for one object.
type RecordPaths struct {
	NormalizedMesh string
	MeshConfig     string
	SurfaceSamples string
	SDFSamples     string
	Metadata       string
}

// DirRecordPaths gets the standard artifact paths inside a directory.
func DirRecordPaths(dir string) RecordPaths {
	return RecordPaths{
		NormalizedMesh: filepath.Join(dir, NormalizedMeshName),
		MeshConfig:     filepath.Join(dir, MeshConfigName),
		SurfaceSamples: filepath.Join(dir, SurfaceSamplesName),
		SDFSamples:     filepath.Join(dir, SDFSamplesName),
		Metadata:       filepath.Join(dir, MetadataName),
	}
}

// MeshDone checks if the normalized mesh has been written.
func (r RecordPaths) MeshDone() bool {
	return fileExists(r.NormalizedMesh)
}

// SDFDone checks if both sample arrays have been written.
func (r RecordPaths) SDFDone() bool {
	return fileExists(r.SurfaceSamples) && fileExists(r.SDFSamples)
}

// Dirs gets the directories which must exist before writing artifacts.
func (r RecordPaths) Dirs() []string {
	var res []string
	for _, p := range []string{
		r.NormalizedMesh, r.MeshConfig, r.SurfaceSamples, r.SDFSamples, r.Metadata,
	} {
		d := filepath.Dir(p)
		if !slices.Contains(res, d) {
			res = append(res, d)
		}
	}
	return res
}

// A Catalog enumerates objects and resolves where their inputs and outputs
// live.
type Catalog interface {
	// ObjectIDs lists every object, in a deterministic order.
	ObjectIDs() ([]string, error)

	// MeshPath gets the raw mesh file for an object.
	MeshPath(id string) (string, error)

	// OutputPaths gets the artifact locations for an object.
	OutputPaths(id string) RecordPaths
}

// A DirCatalog stores each object in a subdirectory of Root named by its id.
// Each subdirectory contains a raw mesh called mesh.stl or mesh.obj.
//
// Artifacts are written next to the raw mesh, or to a directory of the same
// name under OutputRoot if it is set.
type DirCatalog struct {
	Root       string
	OutputRoot string
}

func (d *DirCatalog) ObjectIDs() ([]string, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, errors.Wrap(err, "list objects")
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := d.MeshPath(entry.Name()); err == nil {
			ids = append(ids, entry.Name())
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (d *DirCatalog) MeshPath(id string) (string, error) {
	for _, name := range rawMeshNames {
		p := filepath.Join(d.Root, id, name)
		if fileExists(p) {
			return p, nil
		}
	}
	return "", errors.Errorf("no mesh found for object: %s", id)
}

func (d *DirCatalog) OutputPaths(id string) RecordPaths {
	root := d.OutputRoot
	if root == "" {
		root = d.Root
	}
	return DirRecordPaths(filepath.Join(root, id))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
