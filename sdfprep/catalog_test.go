package sdfprep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestDirCatalog(t *testing.T) {
	root := t.TempDir()
	sphere := testSphere(1, model3d.Origin)
	writeTestObject(t, root, "b", "mesh.obj", sphere)
	writeTestObject(t, root, "a", "mesh.stl", sphere)
	if err := os.Mkdir(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	catalog := &DirCatalog{Root: root}
	ids, err := catalog.ObjectIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if p, err := catalog.MeshPath("b"); err != nil || p != filepath.Join(root, "b", "mesh.obj") {
		t.Errorf("unexpected mesh path %s (err=%v)", p, err)
	}
	if _, err := catalog.MeshPath("empty"); err == nil {
		t.Error("expected error for object without a mesh")
	}
	if p := catalog.OutputPaths("a").SDFSamples; p != filepath.Join(root, "a", SDFSamplesName) {
		t.Errorf("unexpected output path: %s", p)
	}

	catalog.OutputRoot = filepath.Join(root, "out")
	if p := catalog.OutputPaths("a").Metadata; p != filepath.Join(root, "out", "a", MetadataName) {
		t.Errorf("unexpected output path: %s", p)
	}
}

func writeTestObject(t *testing.T, root, id, name string, mesh *Mesh) {
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := SaveMesh(filepath.Join(dir, name), mesh); err != nil {
		t.Fatal(err)
	}
}
