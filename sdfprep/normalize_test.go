package sdfprep

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

func TestNormalize(t *testing.T) {
	mesh := testSphere(3, model3d.XYZ(1, -2, 3))
	// Stretch the mesh so the bounding box center and the centroid differ.
	for i, c := range mesh.Vertices {
		if c.X > 1 {
			mesh.Vertices[i].X = 1 + (c.X-1)*2
		}
	}
	original := mesh.Copy()

	normalized, err := Normalize(mesh)
	if err != nil {
		t.Fatal(err)
	}
	if center := normalized.BoundsCenter(); center.Norm() > 1e-8 {
		t.Errorf("bounds center should be origin but got %v", center)
	}
	if n := normalized.MaxNorm(); math.Abs(n-1) > 1e-8 {
		t.Errorf("max norm should be 1 but got %f", n)
	}
	if len(normalized.Normals) != len(normalized.Vertices) {
		t.Errorf("expected %d normals but got %d", len(normalized.Vertices),
			len(normalized.Normals))
	}
	for i, c := range mesh.Vertices {
		if c != original.Vertices[i] {
			t.Fatal("input mesh was modified")
		}
	}
}

func TestNormalizeZeroExtent(t *testing.T) {
	c := model3d.XYZ(1, 2, 3)
	mesh := &Mesh{
		Vertices: []model3d.Coord3D{c, c, c},
		Faces:    [][3]int{{0, 1, 2}},
	}
	_, err := Normalize(mesh)
	var zeroErr *ZeroExtentError
	if !errors.As(err, &zeroErr) {
		t.Fatalf("expected ZeroExtentError but got %v", err)
	}
	if zeroErr.NumVertices != 3 {
		t.Errorf("expected 3 vertices but got %d", zeroErr.NumVertices)
	}

	if _, err := Normalize(&Mesh{}); !errors.As(err, &zeroErr) {
		t.Errorf("expected ZeroExtentError for empty mesh but got %v", err)
	}
}
