package sdfprep

import (
	"math"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func TestMeshModel3DRoundTrip(t *testing.T) {
	sphere := model3d.NewMeshIcosphere(model3d.Origin, 1, 3)
	mesh := NewMeshModel3D(sphere)
	if len(mesh.Vertices) != len(sphere.VertexSlice()) {
		t.Errorf("expected %d vertices but got %d", len(sphere.VertexSlice()), len(mesh.Vertices))
	}
	if len(mesh.Faces) != len(sphere.TriangleSlice()) {
		t.Errorf("expected %d faces but got %d", len(sphere.TriangleSlice()), len(mesh.Faces))
	}
	if !mesh.IsWatertight() {
		t.Error("icosphere should be watertight")
	}
	back := mesh.Model3D()
	if n := len(back.TriangleSlice()); n != len(mesh.Faces) {
		t.Errorf("expected %d triangles but got %d", len(mesh.Faces), n)
	}
	if math.Abs(back.Area()-sphere.Area()) > 1e-8 {
		t.Errorf("area changed from %f to %f", sphere.Area(), back.Area())
	}
}

func TestMeshIsWatertightHole(t *testing.T) {
	mesh := testSphere(1, model3d.Origin)
	mesh.Faces = mesh.Faces[1:]
	if mesh.IsWatertight() {
		t.Error("mesh with a missing face should not be watertight")
	}

	mesh = testSphere(1, model3d.Origin)
	f := mesh.Faces[0]
	mesh.Faces[0] = [3]int{f[0], f[2], f[1]}
	if mesh.IsWatertight() {
		t.Error("mesh with a flipped face should not be watertight")
	}
}

func TestMeshComputeVertexNormals(t *testing.T) {
	mesh := testSphere(1, model3d.Origin)
	mesh.ComputeVertexNormals()
	if len(mesh.Normals) != len(mesh.Vertices) {
		t.Fatalf("expected %d normals but got %d", len(mesh.Vertices), len(mesh.Normals))
	}
	for i, n := range mesh.Normals {
		if math.Abs(n.Norm()-1) > 1e-8 {
			t.Fatalf("normal %d has norm %f", i, n.Norm())
		}
		if dot := n.Dot(mesh.Vertices[i].Normalize()); dot < 0.95 {
			t.Fatalf("normal %d does not point outward: dot=%f", i, dot)
		}
	}
}

func TestMeshValidate(t *testing.T) {
	mesh := testSphere(1, model3d.Origin)
	if err := mesh.Validate(); err != nil {
		t.Fatal(err)
	}

	bad := mesh.Copy()
	bad.Faces[3][1] = len(bad.Vertices)
	if bad.Validate() == nil {
		t.Error("expected error for out-of-range index")
	}

	bad = mesh.Copy()
	bad.Vertices[2].Y = math.NaN()
	if bad.Validate() == nil {
		t.Error("expected error for NaN vertex")
	}
}

func TestMeshCopy(t *testing.T) {
	mesh := testSphere(1, model3d.Origin)
	c := mesh.Copy()
	c.Vertices[0] = model3d.XYZ(5, 5, 5)
	c.Faces[0][0] = -1
	if mesh.Vertices[0] == c.Vertices[0] || mesh.Faces[0] == c.Faces[0] {
		t.Error("copy shares memory with the original")
	}
}

func testSphere(radius float64, center model3d.Coord3D) *Mesh {
	return NewMeshModel3D(model3d.NewMeshIcosphere(center, radius, 3))
}
