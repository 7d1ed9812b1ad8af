package sdfprep

import (
	"math/rand"
	"testing"

	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/stat"
)

func TestSmoothZeroIterations(t *testing.T) {
	mesh := testNoisySphere()
	for _, cotangent := range []bool{false, true} {
		smoothed := Smooth(mesh, 0, cotangent)
		for i, c := range smoothed.Vertices {
			if c != mesh.Vertices[i] {
				t.Fatalf("vertex %d changed: %v -> %v", i, mesh.Vertices[i], c)
			}
		}
	}
}

func TestSmoothReducesNoise(t *testing.T) {
	mesh := testNoisySphere()
	original := mesh.Copy()
	oldVariance := radiusVariance(mesh)
	for _, cotangent := range []bool{false, true} {
		smoothed := Smooth(mesh, 3, cotangent)
		if len(smoothed.Faces) != len(mesh.Faces) {
			t.Fatal("faces changed")
		}
		newVariance := radiusVariance(smoothed)
		if newVariance >= oldVariance/2 {
			t.Errorf("cotangent=%v: variance went from %f to %f", cotangent, oldVariance,
				newVariance)
		}
	}
	for i, c := range mesh.Vertices {
		if c != original.Vertices[i] {
			t.Fatal("input mesh was modified")
		}
	}
}

func TestSmoothRecomputesNormals(t *testing.T) {
	mesh := testNoisySphere()
	mesh.ComputeVertexNormals()
	smoothed := Smooth(mesh, 2, true)
	expected := smoothed.Copy()
	expected.ComputeVertexNormals()
	for i, n := range smoothed.Normals {
		if n.Dist(expected.Normals[i]) > 1e-8 {
			t.Fatalf("normal %d is stale", i)
		}
	}
}

func TestCotangent(t *testing.T) {
	if c := cotangent(model3d.X(1), model3d.Y(1)); c > 1e-8 {
		t.Errorf("right angle should have cotangent 0 but got %f", c)
	}
	if c := cotangent(model3d.X(1), model3d.XYZ(1, 1, 0)); c < 1-1e-8 || c > 1+1e-8 {
		t.Errorf("45 degree angle should have cotangent 1 but got %f", c)
	}
	if c := cotangent(model3d.X(1), model3d.XYZ(-1, 1, 0)); c != 0 {
		t.Errorf("obtuse angle should be clamped to 0 but got %f", c)
	}
	if c := cotangent(model3d.X(1), model3d.X(2)); c != 0 {
		t.Errorf("degenerate angle should give 0 but got %f", c)
	}
	if c := cotangent(model3d.X(1), model3d.XYZ(1, 1e-9, 0)); c != maxCotangent {
		t.Errorf("sliver angle should be clamped to %f but got %f", maxCotangent, c)
	}
}

func testNoisySphere() *Mesh {
	gen := rand.New(rand.NewSource(1337))
	mesh := testSphere(1, model3d.Origin)
	for i, c := range mesh.Vertices {
		mesh.Vertices[i] = c.Scale(1 + gen.NormFloat64()*0.05)
	}
	return mesh
}

func radiusVariance(m *Mesh) float64 {
	radii := make([]float64, len(m.Vertices))
	for i, c := range m.Vertices {
		radii[i] = c.Norm()
	}
	return stat.Variance(radii, nil)
}
