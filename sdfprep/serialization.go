package sdfprep

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/mat"
)

// Load opens a file and decodes it with a reader function, closing the file
// before returning.
func Load[T any](path string, reader func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	res, err := reader(bufio.NewReader(f))
	if err != nil {
		return res, errors.Wrap(err, "load "+path)
	}
	return res, nil
}

// Save encodes an object to a file with a writer function.
//
// The data is written to a temporary file in the same directory and renamed
// into place, so path either holds the complete encoding or is untouched.
func Save[T any](path string, obj T, writer func(io.Writer, T) error) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "save "+path)
		}
	}()
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(f)
	if err := writer(w, obj); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// WriteMatrix encodes a matrix in the NumPy .npy format.
func WriteMatrix(w io.Writer, m *mat.Dense) error {
	if r, _ := m.Dims(); r == 0 {
		return errors.New("write matrix: cannot encode empty matrix")
	}
	if err := npyio.Write(w, m); err != nil {
		return errors.Wrap(err, "write matrix")
	}
	return nil
}

// ReadMatrix decodes a two-dimensional .npy array.
func ReadMatrix(r io.Reader) (*mat.Dense, error) {
	var m mat.Dense
	if err := npyio.Read(r, &m); err != nil {
		return nil, errors.Wrap(err, "read matrix")
	}
	return &m, nil
}

// LoadMesh reads a mesh from an STL or OBJ file, based on its extension.
func LoadMesh(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return Load(path, ReadMeshSTL)
	case ".obj":
		return Load(path, ReadMeshOBJ)
	default:
		return nil, errors.Errorf("load mesh: unsupported file extension: %s", path)
	}
}

// SaveMesh writes a mesh to an STL or OBJ file, based on its extension.
func SaveMesh(path string, m *Mesh) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return Save(path, m, WriteMeshSTL)
	case ".obj":
		return Save(path, m, WriteMeshOBJ)
	default:
		return errors.Errorf("save mesh: unsupported file extension: %s", path)
	}
}

// ReadMeshSTL decodes a binary or ASCII STL file, merging identical corners
// into shared vertices.
func ReadMeshSTL(r io.Reader) (*Mesh, error) {
	tris, err := model3d.ReadSTL(r)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh")
	}
	return NewMeshTriangles(tris), nil
}

// WriteMeshSTL encodes a mesh as a binary STL file.
func WriteMeshSTL(w io.Writer, m *Mesh) error {
	if err := model3d.WriteSTL(w, m.Triangles()); err != nil {
		return errors.Wrap(err, "write mesh")
	}
	return nil
}

// ReadMeshOBJ decodes the vertex positions and faces of a Wavefront OBJ file.
//
// Polygons are triangulated as fans around their first vertex. Texture
// coordinates, normals, and materials are ignored.
func ReadMeshOBJ(r io.Reader) (*Mesh, error) {
	res := &Mesh{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		switch tokens[0] {
		case "v":
			if len(tokens) < 4 {
				return nil, errors.Errorf("read mesh: line %d: too few vertex components", lineNum)
			}
			var coord [3]float64
			for i := range coord {
				x, err := strconv.ParseFloat(tokens[i+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "read mesh: line %d", lineNum)
				}
				coord[i] = x
			}
			res.Vertices = append(res.Vertices, model3d.NewCoord3DArray(coord))
		case "f":
			if len(tokens) < 4 {
				return nil, errors.Errorf("read mesh: line %d: face has fewer than 3 vertices",
					lineNum)
			}
			indices := make([]int, len(tokens)-1)
			for i, token := range tokens[1:] {
				idx, err := parseOBJIndex(token, len(res.Vertices))
				if err != nil {
					return nil, errors.Wrapf(err, "read mesh: line %d", lineNum)
				}
				indices[i] = idx
			}
			for i := 1; i+1 < len(indices); i++ {
				res.Faces = append(res.Faces, [3]int{indices[0], indices[i], indices[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read mesh")
	}
	if err := res.Validate(); err != nil {
		return nil, errors.Wrap(err, "read mesh")
	}
	return res, nil
}

func parseOBJIndex(token string, numVertices int) (int, error) {
	idx, err := strconv.Atoi(strings.Split(token, "/")[0])
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		// Negative indices are relative to the most recent vertex.
		idx += numVertices
	} else {
		idx--
	}
	if idx < 0 || idx >= numVertices {
		return 0, fmt.Errorf("vertex index out of range: %s", token)
	}
	return idx, nil
}

// WriteMeshOBJ encodes the vertices and faces of a mesh as a Wavefront OBJ
// file, preserving vertex sharing.
func WriteMeshOBJ(w io.Writer, m *Mesh) error {
	for _, c := range m.Vertices {
		if _, err := fmt.Fprintf(w, "v %s %s %s\n", formatOBJFloat(c.X), formatOBJFloat(c.Y),
			formatOBJFloat(c.Z)); err != nil {
			return errors.Wrap(err, "write mesh")
		}
	}
	for _, n := range m.Normals {
		if _, err := fmt.Fprintf(w, "vn %s %s %s\n", formatOBJFloat(n.X), formatOBJFloat(n.Y),
			formatOBJFloat(n.Z)); err != nil {
			return errors.Wrap(err, "write mesh")
		}
	}
	hasNormals := len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0
	for _, f := range m.Faces {
		var err error
		if hasNormals {
			_, err = fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n", f[0]+1, f[0]+1, f[1]+1, f[1]+1,
				f[2]+1, f[2]+1)
		} else {
			_, err = fmt.Fprintf(w, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
		}
		if err != nil {
			return errors.Wrap(err, "write mesh")
		}
	}
	return nil
}

func formatOBJFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
