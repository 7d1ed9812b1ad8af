package sdfprep

import "fmt"

// A DegenerateMeshError is returned when a mesh has no faces, no surface area,
// or encloses no volume, so that no closed surface can be recovered from it.
type DegenerateMeshError struct {
	Reason string
}

func (d *DegenerateMeshError) Error() string {
	return "degenerate mesh: " + d.Reason
}

// A ZeroExtentError is returned when normalizing a mesh whose vertices all
// coincide with the center of its bounding box.
type ZeroExtentError struct {
	NumVertices int
}

func (z *ZeroExtentError) Error() string {
	return fmt.Sprintf("zero extent: all %d vertices coincide", z.NumVertices)
}

// A SamplingExhaustedError is returned when a rejection sampler could not
// collect its quota within the allowed number of oversampling rounds.
//
// This usually indicates a misconfigured scale or buffer.
type SamplingExhaustedError struct {
	Target   int
	Accepted int
	Rounds   int
}

func (s *SamplingExhaustedError) Error() string {
	return fmt.Sprintf("sampling exhausted: accepted %d/%d points after %d rounds",
		s.Accepted, s.Target, s.Rounds)
}

// An OracleQueryError is returned when a distance query contains a point that
// is not a finite coordinate.
type OracleQueryError struct {
	Index int
	Point [3]float64
}

func (o *OracleQueryError) Error() string {
	return fmt.Sprintf("invalid query point %d: %v", o.Index, o.Point)
}
