package domain

import "fmt"

// InputError rejects a request before any network call is made: a polygon
// with fewer than 3 distinct vertices, a non-positive resolution, or a grid
// degenerating below 2 nodes per axis.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "invalid input: " + e.Reason }

// SamplingError aborts the whole pipeline run when any batched elevation
// request fails or any node comes back without data. Partial results are
// discarded; an incomplete surface is never handed downstream.
type SamplingError struct {
	Chunk int // zero-based index of the failing batch
	Err   error
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("elevation sampling failed (chunk %d): %v", e.Chunk, e.Err)
}

func (e *SamplingError) Unwrap() error { return e.Err }

// ShapeMismatchError signals an internal contract violation: the sampler
// returned a sample count that does not match the lattice node count.
type ShapeMismatchError struct {
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("sample count mismatch: want %d grid nodes, got %d samples", e.Want, e.Got)
}

// ExportError signals that the CAD document could not be serialized to a
// sound byte stream, e.g. the writer produced zero bytes for a non-empty
// entity set or fewer entities than expected.
type ExportError struct {
	Reason string
}

func (e *ExportError) Error() string { return "dxf export failed: " + e.Reason }
