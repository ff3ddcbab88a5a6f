package contour_test

import (
	"errors"
	"testing"

	"github.com/nvalera/contourcad/internal/contour"
	"github.com/nvalera/contourcad/internal/core/domain"
)

func ptr(v float64) *float64 { return &v }

func testSpec() domain.GridSpec {
	return domain.GridSpec{
		Box:        domain.BoundingBox{MinLon: 103.80, MinLat: 1.35, MaxLon: 103.81, MaxLat: 1.36},
		Resolution: 0.002,
	}
}

func TestBuildSurface(t *testing.T) {
	spec := testSpec()
	rows, cols := spec.Shape()
	if rows != 6 || cols != 6 {
		t.Fatalf("shape = (%d, %d), want (6, 6)", rows, cols)
	}

	nodes := spec.Nodes()
	samples := make([]domain.ElevationSample, len(nodes))
	for i, n := range nodes {
		samples[i] = domain.ElevationSample{Location: n, Elevation: ptr(float64(i))}
	}

	surface, err := contour.BuildSurface(spec, samples)
	if err != nil {
		t.Fatalf("BuildSurface: %v", err)
	}

	if surface.Rows() != rows || surface.Cols() != cols {
		t.Fatalf("surface shape = (%d, %d), want (%d, %d)", surface.Rows(), surface.Cols(), rows, cols)
	}

	// Row-major layout: Z[r][c] must hold sample r*cols+c.
	if surface.Z[0][0] != 0 {
		t.Errorf("Z[0][0] = %v, want 0", surface.Z[0][0])
	}
	if surface.Z[0][5] != 5 {
		t.Errorf("Z[0][5] = %v, want 5", surface.Z[0][5])
	}
	if surface.Z[1][0] != 6 {
		t.Errorf("Z[1][0] = %v, want 6", surface.Z[1][0])
	}
	if surface.Z[5][5] != 35 {
		t.Errorf("Z[5][5] = %v, want 35", surface.Z[5][5])
	}
}

func TestBuildSurfaceShapeMismatch(t *testing.T) {
	spec := testSpec()
	samples := make([]domain.ElevationSample, 10) // 36 expected
	for i := range samples {
		samples[i].Elevation = ptr(1.0)
	}

	_, err := contour.BuildSurface(spec, samples)
	var mismatch *domain.ShapeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if mismatch.Want != 36 || mismatch.Got != 10 {
		t.Errorf("mismatch = want %d got %d, expected want 36 got 10", mismatch.Want, mismatch.Got)
	}
}

func TestBuildSurfaceNilElevation(t *testing.T) {
	spec := testSpec()
	nodes := spec.Nodes()
	samples := make([]domain.ElevationSample, len(nodes))
	for i, n := range nodes {
		samples[i] = domain.ElevationSample{Location: n, Elevation: ptr(5.0)}
	}
	samples[17].Elevation = nil

	_, err := contour.BuildSurface(spec, samples)
	var sampling *domain.SamplingError
	if !errors.As(err, &sampling) {
		t.Fatalf("expected SamplingError, got %v", err)
	}
}

func TestBuildSurfaceZeroElevationIsValid(t *testing.T) {
	spec := testSpec()
	nodes := spec.Nodes()
	samples := make([]domain.ElevationSample, len(nodes))
	for i, n := range nodes {
		samples[i] = domain.ElevationSample{Location: n, Elevation: ptr(0)}
	}

	surface, err := contour.BuildSurface(spec, samples)
	if err != nil {
		t.Fatalf("sea-level surface rejected: %v", err)
	}
	min, max := surface.MinMax()
	if min != 0 || max != 0 {
		t.Errorf("minmax = (%v, %v), want (0, 0)", min, max)
	}
}
