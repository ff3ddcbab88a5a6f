// Package contour turns a sampled elevation lattice into iso-elevation
// polylines: surface assembly, Gaussian smoothing, and marching-squares
// extraction. Everything here is pure computation; no I/O.
package contour

import (
	"fmt"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// BuildSurface reshapes a row-major sample sequence into the 2-D elevation
// surface described by spec. The sample order must match GridSpec.Nodes():
// rows by ascending latitude, columns by ascending longitude.
func BuildSurface(spec domain.GridSpec, samples []domain.ElevationSample) (*domain.ElevationSurface, error) {
	lats, lons := spec.Lats(), spec.Lons()
	rows, cols := len(lats), len(lons)

	if len(samples) != rows*cols {
		return nil, &domain.ShapeMismatchError{Want: rows * cols, Got: len(samples)}
	}

	z := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		z[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			s := samples[r*cols+c]
			if s.Elevation == nil {
				return nil, &domain.SamplingError{
					Err: fmt.Errorf("no elevation data at (%.6f, %.6f)", s.Location.Lon, s.Location.Lat),
				}
			}
			z[r][c] = *s.Elevation
		}
	}

	return &domain.ElevationSurface{Z: z, Lons: lons, Lats: lats}, nil
}
