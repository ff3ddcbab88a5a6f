package contour

import (
	"math"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// Smooth applies a separable 2-D Gaussian low-pass filter with the given
// standard deviation and returns a new surface of identical shape. Border
// cells use nearest-value extension, so the grid never shrinks. A sigma of
// zero (or less) is a no-op that returns the input unchanged.
func Smooth(s *domain.ElevationSurface, sigma float64) *domain.ElevationSurface {
	if sigma <= 0 {
		return s
	}

	kernel := gaussianKernel(sigma)
	rows, cols := s.Rows(), s.Cols()

	// Horizontal pass.
	tmp := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		tmp[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			tmp[r][c] = convolve1D(s.Z[r], c, kernel)
		}
	}

	// Vertical pass.
	out := make([][]float64, rows)
	col := make([]float64, rows)
	for r := range out {
		out[r] = make([]float64, cols)
	}
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			col[r] = tmp[r][c]
		}
		for r := 0; r < rows; r++ {
			out[r][c] = convolve1D(col, r, kernel)
		}
	}

	return &domain.ElevationSurface{Z: out, Lons: s.Lons, Lats: s.Lats}
}

// gaussianKernel builds a normalized 1-D kernel truncated at 3 sigma,
// matching the common image-filter convention.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolve1D applies the kernel centered at index i, clamping out-of-range
// taps to the nearest edge value.
func convolve1D(line []float64, i int, kernel []float64) float64 {
	radius := len(kernel) / 2
	acc := 0.0
	for k := -radius; k <= radius; k++ {
		j := i + k
		if j < 0 {
			j = 0
		} else if j >= len(line) {
			j = len(line) - 1
		}
		acc += line[j] * kernel[k+radius]
	}
	return acc
}
