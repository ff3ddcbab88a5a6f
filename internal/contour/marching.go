package contour

import (
	"math"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// flatEps is the spread below which a surface is considered flat and yields
// an empty contour set rather than an error.
const flatEps = 1e-9

// Extract computes numLevels evenly spaced elevation levels strictly between
// the surface's min and max elevation and traces the iso-elevation polylines
// for each one with marching squares. Crossing points are located by linear
// interpolation along cell edges and mapped back to geographic coordinates
// through the surface's axis arrays. Levels that produce no crossings are
// kept in the set with an empty polyline list.
func Extract(s *domain.ElevationSurface, numLevels int) (domain.ContourSet, error) {
	if numLevels < 1 {
		return domain.ContourSet{}, &domain.InputError{Reason: "contour level count must be at least 1"}
	}

	min, max := s.MinMax()
	if max-min < flatEps {
		// Flat surface: no level separation is possible.
		return domain.ContourSet{}, nil
	}

	set := domain.ContourSet{Levels: make([]domain.LevelContours, 0, numLevels)}
	step := (max - min) / float64(numLevels+1)
	for i := 0; i < numLevels; i++ {
		level := min + step*float64(i+1)
		set.Levels = append(set.Levels, domain.LevelContours{
			Level:     level,
			Polylines: traceLevel(s, level),
		})
	}
	return set, nil
}

// segment is one marching-squares line piece in fractional grid coordinates
// (X = column, Y = row).
type segment [2]domain.Point

// traceLevel scans every grid cell, emits crossing segments for one level,
// chains them into polylines, and converts the vertices to geographic space.
func traceLevel(s *domain.ElevationSurface, level float64) []domain.Polyline {
	rows, cols := s.Rows(), s.Cols()
	var segs []segment

	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			bl := s.Z[r][c]
			br := s.Z[r][c+1]
			tr := s.Z[r+1][c+1]
			tl := s.Z[r+1][c]

			idx := 0
			if bl >= level {
				idx |= 1
			}
			if br >= level {
				idx |= 2
			}
			if tr >= level {
				idx |= 4
			}
			if tl >= level {
				idx |= 8
			}
			if idx == 0 || idx == 15 {
				continue
			}

			x, y := float64(c), float64(r)
			cross := func(v0, v1 float64) float64 { return (level - v0) / (v1 - v0) }
			bottom := func() domain.Point { return domain.Point{X: x + cross(bl, br), Y: y} }
			right := func() domain.Point { return domain.Point{X: x + 1, Y: y + cross(br, tr)} }
			top := func() domain.Point { return domain.Point{X: x + cross(tl, tr), Y: y + 1} }
			left := func() domain.Point { return domain.Point{X: x, Y: y + cross(bl, tl)} }

			switch idx {
			case 1, 14:
				segs = appendSegment(segs, left(), bottom())
			case 2, 13:
				segs = appendSegment(segs, bottom(), right())
			case 3, 12:
				segs = appendSegment(segs, left(), right())
			case 4, 11:
				segs = appendSegment(segs, right(), top())
			case 6, 9:
				segs = appendSegment(segs, bottom(), top())
			case 7, 8:
				segs = appendSegment(segs, top(), left())
			case 5:
				// Saddle: the cell center decides which diagonal the
				// iso-line follows.
				if (bl+br+tr+tl)/4 >= level {
					segs = appendSegment(segs, bottom(), right())
					segs = appendSegment(segs, top(), left())
				} else {
					segs = appendSegment(segs, left(), bottom())
					segs = appendSegment(segs, right(), top())
				}
			case 10:
				if (bl+br+tr+tl)/4 >= level {
					segs = appendSegment(segs, left(), bottom())
					segs = appendSegment(segs, right(), top())
				} else {
					segs = appendSegment(segs, bottom(), right())
					segs = appendSegment(segs, top(), left())
				}
			}
		}
	}

	chains := chainSegments(segs)
	polylines := make([]domain.Polyline, 0, len(chains))
	for _, chain := range chains {
		geo := make(domain.Polyline, len(chain))
		for i, p := range chain {
			geo[i] = domain.Point{
				X: interpAxis(s.Lons, p.X),
				Y: interpAxis(s.Lats, p.Y),
			}
		}
		polylines = append(polylines, geo)
	}
	return polylines
}

// appendSegment drops zero-length pieces, which arise when a corner value
// equals the level exactly and both crossings collapse onto it.
func appendSegment(segs []segment, a, b domain.Point) []segment {
	if a == b {
		return segs
	}
	return append(segs, segment{a, b})
}

// chainSegments joins segments that share endpoints into ordered polylines.
// Crossing points on a shared cell edge are computed from the same two
// corner values in both adjacent cells, so endpoints match exactly and can
// be used as map keys without quantization.
func chainSegments(segs []segment) []domain.Polyline {
	adj := make(map[domain.Point][]int, len(segs)*2)
	for i, sg := range segs {
		adj[sg[0]] = append(adj[sg[0]], i)
		adj[sg[1]] = append(adj[sg[1]], i)
	}

	used := make([]bool, len(segs))
	takeAt := func(p domain.Point) int {
		for _, j := range adj[p] {
			if !used[j] {
				return j
			}
		}
		return -1
	}

	var out []domain.Polyline
	for i := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		line := domain.Polyline{segs[i][0], segs[i][1]}

		// Grow from the tail.
		for {
			tail := line[len(line)-1]
			j := takeAt(tail)
			if j < 0 {
				break
			}
			used[j] = true
			if segs[j][0] == tail {
				line = append(line, segs[j][1])
			} else {
				line = append(line, segs[j][0])
			}
		}

		// Grow from the head.
		for {
			head := line[0]
			j := takeAt(head)
			if j < 0 {
				break
			}
			used[j] = true
			next := segs[j][0]
			if next == head {
				next = segs[j][1]
			}
			line = append(domain.Polyline{next}, line...)
		}

		out = append(out, line)
	}
	return out
}

// interpAxis maps a fractional grid index to a coordinate by linear
// interpolation between adjacent lattice positions.
func interpAxis(axis []float64, x float64) float64 {
	i := int(math.Floor(x))
	if i < 0 {
		i = 0
	}
	if i > len(axis)-2 {
		i = len(axis) - 2
	}
	f := x - float64(i)
	return axis[i] + f*(axis[i+1]-axis[i])
}
