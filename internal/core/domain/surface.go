package domain

// ElevationSample is a single sampled grid node. Elevation is in meters;
// a nil Elevation means the provider reported no data for the point, which
// the pipeline treats as a hard sampling failure (zero is a valid elevation,
// so missing data must never be zeroed).
type ElevationSample struct {
	Location  GeoPoint `json:"location"`
	Elevation *float64 `json:"elevation"`
}

// ElevationSurface is a regular 2-D elevation field aligned to a GridSpec
// lattice. Z is indexed [row][col]; Lats holds the latitude of each row and
// Lons the longitude of each column, both ascending.
type ElevationSurface struct {
	Z    [][]float64 `json:"z"`
	Lons []float64   `json:"lons"`
	Lats []float64   `json:"lats"`
}

// Rows returns the row count of the surface.
func (s *ElevationSurface) Rows() int { return len(s.Lats) }

// Cols returns the column count of the surface.
func (s *ElevationSurface) Cols() int { return len(s.Lons) }

// MinMax returns the smallest and largest elevation on the surface.
func (s *ElevationSurface) MinMax() (min, max float64) {
	min, max = s.Z[0][0], s.Z[0][0]
	for _, row := range s.Z {
		for _, v := range row {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}

// Point is a 2-D vertex. Before projection X is longitude and Y is latitude;
// after projection both are meters in the target CRS.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polyline is an ordered open or closed vertex chain tracing one contour.
type Polyline []Point

// Closed reports whether the polyline's endpoints coincide.
func (p Polyline) Closed() bool {
	if len(p) < 3 {
		return false
	}
	return p[0] == p[len(p)-1]
}

// LevelContours groups the polylines traced for a single elevation level.
type LevelContours struct {
	Level     float64    `json:"level"`
	Polylines []Polyline `json:"polylines"`
}

// ContourSet holds the traced contours for every level, ordered by ascending
// level value. Coordinates are geographic until the set is projected.
type ContourSet struct {
	Levels []LevelContours `json:"levels"`
}

// PolylineCount returns the total number of polylines across all levels.
func (cs ContourSet) PolylineCount() int {
	n := 0
	for _, lc := range cs.Levels {
		n += len(lc.Polylines)
	}
	return n
}

// ProjectedContourSet is a ContourSet whose vertices are in linear projected
// units (meters), plus the CRS they were projected into.
type ProjectedContourSet struct {
	CRS    string          `json:"crs"`
	Levels []LevelContours `json:"levels"`
}

// PolylineCount returns the total number of polylines across all levels.
func (ps ProjectedContourSet) PolylineCount() int {
	n := 0
	for _, lc := range ps.Levels {
		n += len(lc.Polylines)
	}
	return n
}
