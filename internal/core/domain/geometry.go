package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Polygon is a closed ring of geographic vertices delimiting the area of
// interest. The ring may be explicitly closed (first == last) or left open;
// both forms are accepted.
type Polygon struct {
	Vertices []GeoPoint `json:"vertices"`
}

// Validate checks that the polygon has at least 3 distinct vertices.
func (p Polygon) Validate() error {
	distinct := make(map[GeoPoint]struct{}, len(p.Vertices))
	for _, v := range p.Vertices {
		distinct[v] = struct{}{}
	}
	if len(distinct) < 3 {
		return &InputError{Reason: "polygon must have at least 3 distinct vertices"}
	}
	return nil
}

// Bounds returns the polygon's bounding box.
func (p Polygon) Bounds() BoundingBox {
	bb := BoundingBox{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, v := range p.Vertices {
		bb.MinLon = math.Min(bb.MinLon, v.Lon)
		bb.MaxLon = math.Max(bb.MaxLon, v.Lon)
		bb.MinLat = math.Min(bb.MinLat, v.Lat)
		bb.MaxLat = math.Max(bb.MaxLat, v.Lat)
	}
	return bb
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// GridSpec describes the regular sampling lattice laid over a bounding box.
// Resolution is in degrees per cell; nodes are placed at
// min + i*resolution along each axis, endpoints inclusive.
type GridSpec struct {
	Box        BoundingBox `json:"box"`
	Resolution float64     `json:"resolution"`
}

// axisNodes returns node positions from lo to hi at the given step.
// The node count is floor(extent/step)+1 with a small tolerance so that
// an extent that is an exact multiple of the step includes both endpoints.
func axisNodes(lo, hi, step float64) []float64 {
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	if n < 1 {
		n = 1
	}
	nodes := make([]float64, n)
	for i := 0; i < n; i++ {
		nodes[i] = lo + float64(i)*step
	}
	return nodes
}

// Lons returns the longitude of every grid column, ascending.
func (g GridSpec) Lons() []float64 {
	return axisNodes(g.Box.MinLon, g.Box.MaxLon, g.Resolution)
}

// Lats returns the latitude of every grid row, ascending.
func (g GridSpec) Lats() []float64 {
	return axisNodes(g.Box.MinLat, g.Box.MaxLat, g.Resolution)
}

// Shape returns (rows, cols) of the node lattice.
func (g GridSpec) Shape() (int, int) {
	return len(g.Lats()), len(g.Lons())
}

// Validate rejects degenerate lattices before any sampling happens.
// Fewer than 2 nodes on either axis cannot form a single grid cell,
// so nothing downstream could ever produce a contour.
func (g GridSpec) Validate() error {
	if g.Resolution <= 0 {
		return &InputError{Reason: "grid resolution must be positive"}
	}
	rows, cols := g.Shape()
	if rows < 2 || cols < 2 {
		return &InputError{Reason: "grid resolution is too coarse for the bounding box: need at least 2 nodes per axis"}
	}
	return nil
}

// Nodes returns every lattice node in row-major order: rows by ascending
// latitude, columns by ascending longitude within each row. This ordering is
// the contract between the elevation sampler and the grid builder.
func (g GridSpec) Nodes() []GeoPoint {
	lats, lons := g.Lats(), g.Lons()
	nodes := make([]GeoPoint, 0, len(lats)*len(lons))
	for _, lat := range lats {
		for _, lon := range lons {
			nodes = append(nodes, GeoPoint{Lon: lon, Lat: lat})
		}
	}
	return nodes
}
