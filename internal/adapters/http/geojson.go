package http

import (
	"encoding/json"
	"fmt"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// geoJSON covers the three shapes clients send: a bare Polygon geometry, a
// Feature wrapping one, or a FeatureCollection whose first Polygon feature
// is used. Only polygon extraction is performed, no further GeoJSON
// validation.
type geoJSON struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates,omitempty"`
	Geometry    *geoJSON      `json:"geometry,omitempty"`
	Features    []geoJSON     `json:"features,omitempty"`
}

// extractPolygon pulls the outer ring of the first Polygon found.
func extractPolygon(raw []byte) (domain.Polygon, error) {
	var g geoJSON
	if err := json.Unmarshal(raw, &g); err != nil {
		return domain.Polygon{}, fmt.Errorf("parse geojson: %w", err)
	}
	return polygonFrom(&g)
}

func polygonFrom(g *geoJSON) (domain.Polygon, error) {
	switch g.Type {
	case "Polygon":
		return ringToPolygon(g.Coordinates)
	case "Feature":
		if g.Geometry == nil {
			return domain.Polygon{}, fmt.Errorf("feature has no geometry")
		}
		return polygonFrom(g.Geometry)
	case "FeatureCollection":
		for i := range g.Features {
			if p, err := polygonFrom(&g.Features[i]); err == nil {
				return p, nil
			}
		}
		return domain.Polygon{}, fmt.Errorf("no polygon feature found")
	default:
		return domain.Polygon{}, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func ringToPolygon(coords [][][]float64) (domain.Polygon, error) {
	if len(coords) == 0 {
		return domain.Polygon{}, fmt.Errorf("polygon has no rings")
	}
	outer := coords[0]
	vertices := make([]domain.GeoPoint, 0, len(outer))
	for _, pair := range outer {
		if len(pair) < 2 {
			return domain.Polygon{}, fmt.Errorf("malformed coordinate pair")
		}
		vertices = append(vertices, domain.GeoPoint{Lon: pair[0], Lat: pair[1]})
	}
	return domain.Polygon{Vertices: vertices}, nil
}
