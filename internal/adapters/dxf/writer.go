// Package dxf serializes projected contour polylines into an ASCII DXF
// drawing, one LWPOLYLINE entity per contour, with one layer per elevation
// level so CAD tools can tell the levels apart.
package dxf

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// acadVersion pins the serialization target. AC1015 (AutoCAD 2000) is the
// oldest version whose LWPOLYLINE support is universal; it is fixed rather
// than negotiated so downstream CAD tooling has a stable format.
const acadVersion = "AC1015"

// Result is a rendered DXF document.
type Result struct {
	Bytes       []byte
	EntityCount int
	LayerNames  []string
}

// LayerName returns the layer label for an elevation level.
func LayerName(level float64) string {
	return fmt.Sprintf("ELEV_%.2f", level)
}

// Render serializes a projected contour set. Polylines with fewer than 2
// vertices are skipped with a warning; they are degenerate geometry, not a
// failure. An empty set renders to a structurally valid document with zero
// entities. Render returns an ExportError when the writer's own entity
// count disagrees with the number of polylines it accepted, or when a
// non-empty entity set serializes to an empty stream.
func Render(ps domain.ProjectedContourSet) (*Result, error) {
	type polyEntity struct {
		layer     string
		elevation float64
		points    domain.Polyline
	}

	var layers []string
	var entities []polyEntity
	for _, lc := range ps.Levels {
		layer := LayerName(lc.Level)
		used := false
		for _, pl := range lc.Polylines {
			if len(pl) < 2 {
				slog.Warn("skipping degenerate contour polyline",
					"level", lc.Level, "vertices", len(pl))
				continue
			}
			entities = append(entities, polyEntity{layer: layer, elevation: lc.Level, points: pl})
			used = true
		}
		if used {
			layers = append(layers, layer)
		}
	}

	var buf bytes.Buffer
	tag := func(code int, value string) {
		buf.WriteString(strconv.Itoa(code))
		buf.WriteByte('\n')
		buf.WriteString(value)
		buf.WriteByte('\n')
	}
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

	// HEADER
	tag(0, "SECTION")
	tag(2, "HEADER")
	tag(9, "$ACADVER")
	tag(1, acadVersion)
	tag(9, "$INSUNITS")
	tag(70, "6") // meters
	tag(9, "$HANDSEED")
	tag(5, "FFFF")
	tag(0, "ENDSEC")

	// TABLES: one layer per contour level that produced geometry.
	tag(0, "SECTION")
	tag(2, "TABLES")
	tag(0, "TABLE")
	tag(2, "LAYER")
	tag(70, strconv.Itoa(len(layers)))
	for _, name := range layers {
		tag(0, "LAYER")
		tag(2, name)
		tag(70, "0")
		tag(62, "7")
		tag(6, "CONTINUOUS")
	}
	tag(0, "ENDTAB")
	tag(0, "ENDSEC")

	// ENTITIES
	tag(0, "SECTION")
	tag(2, "ENTITIES")
	written := 0
	for i, e := range entities {
		pts := e.points
		closedFlag := "0"
		if pts.Closed() {
			// DXF closes the polyline itself; drop the repeated vertex.
			closedFlag = "1"
			pts = pts[:len(pts)-1]
		}
		tag(0, "LWPOLYLINE")
		tag(5, strconv.FormatInt(int64(i+256), 16)) // entity handle
		tag(100, "AcDbEntity")
		tag(8, e.layer)
		tag(100, "AcDbPolyline")
		tag(90, strconv.Itoa(len(pts)))
		tag(70, closedFlag)
		tag(38, num(e.elevation))
		for _, p := range pts {
			tag(10, num(p.X))
			tag(20, num(p.Y))
		}
		written++
	}
	tag(0, "ENDSEC")
	tag(0, "EOF")

	if written != len(entities) {
		return nil, &domain.ExportError{
			Reason: fmt.Sprintf("wrote %d entities, expected %d", written, len(entities)),
		}
	}
	if len(entities) > 0 && buf.Len() == 0 {
		return nil, &domain.ExportError{Reason: "serializer produced an empty stream for a non-empty entity set"}
	}

	return &Result{
		Bytes:       buf.Bytes(),
		EntityCount: written,
		LayerNames:  layers,
	}, nil
}
