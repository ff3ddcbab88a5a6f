package dxf_test

import (
	"strings"
	"testing"

	"github.com/nvalera/contourcad/internal/adapters/dxf"
	"github.com/nvalera/contourcad/internal/core/domain"
)

func line(points ...domain.Point) domain.Polyline {
	return domain.Polyline(points)
}

func TestRenderEntityPerPolyline(t *testing.T) {
	ps := domain.ProjectedContourSet{
		CRS: "EPSG:32648",
		Levels: []domain.LevelContours{
			{Level: 12.5, Polylines: []domain.Polyline{
				line(domain.Point{X: 368000, Y: 149000}, domain.Point{X: 368100, Y: 149050}),
				line(domain.Point{X: 368200, Y: 149100}, domain.Point{X: 368300, Y: 149150}, domain.Point{X: 368350, Y: 149200}),
			}},
			{Level: 25.0, Polylines: []domain.Polyline{
				line(domain.Point{X: 368500, Y: 149300}, domain.Point{X: 368600, Y: 149400}),
			}},
		},
	}

	res, err := dxf.Render(ps)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.EntityCount != 3 {
		t.Errorf("EntityCount = %d, want 3", res.EntityCount)
	}

	doc := string(res.Bytes)
	if got := strings.Count(doc, "LWPOLYLINE"); got != 3 {
		t.Errorf("found %d LWPOLYLINE entities, want 3", got)
	}
	if !strings.Contains(doc, "AC1015") {
		t.Error("missing AC1015 version header")
	}
	if !strings.Contains(doc, "ELEV_12.50") || !strings.Contains(doc, "ELEV_25.00") {
		t.Errorf("missing per-level layer names in document")
	}
	if !strings.HasSuffix(strings.TrimSpace(doc), "EOF") {
		t.Error("document must end with EOF")
	}
}

func TestRenderSkipsDegeneratePolylines(t *testing.T) {
	ps := domain.ProjectedContourSet{
		CRS: "EPSG:32648",
		Levels: []domain.LevelContours{
			{Level: 10, Polylines: []domain.Polyline{
				line(domain.Point{X: 1, Y: 1}), // single vertex, degenerate
				line(domain.Point{X: 1, Y: 1}, domain.Point{X: 2, Y: 2}),
			}},
			{Level: 20, Polylines: []domain.Polyline{
				{}, // empty, degenerate
			}},
		},
	}

	res, err := dxf.Render(ps)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.EntityCount != 1 {
		t.Errorf("EntityCount = %d, want 1 (degenerate polylines skipped)", res.EntityCount)
	}

	// A level whose polylines were all skipped gets no layer.
	if len(res.LayerNames) != 1 || res.LayerNames[0] != "ELEV_10.00" {
		t.Errorf("LayerNames = %v, want [ELEV_10.00]", res.LayerNames)
	}
	if strings.Contains(string(res.Bytes), "ELEV_20.00") {
		t.Error("empty level must not register a layer")
	}
}

func TestRenderEmptySet(t *testing.T) {
	res, err := dxf.Render(domain.ProjectedContourSet{CRS: "EPSG:32648"})
	if err != nil {
		t.Fatalf("empty set must render a valid document: %v", err)
	}
	if res.EntityCount != 0 {
		t.Errorf("EntityCount = %d, want 0", res.EntityCount)
	}

	doc := string(res.Bytes)
	for _, want := range []string{"HEADER", "TABLES", "ENTITIES", "EOF"} {
		if !strings.Contains(doc, want) {
			t.Errorf("empty document missing %s section", want)
		}
	}
}

func TestRenderClosedPolyline(t *testing.T) {
	ring := line(
		domain.Point{X: 0, Y: 0},
		domain.Point{X: 10, Y: 0},
		domain.Point{X: 10, Y: 10},
		domain.Point{X: 0, Y: 0}, // explicitly closed
	)
	ps := domain.ProjectedContourSet{
		CRS:    "EPSG:32648",
		Levels: []domain.LevelContours{{Level: 5, Polylines: []domain.Polyline{ring}}},
	}

	res, err := dxf.Render(ps)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	doc := string(res.Bytes)
	// Closed flag set, repeated final vertex dropped: 3 vertices remain.
	if !strings.Contains(doc, "70\n1\n") {
		t.Error("closed polyline must set the closed flag")
	}
	if !strings.Contains(doc, "90\n3\n") {
		t.Error("closed polyline must drop the repeated final vertex")
	}
}

func TestRenderElevationTag(t *testing.T) {
	ps := domain.ProjectedContourSet{
		CRS: "EPSG:32648",
		Levels: []domain.LevelContours{
			{Level: 42.75, Polylines: []domain.Polyline{
				line(domain.Point{X: 0, Y: 0}, domain.Point{X: 1, Y: 1}),
			}},
		},
	}

	res, err := dxf.Render(ps)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(res.Bytes), "38\n42.750\n") {
		t.Error("entity must carry its level as the elevation group")
	}
}

func TestLayerName(t *testing.T) {
	if got := dxf.LayerName(3.14159); got != "ELEV_3.14" {
		t.Errorf("LayerName = %q, want ELEV_3.14", got)
	}
	if got := dxf.LayerName(100); got != "ELEV_100.00" {
		t.Errorf("LayerName = %q, want ELEV_100.00", got)
	}
}
