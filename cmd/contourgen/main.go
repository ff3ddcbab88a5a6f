package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvalera/contourcad/internal/adapters/elevation"
	"github.com/nvalera/contourcad/internal/adapters/storage"
	"github.com/nvalera/contourcad/internal/core/domain"
	"github.com/nvalera/contourcad/internal/core/usecases"
	"github.com/nvalera/contourcad/internal/pkg/config"
	"github.com/nvalera/contourcad/internal/pkg/geospatial"
	"github.com/nvalera/contourcad/internal/pkg/logging"
)

// geoJSON is the subset of RFC 7946 we accept: a Polygon geometry,
// a Feature wrapping one, or a FeatureCollection whose first feature does.
type geoJSON struct {
	Type        string          `json:"type"`
	Coordinates [][][]float64   `json:"coordinates"`
	Geometry    *geoJSON        `json:"geometry"`
	Features    []geoJSON       `json:"features"`
	Properties  json.RawMessage `json:"properties"`
}

func main() {
	var (
		inPath     = flag.String("in", "", "input GeoJSON file (Polygon, Feature, or FeatureCollection)")
		outPath    = flag.String("out", "", "output DXF file (default: input name with .dxf extension)")
		resolution = flag.Float64("resolution", 0, "grid spacing in degrees (0 = config default)")
		levels     = flag.Int("levels", 0, "number of contour levels (0 = config default)")
		sigma      = flag.Float64("sigma", -1, "gaussian smoothing strength (-1 = config default, 0 = off)")
		upload     = flag.Bool("upload", false, "also upload the DXF to object storage")
		timeout    = flag.Duration("timeout", 5*time.Minute, "overall pipeline timeout")
	)
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		log.Fatal("missing -in")
	}

	cfg, err := config.Load("contourcad-cli")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("info", "text")

	poly, err := readPolygon(*inPath)
	if err != nil {
		log.Fatalf("read polygon: %v", err)
	}

	projector, err := geospatial.NewUTM(cfg.Pipeline.UTMZone, cfg.Pipeline.UTMNorthern)
	if err != nil {
		log.Fatalf("projection: %v", err)
	}

	elevClient := elevation.NewClient(cfg.Elevation.BaseURL, cfg.Elevation.APIKey, cfg.Elevation.ChunkSize)

	// No DB, cache, or event bus for one-shot CLI runs.
	svc := usecases.NewPipelineService(elevClient, projector, nil, nil, nil, 0)

	req := usecases.Request{
		Polygon:    poly,
		Resolution: cfg.Pipeline.DefaultResolution,
		Levels:     cfg.Pipeline.DefaultLevels,
		Sigma:      cfg.Pipeline.DefaultSigma,
	}
	if *resolution > 0 {
		req.Resolution = *resolution
	}
	if *levels > 0 {
		req.Levels = *levels
	}
	if *sigma >= 0 {
		req.Sigma = *sigma
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := svc.Generate(ctx, req)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}

	dest := *outPath
	if dest == "" {
		base := strings.TrimSuffix(filepath.Base(*inPath), filepath.Ext(*inPath))
		dest = base + ".dxf"
	}
	if err := os.WriteFile(dest, result.DXF, 0o644); err != nil {
		log.Fatalf("write %s: %v", dest, err)
	}

	fmt.Printf("job %s: %d entities, %s grid %dx%d, elevations %.1f-%.1f m\n",
		result.JobID, result.EntityCount, result.CRS,
		result.GridRows, result.GridCols,
		result.MinElevation, result.MaxElevation)
	fmt.Printf("wrote %s (%d bytes)\n", dest, len(result.DXF))

	if *upload {
		sink := storage.NewSupabaseSink(cfg.Storage.BaseURL, cfg.Storage.APIKey, cfg.Storage.Bucket)
		path, err := sink.Upload(ctx, filepath.Base(dest), result.DXF)
		if err != nil {
			log.Fatalf("upload: %v", err)
		}
		fmt.Printf("uploaded to %s\n", path)
	}
}

// readPolygon loads and validates the outer ring of the first polygon
// found in a GeoJSON document.
func readPolygon(path string) (domain.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Polygon{}, err
	}

	var g geoJSON
	if err := json.Unmarshal(data, &g); err != nil {
		return domain.Polygon{}, fmt.Errorf("parse geojson: %w", err)
	}

	poly, err := polygonFrom(&g)
	if err != nil {
		return domain.Polygon{}, err
	}
	if err := poly.Validate(); err != nil {
		return domain.Polygon{}, err
	}
	return poly, nil
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
		if len(g.Features) == 0 {
			return domain.Polygon{}, fmt.Errorf("feature collection is empty")
		}
		return polygonFrom(&g.Features[0])
	default:
		return domain.Polygon{}, fmt.Errorf("unsupported geojson type %q", g.Type)
	}
}

func ringToPolygon(coords [][][]float64) (domain.Polygon, error) {
	if len(coords) == 0 || len(coords[0]) == 0 {
		return domain.Polygon{}, fmt.Errorf("polygon has no coordinates")
	}
	// Only the outer ring matters for the bounding box.
	ring := coords[0]
	vertices := make([]domain.GeoPoint, 0, len(ring))
	for _, pt := range ring {
		if len(pt) < 2 {
			return domain.Polygon{}, fmt.Errorf("coordinate needs [lon, lat]")
		}
		vertices = append(vertices, domain.GeoPoint{Lon: pt[0], Lat: pt[1]})
	}
	return domain.Polygon{Vertices: vertices}, nil
}
