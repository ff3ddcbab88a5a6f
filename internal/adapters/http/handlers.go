package http

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/nvalera/contourcad/internal/core/domain"
	"github.com/nvalera/contourcad/internal/core/usecases"
)

// contourRequest is the JSON body of POST /v1/contours and
// /v1/contours/inspect. Clients send either a GeoJSON geometry/feature or a
// bare [[lon,lat],...] ring; resolution, levels, and sigma fall back to the
// configured defaults when omitted.
type contourRequest struct {
	Geometry   json.RawMessage `json:"geometry,omitempty"`
	Polygon    [][]float64     `json:"polygon,omitempty"`
	Resolution float64         `json:"resolution,omitempty"`
	Levels     int             `json:"levels,omitempty"`
	Sigma      *float64        `json:"sigma,omitempty"`
	Upload     bool            `json:"upload,omitempty"`
	Name       string          `json:"name,omitempty"`
}

// exportResponse is returned instead of raw DXF bytes when the client asked
// for a storage upload.
type exportResponse struct {
	JobID       string   `json:"job_id"`
	EntityCount int      `json:"entity_count"`
	ByteSize    int      `json:"byte_size"`
	CRS         string   `json:"crs"`
	Layers      []string `json:"layers"`
	StoragePath string   `json:"storage_path,omitempty"`
}

// buildPipelineRequest validates the body and applies configured defaults
// and bounds. The raw body is returned alongside so handlers can read the
// transport-level options (upload, name).
func (deps *Dependencies) buildPipelineRequest(c *fiber.Ctx) (usecases.Request, contourRequest, error) {
	var body contourRequest
	if err := c.BodyParser(&body); err != nil {
		return usecases.Request{}, body, fmt.Errorf("parse request body: %w", err)
	}

	var polygon domain.Polygon
	switch {
	case len(body.Polygon) > 0:
		vertices := make([]domain.GeoPoint, 0, len(body.Polygon))
		for _, pair := range body.Polygon {
			if len(pair) < 2 {
				return usecases.Request{}, body, fmt.Errorf("malformed polygon coordinate pair")
			}
			vertices = append(vertices, domain.GeoPoint{Lon: pair[0], Lat: pair[1]})
		}
		polygon = domain.Polygon{Vertices: vertices}
	case len(body.Geometry) > 0:
		p, err := extractPolygon(body.Geometry)
		if err != nil {
			return usecases.Request{}, body, err
		}
		polygon = p
	default:
		return usecases.Request{}, body, fmt.Errorf("request must include a polygon or geojson geometry")
	}

	limits := deps.Limits

	resolution := body.Resolution
	if resolution == 0 {
		resolution = limits.DefaultResolution
	}
	if resolution < limits.MinResolution || resolution > limits.MaxResolution {
		return usecases.Request{}, body, fmt.Errorf("resolution must be between %g and %g degrees",
			limits.MinResolution, limits.MaxResolution)
	}

	levels := body.Levels
	if levels == 0 {
		levels = limits.DefaultLevels
	}
	if levels < limits.MinLevels || levels > limits.MaxLevels {
		return usecases.Request{}, body, fmt.Errorf("levels must be between %d and %d",
			limits.MinLevels, limits.MaxLevels)
	}

	sigma := limits.DefaultSigma
	if body.Sigma != nil {
		sigma = *body.Sigma
	}
	if sigma < 0 {
		return usecases.Request{}, body, fmt.Errorf("sigma must not be negative")
	}

	return usecases.Request{
		Polygon:    polygon,
		Resolution: resolution,
		Levels:     levels,
		Sigma:      sigma,
		Name:       body.Name,
	}, body, nil
}

// GenerateContoursHandler runs the full pipeline and returns the DXF
// document, or uploads it to object storage when upload=true.
func GenerateContoursHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, body, err := deps.buildPipelineRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		res, err := deps.Pipeline.Generate(c.UserContext(), req)
		if err != nil {
			return pipelineError(c, err)
		}

		if body.Upload {
			if deps.Storage == nil {
				return errInternal(c, "storage sink not configured")
			}
			name := body.Name
			if name == "" {
				name = fmt.Sprintf("contour_%s.dxf", res.JobID)
			}
			path, err := deps.Storage.Upload(c.UserContext(), name, res.DXF)
			if err != nil {
				slog.Error("storage upload", "job_id", res.JobID, "error", err)
				return errInternal(c, "storage upload failed: "+err.Error())
			}
			if deps.Jobs != nil {
				if err := deps.Jobs.SetStoragePath(c.UserContext(), res.JobID, path); err != nil {
					slog.Warn("record storage path", "job_id", res.JobID, "error", err)
				}
			}
			return c.JSON(exportResponse{
				JobID:       res.JobID,
				EntityCount: res.EntityCount,
				ByteSize:    len(res.DXF),
				CRS:         res.CRS,
				Layers:      res.LayerNames,
				StoragePath: path,
			})
		}

		c.Set(fiber.HeaderContentType, "application/dxf")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="contour.dxf"`)
		c.Set("X-Job-ID", res.JobID)
		c.Set("X-Entity-Count", fmt.Sprintf("%d", res.EntityCount))
		return c.Send(res.DXF)
	}
}

// InspectContoursHandler reports grid shape, elevation range, and per-level
// polyline counts without producing a document. Backs UI previews.
func InspectContoursHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, _, err := deps.buildPipelineRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		inspection, err := deps.Pipeline.Inspect(c.UserContext(), req)
		if err != nil {
			return pipelineError(c, err)
		}
		return c.JSON(inspection)
	}
}
