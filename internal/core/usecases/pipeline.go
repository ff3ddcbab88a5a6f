package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nvalera/contourcad/internal/adapters/dxf"
	"github.com/nvalera/contourcad/internal/contour"
	"github.com/nvalera/contourcad/internal/core/domain"
	"github.com/nvalera/contourcad/internal/core/ports"
	"github.com/nvalera/contourcad/internal/pkg/metrics"
	"github.com/nvalera/contourcad/internal/pkg/telemetry"
)

// Projector transforms geographic coordinates into the fixed target CRS.
type Projector interface {
	Forward(lon, lat float64) (x, y float64)
	CRS() string
}

// Request carries the parameters of one pipeline invocation.
type Request struct {
	Polygon    domain.Polygon
	Resolution float64 // degrees per grid cell
	Levels     int     // requested contour level count
	Sigma      float64 // Gaussian smoothing stddev; 0 disables smoothing
	Name       string  // optional document name, used for storage uploads
}

// Result is a finished export: the serialized document plus the metadata the
// API surfaces about it.
type Result struct {
	JobID        string
	DXF          []byte
	EntityCount  int
	CRS          string
	GridRows     int
	GridCols     int
	MinElevation float64
	MaxElevation float64
	LayerNames   []string
	Contours     domain.ContourSet
}

// Inspection describes what the pipeline would produce without exporting.
type Inspection struct {
	GridRows     int                `json:"grid_rows"`
	GridCols     int                `json:"grid_cols"`
	MinElevation float64            `json:"min_elevation"`
	MaxElevation float64            `json:"max_elevation"`
	Levels       []LevelSummary     `json:"levels"`
	Box          domain.BoundingBox `json:"box"`
}

// LevelSummary reports the polyline count traced for one level.
type LevelSummary struct {
	Level     float64 `json:"level"`
	Polylines int     `json:"polylines"`
}

// PipelineService runs the elevation-to-contour-to-DXF pipeline. Each
// invocation is sequential and owns all of its intermediate state; nothing
// is shared across concurrent runs. Cache, job repository, and event
// publisher are optional: a nil collaborator disables that concern.
type PipelineService struct {
	elevations ports.ElevationProvider
	projector  Projector
	cache      ports.CacheService
	jobs       ports.JobRepository
	events     ports.EventPublisher
	cacheTTL   int
}

// NewPipelineService wires the pipeline's collaborators.
func NewPipelineService(
	elevations ports.ElevationProvider,
	projector Projector,
	cache ports.CacheService,
	jobs ports.JobRepository,
	events ports.EventPublisher,
	cacheTTLSeconds int,
) *PipelineService {
	return &PipelineService{
		elevations: elevations,
		projector:  projector,
		cache:      cache,
		jobs:       jobs,
		events:     events,
		cacheTTL:   cacheTTLSeconds,
	}
}

// Generate runs the full pipeline and records the outcome as an export job.
// Stage failures abort the run; no partial document is ever returned,
// recorded as completed, or published.
func (s *PipelineService) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	jobID := uuid.NewString()

	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.generate",
		trace.WithAttributes(attribute.String("job_id", jobID)))
	defer span.End()

	// Bookkeeping must outlive a client abort, or canceled runs would
	// never show up in the job history.
	bookCtx := context.WithoutCancel(ctx)

	res, err := s.run(ctx, req)
	if err != nil {
		s.recordFailure(bookCtx, jobID, req, err, time.Since(start))
		return nil, err
	}
	res.JobID = jobID

	metrics.EntitiesExported.Add(float64(res.EntityCount))
	s.recordSuccess(bookCtx, jobID, req, res, time.Since(start))
	return res, nil
}

// Inspect runs the pipeline up to contour extraction and reports what a full
// export would contain, without serializing anything.
func (s *PipelineService) Inspect(ctx context.Context, req Request) (*Inspection, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.inspect")
	defer span.End()

	spec, surface, set, err := s.extract(ctx, req)
	if err != nil {
		return nil, err
	}

	min, max := surface.MinMax()
	levels := make([]LevelSummary, 0, len(set.Levels))
	for _, lc := range set.Levels {
		levels = append(levels, LevelSummary{Level: lc.Level, Polylines: len(lc.Polylines)})
	}

	return &Inspection{
		GridRows:     surface.Rows(),
		GridCols:     surface.Cols(),
		MinElevation: min,
		MaxElevation: max,
		Levels:       levels,
		Box:          spec.Box,
	}, nil
}

// run executes every stage and assembles the result.
func (s *PipelineService) run(ctx context.Context, req Request) (*Result, error) {
	_, surface, set, err := s.extract(ctx, req)
	if err != nil {
		return nil, err
	}
	min, max := surface.MinMax()

	projected := s.project(ctx, set)

	rendered, err := s.export(ctx, projected)
	if err != nil {
		return nil, err
	}

	return &Result{
		DXF:          rendered.Bytes,
		EntityCount:  rendered.EntityCount,
		CRS:          projected.CRS,
		GridRows:     surface.Rows(),
		GridCols:     surface.Cols(),
		MinElevation: min,
		MaxElevation: max,
		LayerNames:   rendered.LayerNames,
		Contours:     set,
	}, nil
}

// extract runs the stages shared by Generate and Inspect: validation,
// sampling, grid assembly, smoothing, and contour extraction.
func (s *PipelineService) extract(ctx context.Context, req Request) (domain.GridSpec, *domain.ElevationSurface, domain.ContourSet, error) {
	var empty domain.ContourSet

	// Validation fails fast, before any network call.
	if err := req.Polygon.Validate(); err != nil {
		return domain.GridSpec{}, nil, empty, err
	}
	spec := domain.GridSpec{Box: req.Polygon.Bounds(), Resolution: req.Resolution}
	if err := spec.Validate(); err != nil {
		return domain.GridSpec{}, nil, empty, err
	}
	if req.Levels < 1 {
		return domain.GridSpec{}, nil, empty, &domain.InputError{Reason: "contour level count must be at least 1"}
	}

	samples, err := s.sample(ctx, spec)
	if err != nil {
		metrics.SamplingErrors.Inc()
		return domain.GridSpec{}, nil, empty, err
	}

	surface, err := s.buildSurface(ctx, spec, samples)
	if err != nil {
		return domain.GridSpec{}, nil, empty, err
	}

	surface = s.smooth(ctx, surface, req.Sigma)

	set, err := s.contours(ctx, surface, req.Levels)
	if err != nil {
		return domain.GridSpec{}, nil, empty, err
	}

	return spec, surface, set, nil
}

// sample fetches one elevation per lattice node, consulting the cache first.
// Missing data on any node fails the whole operation: zero is a valid
// elevation, so a gap must never be silently substituted.
func (s *PipelineService) sample(ctx context.Context, spec domain.GridSpec) ([]domain.ElevationSample, error) {
	defer metrics.ObserveStage("sampling")()
	ctx, span := telemetry.Tracer().Start(ctx, "pipeline.sample")
	defer span.End()

	nodes := spec.Nodes()
	span.SetAttributes(attribute.Int("nodes", len(nodes)))

	cacheKey := fmt.Sprintf("elev:%.6f:%.6f:%.6f:%.6f:%.6f",
		spec.Box.MinLon, spec.Box.MinLat, spec.Box.MaxLon, spec.Box.MaxLat, spec.Resolution)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var elevations []float64
			if err := json.Unmarshal(data, &elevations); err == nil && len(elevations) == len(nodes) {
				metrics.CacheHits.WithLabelValues("elevation").Inc()
				samples := make([]domain.ElevationSample, len(nodes))
				for i := range nodes {
					v := elevations[i]
					samples[i] = domain.ElevationSample{Location: nodes[i], Elevation: &v}
				}
				return samples, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("elevation").Inc()
	}

	samples, err := s.elevations.Elevations(ctx, nodes)
	if err != nil {
		return nil, err
	}
	if len(samples) != len(nodes) {
		return nil, &domain.ShapeMismatchError{Want: len(nodes), Got: len(samples)}
	}
	for _, sm := range samples {
		if sm.Elevation == nil {
			return nil, &domain.SamplingError{
				Err: fmt.Errorf("no elevation data at (%.6f, %.6f)", sm.Location.Lon, sm.Location.Lat),
			}
		}
	}
	metrics.SamplesFetched.Add(float64(len(samples)))

	if s.cache != nil {
		elevations := make([]float64, len(samples))
		for i, sm := range samples {
			elevations[i] = *sm.Elevation
		}
		if data, err := json.Marshal(elevations); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return samples, nil
}

func (s *PipelineService) buildSurface(ctx context.Context, spec domain.GridSpec, samples []domain.ElevationSample) (*domain.ElevationSurface, error) {
	defer metrics.ObserveStage("grid")()
	_, span := telemetry.Tracer().Start(ctx, "pipeline.grid")
	defer span.End()
	return contour.BuildSurface(spec, samples)
}

func (s *PipelineService) smooth(ctx context.Context, surface *domain.ElevationSurface, sigma float64) *domain.ElevationSurface {
	defer metrics.ObserveStage("smoothing")()
	_, span := telemetry.Tracer().Start(ctx, "pipeline.smooth",
		trace.WithAttributes(attribute.Float64("sigma", sigma)))
	defer span.End()
	return contour.Smooth(surface, sigma)
}

func (s *PipelineService) contours(ctx context.Context, surface *domain.ElevationSurface, levels int) (domain.ContourSet, error) {
	defer metrics.ObserveStage("contouring")()
	_, span := telemetry.Tracer().Start(ctx, "pipeline.contours",
		trace.WithAttributes(attribute.Int("levels", levels)))
	defer span.End()
	return contour.Extract(surface, levels)
}

// project maps every vertex into the target CRS. Topology is preserved
// exactly: same levels, same polyline counts, same vertex ordering.
func (s *PipelineService) project(ctx context.Context, set domain.ContourSet) domain.ProjectedContourSet {
	defer metrics.ObserveStage("projection")()
	_, span := telemetry.Tracer().Start(ctx, "pipeline.project")
	defer span.End()

	out := domain.ProjectedContourSet{
		CRS:    s.projector.CRS(),
		Levels: make([]domain.LevelContours, len(set.Levels)),
	}
	for i, lc := range set.Levels {
		plc := domain.LevelContours{
			Level:     lc.Level,
			Polylines: make([]domain.Polyline, len(lc.Polylines)),
		}
		for j, pl := range lc.Polylines {
			projected := make(domain.Polyline, len(pl))
			for k, p := range pl {
				x, y := s.projector.Forward(p.X, p.Y)
				projected[k] = domain.Point{X: x, Y: y}
			}
			plc.Polylines[j] = projected
		}
		out.Levels[i] = plc
	}
	return out
}

func (s *PipelineService) export(ctx context.Context, projected domain.ProjectedContourSet) (*dxf.Result, error) {
	defer metrics.ObserveStage("export")()
	_, span := telemetry.Tracer().Start(ctx, "pipeline.export")
	defer span.End()
	return dxf.Render(projected)
}

// recordSuccess persists and publishes the completed job. Bookkeeping
// failures are logged, not propagated: the document is already sound.
func (s *PipelineService) recordSuccess(ctx context.Context, jobID string, req Request, res *Result, took time.Duration) {
	metrics.JobsTotal.WithLabelValues(domain.JobStatusCompleted).Inc()

	job := &domain.ExportJob{
		ID:          jobID,
		Status:      domain.JobStatusCompleted,
		Box:         req.Polygon.Bounds(),
		Resolution:  req.Resolution,
		LevelCount:  req.Levels,
		Sigma:       req.Sigma,
		CRS:         res.CRS,
		GridRows:    res.GridRows,
		GridCols:    res.GridCols,
		EntityCount: res.EntityCount,
		ByteSize:    len(res.DXF),
		Duration:    took,
		CreatedAt:   time.Now().UTC(),
	}
	if len(res.LayerNames) > 0 {
		job.Metadata = map[string]any{"layers": res.LayerNames}
	}

	if s.jobs != nil {
		if err := s.jobs.Insert(ctx, job); err != nil {
			slog.Error("record export job", "job_id", jobID, "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.PublishJobCompleted(ctx, job); err != nil {
			slog.Warn("publish job completed", "job_id", jobID, "error", err)
		}
	}
}

func (s *PipelineService) recordFailure(ctx context.Context, jobID string, req Request, cause error, took time.Duration) {
	metrics.JobsTotal.WithLabelValues(domain.JobStatusFailed).Inc()

	job := &domain.ExportJob{
		ID:         jobID,
		Status:     domain.JobStatusFailed,
		Box:        req.Polygon.Bounds(),
		Resolution: req.Resolution,
		LevelCount: req.Levels,
		Sigma:      req.Sigma,
		Error:      cause.Error(),
		Duration:   took,
		CreatedAt:  time.Now().UTC(),
	}

	if s.jobs != nil {
		if err := s.jobs.Insert(ctx, job); err != nil {
			slog.Error("record failed export job", "job_id", jobID, "error", err)
		}
	}
	if s.events != nil {
		if err := s.events.PublishJobFailed(ctx, job); err != nil {
			slog.Warn("publish job failed", "job_id", jobID, "error", err)
		}
	}
}
