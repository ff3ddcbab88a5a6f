package ports

import (
	"context"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// ElevationProvider fetches elevation values for a batch of geographic
// points from the remote elevation service. The returned slice is parallel
// to points: one sample per point, in the same order. A point the service
// has no data for comes back with a nil elevation; the caller decides how
// to treat it (the pipeline treats it as fatal).
type ElevationProvider interface {
	Elevations(ctx context.Context, points []domain.GeoPoint) ([]domain.ElevationSample, error)
}

// StorageSink uploads a finished document to object storage and returns the
// stored object's path. It never manages bucket lifecycle.
type StorageSink interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes job lifecycle events to a message broker.
type EventPublisher interface {
	PublishJobCompleted(ctx context.Context, job *domain.ExportJob) error
	PublishJobFailed(ctx context.Context, job *domain.ExportJob) error
}
