package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nvalera/contourcad/internal/core/domain"
	"github.com/nvalera/contourcad/internal/core/ports"
)

// JobService exposes export job history.
type JobService struct {
	jobs  ports.JobRepository
	cache ports.CacheService
}

// NewJobService creates a new JobService.
func NewJobService(jobs ports.JobRepository, cache ports.CacheService) *JobService {
	return &JobService{jobs: jobs, cache: cache}
}

// GetByID returns a single export job.
func (s *JobService) GetByID(ctx context.Context, id string) (*domain.ExportJob, error) {
	cacheKey := "jobs:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var job domain.ExportJob
			if err := json.Unmarshal(data, &job); err == nil {
				return &job, nil
			}
		}
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Jobs are immutable once recorded, so a long TTL is safe.
	if s.cache != nil {
		if data, err := json.Marshal(job); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 3600)
		}
	}

	return job, nil
}

// SetStoragePath records where a job's document was uploaded and drops any
// cached copy of the record so readers see the path immediately.
func (s *JobService) SetStoragePath(ctx context.Context, id, path string) error {
	if err := s.jobs.UpdateStoragePath(ctx, id, path); err != nil {
		return fmt.Errorf("update job %s storage path: %w", id, err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "jobs:id:"+id)
	}
	return nil
}

// List returns jobs ordered newest-first, optionally filtered by status.
func (s *JobService) List(ctx context.Context, status string, offset, limit int) ([]domain.ExportJob, int, error) {
	if status != "" && status != domain.JobStatusCompleted && status != domain.JobStatusFailed {
		return nil, 0, fmt.Errorf("unknown job status %q", status)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobs.List(ctx, status, offset, limit)
}
