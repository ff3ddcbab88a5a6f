package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/nvalera/contourcad/internal/core/domain"
	"github.com/nvalera/contourcad/internal/core/usecases"
)

func seedJobs(repo *mockJobRepo) {
	now := time.Now().UTC()
	repo.inserted = []domain.ExportJob{
		{ID: "job-1", Status: domain.JobStatusCompleted, EntityCount: 12, CreatedAt: now},
		{ID: "job-2", Status: domain.JobStatusFailed, Error: "sampling failed", CreatedAt: now},
		{ID: "job-3", Status: domain.JobStatusCompleted, EntityCount: 4, CreatedAt: now},
	}
}

func TestJobServiceGetByID(t *testing.T) {
	repo := &mockJobRepo{}
	seedJobs(repo)
	svc := usecases.NewJobService(repo, nil)

	job, err := svc.GetByID(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Status != domain.JobStatusFailed || job.Error != "sampling failed" {
		t.Errorf("got %+v", job)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown ID")
	}
}

func TestJobServiceGetByIDCaches(t *testing.T) {
	repo := &mockJobRepo{}
	seedJobs(repo)
	cache := newMockCache()
	svc := usecases.NewJobService(repo, cache)

	first, err := svc.GetByID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	// Remove the row; the cached copy must still serve.
	repo.inserted = nil
	second, err := svc.GetByID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("cached GetByID: %v", err)
	}
	if second.EntityCount != first.EntityCount {
		t.Errorf("cached job = %+v, want %+v", second, first)
	}
}

func TestJobServiceSetStoragePath(t *testing.T) {
	repo := &mockJobRepo{}
	seedJobs(repo)
	cache := newMockCache()
	svc := usecases.NewJobService(repo, cache)

	// Prime the cache with the record as it was before the upload.
	if _, err := svc.GetByID(context.Background(), "job-1"); err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if err := svc.SetStoragePath(context.Background(), "job-1", "dxf-files/contour_job-1.dxf"); err != nil {
		t.Fatalf("SetStoragePath: %v", err)
	}

	// The stale cached copy must not mask the new path.
	job, err := svc.GetByID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if job.StoragePath != "dxf-files/contour_job-1.dxf" {
		t.Errorf("storage path = %q, want dxf-files/contour_job-1.dxf", job.StoragePath)
	}

	if err := svc.SetStoragePath(context.Background(), "missing", "x"); err == nil {
		t.Error("expected error for unknown job ID")
	}
}

func TestJobServiceListStatusFilter(t *testing.T) {
	repo := &mockJobRepo{}
	seedJobs(repo)
	svc := usecases.NewJobService(repo, nil)

	jobs, total, err := svc.List(context.Background(), domain.JobStatusCompleted, 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(jobs) != 2 {
		t.Errorf("got %d/%d completed jobs, want 2", len(jobs), total)
	}

	if _, _, err := svc.List(context.Background(), "running", 0, 10); err == nil {
		t.Error("unknown status accepted")
	}
}

func TestJobServiceListClampsPagination(t *testing.T) {
	repo := &mockJobRepo{}
	seedJobs(repo)
	svc := usecases.NewJobService(repo, nil)

	// Out-of-range limit and negative offset fall back to sane values
	// rather than erroring.
	if _, _, err := svc.List(context.Background(), "", -5, 1000); err != nil {
		t.Fatalf("List with wild pagination: %v", err)
	}
}
