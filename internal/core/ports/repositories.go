package ports

import (
	"context"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// JobRepository persists export job records. Records are immutable once
// written except for the storage path, which is set after the document is
// uploaded to object storage.
type JobRepository interface {
	Insert(ctx context.Context, job *domain.ExportJob) error
	GetByID(ctx context.Context, id string) (*domain.ExportJob, error)
	List(ctx context.Context, status string, offset, limit int) ([]domain.ExportJob, int, error)
	UpdateStoragePath(ctx context.Context, id, path string) error
}
