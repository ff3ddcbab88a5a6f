package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// JobRepo implements ports.JobRepository over the export_jobs table.
type JobRepo struct {
	db *DB
}

func NewJobRepo(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

func (r *JobRepo) Insert(ctx context.Context, job *domain.ExportJob) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO export_jobs (
			id, status, min_lon, min_lat, max_lon, max_lat,
			resolution, level_count, sigma, crs,
			grid_rows, grid_cols, entity_count, byte_size,
			storage_path, error, duration_ms, metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, job.ID, job.Status,
		job.Box.MinLon, job.Box.MinLat, job.Box.MaxLon, job.Box.MaxLat,
		job.Resolution, job.LevelCount, job.Sigma, job.CRS,
		job.GridRows, job.GridCols, job.EntityCount, job.ByteSize,
		nilIfEmpty(job.StoragePath), nilIfEmpty(job.Error),
		job.Duration.Milliseconds(), marshalMetadata(job.Metadata), job.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert export job: %w", err)
	}
	return nil
}

// UpdateStoragePath records where the exported document was uploaded.
func (r *JobRepo) UpdateStoragePath(ctx context.Context, id, path string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE export_jobs SET storage_path = $2 WHERE id = $1
	`, id, path)
	if err != nil {
		return fmt.Errorf("update storage path: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, id string) (*domain.ExportJob, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, status, min_lon, min_lat, max_lon, max_lat,
		       resolution, level_count, sigma, crs,
		       grid_rows, grid_cols, entity_count, byte_size,
		       storage_path, error, duration_ms, metadata, created_at
		FROM export_jobs
		WHERE id = $1
	`, id)

	job, err := scanJob(row)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepo) List(ctx context.Context, status string, offset, limit int) ([]domain.ExportJob, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM export_jobs WHERE ($1 = '' OR status = $1)
	`, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, status, min_lon, min_lat, max_lon, max_lat,
		       resolution, level_count, sigma, crs,
		       grid_rows, grid_cols, entity_count, byte_size,
		       storage_path, error, duration_ms, metadata, created_at
		FROM export_jobs
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, status, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []domain.ExportJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, total, rows.Err()
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.ExportJob, error) {
	var job domain.ExportJob
	var storagePath, errMsg sql.NullString
	var durationMs int64
	var metadata []byte
	var createdAt time.Time

	if err := row.Scan(
		&job.ID, &job.Status,
		&job.Box.MinLon, &job.Box.MinLat, &job.Box.MaxLon, &job.Box.MaxLat,
		&job.Resolution, &job.LevelCount, &job.Sigma, &job.CRS,
		&job.GridRows, &job.GridCols, &job.EntityCount, &job.ByteSize,
		&storagePath, &errMsg, &durationMs, &metadata, &createdAt,
	); err != nil {
		return nil, err
	}

	job.StoragePath = storagePath.String
	job.Error = errMsg.String
	job.Duration = time.Duration(durationMs) * time.Millisecond
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
			return nil, fmt.Errorf("decode job metadata: %w", err)
		}
	}
	job.CreatedAt = createdAt
	return &job, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalMetadata encodes job metadata for the JSONB column, keeping the
// column NULL when there is none.
func marshalMetadata(m map[string]any) []byte {
	if len(m) == 0 {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}
