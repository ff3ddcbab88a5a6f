package domain

import "time"

// Job statuses.
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// ExportJob records one pipeline invocation: what was requested, how it
// ended, and where the resulting document went.
type ExportJob struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Box         BoundingBox    `json:"box"`
	Resolution  float64        `json:"resolution"`
	LevelCount  int            `json:"level_count"`
	Sigma       float64        `json:"sigma"`
	CRS         string         `json:"crs"`
	GridRows    int            `json:"grid_rows"`
	GridCols    int            `json:"grid_cols"`
	EntityCount int            `json:"entity_count"`
	ByteSize    int            `json:"byte_size"`
	StoragePath string         `json:"storage_path,omitempty"`
	Error       string         `json:"error,omitempty"`
	Duration    time.Duration  `json:"duration"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
