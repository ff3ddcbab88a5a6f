package http

import (
	"github.com/nats-io/nats.go"

	"github.com/nvalera/contourcad/internal/adapters/postgres"
	"github.com/nvalera/contourcad/internal/adapters/valkey"
	"github.com/nvalera/contourcad/internal/core/ports"
	"github.com/nvalera/contourcad/internal/core/usecases"
	"github.com/nvalera/contourcad/internal/pkg/config"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Pipeline *usecases.PipelineService
	Jobs     *usecases.JobService
	Storage  ports.StorageSink
	Limits   config.PipelineConfig
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
}
