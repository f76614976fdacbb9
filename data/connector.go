package data

import (
	"context"

	"github.com/adjudex/adjudex/common"
	"github.com/rs/zerolog"
)

const (
	MemoryDriverName     = "memory"
	RedisDriverName      = "redis"
	PostgreSQLDriverName = "postgresql"
)

// Connector is a minimal keyed store for write-once audit records.
type Connector interface {
	Id() string
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

func NewConnector(
	ctx context.Context,
	logger *zerolog.Logger,
	cfg *common.ConnectorConfig,
) (Connector, error) {
	switch cfg.Driver {
	case MemoryDriverName:
		return NewMemoryConnector(logger, cfg.Memory), nil
	case RedisDriverName:
		return NewRedisConnector(ctx, logger, cfg.Redis)
	case PostgreSQLDriverName:
		return NewPostgreSQLConnector(ctx, logger, cfg.PostgreSQL)
	}

	return nil, common.NewErrInvalidConnectorDriver(cfg.Driver)
}
