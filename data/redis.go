package data

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	redisConnectAttempts = 30
	redisConnectBackoff  = 10 * time.Second
	redisOpTimeout       = 5 * time.Second
)

// RedisConnector persists audit records in Redis, optionally with a TTL.
// Connecting happens in the background so a slow or absent Redis does
// not block process startup; writes before the connection is ready fail
// and are absorbed upstream by the audit logger.
type RedisConnector struct {
	logger *zerolog.Logger
	ttl    time.Duration
	client atomic.Pointer[redis.Client]
}

var _ Connector = (*RedisConnector)(nil)

func NewRedisConnector(
	ctx context.Context,
	logger *zerolog.Logger,
	cfg *common.RedisConnectorConfig,
) (*RedisConnector, error) {
	lg := logger.With().Str("connector", RedisDriverName).Logger()

	if cfg == nil || cfg.Addr == "" {
		return nil, fmt.Errorf("redis connector requires an addr")
	}

	var ttl time.Duration
	if cfg.TTL != "" {
		d, err := time.ParseDuration(cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis ttl: %w", err)
		}
		ttl = d
	}

	connector := &RedisConnector{
		logger: &lg,
		ttl:    ttl,
	}

	go func() {
		for i := 0; i < redisConnectAttempts; i++ {
			select {
			case <-ctx.Done():
				lg.Debug().Msg("context cancelled while connecting to redis")
				return
			default:
			}
			if err := connector.connect(ctx, cfg); err == nil {
				lg.Info().Str("addr", cfg.Addr).Msg("connected to redis")
				return
			} else {
				lg.Warn().Err(err).Msgf("failed to connect to redis (attempt %d)", i+1)
			}
			time.Sleep(redisConnectBackoff)
		}
		lg.Error().Msg("giving up connecting to redis after maximum attempts")
	}()

	return connector, nil
}

func (r *RedisConnector) connect(ctx context.Context, cfg *common.RedisConnectorConfig) error {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisOpTimeout,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		return err
	}

	r.client.Store(client)
	return nil
}

func (r *RedisConnector) Id() string {
	return RedisDriverName
}

func (r *RedisConnector) Set(ctx context.Context, key string, value []byte) error {
	client := r.client.Load()
	if client == nil {
		return fmt.Errorf("redis client not connected yet")
	}

	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	// SetNX keeps audit records write-once.
	return client.SetNX(opCtx, key, value, r.ttl).Err()
}

func (r *RedisConnector) Get(ctx context.Context, key string) ([]byte, error) {
	client := r.client.Load()
	if client == nil {
		return nil, fmt.Errorf("redis client not connected yet")
	}

	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	value, err := client.Get(opCtx, key).Bytes()
	if err == redis.Nil {
		return nil, common.NewErrRecordNotFound(key)
	}
	return value, err
}
