package data

import (
	"context"
	"fmt"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

const (
	defaultPostgresTable = "adjudex_audit"
	postgresInitTimeout  = 10 * time.Second
	postgresOpTimeout    = 5 * time.Second
)

// PostgreSQLConnector persists audit records as JSONB rows keyed by the
// record key. Inserts ignore conflicts so records stay write-once.
type PostgreSQLConnector struct {
	logger *zerolog.Logger
	conn   *pgxpool.Pool
	table  string
}

var _ Connector = (*PostgreSQLConnector)(nil)

func NewPostgreSQLConnector(
	ctx context.Context,
	logger *zerolog.Logger,
	cfg *common.PostgreSQLConnectorConfig,
) (*PostgreSQLConnector, error) {
	lg := logger.With().Str("connector", PostgreSQLDriverName).Logger()

	if cfg == nil || cfg.ConnectionUri == "" {
		return nil, fmt.Errorf("postgresql connector requires a connectionUri")
	}

	table := cfg.Table
	if table == "" {
		table = defaultPostgresTable
	}

	initCtx, cancel := context.WithTimeout(ctx, postgresInitTimeout)
	defer cancel()

	conn, err := pgxpool.Connect(initCtx, cfg.ConnectionUri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgresql: %w", err)
	}

	_, err = conn.Exec(initCtx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, table))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}

	lg.Info().Str("table", table).Msg("connected to postgresql")

	return &PostgreSQLConnector{
		logger: &lg,
		conn:   conn,
		table:  table,
	}, nil
}

func (p *PostgreSQLConnector) Id() string {
	return PostgreSQLDriverName
}

func (p *PostgreSQLConnector) Set(ctx context.Context, key string, value []byte) error {
	opCtx, cancel := context.WithTimeout(ctx, postgresOpTimeout)
	defer cancel()

	_, err := p.conn.Exec(opCtx, fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, p.table), key, value)
	return err
}

func (p *PostgreSQLConnector) Get(ctx context.Context, key string) ([]byte, error) {
	opCtx, cancel := context.WithTimeout(ctx, postgresOpTimeout)
	defer cancel()

	var value []byte
	err := p.conn.QueryRow(opCtx, fmt.Sprintf(`
		SELECT value FROM %s WHERE key = $1
	`, p.table), key).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, common.NewErrRecordNotFound(key)
	}
	return value, err
}

func (p *PostgreSQLConnector) Close() {
	p.conn.Close()
}
