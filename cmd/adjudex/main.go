package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/consensus"
	"github.com/adjudex/adjudex/data"
	"github.com/adjudex/adjudex/providers"
	"github.com/adjudex/adjudex/server"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	err := Init(ctx, afero.NewOsFs(), os.Args)
	if err != nil {
		log.Error().Msgf("failed to start adjudex: %v", err)
		cancel()
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	recvSig := <-sig
	log.Warn().Msgf("caught signal: %v", recvSig)
	cancel()
}

func Init(ctx context.Context, fs afero.Fs, args []string) error {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	configPath := "./adjudex.yaml"
	if len(args) > 1 {
		configPath = args[1]
	}

	if _, err := fs.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config file '%s' does not exist", configPath)
	}

	log.Info().Msgf("loading configuration from %s", configPath)

	cfg, err := common.LoadConfig(fs, configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %v", err)
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Msgf("invalid log level '%s', defaulting to 'info': %s", cfg.LogLevel, err)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(level)
	}

	logger := log.Logger

	connector, err := data.NewConnector(ctx, &logger, cfg.Audit)
	if err != nil {
		return fmt.Errorf("failed to initialize audit connector: %v", err)
	}
	audit := data.NewAuditLogger(&logger, connector)

	registry, err := providers.NewRegistry(ctx, &logger, cfg.Providers)
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %v", err)
	}

	rules := consensus.NewRuleRegistry(&logger, cfg.Rules, registry.Primary().Id(), registry.AlternativeIds())

	retention, err := time.ParseDuration(cfg.Jobs.Retention)
	if err != nil {
		return fmt.Errorf("invalid jobs.retention: %v", err)
	}
	sweepInterval, err := time.ParseDuration(cfg.Jobs.SweepInterval)
	if err != nil {
		return fmt.Errorf("invalid jobs.sweepInterval: %v", err)
	}
	tracker := consensus.NewJobTracker(ctx, &logger, retention, sweepInterval)

	engine := consensus.NewEngine(
		&logger,
		rules,
		providers.NewGateway(&logger, registry),
		consensus.LexicalEstimator{},
		consensus.NewProviderExplainer(&logger, registry.Primary()),
		tracker,
		audit,
	)

	srv := server.NewHttpServer(ctx, &logger, cfg, engine)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server terminated unexpectedly")
		}
	}()

	return nil
}
