package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/consensus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type HttpServer struct {
	config *common.ServerConfig
	server *http.Server
	engine *consensus.Engine
	logger *zerolog.Logger
}

func NewHttpServer(ctx context.Context, logger *zerolog.Logger, cfg *common.Config, engine *consensus.Engine) *HttpServer {
	lg := logger.With().Str("component", "http").Logger()
	addr := fmt.Sprintf("%s:%d", cfg.Server.HttpHost, cfg.Server.HttpPort)

	timeoutDur, err := time.ParseDuration(cfg.Server.MaxTimeout)
	if err != nil {
		if cfg.Server.MaxTimeout != "" {
			lg.Error().Err(err).Msg("failed to parse max timeout duration, using 150s default")
		}
		timeoutDur = 150 * time.Second
	}

	srv := &HttpServer{
		config: cfg.Server,
		engine: engine,
		logger: &lg,
	}

	handler := http.NewServeMux()
	handler.HandleFunc("/consensus", srv.handleSubmit(timeoutDur))
	handler.HandleFunc("/jobs", srv.handleListJobs)
	handler.HandleFunc("/jobs/", srv.handleGetJob)
	handler.HandleFunc("/healthcheck", srv.handleHealthcheck)
	if cfg.Metrics == nil || cfg.Metrics.Enabled {
		handler.Handle("/metrics", promhttp.Handler())
	}

	srv.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		lg.Info().Msg("shutting down http server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.server.Shutdown(shutdownCtx); err != nil {
			lg.Error().Err(err).Msg("http server forced to shutdown")
		} else {
			lg.Info().Msg("http server stopped")
		}
	}()

	return srv
}

func (s *HttpServer) Start() error {
	s.logger.Info().Msgf("starting http server on %s", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *HttpServer) handleSubmit(timeoutDur time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.handleErrorResponse(common.NewErrInvalidRequest(err), w)
			return
		}

		var req common.ConsensusRequest
		if err := common.SonicCfg.Unmarshal(body, &req); err != nil {
			s.handleErrorResponse(common.NewErrInvalidRequest(err), w)
			return
		}

		requestCtx, cancel := context.WithTimeout(r.Context(), timeoutDur)
		defer cancel()

		resp, err := s.engine.Submit(requestCtx, &req)
		if err != nil {
			s.handleErrorResponse(err, w)
			return
		}

		s.writeJson(w, http.StatusOK, resp)
	}
}

func (s *HttpServer) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobId := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if jobId == "" || strings.Contains(jobId, "/") {
		s.handleErrorResponse(common.NewErrJobNotFound(jobId), w)
		return
	}

	job, err := s.engine.GetJob(jobId)
	if err != nil {
		s.handleErrorResponse(err, w)
		return
	}

	s.writeJson(w, http.StatusOK, job)
}

func (s *HttpServer) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJson(w, http.StatusOK, s.engine.ActiveJobs())
}

func (s *HttpServer) handleHealthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *HttpServer) writeJson(w http.ResponseWriter, status int, v interface{}) {
	body, err := common.SonicCfg.Marshal(v)
	if err != nil {
		s.handleErrorResponse(err, w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *HttpServer) handleErrorResponse(err error, w http.ResponseWriter) {
	s.logger.Debug().Err(err).Msg("request failed")

	status := http.StatusInternalServerError
	if sc, ok := err.(common.ErrorWithStatusCode); ok {
		status = sc.ErrorStatusCode()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var body []byte
	if be, ok := err.(interface{ CodeChain() string }); ok {
		body, _ = common.SonicCfg.Marshal(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    be.CodeChain(),
				"message": err.Error(),
			},
		})
	} else {
		body, _ = common.SonicCfg.Marshal(map[string]interface{}{
			"error": map[string]interface{}{
				"message": err.Error(),
			},
		})
	}
	_, _ = w.Write(body)
}
