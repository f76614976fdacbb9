package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/telemetry"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/timeout"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Gateway is the engine's view of the provider fleet. InvokePrimary is
// always attempted and never discards the primary's verdict, even on
// failure. InvokeAlternatives fans out and drops failed calls so that
// consensus degrades gracefully as providers drop out.
type Gateway interface {
	InvokePrimary(ctx context.Context, req *common.ConsensusRequest) (*common.ProviderResult, error)
	InvokeAlternatives(ctx context.Context, req *common.ConsensusRequest, providerIds []string) []*common.ProviderResult
}

const defaultMaxConcurrency = 16

type gateway struct {
	registry *Registry
	logger   *zerolog.Logger
	sem      *semaphore.Weighted
}

func NewGateway(logger *zerolog.Logger, registry *Registry) Gateway {
	lg := logger.With().Str("component", "gateway").Logger()
	return &gateway{
		registry: registry,
		logger:   &lg,
		sem:      semaphore.NewWeighted(defaultMaxConcurrency),
	}
}

// InvokePrimary queries the primary provider synchronously. A failed
// call is folded into a zero-confidence result rather than an error;
// the pipeline treats the primary as a zero-confidence agreement source
// in that case. The returned error is reserved for misconfiguration
// (no primary registered).
func (g *gateway) InvokePrimary(ctx context.Context, req *common.ConsensusRequest) (*common.ProviderResult, error) {
	primary := g.registry.Primary()
	if primary == nil {
		return nil, common.NewErrNoPrimaryProvider()
	}

	res, err := g.invokeWithTimeout(ctx, primary, req)
	if err != nil {
		g.logger.Warn().Err(err).Str("providerId", primary.Id()).Msg("primary provider invocation failed")
		return &common.ProviderResult{
			Success:    false,
			ProviderID: primary.Id(),
			Error:      err.Error(),
		}, nil
	}
	return res, nil
}

// InvokeAlternatives fires each alternative provider concurrently and
// collects whatever succeeded. Per-call failures and timeouts are logged
// and excluded; they must never abort the consensus computation.
func (g *gateway) InvokeAlternatives(ctx context.Context, req *common.ConsensusRequest, providerIds []string) []*common.ProviderResult {
	primaryId := ""
	if p := g.registry.Primary(); p != nil {
		primaryId = p.Id()
	}

	ids := make([]string, 0, len(providerIds))
	for _, id := range providerIds {
		if id != primaryId {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	responseChan := make(chan *common.ProviderResult, len(ids))

	for _, id := range ids {
		go func(providerId string) {
			defer func() {
				if r := recover(); r != nil {
					g.logger.Error().Str("providerId", providerId).Interface("panic", r).Msg("panic in alternative provider invocation")
					telemetry.MetricUnexpectedPanicTotal.WithLabelValues("gateway").Inc()
					responseChan <- nil
				}
			}()

			if err := g.sem.Acquire(ctx, 1); err != nil {
				g.logger.Debug().Str("providerId", providerId).Msg("context cancelled before alternative invocation")
				responseChan <- nil
				return
			}
			defer g.sem.Release(1)

			provider, err := g.registry.Get(providerId)
			if err != nil {
				g.logger.Warn().Str("providerId", providerId).Msg("rule requires unknown alternative provider, skipping")
				responseChan <- nil
				return
			}

			res, err := g.invokeWithTimeout(ctx, provider, req)
			if err != nil {
				g.logger.Debug().Err(err).Str("providerId", providerId).Msg("alternative provider invocation failed, excluding from consensus")
				responseChan <- nil
				return
			}
			if !res.Success {
				g.logger.Debug().Str("providerId", providerId).Str("error", res.Error).Msg("alternative provider reported non-success, excluding from consensus")
				responseChan <- nil
				return
			}
			responseChan <- res
		}(id)
	}

	// Arrival order is irrelevant for aggregation, but re-ordering by the
	// requested id order keeps responses deterministic for callers.
	byId := make(map[string]*common.ProviderResult, len(ids))
	for i := 0; i < len(ids); i++ {
		if res := <-responseChan; res != nil {
			byId[res.ProviderID] = res
		}
	}

	results := make([]*common.ProviderResult, 0, len(byId))
	for _, id := range ids {
		if res, ok := byId[id]; ok {
			results = append(results, res)
		}
	}
	return results
}

func (g *gateway) invokeWithTimeout(ctx context.Context, p Provider, req *common.ConsensusRequest) (*common.ProviderResult, error) {
	to := timeout.Builder[*common.ProviderResult](req.TimeoutDuration()).Build()

	res, err := failsafe.NewExecutor[*common.ProviderResult](to).
		WithContext(ctx).
		GetWithExecution(func(exec failsafe.Execution[*common.ProviderResult]) (*common.ProviderResult, error) {
			return p.Invoke(exec.Context(), NewInferenceRequest(req))
		})
	if err != nil {
		if errors.Is(err, timeout.ErrExceeded) {
			return nil, common.NewErrProviderInvocation(p.Id(), fmt.Errorf("invocation exceeded %s timeout", req.TimeoutDuration()))
		}
		return nil, err
	}
	if res == nil {
		return nil, common.NewErrProviderInvocation(p.Id(), fmt.Errorf("provider returned no result"))
	}
	if res.ProviderID == "" {
		res.ProviderID = p.Id()
	}
	return res, nil
}
