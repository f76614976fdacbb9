package consensus

import (
	"context"
	"fmt"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/providers"
	"github.com/adjudex/adjudex/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuditSink persists write-once decision records. Write failures must be
// absorbed by the implementation's caller, never the job.
type AuditSink interface {
	Record(ctx context.Context, rec *common.AuditRecord) error
}

// Engine runs the full request-to-decision pipeline: rule selection,
// provider gathering, weighted consensus, approval policy, explanation,
// audit and job tracking.
type Engine struct {
	logger    *zerolog.Logger
	rules     *RuleRegistry
	gateway   providers.Gateway
	estimator Estimator
	explainer Explainer
	tracker   *JobTracker
	audit     AuditSink
}

func NewEngine(
	logger *zerolog.Logger,
	rules *RuleRegistry,
	gateway providers.Gateway,
	estimator Estimator,
	explainer Explainer,
	tracker *JobTracker,
	audit AuditSink,
) *Engine {
	lg := logger.With().Str("component", "consensus").Logger()
	return &Engine{
		logger:    &lg,
		rules:     rules,
		gateway:   gateway,
		estimator: estimator,
		explainer: explainer,
		tracker:   tracker,
		audit:     audit,
	}
}

// Submit runs one consensus job to completion. Per-provider failures are
// absorbed and only lower agreement/confidence; any other error fails
// the job and is returned to the caller.
func (e *Engine) Submit(ctx context.Context, req *common.ConsensusRequest) (resp *common.ConsensusResponse, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	jobId := uuid.NewString()
	startTime := time.Now()

	lg := e.logger.With().Str("jobId", jobId).Str("task", req.Task).Logger()

	e.tracker.Register(&common.Job{
		ID:        jobId,
		Request:   req,
		StartTime: startTime,
		Status:    common.JobStatusProcessing,
	})

	defer func() {
		if r := recover(); r != nil {
			lg.Error().Interface("panic", r).Msg("panic in consensus pipeline")
			telemetry.MetricUnexpectedPanicTotal.WithLabelValues("engine").Inc()
			resp = nil
			err = common.NewErrPipelineFailure(jobId, fmt.Errorf("panic: %v", r))
			e.failJob(jobId, req, startTime, err)
		}
	}()

	resp, err = e.runPipeline(ctx, &lg, jobId, startTime, req)
	if err != nil {
		err = common.NewErrPipelineFailure(jobId, err)
		e.failJob(jobId, req, startTime, err)
		return nil, err
	}

	e.tracker.Complete(jobId, resp)

	duration := time.Since(startTime)
	telemetry.MetricJobTotal.WithLabelValues(string(req.CriticalityLevel), "completed").Inc()
	telemetry.MetricJobDuration.WithLabelValues(string(req.CriticalityLevel), "completed").Observe(duration.Seconds())
	telemetry.MetricAgreementScore.WithLabelValues(string(req.CriticalityLevel)).Observe(resp.Agreement)

	lg.Info().
		Float64("confidence", resp.Confidence).
		Float64("agreement", resp.Agreement).
		Bool("requiresApproval", resp.RequiresApproval).
		Dur("duration", duration).
		Msg("consensus job completed")

	return resp, nil
}

func (e *Engine) runPipeline(
	ctx context.Context,
	lg *zerolog.Logger,
	jobId string,
	startTime time.Time,
	req *common.ConsensusRequest,
) (*common.ConsensusResponse, error) {
	rule := e.rules.SelectRule(req)
	lg.Debug().Str("rule", rule.Name).Strs("requiredProviders", rule.RequiredProviders).Msg("rule selected")

	primary, err := e.gateway.InvokePrimary(ctx, req)
	if err != nil {
		return nil, err
	}

	alternatives := e.gateway.InvokeAlternatives(ctx, req, rule.RequiredProviders)

	outcome := computeConsensus(e.estimator, primary, alternatives)

	approve, trigger := evaluateApproval(req, outcome, rule)
	if approve {
		telemetry.MetricApprovalEscalationTotal.WithLabelValues(trigger, string(req.CriticalityLevel)).Inc()
	}

	explanation, expErr := e.explainer.Explain(ctx, req, primary, alternatives, outcome)
	if expErr != nil {
		lg.Debug().Err(expErr).Msg("delegated explanation failed, using fallback")
		explanation = fallbackExplanation(outcome, len(alternatives))
	}

	providerIds := make([]string, 0, len(alternatives)+1)
	providerIds = append(providerIds, primary.ProviderID)
	altResults := make([]common.Payload, 0, len(alternatives))
	for _, alt := range alternatives {
		providerIds = append(providerIds, alt.ProviderID)
		altResults = append(altResults, alt.Result)
	}

	processingTime := time.Since(startTime)

	resp := &common.ConsensusResponse{
		Decision:           outcome.decision,
		Confidence:         outcome.confidence,
		Agreement:          outcome.agreement,
		Providers:          providerIds,
		PrimaryResult:      primary.Result,
		AlternativeResults: altResults,
		Explanation:        explanation,
		RequiresApproval:   approve,
		Metadata: common.ResponseMetadata{
			JobID:            jobId,
			ProcessingTimeMs: processingTime.Milliseconds(),
			RuleName:         rule.Name,
			CriticalityLevel: req.CriticalityLevel,
		},
	}

	// Audit write failures are logged and counted, never surfaced.
	if recErr := e.audit.Record(ctx, &common.AuditRecord{
		JobID:            jobId,
		Task:             req.Task,
		Agreement:        resp.Agreement,
		Confidence:       resp.Confidence,
		Providers:        providerIds,
		CriticalityLevel: req.CriticalityLevel,
		RequiresApproval: approve,
		ProcessingTimeMs: processingTime.Milliseconds(),
		RuleName:         rule.Name,
		Timestamp:        time.Now(),
	}); recErr != nil {
		lg.Error().Err(recErr).Msg("failed to persist audit record")
	}

	return resp, nil
}

func (e *Engine) failJob(jobId string, req *common.ConsensusRequest, startTime time.Time, err error) {
	e.tracker.Fail(jobId, err.Error())
	telemetry.MetricJobTotal.WithLabelValues(string(req.CriticalityLevel), "failed").Inc()
	telemetry.MetricJobDuration.WithLabelValues(string(req.CriticalityLevel), "failed").Observe(time.Since(startTime).Seconds())
}

// GetJob returns the current state of a job by id.
func (e *Engine) GetJob(jobId string) (*common.Job, error) {
	job, ok := e.tracker.Get(jobId)
	if !ok {
		return nil, common.NewErrJobNotFound(jobId)
	}
	return job, nil
}

// ActiveJobs lists jobs still processing.
func (e *Engine) ActiveJobs() []*common.Job {
	return e.tracker.Active()
}
