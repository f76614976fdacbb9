package data

import (
	"context"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/telemetry"
	"github.com/rs/zerolog"
)

const auditKeyPrefix = "audit:"

// AuditLogger persists one write-once record per consensus decision.
// Failures are logged and counted; callers must never fail the job over
// an audit write.
type AuditLogger struct {
	logger    *zerolog.Logger
	connector Connector
}

func NewAuditLogger(logger *zerolog.Logger, connector Connector) *AuditLogger {
	lg := logger.With().Str("component", "audit").Logger()
	return &AuditLogger{
		logger:    &lg,
		connector: connector,
	}
}

func (a *AuditLogger) Record(ctx context.Context, rec *common.AuditRecord) error {
	value, err := common.SonicCfg.Marshal(rec)
	if err != nil {
		telemetry.MetricAuditWriteFailureTotal.WithLabelValues(a.connector.Id()).Inc()
		return common.NewErrAuditWriteFailed(rec.JobID, err)
	}

	if err := a.connector.Set(ctx, auditKeyPrefix+rec.JobID, value); err != nil {
		telemetry.MetricAuditWriteFailureTotal.WithLabelValues(a.connector.Id()).Inc()
		a.logger.Error().Err(err).Str("jobId", rec.JobID).Msg("audit record write failed")
		return common.NewErrAuditWriteFailed(rec.JobID, err)
	}

	a.logger.Debug().Str("jobId", rec.JobID).Msg("audit record persisted")
	return nil
}

// Fetch reads a previously persisted record, mainly for admin surfaces
// and tests.
func (a *AuditLogger) Fetch(ctx context.Context, jobId string) (*common.AuditRecord, error) {
	value, err := a.connector.Get(ctx, auditKeyPrefix+jobId)
	if err != nil {
		return nil, err
	}
	var rec common.AuditRecord
	if err := common.SonicCfg.Unmarshal(value, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
