package data

import (
	"context"
	"testing"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingConnector struct{}

func (f *failingConnector) Id() string { return "failing" }
func (f *failingConnector) Set(_ context.Context, _ string, _ []byte) error {
	return assert.AnError
}
func (f *failingConnector) Get(_ context.Context, key string) ([]byte, error) {
	return nil, common.NewErrRecordNotFound(key)
}

func sampleRecord(jobId string) *common.AuditRecord {
	return &common.AuditRecord{
		JobID:            jobId,
		Task:             "fraud-review",
		Agreement:        0.87,
		Confidence:       0.91,
		Providers:        []string{"gpt-alpha", "claude-beta"},
		CriticalityLevel: common.CriticalityHigh,
		RequiresApproval: true,
		ProcessingTimeMs: 812,
		RuleName:         "high-value-transactions",
		Timestamp:        time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestAuditLogger(t *testing.T) {
	t.Parallel()
	lg := zerolog.Nop()
	ctx := context.Background()

	t.Run("record then fetch roundtrip", func(t *testing.T) {
		t.Parallel()
		al := NewAuditLogger(&lg, NewMemoryConnector(&lg, nil))

		rec := sampleRecord("job-1")
		require.NoError(t, al.Record(ctx, rec))

		got, err := al.Fetch(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, rec.JobID, got.JobID)
		assert.Equal(t, rec.Providers, got.Providers)
		assert.Equal(t, rec.CriticalityLevel, got.CriticalityLevel)
		assert.InDelta(t, rec.Agreement, got.Agreement, 1e-9)
		assert.True(t, rec.Timestamp.Equal(got.Timestamp))
	})

	t.Run("records are keyed per job", func(t *testing.T) {
		t.Parallel()
		al := NewAuditLogger(&lg, NewMemoryConnector(&lg, nil))

		require.NoError(t, al.Record(ctx, sampleRecord("job-a")))
		require.NoError(t, al.Record(ctx, sampleRecord("job-b")))

		got, err := al.Fetch(ctx, "job-b")
		require.NoError(t, err)
		assert.Equal(t, "job-b", got.JobID)
	})

	t.Run("connector failure surfaces as audit write error", func(t *testing.T) {
		t.Parallel()
		al := NewAuditLogger(&lg, &failingConnector{})

		err := al.Record(ctx, sampleRecord("job-x"))
		require.Error(t, err)
		assert.True(t, common.HasErrorCode(err, "ErrAuditWriteFailed"))
	})

	t.Run("fetch of unknown job", func(t *testing.T) {
		t.Parallel()
		al := NewAuditLogger(&lg, NewMemoryConnector(&lg, nil))

		_, err := al.Fetch(ctx, "never-submitted")
		require.Error(t, err)
		assert.True(t, common.HasErrorCode(err, "ErrRecordNotFound"))
	})
}
