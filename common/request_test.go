package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsensusRequestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid request", func(t *testing.T) {
		t.Parallel()
		req := &ConsensusRequest{
			Task:             "fraud-review",
			Data:             MustPayload(map[string]interface{}{"amount": 120}),
			CriticalityLevel: CriticalityHigh,
			TimeoutMs:        5000,
		}
		require.NoError(t, req.Validate())
		assert.Equal(t, CriticalityHigh, req.CriticalityLevel)
	})

	t.Run("criticality defaults to medium", func(t *testing.T) {
		t.Parallel()
		req := &ConsensusRequest{Task: "t"}
		require.NoError(t, req.Validate())
		assert.Equal(t, CriticalityMedium, req.CriticalityLevel)
	})

	t.Run("criticality is normalized", func(t *testing.T) {
		t.Parallel()
		req := &ConsensusRequest{Task: "t", CriticalityLevel: " CRITICAL "}
		require.NoError(t, req.Validate())
		assert.Equal(t, CriticalityCritical, req.CriticalityLevel)
	})

	t.Run("missing task", func(t *testing.T) {
		t.Parallel()
		req := &ConsensusRequest{Task: "   "}
		err := req.Validate()
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, "ErrInvalidRequest"))
	})

	t.Run("unknown criticality", func(t *testing.T) {
		t.Parallel()
		req := &ConsensusRequest{Task: "t", CriticalityLevel: "urgent"}
		err := req.Validate()
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, "ErrInvalidRequest"))
	})

	t.Run("negative timeout", func(t *testing.T) {
		t.Parallel()
		req := &ConsensusRequest{Task: "t", TimeoutMs: -1}
		err := req.Validate()
		require.Error(t, err)
		assert.True(t, HasErrorCode(err, "ErrInvalidRequest"))
	})

	t.Run("nil request", func(t *testing.T) {
		t.Parallel()
		var req *ConsensusRequest
		assert.Error(t, req.Validate())
	})
}

func TestTimeoutDuration(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultRequestTimeout, (&ConsensusRequest{Task: "t"}).TimeoutDuration())
	assert.Equal(t, 250*time.Millisecond, (&ConsensusRequest{Task: "t", TimeoutMs: 250}).TimeoutDuration())
}

func TestHasErrorCode(t *testing.T) {
	t.Parallel()

	t.Run("direct match", func(t *testing.T) {
		t.Parallel()
		err := NewErrJobNotFound("abc")
		assert.True(t, HasErrorCode(err, "ErrJobNotFound"))
		assert.False(t, HasErrorCode(err, "ErrInvalidRequest"))
	})

	t.Run("match through cause chain", func(t *testing.T) {
		t.Parallel()
		err := NewErrPipelineFailure("job-1", NewErrProviderInvocation("gpt-alpha", assert.AnError))
		assert.True(t, HasErrorCode(err, "ErrPipelineFailure"))
		assert.True(t, HasErrorCode(err, "ErrProviderInvocation"))
		assert.False(t, HasErrorCode(err, "ErrJobNotFound"))
	})

	t.Run("nil and plain errors", func(t *testing.T) {
		t.Parallel()
		assert.False(t, HasErrorCode(nil, "ErrJobNotFound"))
		assert.False(t, HasErrorCode(assert.AnError, "ErrJobNotFound"))
	})
}
