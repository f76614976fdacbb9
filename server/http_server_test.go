package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/consensus"
	"github.com/adjudex/adjudex/data"
	"github.com/adjudex/adjudex/providers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	primary      *common.ProviderResult
	alternatives []*common.ProviderResult
}

func (g *stubGateway) InvokePrimary(_ context.Context, _ *common.ConsensusRequest) (*common.ProviderResult, error) {
	return g.primary, nil
}

func (g *stubGateway) InvokeAlternatives(_ context.Context, _ *common.ConsensusRequest, _ []string) []*common.ProviderResult {
	return g.alternatives
}

type stubSummarizer struct{}

func (stubSummarizer) Id() string                { return "gpt-alpha" }
func (stubSummarizer) Role() common.ProviderRole { return common.ProviderRolePrimary }
func (stubSummarizer) Invoke(_ context.Context, _ *providers.InferenceRequest) (*common.ProviderResult, error) {
	return &common.ProviderResult{
		Success:    true,
		Result:     common.MustPayload("Providers agreed on the verdict."),
		Confidence: 1,
		ProviderID: "gpt-alpha",
	}, nil
}

func newTestServer(t *testing.T, gw providers.Gateway) (*httptest.Server, *consensus.Engine) {
	t.Helper()
	lg := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rules := consensus.NewRuleRegistry(&lg, nil, "gpt-alpha", []string{"claude-beta", "gemini-gamma"})
	tracker := consensus.NewJobTracker(ctx, &lg, time.Hour, time.Hour)
	audit := data.NewAuditLogger(&lg, data.NewMemoryConnector(&lg, nil))
	engine := consensus.NewEngine(
		&lg,
		rules,
		gw,
		consensus.LexicalEstimator{},
		consensus.NewProviderExplainer(&lg, stubSummarizer{}),
		tracker,
		audit,
	)

	cfg := &common.Config{}
	require.NoError(t, cfg.SetDefaults())
	srv := NewHttpServer(ctx, &lg, cfg, engine)

	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return ts, engine
}

func agreeingGateway() *stubGateway {
	return &stubGateway{
		primary: &common.ProviderResult{
			Success:    true,
			Result:     common.MustPayload(map[string]interface{}{"verdict": "approve"}),
			Confidence: 0.9,
			ProviderID: "gpt-alpha",
		},
		alternatives: []*common.ProviderResult{
			{
				Success:    true,
				Result:     common.MustPayload(map[string]interface{}{"verdict": "approve"}),
				Confidence: 0.8,
				ProviderID: "claude-beta",
			},
		},
	}
}

func postJson(t *testing.T, url string, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func TestHttpServerConsensus(t *testing.T) {
	t.Run("submit returns adjudicated response", func(t *testing.T) {
		ts, _ := newTestServer(t, agreeingGateway())

		resp, raw := postJson(t, ts.URL+"/consensus", `{"task":"fraud-review","data":{"amount":120},"criticalityLevel":"medium"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var out common.ConsensusResponse
		require.NoError(t, common.SonicCfg.Unmarshal(raw, &out))
		assert.Equal(t, []string{"gpt-alpha", "claude-beta"}, out.Providers)
		assert.InDelta(t, 0.9, out.Confidence, 1e-9)
		assert.Greater(t, out.Agreement, 0.0)
		assert.NotEmpty(t, out.Explanation)
		assert.NotEmpty(t, out.Metadata.JobID)
	})

	t.Run("invalid body is a 400", func(t *testing.T) {
		ts, _ := newTestServer(t, agreeingGateway())

		resp, raw := postJson(t, ts.URL+"/consensus", `{not json`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(raw), "ErrInvalidRequest")
	})

	t.Run("missing task is a 400", func(t *testing.T) {
		ts, _ := newTestServer(t, agreeingGateway())

		resp, raw := postJson(t, ts.URL+"/consensus", `{"data":{"amount":120}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(raw), "task is required")
	})

	t.Run("get is not allowed on submit", func(t *testing.T) {
		ts, _ := newTestServer(t, agreeingGateway())

		resp, err := http.Get(ts.URL + "/consensus")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHttpServerJobs(t *testing.T) {
	t.Run("completed job is retrievable by id", func(t *testing.T) {
		ts, _ := newTestServer(t, agreeingGateway())

		_, raw := postJson(t, ts.URL+"/consensus", `{"task":"fraud-review","data":{"amount":120}}`)
		var out common.ConsensusResponse
		require.NoError(t, common.SonicCfg.Unmarshal(raw, &out))

		resp, err := http.Get(ts.URL + "/jobs/" + out.Metadata.JobID)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var job common.Job
		require.NoError(t, common.SonicCfg.Unmarshal(body, &job))
		assert.Equal(t, out.Metadata.JobID, job.ID)
		assert.Equal(t, common.JobStatusCompleted, job.Status)
		require.NotNil(t, job.Response)
		assert.InDelta(t, out.Agreement, job.Response.Agreement, 1e-9)
	})

	t.Run("unknown job is a 404", func(t *testing.T) {
		ts, _ := newTestServer(t, agreeingGateway())

		resp, err := http.Get(ts.URL + "/jobs/no-such-job")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, string(body), "ErrJobNotFound")
	})

	t.Run("active job listing is empty once jobs settle", func(t *testing.T) {
		ts, _ := newTestServer(t, agreeingGateway())

		_, _ = postJson(t, ts.URL+"/consensus", `{"task":"fraud-review","data":{"amount":120}}`)

		resp, err := http.Get(ts.URL + "/jobs")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var jobs []*common.Job
		require.NoError(t, common.SonicCfg.Unmarshal(body, &jobs))
		assert.Empty(t, jobs)
	})
}

func TestHttpServerHealthAndMetrics(t *testing.T) {
	t.Run("healthcheck", func(t *testing.T) {
		ts, _ := newTestServer(t, agreeingGateway())

		resp, err := http.Get(ts.URL + "/healthcheck")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OK", string(body))
	})

	t.Run("metrics endpoint serves prometheus text", func(t *testing.T) {
		ts, _ := newTestServer(t, agreeingGateway())
		_, _ = postJson(t, ts.URL+"/consensus", `{"task":"fraud-review","data":{"amount":120}}`)

		resp, err := http.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "adjudex_")
	})
}
