package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/telemetry"
	"github.com/adjudex/adjudex/util"
	"github.com/rs/zerolog"
)

// HttpInferenceClient invokes an inference service over plain HTTP.
// Contract: POST {text, task, context, options} and receive back
// {success, result, confidence, latencyMs}.
type HttpInferenceClient struct {
	id         string
	role       common.ProviderRole
	endpoint   *url.URL
	headers    map[string]string
	logger     *zerolog.Logger
	httpClient *http.Client
}

var _ Provider = (*HttpInferenceClient)(nil)

type inferenceHttpResponse struct {
	Success    bool           `json:"success"`
	Result     common.Payload `json:"result"`
	Confidence float64        `json:"confidence"`
	LatencyMs  int64          `json:"latencyMs"`
	Error      string         `json:"error,omitempty"`
}

func NewHttpInferenceClient(
	appCtx context.Context,
	logger *zerolog.Logger,
	cfg *common.ProviderConfig,
) (*HttpInferenceClient, error) {
	parsedUrl, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint for provider '%s': %w", cfg.Id, err)
	}

	lg := logger.With().Str("provider", cfg.Id).Logger()

	client := &HttpInferenceClient{
		id:       cfg.Id,
		role:     cfg.Role,
		endpoint: parsedUrl,
		headers:  cfg.Headers,
		logger:   &lg,
	}

	transport := &http.Transport{
		MaxIdleConns:        256,
		MaxIdleConnsPerHost: 64,
		IdleConnTimeout:     90 * time.Second,
	}

	if util.IsTest() {
		client.httpClient = &http.Client{}
	} else {
		client.httpClient = &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		}
	}

	go func() {
		<-appCtx.Done()
		client.httpClient.CloseIdleConnections()
	}()

	return client, nil
}

func (c *HttpInferenceClient) Id() string {
	return c.id
}

func (c *HttpInferenceClient) Role() common.ProviderRole {
	return c.role
}

func (c *HttpInferenceClient) Invoke(ctx context.Context, req *InferenceRequest) (*common.ProviderResult, error) {
	body, err := common.SonicCfg.Marshal(req)
	if err != nil {
		return nil, common.NewErrProviderInvocation(c.id, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, common.NewErrProviderInvocation(c.id, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	telemetry.MetricProviderRequestTotal.WithLabelValues(c.id, string(c.role)).Inc()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		telemetry.MetricProviderErrorTotal.WithLabelValues(c.id, string(c.role), "transport").Inc()
		return nil, common.NewErrProviderInvocation(c.id, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	telemetry.MetricProviderLatency.WithLabelValues(c.id, string(c.role)).Observe(duration.Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.MetricProviderErrorTotal.WithLabelValues(c.id, string(c.role), "read").Inc()
		return nil, common.NewErrProviderInvocation(c.id, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		telemetry.MetricProviderErrorTotal.WithLabelValues(c.id, string(c.role), "status").Inc()
		return nil, common.NewErrProviderInvocation(c.id, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, util.TruncateForLog(raw)))
	}

	var ir inferenceHttpResponse
	if err := common.SonicCfg.Unmarshal(raw, &ir); err != nil {
		telemetry.MetricProviderErrorTotal.WithLabelValues(c.id, string(c.role), "decode").Inc()
		return nil, common.NewErrProviderInvocation(c.id, fmt.Errorf("malformed response body: %w", err))
	}

	latency := ir.LatencyMs
	if latency == 0 {
		latency = duration.Milliseconds()
	}

	c.logger.Trace().
		Str("task", req.Task).
		Bool("success", ir.Success).
		Float64("confidence", ir.Confidence).
		Int64("latencyMs", latency).
		Msg("inference response received")

	return &common.ProviderResult{
		Success:    ir.Success,
		Result:     ir.Result,
		Confidence: clamp01(ir.Confidence),
		ProviderID: c.id,
		LatencyMs:  latency,
		Error:      ir.Error,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
