package providers

import (
	"context"
	"testing"

	"github.com/adjudex/adjudex/common"
	"github.com/h2non/gock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, headers map[string]string) *HttpInferenceClient {
	t.Helper()
	lg := zerolog.Nop()
	client, err := NewHttpInferenceClient(context.Background(), &lg, &common.ProviderConfig{
		Id:       "gpt-alpha",
		Role:     common.ProviderRolePrimary,
		Endpoint: "http://inference.localhost/v1/infer",
		Headers:  headers,
	})
	require.NoError(t, err)
	return client
}

func TestHttpInferenceClientInvoke(t *testing.T) {
	t.Run("successful inference", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://inference.localhost").
			Post("/v1/infer").
			MatchType("json").
			JSON(map[string]interface{}{
				"text": `{"amount":120}`,
				"task": "fraud-review",
			}).
			Reply(200).
			JSON(map[string]interface{}{
				"success":    true,
				"result":     map[string]interface{}{"verdict": "approve"},
				"confidence": 0.87,
				"latencyMs":  412,
			})

		client := newTestClient(t, nil)
		res, err := client.Invoke(context.Background(), &InferenceRequest{
			Text: `{"amount":120}`,
			Task: "fraud-review",
		})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "gpt-alpha", res.ProviderID)
		assert.InDelta(t, 0.87, res.Confidence, 1e-9)
		assert.Equal(t, int64(412), res.LatencyMs)
		assert.JSONEq(t, `{"verdict":"approve"}`, res.Result.String())
	})

	t.Run("configured headers are forwarded", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://inference.localhost").
			Post("/v1/infer").
			MatchHeader("Authorization", "Bearer secret").
			Reply(200).
			JSON(map[string]interface{}{"success": true, "result": "ok", "confidence": 0.5})

		client := newTestClient(t, map[string]string{"Authorization": "Bearer secret"})
		res, err := client.Invoke(context.Background(), &InferenceRequest{Text: "x", Task: "t"})
		require.NoError(t, err)
		assert.True(t, res.Success)
	})

	t.Run("confidence is clamped into unit range", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://inference.localhost").
			Post("/v1/infer").
			Reply(200).
			JSON(map[string]interface{}{"success": true, "result": "ok", "confidence": 1.7})

		client := newTestClient(t, nil)
		res, err := client.Invoke(context.Background(), &InferenceRequest{Text: "x", Task: "t"})
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Confidence)
	})

	t.Run("declared failure passes through as non-success result", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://inference.localhost").
			Post("/v1/infer").
			Reply(200).
			JSON(map[string]interface{}{"success": false, "error": "model overloaded"})

		client := newTestClient(t, nil)
		res, err := client.Invoke(context.Background(), &InferenceRequest{Text: "x", Task: "t"})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "model overloaded", res.Error)
	})

	t.Run("non-2xx status is an invocation error", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://inference.localhost").
			Post("/v1/infer").
			Reply(503).
			BodyString("upstream unavailable")

		client := newTestClient(t, nil)
		_, err := client.Invoke(context.Background(), &InferenceRequest{Text: "x", Task: "t"})
		require.Error(t, err)
		assert.True(t, common.HasErrorCode(err, "ErrProviderInvocation"))
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("malformed body is an invocation error", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://inference.localhost").
			Post("/v1/infer").
			Reply(200).
			BodyString("{not json")

		client := newTestClient(t, nil)
		_, err := client.Invoke(context.Background(), &InferenceRequest{Text: "x", Task: "t"})
		require.Error(t, err)
		assert.True(t, common.HasErrorCode(err, "ErrProviderInvocation"))
	})

	t.Run("transport failure is an invocation error", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://inference.localhost").
			Post("/v1/infer").
			ReplyError(assert.AnError)

		client := newTestClient(t, nil)
		_, err := client.Invoke(context.Background(), &InferenceRequest{Text: "x", Task: "t"})
		require.Error(t, err)
		assert.True(t, common.HasErrorCode(err, "ErrProviderInvocation"))
	})

	t.Run("measured latency fills in when the provider omits it", func(t *testing.T) {
		defer gock.Off()

		gock.New("http://inference.localhost").
			Post("/v1/infer").
			Reply(200).
			JSON(map[string]interface{}{"success": true, "result": "ok", "confidence": 0.9})

		client := newTestClient(t, nil)
		res, err := client.Invoke(context.Background(), &InferenceRequest{Text: "x", Task: "t"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.LatencyMs, int64(0))
	})
}

func TestNewHttpInferenceClientRejectsBadEndpoint(t *testing.T) {
	lg := zerolog.Nop()
	_, err := NewHttpInferenceClient(context.Background(), &lg, &common.ProviderConfig{
		Id:       "bad",
		Role:     common.ProviderRoleAlternative,
		Endpoint: "http://inference.localhost/%zz",
	})
	require.Error(t, err)
}
