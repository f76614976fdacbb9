package test

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/providers"
)

// FakeProvider is a standalone inference service speaking the provider
// wire contract, used for local development and stress runs. Failure
// rate and latency are configurable so agreement degradation can be
// exercised end to end.
type FakeProvider struct {
	Port        int
	Name        string
	FailureRate float64
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Verdict     interface{}
	Confidence  float64

	server          *http.Server
	mu              sync.Mutex
	requestsHandled int64
}

type FakeProviderConfig struct {
	Port        int
	Name        string
	FailureRate float64
	MinDelay    time.Duration
	MaxDelay    time.Duration
	Verdict     interface{}
	Confidence  float64
}

func NewFakeProvider(cfg FakeProviderConfig) *FakeProvider {
	return &FakeProvider{
		Port:        cfg.Port,
		Name:        cfg.Name,
		FailureRate: cfg.FailureRate,
		MinDelay:    cfg.MinDelay,
		MaxDelay:    cfg.MaxDelay,
		Verdict:     cfg.Verdict,
		Confidence:  cfg.Confidence,
	}
}

func CreateFakeProviders(cfgs []FakeProviderConfig) []*FakeProvider {
	fps := make([]*FakeProvider, 0, len(cfgs))
	for _, cfg := range cfgs {
		fps = append(fps, NewFakeProvider(cfg))
	}
	return fps
}

func (fp *FakeProvider) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", fp.handleRequest)

	fp.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", fp.Port),
		Handler: mux,
	}

	return fp.server.ListenAndServe()
}

func (fp *FakeProvider) Stop() error {
	if fp.server != nil {
		return fp.server.Close()
	}
	return nil
}

func (fp *FakeProvider) handleRequest(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	fp.requestsHandled++
	fp.mu.Unlock()

	time.Sleep(fp.randomDelay())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var req providers.InferenceRequest
	if err := common.SonicCfg.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid inference request", http.StatusBadRequest)
		return
	}

	start := time.Now()
	w.Header().Set("Content-Type", "application/json")

	if rand.Float64() < fp.FailureRate {
		fp.writeResponse(w, map[string]interface{}{
			"success": false,
			"error":   "simulated inference failure",
		})
		return
	}

	result := fp.Verdict
	if result == nil {
		result = map[string]interface{}{"verdict": "approve", "task": req.Task}
	}

	fp.writeResponse(w, map[string]interface{}{
		"success":    true,
		"result":     result,
		"confidence": fp.Confidence,
		"latencyMs":  time.Since(start).Milliseconds() + fp.MinDelay.Milliseconds(),
	})
}

func (fp *FakeProvider) writeResponse(w http.ResponseWriter, v map[string]interface{}) {
	body, err := common.SonicCfg.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(body)
}

func (fp *FakeProvider) randomDelay() time.Duration {
	if fp.MaxDelay <= fp.MinDelay {
		return fp.MinDelay
	}
	return fp.MinDelay + time.Duration(rand.Int63n(int64(fp.MaxDelay-fp.MinDelay)))
}

func (fp *FakeProvider) RequestsHandled() int64 {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.requestsHandled
}
