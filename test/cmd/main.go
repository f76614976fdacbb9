package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/adjudex/adjudex/test"
	"github.com/rs/zerolog/log"
)

func main() {
	// One well-behaved primary and two flakier alternatives, enough to
	// exercise partial-failure handling against a locally running engine.
	providerConfigs := []test.FakeProviderConfig{
		{Port: 8081, Name: "gpt-alpha", FailureRate: 0.05, MinDelay: 50 * time.Millisecond, MaxDelay: 200 * time.Millisecond, Confidence: 0.9},
		{Port: 8082, Name: "claude-beta", FailureRate: 0.2, MinDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Confidence: 0.8},
		{Port: 8083, Name: "gemini-gamma", FailureRate: 0.3, MinDelay: 30 * time.Millisecond, MaxDelay: 500 * time.Millisecond, Confidence: 0.75, Verdict: map[string]interface{}{"verdict": "reject"}},
	}

	fakeProviders := test.CreateFakeProviders(providerConfigs)

	var wg sync.WaitGroup
	for _, fp := range fakeProviders {
		wg.Add(1)
		go startFakeProvider(&wg, fp)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Println("\nReceived interrupt signal. Shutting down providers...")

	for _, fp := range fakeProviders {
		if err := fp.Stop(); err != nil {
			log.Error().Err(err).Int("port", fp.Port).Msg("Error stopping fake provider")
		}
	}

	wg.Wait()

	fmt.Println("All fake providers have been shut down.")
}

func startFakeProvider(wg *sync.WaitGroup, fp *test.FakeProvider) {
	defer wg.Done()
	log.Info().Int("port", fp.Port).Str("name", fp.Name).Msg("Starting fake inference provider")
	if err := fp.Start(); err != nil {
		log.Error().Err(err).Int("port", fp.Port).Msg("Error starting fake provider")
	}
}
