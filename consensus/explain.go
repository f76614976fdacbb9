package consensus

import (
	"context"
	"fmt"
	"strings"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/providers"
	"github.com/rs/zerolog"
)

// Explainer produces a human-readable rationale for a consensus outcome.
type Explainer interface {
	Explain(ctx context.Context, req *common.ConsensusRequest, primary *common.ProviderResult, alternatives []*common.ProviderResult, outcome consensusOutcome) (string, error)
}

// ProviderExplainer delegates rationale generation to the primary
// inference service with a summarization instruction.
type ProviderExplainer struct {
	provider providers.Provider
	logger   *zerolog.Logger
}

var _ Explainer = (*ProviderExplainer)(nil)

func NewProviderExplainer(logger *zerolog.Logger, provider providers.Provider) *ProviderExplainer {
	lg := logger.With().Str("component", "explainer").Logger()
	return &ProviderExplainer{provider: provider, logger: &lg}
}

func (e *ProviderExplainer) Explain(
	ctx context.Context,
	req *common.ConsensusRequest,
	primary *common.ProviderResult,
	alternatives []*common.ProviderResult,
	outcome consensusOutcome,
) (string, error) {
	var sb strings.Builder
	sb.WriteString("Summarize in one or two sentences why the following decision was reached. ")
	fmt.Fprintf(&sb, "Task: %s. ", req.Task)
	if req.Context != "" {
		fmt.Fprintf(&sb, "Context: %s. ", req.Context)
	}
	fmt.Fprintf(&sb, "Decision: %s. ", outcome.decision.String())
	fmt.Fprintf(&sb, "Confidence: %.2f. Agreement: %.2f. ", outcome.confidence, outcome.agreement)
	fmt.Fprintf(&sb, "Alternative providers consulted: %d.", len(alternatives))

	res, err := e.provider.Invoke(ctx, &providers.InferenceRequest{
		Text:    sb.String(),
		Task:    "summarize-decision",
		Context: req.Context,
	})
	if err != nil {
		return "", err
	}
	if !res.Success || res.Result.IsNil() {
		return "", fmt.Errorf("explanation provider returned no summary")
	}

	var text string
	if err := common.SonicCfg.Unmarshal(res.Result.Raw(), &text); err != nil {
		// Providers may return the summary as a structured value.
		text = res.Result.String()
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("explanation provider returned an empty summary")
	}
	return text, nil
}

// fallbackExplanation guarantees the response is never left without an
// explanation when the delegated call fails.
func fallbackExplanation(outcome consensusOutcome, alternativeCount int) string {
	return fmt.Sprintf(
		"Decision adopted from the primary provider with %.0f%% confidence and %.0f%% agreement across %d alternative provider(s).",
		outcome.confidence*100,
		outcome.agreement*100,
		alternativeCount,
	)
}
