package consensus

import (
	"github.com/adjudex/adjudex/common"
)

const (
	primaryWeight     = 2.0
	alternativeWeight = 1.0

	// Floor for the primary confidence in the agreement denominator,
	// preventing division blow-up when the primary reports near-zero
	// confidence.
	agreementConfidenceFloor = 0.1
)

type consensusOutcome struct {
	decision   common.Payload
	confidence float64
	agreement  float64
}

// computeConsensus reconciles the primary result with whatever
// alternatives survived the fan-out. The primary is authoritative: its
// output is always the decision, and alternatives only raise or lower
// the confidence in that output, never override it.
func computeConsensus(est Estimator, primary *common.ProviderResult, alternatives []*common.ProviderResult) consensusOutcome {
	anySuccess := primary != nil && primary.Success
	for _, alt := range alternatives {
		if alt != nil && alt.Success {
			anySuccess = true
			break
		}
	}
	if !anySuccess {
		return consensusOutcome{}
	}

	primaryConfidence := 0.0
	var primaryResult common.Payload
	if primary != nil {
		primaryResult = primary.Result
		if primary.Success {
			primaryConfidence = primary.Confidence
		}
	}

	agreementScore := primaryConfidence * primaryWeight
	totalWeight := primaryWeight

	for _, alt := range alternatives {
		if alt == nil || !alt.Success {
			continue
		}
		totalWeight += alternativeWeight
		agreementScore += alt.Confidence * est.Similarity(primaryResult, alt.Result) * alternativeWeight
	}

	confidence := agreementScore / totalWeight

	floor := primaryConfidence
	if floor < agreementConfidenceFloor {
		floor = agreementConfidenceFloor
	}
	agreement := agreementScore / (totalWeight * floor)
	if agreement > 1 {
		agreement = 1
	}

	return consensusOutcome{
		decision:   primaryResult,
		confidence: confidence,
		agreement:  agreement,
	}
}
