package consensus

import (
	"github.com/adjudex/adjudex/common"
)

// Confidence below this always forces a human in the loop, regardless of
// rule or criticality.
const approvalConfidenceThreshold = 0.7

// evaluateApproval is a pure OR of independent triggers; any single one
// forces human approval and nothing can suppress it once triggered. The
// returned trigger names the first condition that fired (for telemetry).
func evaluateApproval(req *common.ConsensusRequest, outcome consensusOutcome, rule *Rule) (bool, string) {
	if req.RequiresHumanApproval {
		return true, "request_flag"
	}
	if rule.HumanApprovalRequired {
		return true, "rule_flag"
	}
	if req.CriticalityLevel == common.CriticalityCritical {
		return true, "criticality"
	}
	if outcome.confidence < approvalConfidenceThreshold {
		return true, "low_confidence"
	}
	if outcome.agreement < rule.MinimumAgreement {
		return true, "low_agreement"
	}
	return false, ""
}
