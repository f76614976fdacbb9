package common

import (
	"fmt"
	"strings"
	"time"
)

type CriticalityLevel string

const (
	CriticalityLow      CriticalityLevel = "low"
	CriticalityMedium   CriticalityLevel = "medium"
	CriticalityHigh     CriticalityLevel = "high"
	CriticalityCritical CriticalityLevel = "critical"
)

func ParseCriticalityLevel(s string) (CriticalityLevel, error) {
	switch CriticalityLevel(strings.ToLower(strings.TrimSpace(s))) {
	case CriticalityLow:
		return CriticalityLow, nil
	case CriticalityMedium:
		return CriticalityMedium, nil
	case CriticalityHigh:
		return CriticalityHigh, nil
	case CriticalityCritical:
		return CriticalityCritical, nil
	}
	return "", fmt.Errorf("invalid criticality level: '%s'", s)
}

const DefaultRequestTimeout = 30 * time.Second

// ConsensusRequest is immutable once submitted; one request produces
// exactly one job.
type ConsensusRequest struct {
	Task                  string           `json:"task"`
	Data                  Payload          `json:"data"`
	Context               string           `json:"context,omitempty"`
	CriticalityLevel      CriticalityLevel `json:"criticalityLevel"`
	RequiresHumanApproval bool             `json:"requiresHumanApproval,omitempty"`
	TimeoutMs             int64            `json:"timeoutMs,omitempty"`
}

func (r *ConsensusRequest) Validate() error {
	if r == nil {
		return NewErrInvalidRequest(fmt.Errorf("request is nil"))
	}
	if strings.TrimSpace(r.Task) == "" {
		return NewErrInvalidRequest(fmt.Errorf("task is required"))
	}
	if r.CriticalityLevel == "" {
		r.CriticalityLevel = CriticalityMedium
	} else {
		lvl, err := ParseCriticalityLevel(string(r.CriticalityLevel))
		if err != nil {
			return NewErrInvalidRequest(err)
		}
		r.CriticalityLevel = lvl
	}
	if r.TimeoutMs < 0 {
		return NewErrInvalidRequest(fmt.Errorf("timeoutMs must not be negative"))
	}
	return nil
}

// TimeoutDuration returns the per-provider-call timeout budget.
func (r *ConsensusRequest) TimeoutDuration() time.Duration {
	if r.TimeoutMs > 0 {
		return time.Duration(r.TimeoutMs) * time.Millisecond
	}
	return DefaultRequestTimeout
}
