package common

import (
	"time"
)

// ProviderResult is one provider invocation outcome. Never mutated after
// creation.
type ProviderResult struct {
	Success    bool    `json:"success"`
	Result     Payload `json:"result"`
	Confidence float64 `json:"confidence"`
	ProviderID string  `json:"providerId"`
	LatencyMs  int64   `json:"latencyMs"`
	Error      string  `json:"error,omitempty"`
}

type ResponseMetadata struct {
	JobID            string           `json:"jobId"`
	ProcessingTimeMs int64            `json:"processingTimeMs"`
	RuleName         string           `json:"ruleName"`
	CriticalityLevel CriticalityLevel `json:"criticalityLevel"`
}

// ConsensusResponse is the adjudicated outcome of a single job.
// Providers always lists the primary provider's identifier first.
type ConsensusResponse struct {
	Decision           Payload          `json:"decision"`
	Confidence         float64          `json:"confidence"`
	Agreement          float64          `json:"agreement"`
	Providers          []string         `json:"providers"`
	PrimaryResult      Payload          `json:"primaryResult"`
	AlternativeResults []Payload        `json:"alternativeResults"`
	Explanation        string           `json:"explanation"`
	RequiresApproval   bool             `json:"requiresApproval"`
	Metadata           ResponseMetadata `json:"metadata"`
}

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job transitions exactly once from processing to a terminal state.
// Response is set if and only if Status is completed.
type Job struct {
	ID        string             `json:"jobId"`
	Request   *ConsensusRequest  `json:"request"`
	StartTime time.Time          `json:"startTime"`
	EndTime   time.Time          `json:"endTime,omitempty"`
	Status    JobStatus          `json:"status"`
	Response  *ConsensusResponse `json:"response,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// AuditRecord is the write-once record persisted per decision.
type AuditRecord struct {
	JobID            string           `json:"jobId"`
	Task             string           `json:"task"`
	Agreement        float64          `json:"agreement"`
	Confidence       float64          `json:"confidence"`
	Providers        []string         `json:"providers"`
	CriticalityLevel CriticalityLevel `json:"criticalityLevel"`
	RequiresApproval bool             `json:"requiresApproval"`
	ProcessingTimeMs int64            `json:"processingTimeMs"`
	RuleName         string           `json:"ruleName"`
	Timestamp        time.Time        `json:"timestamp"`
}
