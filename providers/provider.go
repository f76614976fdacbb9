package providers

import (
	"context"

	"github.com/adjudex/adjudex/common"
)

// InferenceRequest is the wire contract towards an inference service.
// Any transport satisfying this contract is acceptable.
type InferenceRequest struct {
	Text    string                 `json:"text"`
	Task    string                 `json:"task"`
	Context string                 `json:"context,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// Provider is a single inference service. Implementations must be safe
// for concurrent use.
type Provider interface {
	Id() string
	Role() common.ProviderRole
	Invoke(ctx context.Context, req *InferenceRequest) (*common.ProviderResult, error)
}

// NewInferenceRequest maps a consensus request onto the provider wire
// contract. The payload travels as serialized text so the provider side
// never needs to agree on a schema with the engine.
func NewInferenceRequest(req *common.ConsensusRequest) *InferenceRequest {
	return &InferenceRequest{
		Text:    req.Data.String(),
		Task:    req.Task,
		Context: req.Context,
	}
}
