package providers

import (
	"context"

	"github.com/adjudex/adjudex/common"
	"github.com/rs/zerolog"
)

// Registry holds all configured providers. Exactly one provider carries
// the primary role; the remaining ones are alternatives, kept in
// configuration order.
type Registry struct {
	primary      Provider
	alternatives map[string]Provider
	altOrder     []string
	logger       *zerolog.Logger
}

func NewRegistry(
	appCtx context.Context,
	logger *zerolog.Logger,
	cfgs []*common.ProviderConfig,
) (*Registry, error) {
	lg := logger.With().Str("component", "providers").Logger()

	reg := &Registry{
		alternatives: make(map[string]Provider),
		logger:       &lg,
	}

	for _, cfg := range cfgs {
		client, err := NewHttpInferenceClient(appCtx, &lg, cfg)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(client); err != nil {
			return nil, err
		}
	}

	if reg.primary == nil {
		return nil, common.NewErrNoPrimaryProvider()
	}

	lg.Info().
		Str("primary", reg.primary.Id()).
		Strs("alternatives", reg.altOrder).
		Msg("provider registry initialized")

	return reg, nil
}

// Register adds one provider. Used directly by tests to install fakes.
func (r *Registry) Register(p Provider) error {
	if p.Role() == common.ProviderRolePrimary {
		if r.primary != nil {
			return common.NewErrNoPrimaryProvider()
		}
		r.primary = p
		return nil
	}
	if _, ok := r.alternatives[p.Id()]; !ok {
		r.altOrder = append(r.altOrder, p.Id())
	}
	r.alternatives[p.Id()] = p
	return nil
}

func (r *Registry) Primary() Provider {
	return r.primary
}

func (r *Registry) Get(id string) (Provider, error) {
	if r.primary != nil && r.primary.Id() == id {
		return r.primary, nil
	}
	if p, ok := r.alternatives[id]; ok {
		return p, nil
	}
	return nil, common.NewErrProviderNotFound(id)
}

// AlternativeIds returns alternative provider ids in configuration order.
func (r *Registry) AlternativeIds() []string {
	ids := make([]string, len(r.altOrder))
	copy(ids, r.altOrder)
	return ids
}
