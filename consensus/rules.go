package consensus

import (
	"strings"
	"sync"

	"github.com/adjudex/adjudex/common"
	"github.com/adjudex/adjudex/telemetry"
	"github.com/adjudex/adjudex/util"
	"github.com/rs/zerolog"
)

type MatchKind string

const (
	MatchDefault         MatchKind = "default"
	MatchTaskEquals      MatchKind = "taskEquals"
	MatchTaskContains    MatchKind = "taskContains"
	MatchContextEquals   MatchKind = "contextEquals"
	MatchContextContains MatchKind = "contextContains"
)

type RuleMatch struct {
	Kind  MatchKind
	Value string
}

// Matches evaluates the tagged predicate against a request. Match kinds
// are explicit so an incidental substring in an unrelated task can never
// select the wrong policy.
func (m RuleMatch) Matches(req *common.ConsensusRequest) bool {
	switch m.Kind {
	case MatchDefault:
		return true
	case MatchTaskEquals:
		return strings.EqualFold(req.Task, m.Value)
	case MatchTaskContains:
		return strings.Contains(strings.ToLower(req.Task), strings.ToLower(m.Value))
	case MatchContextEquals:
		return strings.EqualFold(req.Context, m.Value)
	case MatchContextContains:
		return strings.Contains(strings.ToLower(req.Context), strings.ToLower(m.Value))
	}
	return false
}

// Rule is configuration data, not code.
type Rule struct {
	Id                    string
	Name                  string
	Match                 RuleMatch
	MinimumAgreement      float64
	RequiredProviders     []string
	HumanApprovalRequired bool
	Enabled               bool
}

// RuleRegistry holds custom rules in load order plus the synthesized
// per-criticality defaults. The rule set is read-mostly; Reload swaps it
// atomically so in-flight jobs see either the old or new set, never a
// partially-updated one.
type RuleRegistry struct {
	logger *zerolog.Logger

	mu    sync.RWMutex
	rules []*Rule

	primaryId string
	altIds    []string
}

func NewRuleRegistry(
	logger *zerolog.Logger,
	cfgs []*common.RuleConfig,
	primaryId string,
	altIds []string,
) *RuleRegistry {
	lg := logger.With().Str("component", "rules").Logger()

	reg := &RuleRegistry{
		logger:    &lg,
		primaryId: primaryId,
		altIds:    altIds,
	}
	reg.Reload(parseRules(&lg, cfgs))

	return reg
}

// parseRules converts config records to rules, skipping malformed
// entries. An unusable rule source degrades to "no custom rules" so the
// synthesized defaults always keep the registry operational.
func parseRules(lg *zerolog.Logger, cfgs []*common.RuleConfig) []*Rule {
	rules := make([]*Rule, 0, len(cfgs))
	for _, cfg := range cfgs {
		if cfg == nil {
			continue
		}
		if cfg.Id == "" || !util.IsValidIdentifier(cfg.Id) {
			lg.Warn().Str("ruleId", cfg.Id).Msg("skipping rule with invalid id")
			continue
		}
		if cfg.MinimumAgreement < 0 || cfg.MinimumAgreement > 1 {
			lg.Warn().Str("ruleId", cfg.Id).Float64("minimumAgreement", cfg.MinimumAgreement).Msg("skipping rule with out-of-range minimumAgreement")
			continue
		}

		match := RuleMatch{Kind: MatchDefault}
		if cfg.Match != nil {
			kind := MatchKind(cfg.Match.Kind)
			switch kind {
			case MatchDefault, MatchTaskEquals, MatchTaskContains, MatchContextEquals, MatchContextContains:
				match = RuleMatch{Kind: kind, Value: cfg.Match.Value}
			default:
				lg.Warn().Str("ruleId", cfg.Id).Str("kind", cfg.Match.Kind).Msg("skipping rule with unknown match kind")
				continue
			}
		}

		enabled := true
		if cfg.Enabled != nil {
			enabled = *cfg.Enabled
		}

		name := cfg.Name
		if name == "" {
			name = cfg.Id
		}

		rules = append(rules, &Rule{
			Id:                    cfg.Id,
			Name:                  name,
			Match:                 match,
			MinimumAgreement:      cfg.MinimumAgreement,
			RequiredProviders:     cfg.RequiredProviders,
			HumanApprovalRequired: cfg.HumanApprovalRequired,
			Enabled:               enabled,
		})
	}
	return rules
}

// Reload replaces the whole custom rule set.
func (r *RuleRegistry) Reload(rules []*Rule) {
	r.mu.Lock()
	r.rules = rules
	r.mu.Unlock()
	r.logger.Debug().Int("count", len(rules)).Msg("rule set loaded")
}

// ReloadFromConfig re-parses config records and swaps the rule set.
func (r *RuleRegistry) ReloadFromConfig(cfgs []*common.RuleConfig) {
	r.Reload(parseRules(r.logger, cfgs))
}

// SelectRule returns the first enabled rule (in load order) matching the
// request, or a synthesized default keyed by criticality. It never fails.
func (r *RuleRegistry) SelectRule(req *common.ConsensusRequest) *Rule {
	r.mu.RLock()
	rules := r.rules
	r.mu.RUnlock()

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if rule.Match.Matches(req) {
			return rule
		}
	}

	telemetry.MetricRuleFallbackTotal.WithLabelValues(string(req.CriticalityLevel)).Inc()
	return r.defaultRuleFor(req.CriticalityLevel)
}

// defaultRuleFor synthesizes the built-in policy per criticality tier:
// low needs only the primary, each higher tier consults one more
// alternative and raises the agreement bar.
func (r *RuleRegistry) defaultRuleFor(level common.CriticalityLevel) *Rule {
	var minAgreement float64
	var altCount int
	var humanApproval bool

	switch level {
	case common.CriticalityLow:
		minAgreement, altCount, humanApproval = 0.6, 0, false
	case common.CriticalityMedium:
		minAgreement, altCount, humanApproval = 0.7, 1, false
	case common.CriticalityHigh:
		minAgreement, altCount, humanApproval = 0.8, 2, true
	case common.CriticalityCritical:
		minAgreement, altCount, humanApproval = 0.9, 3, true
	default:
		minAgreement, altCount, humanApproval = 0.7, 1, false
	}

	if altCount > len(r.altIds) {
		altCount = len(r.altIds)
	}
	providers := make([]string, 0, altCount+1)
	providers = append(providers, r.primaryId)
	providers = append(providers, r.altIds[:altCount]...)

	return &Rule{
		Id:                    "default-" + string(level),
		Name:                  "default-" + string(level),
		Match:                 RuleMatch{Kind: MatchDefault},
		MinimumAgreement:      minAgreement,
		RequiredProviders:     providers,
		HumanApprovalRequired: humanApproval,
		Enabled:               true,
	}
}
