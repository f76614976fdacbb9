package consensus

import (
	"github.com/adjudex/adjudex/common"
)

// Estimator quantifies how much two result payloads agree. Contract:
// deterministic, bounded in [0,1], and 1.0 on exact (canonical) match.
// Domains needing semantic matching plug in a stronger implementation.
type Estimator interface {
	Similarity(a, b common.Payload) float64
}

// LexicalEstimator is the default, intentionally cheap approximation:
// canonical lower-cased serializations compared byte-wise, falling back
// to character-set overlap. An absent payload on either side scores 0,
// so a failed primary contributes no agreement.
type LexicalEstimator struct{}

var _ Estimator = LexicalEstimator{}

func (LexicalEstimator) Similarity(a, b common.Payload) float64 {
	if a.IsNil() || b.IsNil() {
		return 0
	}

	sa := a.Canonical()
	sb := b.Canonical()
	if sa == sb {
		return 1
	}

	ra := []rune(sa)
	rb := []rune(sb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1
	}

	setA := make(map[rune]struct{}, len(ra))
	for _, r := range ra {
		setA[r] = struct{}{}
	}
	shared := 0
	seen := make(map[rune]struct{}, len(rb))
	for _, r := range rb {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if _, ok := setA[r]; ok {
			shared++
		}
	}

	// Distinct shared runes never exceed the shorter string's length,
	// so the score stays within [0,1).
	return float64(shared) / float64(maxLen)
}
