package common

import (
	"github.com/bytedance/sonic"
)

// SonicCfg is the shared JSON API. Map keys are sorted so that two
// payloads with the same content always serialize to the same bytes,
// which the similarity estimator depends on.
var SonicCfg sonic.API

func init() {
	SonicCfg = sonic.Config{
		SortMapKeys:      true,
		CompactMarshaler: true,
	}.Froze()
}
