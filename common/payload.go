package common

import (
	"bytes"
	"strings"
)

// Payload is an opaque JSON value passed through the engine. The engine
// never introspects payload shape; only the similarity estimator and the
// explanation generator touch its content, and both work on the
// serialized form.
type Payload struct {
	raw []byte
}

// NewPayload serializes v into a canonical payload (sorted map keys).
func NewPayload(v interface{}) (Payload, error) {
	if v == nil {
		return Payload{}, nil
	}
	b, err := SonicCfg.Marshal(v)
	if err != nil {
		return Payload{}, err
	}
	return Payload{raw: b}, nil
}

// MustPayload is a test/default-value helper that panics on marshal errors.
func MustPayload(v interface{}) Payload {
	p, err := NewPayload(v)
	if err != nil {
		panic(err)
	}
	return p
}

// PayloadFromRaw wraps already-serialized JSON bytes without re-encoding.
func PayloadFromRaw(raw []byte) Payload {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Payload{}
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return Payload{raw: cp}
}

func (p Payload) IsNil() bool {
	return len(p.raw) == 0
}

func (p Payload) Raw() []byte {
	return p.raw
}

// Canonical returns the lower-cased canonical string form used for
// lexical comparison.
func (p Payload) Canonical() string {
	if p.IsNil() {
		return ""
	}
	var v interface{}
	if err := SonicCfg.Unmarshal(p.raw, &v); err != nil {
		// Not valid JSON, compare the raw bytes as-is.
		return strings.ToLower(string(p.raw))
	}
	b, err := SonicCfg.Marshal(v)
	if err != nil {
		return strings.ToLower(string(p.raw))
	}
	return strings.ToLower(string(b))
}

func (p Payload) String() string {
	if p.IsNil() {
		return "null"
	}
	return string(p.raw)
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.IsNil() {
		return []byte("null"), nil
	}
	return p.raw, nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	*p = PayloadFromRaw(data)
	return nil
}
