// Package schema defines the canonical data types shared by the scorers, the
// test runner, persistence, and rendering. JSON field names match the stored
// run format so records written by earlier versions decode unchanged.
package schema

import (
	"sort"
	"time"
)

// Result keys in a ModelProfile. MBTIDerived holds the Big Five fallback
// mapping and is present whenever BigFive is.
const (
	KeyBigFive     = "bigfive"
	KeyMBTI        = "mbti"
	KeyMBTIDerived = "mbti_derived"
	KeyDISC        = "disc"
	KeyDarkTriad   = "darktriad"
)

// ResultKeys lists every result key in display order.
var ResultKeys = []string{KeyBigFive, KeyMBTI, KeyMBTIDerived, KeyDISC, KeyDarkTriad}

// DefaultPersona labels runs made without a persona.
const DefaultPersona = "Base Model"

// ResponseSet maps item IDs to the per-sample numeric responses collected for
// that item. Likert samples are 1-5; DISC samples use the most*10+least
// encoding. Missing items and empty sample lists are allowed.
type ResponseSet map[string][]float64

// Clone returns a deep copy of rs.
func (rs ResponseSet) Clone() ResponseSet {
	if rs == nil {
		return nil
	}
	out := make(ResponseSet, len(rs))
	for k, v := range rs {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

// InventoryResult is a scorer's output for one inventory. A result is built
// fresh per scoring call and is never mutated afterwards.
type InventoryResult struct {
	InventoryName string             `json:"inventoryName"`
	RawScores     ResponseSet        `json:"rawScores"`
	TraitScores   map[string]float64 `json:"traitScores"`
	Type          string             `json:"type,omitempty"`
	PSI           map[string]float64 `json:"psi,omitempty"`
	Details       map[string]any     `json:"details,omitempty"`
}

// Trait returns the named trait score and whether it was present.
func (r *InventoryResult) Trait(key string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	v, ok := r.TraitScores[key]
	return v, ok
}

// TraitKeys returns the trait keys in sorted order, omitting the _raw_ audit
// fields when withRaw is false.
func (r *InventoryResult) TraitKeys(withRaw bool) []string {
	keys := make([]string, 0, len(r.TraitScores))
	for k := range r.TraitScores {
		if !withRaw && IsRawKey(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RawPrefix marks pre-calibration audit values inside TraitScores.
const RawPrefix = "_raw_"

// IsRawKey reports whether k is a pre-calibration audit key.
func IsRawKey(k string) bool {
	return len(k) > len(RawPrefix) && k[:len(RawPrefix)] == RawPrefix
}

// LogType classifies a LogEntry.
type LogType string

const (
	LogInfo    LogType = "info"
	LogError   LogType = "error"
	LogSuccess LogType = "success"
)

// LogEntry is one line of the verification log kept with a run.
type LogEntry struct {
	Timestamp string  `json:"timestamp"`
	Message   string  `json:"message"`
	Type      LogType `json:"type"`
}

// ModelProfile is one complete test run.
type ModelProfile struct {
	ModelName    string                      `json:"modelName"`
	Persona      string                      `json:"persona,omitempty"`
	SystemPrompt string                      `json:"systemPrompt,omitempty"`
	Timestamp    int64                       `json:"timestamp"`
	Results      map[string]*InventoryResult `json:"results"`
	Logs         []LogEntry                  `json:"logs,omitempty"`
}

// PersonaOrDefault returns the persona label, or DefaultPersona when unset.
func (p *ModelProfile) PersonaOrDefault() string {
	if p.Persona == "" {
		return DefaultPersona
	}
	return p.Persona
}

// Time returns Timestamp (Unix milliseconds) as a time.Time.
func (p *ModelProfile) Time() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// Result returns the named inventory result, or nil.
func (p *ModelProfile) Result(key string) *InventoryResult {
	if p == nil || p.Results == nil {
		return nil
	}
	return p.Results[key]
}

// MBTIType returns the direct MBTI type when present, otherwise the derived
// one, otherwise "".
func (p *ModelProfile) MBTIType() string {
	if r := p.Result(KeyMBTI); r != nil && r.Type != "" {
		return r.Type
	}
	if r := p.Result(KeyMBTIDerived); r != nil {
		return r.Type
	}
	return ""
}
