package cycle

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
)

// OverrideKey names an input axis that a caller may vary per solve
type OverrideKey string

const (
	OverrideHPCPressureRatio OverrideKey = "hpc_pressure_ratio"
	OverrideBypassRatio      OverrideKey = "bypass_ratio"
	OverrideTt4              OverrideKey = "tt4"
)

// OverrideKeys lists the accepted keys
func OverrideKeys() []OverrideKey {
	return []OverrideKey{OverrideHPCPressureRatio, OverrideBypassRatio, OverrideTt4}
}

// ErrUnknownOverride is returned for keys outside OverrideKeys
var ErrUnknownOverride = errors.New("unknown override")

// Overrides replaces selected inputs for one solve without touching the base
// configuration. The zero value overrides nothing.
type Overrides struct {
	values map[OverrideKey]float64
}

// NewOverrides validates raw keys and builds an Overrides record
func NewOverrides(raw map[string]float64) (Overrides, error) {
	var o Overrides
	// sorted so the first reported error is stable
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := OverrideKey(k)
		if !key.valid() {
			if hint := suggestOverride(k); hint != "" {
				return Overrides{}, fmt.Errorf("%w %q, did you mean %q?", ErrUnknownOverride, k, hint)
			}
			return Overrides{}, fmt.Errorf("%w %q", ErrUnknownOverride, k)
		}
		o = o.With(key, raw[k])
	}
	return o, nil
}

// With returns a copy of o with key set to v
func (o Overrides) With(key OverrideKey, v float64) Overrides {
	values := make(map[OverrideKey]float64, len(o.values)+1)
	for k, val := range o.values {
		values[k] = val
	}
	values[key] = v
	return Overrides{values: values}
}

// Get returns the override for key, if present
func (o Overrides) Get(key OverrideKey) (float64, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Len is the number of overridden axes
func (o Overrides) Len() int {
	return len(o.values)
}

// Map returns the overrides as plain key/value pairs
func (o Overrides) Map() map[string]float64 {
	m := make(map[string]float64, len(o.values))
	for k, v := range o.values {
		m[string(k)] = v
	}
	return m
}

// Apply returns the inputs with every override substituted
func (o Overrides) Apply(in EngineInputs) EngineInputs {
	if v, ok := o.values[OverrideHPCPressureRatio]; ok {
		in.HPCPressureRatio = v
	}
	if v, ok := o.values[OverrideBypassRatio]; ok {
		in.BypassRatio = v
	}
	if v, ok := o.values[OverrideTt4]; ok {
		in.Tt4 = v
	}
	return in
}

func (k OverrideKey) valid() bool {
	for _, known := range OverrideKeys() {
		if k == known {
			return true
		}
	}
	return false
}

// suggestOverride returns the closest known key within a small edit distance
func suggestOverride(k string) string {
	best, bestDist := "", 4
	for _, known := range OverrideKeys() {
		if d := levenshtein.ComputeDistance(k, string(known)); d < bestDist {
			best, bestDist = string(known), d
		}
	}
	return best
}
