package cycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOverrides(t *testing.T) {
	tests := []struct {
		name      string
		raw       map[string]float64
		wantErr   bool
		errSubstr string
		wantLen   int
	}{
		{name: "empty", raw: nil, wantLen: 0},
		{name: "all keys", raw: map[string]float64{"hpc_pressure_ratio": 5, "bypass_ratio": 0.8, "tt4": 1700}, wantLen: 3},
		{name: "typo gets a suggestion", raw: map[string]float64{"bypas_ratio": 1}, wantErr: true, errSubstr: `did you mean "bypass_ratio"`},
		{name: "unrelated key", raw: map[string]float64{"altitude": 3}, wantErr: true, errSubstr: `"altitude"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ov, err := NewOverrides(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownOverride))
				assert.Contains(t, err.Error(), tt.errSubstr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, ov.Len())
			assert.Equal(t, len(tt.raw), len(ov.Map()))
		})
	}
}

func TestNewOverrides_UnrelatedKeyHasNoSuggestion(t *testing.T) {
	_, err := NewOverrides(map[string]float64{"altitude": 3})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestOverrides_WithCopies(t *testing.T) {
	a := Overrides{}.With(OverrideTt4, 1500)
	b := a.With(OverrideBypassRatio, 2)

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 2, b.Len())

	v, ok := b.Get(OverrideTt4)
	assert.True(t, ok)
	assert.Equal(t, 1500.0, v)

	_, ok = a.Get(OverrideBypassRatio)
	assert.False(t, ok)
}

func TestOverrides_Apply(t *testing.T) {
	base := DefaultInputs()

	assert.Equal(t, base, Overrides{}.Apply(base))

	got := Overrides{}.With(OverrideHPCPressureRatio, 10).Apply(base)
	assert.Equal(t, 10.0, got.HPCPressureRatio)
	assert.Equal(t, base.BypassRatio, got.BypassRatio)
	assert.Equal(t, base.Tt4, got.Tt4)
}
