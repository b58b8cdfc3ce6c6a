package sweep

import (
	"errors"
	"testing"

	"turbocycle/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSpec(t *testing.T) {
	tests := []struct {
		kind     models.SweepKind
		wantSize int
	}{
		{kind: models.SweepOPR, wantSize: 76},
		{kind: models.SweepBypass, wantSize: 25},
		{kind: models.SweepTt4, wantSize: 31},
		{kind: models.SweepEnvelope, wantSize: 3000},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			spec, err := DefaultSpec(tt.kind)
			require.NoError(t, err)
			require.NoError(t, spec.Validate())
			assert.Equal(t, tt.wantSize, spec.Size())
		})
	}

	_, err := DefaultSpec("altitude")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr error
	}{
		{name: "zero step", spec: Spec{Kind: models.SweepTt4, From: 1000, To: 2000}, wantErr: ErrInvalidRange},
		{name: "inverted", spec: Spec{Kind: models.SweepBypass, From: 5, To: 1, Step: 1}, wantErr: ErrInvalidRange},
		{name: "single point", spec: Spec{Kind: models.SweepBypass, From: 1, To: 1, Step: 1}},
		{name: "envelope one step", spec: Spec{Kind: models.SweepEnvelope, MaxMach: 2, MaxAltitude: 10, MachSteps: 1, AltSteps: 4}, wantErr: ErrInvalidRange},
		{name: "envelope no extent", spec: Spec{Kind: models.SweepEnvelope, MachSteps: 3, AltSteps: 3}, wantErr: ErrInvalidRange},
		{name: "negative cutoff", spec: Spec{Kind: models.SweepOPR, From: 5, To: 10, Step: 1, SFCCutoff: -1}, wantErr: ErrInvalidRange},
		{name: "no kind", spec: Spec{From: 1, To: 2, Step: 1}, wantErr: ErrUnknownKind},
		{name: "tiny step", spec: Spec{Kind: models.SweepOPR, From: 5, To: 80, Step: 1e-12}, wantErr: ErrInvalidRange},
		{name: "just over the cap", spec: Spec{Kind: models.SweepTt4, From: 0, To: MaxPoints, Step: 1}, wantErr: ErrInvalidRange},
		{name: "at the cap", spec: Spec{Kind: models.SweepTt4, From: 1, To: MaxPoints, Step: 1}},
		{name: "huge envelope", spec: Spec{Kind: models.SweepEnvelope, MaxMach: 2, MaxAltitude: 10, MachSteps: 2000, AltSteps: 2000}, wantErr: ErrInvalidRange},
		{name: "overflowing envelope", spec: Spec{Kind: models.SweepEnvelope, MaxMach: 2, MaxAltitude: 10, MachSteps: 1 << 32, AltSteps: 1 << 32}, wantErr: ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestSpec_Values(t *testing.T) {
	spec := Spec{Kind: models.SweepBypass, From: 0, To: 1, Step: 0.1}
	values := spec.Values()
	require.Len(t, values, 11)
	assert.Equal(t, 0.0, values[0])
	assert.InDelta(t, 1.0, values[10], 1e-12)

	env := Spec{Kind: models.SweepEnvelope, MaxMach: 3.5, MaxAltitude: 20, MachSteps: 60, AltSteps: 50}
	assert.Equal(t, 0.0, env.MachAt(0))
	assert.InDelta(t, 3.5, env.MachAt(59), 1e-12)
	assert.InDelta(t, 20.0, env.AltitudeAt(49), 1e-12)
}
