package application

import (
	"testing"

	"github.com/bnema/tonebridge/internal/adapters/host/sim"
	"github.com/bnema/tonebridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorConfirmsDefaultLayout(t *testing.T) {
	t.Parallel()

	session := sim.DefaultSession()
	r := NewResolver(nil, nil)
	target, err := r.Resolve(session, gojiraFX)
	require.NoError(t, err)

	v := NewValidator(domain.DefaultValidationRules(), domain.DefaultProbeConfig(), nil)
	report := v.Validate(session, target)

	assert.Equal(t, "present at 101 (Delay Active)", report["delay_active"])
	assert.Equal(t, "confirmed at 105 (neighbor of 101): Delay Mix", report["delay_mix"])
	assert.Equal(t, "present at 112 (Reverb Active)", report["reverb_active"])
	assert.Equal(t, "confirmed at 114 (neighbor of 112): Reverb Mix", report["reverb_mix"])
}

func TestValidatorFindsShiftedAnchor(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{
		101: "Delay Tempo Sync",
		103: "Delay Enable",
		107: "Mix",
	})
	rule := domain.DefaultValidationRules()[0]
	v := NewValidator([]domain.ValidationRule{rule}, domain.ProbeConfig{}, nil)

	report := v.Validate(host, Target{ID: "{FX}", Container: 1})
	assert.Equal(t, "moved to 103 (expected 101): Delay Enable", report["delay_active"])
	assert.Equal(t, "confirmed at 107 (neighbor of 103): Mix", report["delay_mix"])
}

func TestValidatorTieBreaksOnNeighbor(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{
		101: "Delay Active",
		99:  "Mix",
		103: "Mix",
		104: "Feedback",
	})
	rule := domain.DefaultValidationRules()[0]
	rule.Window = domain.IndexWindow{From: 96, To: 115}
	v := NewValidator([]domain.ValidationRule{rule}, domain.ProbeConfig{}, nil)

	report := v.Validate(host, Target{ID: "{FX}", Container: 1})
	assert.Equal(t, "confirmed at 103 (neighbor of 101): Mix", report["delay_mix"])
}

func TestValidatorReportsMissingRoles(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{})
	v := NewValidator(domain.DefaultValidationRules(), domain.ProbeConfig{}, nil)

	report := v.Validate(host, Target{ID: "{FX}", Container: 1})
	assert.Equal(t, "not found near 101", report["delay_active"])
	assert.Equal(t, "not found", report["delay_mix"])
}

func TestValidatorProbesFormatsAndEnums(t *testing.T) {
	t.Parallel()

	session := sim.DefaultSession()
	r := NewResolver(nil, nil)
	target, err := r.Resolve(session, gojiraFX)
	require.NoError(t, err)

	probes := domain.ProbeConfig{
		Enabled: true,
		Formats: []int{105, 127, 500},
		Enums:   []domain.EnumProbe{{Index: 113, Samples: 256, MaxOptions: 3}},
	}
	v := NewValidator(nil, probes, nil)
	report, formats, enums := v.Scan(session, target)

	assert.Empty(t, report)
	assert.Equal(t, domain.ParamFormat{Min: "0.0 %", Mid: "50.0 %", Max: "100.0 %"}, formats[105])
	assert.Contains(t, formats, 127)
	assert.NotContains(t, formats, 500)

	require.Len(t, enums[113], 3)
	assert.Equal(t, "Room", enums[113][0].Label)
	assert.InDelta(t, 0.125, enums[113][0].Value, 1e-9)
	assert.Equal(t, "Hall", enums[113][1].Label)
	assert.InDelta(t, 0.375, enums[113][1].Value, 1e-9)
}

func TestValidatorScanSkipsProbesWhenDisabled(t *testing.T) {
	t.Parallel()

	session := sim.DefaultSession()
	target, err := NewResolver(nil, nil).Resolve(session, gojiraFX)
	require.NoError(t, err)

	probes := domain.DefaultProbeConfig()
	probes.Enabled = false
	_, formats, enums := NewValidator(nil, probes, nil).Scan(session, target)
	assert.Nil(t, formats)
	assert.Nil(t, enums)
}
