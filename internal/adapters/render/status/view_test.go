package status

import (
	"strings"
	"testing"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleScan() domain.ScanResult {
	return domain.ScanResult{
		Instances: []domain.Instance{
			{
				ID:            "{D3C2A1B0-7E6F-4A5B-8C9D-0E1F2A3B4C5D}",
				Name:          "VST3: Archetype Gojira (Neural DSP)",
				ContainerID:   "{6A1F0C2E-3B7D-4E59-9A41-0C5B7E2D9F10}",
				ContainerName: "Guitar DI",
				Position:      1,
				Confidence:    domain.ConfidenceHigh,
			},
			{
				ID:            "{1F2E3D4C-5B6A-4798-8A9B-CADBECFD0E1F}",
				Name:          "VST3: Gojira X (Neural DSP)",
				ContainerID:   "{9E8D7C6B-5A49-4382-A1F0-E9D8C7B6A543}",
				ContainerName: "Guitar Double",
				Position:      0,
				Confidence:    domain.ConfidenceLow,
			},
		},
		Report: domain.ValidationReport{
			"delay_active": "present at 101 (Delay Active)",
			"delay_mix":    "moved to 107 (expected 105): Delay Mix",
			"reverb_mix":   "not found",
		},
		Formats: map[int]domain.ParamFormat{
			105: {Min: "0.0 %", Mid: "50.0 %", Max: "100.0 %"},
		},
		Enums: map[int][]domain.ParamEnumOption{
			113: {{Value: 0.125, Label: "Room"}, {Value: 0.375, Label: "Hall"}},
		},
	}
}

func TestRenderScanResult(t *testing.T) {
	output, err := Render(sampleScan(), RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "instances: 2")
	assert.Contains(t, output, "VST3: Archetype Gojira (Neural DSP)")
	assert.Contains(t, output, "[high]")
	assert.Contains(t, output, "[low]")
	assert.Contains(t, output, "track: Guitar DI, slot 1")
	assert.Contains(t, output, "delay_mix: moved to 107 (expected 105): Delay Mix")
	assert.Contains(t, output, "reverb_mix: not found")
	assert.Contains(t, output, "105: 0.0 % / 50.0 % / 100.0 %")
	assert.Contains(t, output, "113: 2 options Room, Hall")
}

func TestRenderOrdersReportByRole(t *testing.T) {
	output, err := Render(sampleScan(), RenderOptions{})

	require.NoError(t, err)
	active := indexOf(t, output, "delay_active:")
	mix := indexOf(t, output, "delay_mix:")
	reverb := indexOf(t, output, "reverb_mix:")
	assert.Less(t, active, mix)
	assert.Less(t, mix, reverb)
}

func TestRenderEmptyScan(t *testing.T) {
	output, err := Render(domain.ScanResult{}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "instances: 0")
	assert.Contains(t, output, "No matching plugin instances found.")
	assert.NotContains(t, output, "Validation")
}

func TestRenderTruncatesLongFormatListing(t *testing.T) {
	scan := sampleScan()
	scan.Formats = map[int]domain.ParamFormat{}
	for idx := 30; idx < 40; idx++ {
		scan.Formats[idx] = domain.ParamFormat{Min: "0", Mid: "5", Max: "10"}
	}

	output, err := Render(scan, RenderOptions{MaxRows: 4})

	require.NoError(t, err)
	assert.Contains(t, output, "probed: 10")
	assert.Contains(t, output, " 33:")
	assert.NotContains(t, output, " 34:")
	assert.Contains(t, output, "... 6 more")
}

func TestRenderLevelBarForKnownValues(t *testing.T) {
	output, err := Render(sampleScan(), RenderOptions{Values: map[int]float64{105: 0.5}})

	require.NoError(t, err)
	assert.Contains(t, output, "[========--------]")
}

func TestRenderLevelBarClamps(t *testing.T) {
	s := newStyles()

	assert.Equal(t, "[====]", renderLevelBar(3, 4, s))
	assert.Equal(t, "[----]", renderLevelBar(-1, 4, s))
	assert.Empty(t, renderLevelBar(0.5, 0, s))
}

func indexOf(t *testing.T, haystack, needle string) int {
	t.Helper()

	i := strings.Index(haystack, needle)
	require.GreaterOrEqual(t, i, 0, "%q not found in output", needle)

	return i
}
