package domain

import "fmt"

// ValidationReport maps a role name to a human readable confirmation such as
// "confirmed at 105 (neighbor of 101): Delay Mix".
type ValidationReport map[string]string

type IndexWindow struct {
	From int
	To   int
}

func (w IndexWindow) Contains(index int) bool {
	return index >= w.From && index <= w.To
}

// ValidationRule locates one ambiguous parameter relative to an anchor.
type ValidationRule struct {
	Role           string
	AnchorRole     string
	AnchorIndex    int
	AnchorTokens   []string
	AnchorWindow   IndexWindow
	Window         IndexWindow
	TargetTokens   []string
	TieBreakTokens []string
}

func (r ValidationRule) Validate() error {
	if r.Role == "" {
		return fmt.Errorf("validation rule role is required")
	}
	if r.AnchorRole == "" {
		return fmt.Errorf("validation rule %q: anchor role is required", r.Role)
	}
	if r.Window.From > r.Window.To || r.AnchorWindow.From > r.AnchorWindow.To {
		return fmt.Errorf("validation rule %q: window is inverted", r.Role)
	}
	if !r.AnchorWindow.Contains(r.AnchorIndex) {
		return fmt.Errorf("validation rule %q: anchor %d outside its window", r.Role, r.AnchorIndex)
	}
	if len(r.TargetTokens) == 0 {
		return fmt.Errorf("validation rule %q: target tokens are required", r.Role)
	}

	return nil
}

func DefaultValidationRules() []ValidationRule {
	anchorTokens := []string{"active", "enable", "power"}
	mixTokens := []string{"mix", "drywet"}
	tieBreak := []string{"feedback", "time"}

	return []ValidationRule{
		{
			Role:           "delay_mix",
			AnchorRole:     "delay_active",
			AnchorIndex:    101,
			AnchorTokens:   anchorTokens,
			AnchorWindow:   IndexWindow{From: 96, To: 110},
			Window:         IndexWindow{From: 100, To: 115},
			TargetTokens:   mixTokens,
			TieBreakTokens: tieBreak,
		},
		{
			Role:           "reverb_mix",
			AnchorRole:     "reverb_active",
			AnchorIndex:    112,
			AnchorTokens:   anchorTokens,
			AnchorWindow:   IndexWindow{From: 108, To: 120},
			Window:         IndexWindow{From: 110, To: 125},
			TargetTokens:   mixTokens,
			TieBreakTokens: tieBreak,
		},
	}
}

type ParamFormat struct {
	Min string
	Mid string
	Max string
}

type ParamEnumOption struct {
	Value float64
	Label string
}

type EnumProbe struct {
	Index      int
	Samples    int
	MaxOptions int
}

// ProbeConfig selects which parameters get formatted-value metadata in the
// handshake.
type ProbeConfig struct {
	Enabled bool
	Formats []int
	Enums   []EnumProbe
}

func DefaultProbeConfig() ProbeConfig {
	formats := []int{0, 1, 2}
	for idx := 30; idx <= 51; idx++ {
		formats = append(formats, idx)
	}
	formats = append(formats, 87, 88, 89, 94, 95, 96, 105, 106, 108, 114, 115, 116, 117)

	return ProbeConfig{
		Enabled: true,
		Formats: formats,
		Enums: []EnumProbe{
			{Index: 84, Samples: 512, MaxOptions: 64},
			{Index: 92, Samples: 2048, MaxOptions: 512},
			{Index: 99, Samples: 2048, MaxOptions: 512},
			{Index: 113, Samples: 256, MaxOptions: 32},
			{Index: 5, Samples: 128, MaxOptions: 32},
		},
	}
}

// ScanResult is what a full scan produces for the handshake.
type ScanResult struct {
	Instances []Instance
	Report    ValidationReport
	Formats   map[int]ParamFormat
	Enums     map[int][]ParamEnumOption
}
