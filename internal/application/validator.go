package application

import (
	"fmt"
	"math"
	"strings"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/ports"
	"go.uber.org/zap"
)

// Validator confirms ambiguous parameter roles by name and collects
// formatted-value metadata. It runs on full scans only.
type Validator struct {
	rules  []domain.ValidationRule
	probes domain.ProbeConfig
	logger *zap.Logger
}

func NewValidator(rules []domain.ValidationRule, probes domain.ProbeConfig, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Validator{rules: rules, probes: probes, logger: logger}
}

// Scan validates and probes target and returns the handshake payload
// fields.
func (v *Validator) Scan(host ports.Host, target Target) (domain.ValidationReport, map[int]domain.ParamFormat, map[int][]domain.ParamEnumOption) {
	report := v.Validate(host, target)
	if !v.probes.Enabled {
		return report, nil, nil
	}
	formats, enums := v.Probe(host, target)

	return report, formats, enums
}

func (v *Validator) Validate(host ports.Host, target Target) domain.ValidationReport {
	report := domain.ValidationReport{}
	for _, rule := range v.rules {
		v.validateRule(host, target, rule, report)
	}

	return report
}

func (v *Validator) validateRule(host ports.Host, target Target, rule domain.ValidationRule, report domain.ValidationReport) {
	name := func(idx int) (string, bool) {
		return host.ParamName(target.Container, target.Position, idx)
	}

	anchor, anchorName, found := v.locateAnchor(rule, name)
	switch {
	case !found:
		report[rule.AnchorRole] = fmt.Sprintf("not found near %d", rule.AnchorIndex)
		anchor = rule.AnchorIndex
	case anchor == rule.AnchorIndex:
		report[rule.AnchorRole] = fmt.Sprintf("present at %d (%s)", anchor, anchorName)
	default:
		report[rule.AnchorRole] = fmt.Sprintf("moved to %d (expected %d): %s", anchor, rule.AnchorIndex, anchorName)
	}

	type candidate struct {
		index int
		name  string
		dist  int
	}
	var best []candidate
	for idx := rule.Window.From; idx <= rule.Window.To; idx++ {
		raw, ok := name(idx)
		if !ok || !looksLike(raw, rule.TargetTokens) {
			continue
		}
		c := candidate{index: idx, name: raw, dist: abs(idx - anchor)}
		switch {
		case len(best) == 0 || c.dist < best[0].dist:
			best = []candidate{c}
		case c.dist == best[0].dist:
			best = append(best, c)
		}
	}

	if len(best) == 0 {
		report[rule.Role] = "not found"
		v.logger.Warn("validation rule unresolved", zap.String("role", rule.Role), zap.Int("anchor", anchor))
		return
	}

	pick := best[0]
	if len(best) > 1 {
		for _, c := range best {
			if v.hasNeighbor(c.index, rule.TieBreakTokens, name) {
				pick = c
				break
			}
		}
	}
	report[rule.Role] = fmt.Sprintf("confirmed at %d (neighbor of %d): %s", pick.index, anchor, pick.name)
}

func (v *Validator) locateAnchor(rule domain.ValidationRule, name func(int) (string, bool)) (int, string, bool) {
	if raw, ok := name(rule.AnchorIndex); ok && looksLike(raw, rule.AnchorTokens) {
		return rule.AnchorIndex, raw, true
	}

	bestIdx, bestName, bestDist := 0, "", math.MaxInt
	for idx := rule.AnchorWindow.From; idx <= rule.AnchorWindow.To; idx++ {
		raw, ok := name(idx)
		if !ok || !looksLike(raw, rule.AnchorTokens) {
			continue
		}
		if d := abs(idx - rule.AnchorIndex); d < bestDist {
			bestIdx, bestName, bestDist = idx, raw, d
		}
	}

	return bestIdx, bestName, bestDist != math.MaxInt
}

func (v *Validator) hasNeighbor(idx int, tokens []string, name func(int) (string, bool)) bool {
	for _, n := range []int{idx - 1, idx + 1} {
		if raw, ok := name(n); ok && looksLike(raw, tokens) {
			return true
		}
	}

	return false
}

// Probe formats the configured parameters at 0, 0.5 and 1 and samples the
// configured selectors for their option labels.
func (v *Validator) Probe(host ports.Host, target Target) (map[int]domain.ParamFormat, map[int][]domain.ParamEnumOption) {
	formats := map[int]domain.ParamFormat{}
	for _, idx := range v.probes.Formats {
		if _, ok := host.ParamName(target.Container, target.Position, idx); !ok {
			continue
		}
		format := func(x float64) string {
			s, _ := host.FormatParamValue(target.Container, target.Position, idx, x)
			return strings.TrimSpace(s)
		}
		f := domain.ParamFormat{Min: format(0), Mid: format(0.5), Max: format(1)}
		if f.Min == "" && f.Mid == "" && f.Max == "" {
			continue
		}
		formats[idx] = f
	}

	enums := map[int][]domain.ParamEnumOption{}
	for _, probe := range v.probes.Enums {
		if _, ok := host.ParamName(target.Container, target.Position, probe.Index); !ok {
			continue
		}
		if options := probeEnum(host, target, probe); len(options) > 0 {
			enums[probe.Index] = options
		}
	}

	return formats, enums
}

// probeEnum sweeps [0,1] and reports each distinct label once, valued at
// the midpoint of the first run where it appears.
func probeEnum(host ports.Host, target Target, probe domain.EnumProbe) []domain.ParamEnumOption {
	samples := max(probe.Samples, 16)

	type segment struct {
		label      string
		start, end float64
	}
	var segments []segment
	var current *segment

	for s := 0; s <= samples; s++ {
		x := float64(s) / float64(samples)
		raw, _ := host.FormatParamValue(target.Container, target.Position, probe.Index, x)
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		switch {
		case current == nil:
			current = &segment{label: label, start: x}
		case current.label != label:
			current.end = x
			segments = append(segments, *current)
			current = &segment{label: label, start: x}
		}
	}
	if current != nil {
		current.end = 1
		segments = append(segments, *current)
	}

	var out []domain.ParamEnumOption
	seen := map[string]struct{}{}
	for _, seg := range segments {
		if _, dup := seen[seg.label]; dup {
			continue
		}
		seen[seg.label] = struct{}{}
		mid := math.Min(math.Max((seg.start+seg.end)/2, 0), 1)
		out = append(out, domain.ParamEnumOption{Value: mid, Label: seg.label})
		if probe.MaxOptions > 0 && len(out) >= probe.MaxOptions {
			break
		}
	}

	return out
}

func looksLike(raw string, tokens []string) bool {
	return domain.ContainsAny(domain.NormalizeName(raw), tokens)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
