package status

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const defaultMaxRows = 12

type RenderOptions struct {
	// MaxRows caps the format and enum listings. Zero means the default.
	MaxRows int
	// Values holds current normalized values of the primary instance keyed
	// by parameter index. Indices present get a level bar in the formats
	// section.
	Values map[int]float64
}

func (o RenderOptions) maxRows() int {
	if o.MaxRows <= 0 {
		return defaultMaxRows
	}

	return o.MaxRows
}

func renderView(result domain.ScanResult, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Tonebridge Session Scan"),
		s.header.Render(fmt.Sprintf("instances: %d", len(result.Instances))),
	}

	if len(result.Instances) == 0 {
		lines = append(lines, s.empty.Render("No matching plugin instances found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, inst := range result.Instances {
		lines = append(lines, s.section.Render(renderInstance(inst, s)))
	}

	lines = append(lines, s.section.Render(renderReport(result.Report, s)))

	if len(result.Formats) > 0 {
		lines = append(lines, s.section.Render(renderFormats(result.Formats, opts, s)))
	}
	if len(result.Enums) > 0 {
		lines = append(lines, s.section.Render(renderEnums(result.Enums, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderInstance(inst domain.Instance, s styles) string {
	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.instance.Render(strings.TrimSpace(inst.Name)),
		" ",
		confidenceBadge(inst.Confidence, s),
	)

	track := inst.ContainerName
	if track == "" {
		track = "(unnamed track)"
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		s.detail.Render(fmt.Sprintf("track: %s, slot %d", track, inst.Position)),
		s.meta.Render(fmt.Sprintf("fx %s on %s", inst.ID, inst.ContainerID)),
	)
}

func confidenceBadge(c domain.Confidence, s styles) string {
	switch c {
	case domain.ConfidenceHigh:
		return s.badgeHigh.Render("[high]")
	case domain.ConfidenceLow:
		return s.badgeLow.Render("[low]")
	default:
		return s.meta.Render("[unknown]")
	}
}

func renderReport(report domain.ValidationReport, s styles) string {
	parts := []string{s.title.Render("Validation")}
	if len(report) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(parts, s.empty.Render("no rules checked"))...)
	}

	for _, role := range slices.Sorted(maps.Keys(report)) {
		outcome := report[role]
		parts = append(parts, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render(role+":"),
			" ",
			outcomeStyle(outcome, s).Render(outcome),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func outcomeStyle(outcome string, s styles) lipgloss.Style {
	switch {
	case strings.HasPrefix(outcome, "not found"):
		return s.warning
	case strings.HasPrefix(outcome, "moved"):
		return s.caution
	default:
		return s.ok
	}
}

func renderFormats(formats map[int]domain.ParamFormat, opts RenderOptions, s styles) string {
	indices := slices.Sorted(maps.Keys(formats))
	parts := []string{
		s.title.Render("Parameter formats"),
		s.header.Render(fmt.Sprintf("probed: %d", len(indices))),
	}

	for i, idx := range indices {
		if i == opts.maxRows() {
			parts = append(parts, s.empty.Render(fmt.Sprintf("... %d more", len(indices)-i)))
			break
		}
		f := formats[idx]
		row := []string{
			s.key.Render(fmt.Sprintf("%3d:", idx)),
			" ",
			s.detail.Render(fmt.Sprintf("%s / %s / %s", f.Min, f.Mid, f.Max)),
		}
		if v, ok := opts.Values[idx]; ok {
			row = append(row, " ", renderLevelBar(v, 16, s))
		}
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderEnums(enums map[int][]domain.ParamEnumOption, opts RenderOptions, s styles) string {
	parts := []string{s.title.Render("Enumerations")}

	for _, idx := range slices.Sorted(maps.Keys(enums)) {
		options := enums[idx]
		labels := make([]string, 0, len(options))
		for i, opt := range options {
			if i == opts.maxRows() {
				labels = append(labels, "...")
				break
			}
			labels = append(labels, opt.Label)
		}
		parts = append(parts, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render(fmt.Sprintf("%3d:", idx)),
			" ",
			s.meta.Render(fmt.Sprintf("%d options", len(options))),
			" ",
			s.detail.Render(strings.Join(labels, ", ")),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderLevelBar(value float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampUnit(value)))
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", width-filled))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
