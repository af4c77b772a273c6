package toml

import (
	"fmt"

	"github.com/bnema/tonebridge/internal/domain"
)

const currentProfileSchemaVersion = 1

type profileFileSchema struct {
	Version  int             `toml:"version"`
	Identity *identitySchema `toml:"identity,omitempty"`
	Modules  []moduleSchema  `toml:"modules,omitempty"`
	Remap    []remapSchema   `toml:"remap,omitempty"`
	Rules    []ruleSchema    `toml:"rules,omitempty"`
	Probes   *probesSchema   `toml:"probes,omitempty"`
}

func (s *profileFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentProfileSchemaVersion
	}
}

func (s profileFileSchema) validateVersion() error {
	if s.Version > currentProfileSchemaVersion {
		return fmt.Errorf("unsupported profile schema version %d (current %d)", s.Version, currentProfileSchemaVersion)
	}

	return nil
}

type identitySchema struct {
	Required []string `toml:"required"`
	Fallback string   `toml:"fallback"`
}

type moduleSchema struct {
	Name          string  `toml:"name"`
	Bypass        []int   `toml:"bypass"`
	Params        []int   `toml:"params"`
	DisabledValue float64 `toml:"disabled_value"`
}

type remapSchema struct {
	Logical int `toml:"logical"`
	Actual  int `toml:"actual"`
}

type windowSchema struct {
	From int `toml:"from"`
	To   int `toml:"to"`
}

type ruleSchema struct {
	Role           string       `toml:"role"`
	AnchorRole     string       `toml:"anchor_role"`
	AnchorIndex    int          `toml:"anchor_index"`
	AnchorTokens   []string     `toml:"anchor_tokens"`
	AnchorWindow   windowSchema `toml:"anchor_window"`
	Window         windowSchema `toml:"window"`
	TargetTokens   []string     `toml:"target_tokens"`
	TieBreakTokens []string     `toml:"tie_break_tokens"`
}

type probesSchema struct {
	Enabled *bool        `toml:"enabled,omitempty"`
	Formats []int        `toml:"formats,omitempty"`
	Enums   []enumSchema `toml:"enums,omitempty"`
}

type enumSchema struct {
	Index      int `toml:"index"`
	Samples    int `toml:"samples"`
	MaxOptions int `toml:"max_options"`
}

// toProfile fills every section the file leaves out from the compiled-in
// defaults.
func (s profileFileSchema) toProfile() domain.Profile {
	profile := domain.DefaultProfile()

	if s.Identity != nil {
		profile.Identity = domain.IdentityPattern{Required: s.Identity.Required, Fallback: s.Identity.Fallback}
	}
	if len(s.Modules) > 0 {
		profile.Modules = make(domain.ModuleLayout, 0, len(s.Modules))
		for _, m := range s.Modules {
			profile.Modules = append(profile.Modules, domain.Module{
				Name:          m.Name,
				Bypass:        m.Bypass,
				Params:        m.Params,
				DisabledValue: m.DisabledValue,
			})
		}
	}
	for _, r := range s.Remap {
		profile.Remap[r.Logical] = r.Actual
	}
	if len(s.Rules) > 0 {
		profile.Rules = make([]domain.ValidationRule, 0, len(s.Rules))
		for _, r := range s.Rules {
			profile.Rules = append(profile.Rules, domain.ValidationRule{
				Role:           r.Role,
				AnchorRole:     r.AnchorRole,
				AnchorIndex:    r.AnchorIndex,
				AnchorTokens:   r.AnchorTokens,
				AnchorWindow:   domain.IndexWindow{From: r.AnchorWindow.From, To: r.AnchorWindow.To},
				Window:         domain.IndexWindow{From: r.Window.From, To: r.Window.To},
				TargetTokens:   r.TargetTokens,
				TieBreakTokens: r.TieBreakTokens,
			})
		}
	}
	if s.Probes != nil {
		if s.Probes.Enabled != nil {
			profile.Probes.Enabled = *s.Probes.Enabled
		}
		if len(s.Probes.Formats) > 0 {
			profile.Probes.Formats = s.Probes.Formats
		}
		if len(s.Probes.Enums) > 0 {
			profile.Probes.Enums = make([]domain.EnumProbe, 0, len(s.Probes.Enums))
			for _, e := range s.Probes.Enums {
				profile.Probes.Enums = append(profile.Probes.Enums, domain.EnumProbe{
					Index:      e.Index,
					Samples:    e.Samples,
					MaxOptions: e.MaxOptions,
				})
			}
		}
	}

	return profile
}

func toProfileSchema(profile domain.Profile) profileFileSchema {
	file := profileFileSchema{
		Version:  currentProfileSchemaVersion,
		Identity: &identitySchema{Required: profile.Identity.Required, Fallback: profile.Identity.Fallback},
	}
	for _, m := range profile.Modules {
		file.Modules = append(file.Modules, moduleSchema{
			Name:          m.Name,
			Bypass:        m.Bypass,
			Params:        m.Params,
			DisabledValue: m.DisabledValue,
		})
	}
	for _, logical := range sortedKeys(profile.Remap) {
		file.Remap = append(file.Remap, remapSchema{Logical: logical, Actual: profile.Remap[logical]})
	}
	for _, r := range profile.Rules {
		file.Rules = append(file.Rules, ruleSchema{
			Role:           r.Role,
			AnchorRole:     r.AnchorRole,
			AnchorIndex:    r.AnchorIndex,
			AnchorTokens:   r.AnchorTokens,
			AnchorWindow:   windowSchema{From: r.AnchorWindow.From, To: r.AnchorWindow.To},
			Window:         windowSchema{From: r.Window.From, To: r.Window.To},
			TargetTokens:   r.TargetTokens,
			TieBreakTokens: r.TieBreakTokens,
		})
	}
	enabled := profile.Probes.Enabled
	file.Probes = &probesSchema{Enabled: &enabled, Formats: profile.Probes.Formats}
	for _, e := range profile.Probes.Enums {
		file.Probes.Enums = append(file.Probes.Enums, enumSchema{Index: e.Index, Samples: e.Samples, MaxOptions: e.MaxOptions})
	}

	return file
}
