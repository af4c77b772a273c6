package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Module is one effect block of the target plugin. Bypass lists the indices
// that switch the block on or off; Params lists every index that belongs to
// the block, bypass indices included.
type Module struct {
	Name          string
	Bypass        []int
	Params        []int
	DisabledValue float64
}

func (m Module) IsBypass(index int) bool {
	return slices.Contains(m.Bypass, index)
}

// Touches reports whether index is one of the module's non-bypass params.
func (m Module) Touches(index int) bool {
	return slices.Contains(m.Params, index) && !m.IsBypass(index)
}

type ModuleLayout []Module

func (l ModuleLayout) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for _, module := range l {
		name := strings.TrimSpace(module.Name)
		if name == "" {
			return fmt.Errorf("module name is required")
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate module %q", name)
		}
		seen[name] = struct{}{}
		if len(module.Bypass) == 0 {
			return fmt.Errorf("module %q has no bypass index", name)
		}
		for _, idx := range module.Bypass {
			if !slices.Contains(module.Params, idx) {
				return fmt.Errorf("module %q bypass index %d is not one of its params", name, idx)
			}
		}
		if module.DisabledValue < 0 || module.DisabledValue > 1 {
			return fmt.Errorf("module %q disabled value %v outside [0,1]", name, module.DisabledValue)
		}
	}

	return nil
}

// DefaultModuleLayout mirrors the parameter map of the Archetype Gojira
// plugin build the bridge was calibrated against.
func DefaultModuleLayout() ModuleLayout {
	return ModuleLayout{
		// pedal switch and active both gate the wow/pitch block.
		{Name: "wow_pitch", Bypass: []int{3, 4}, Params: []int{3, 4, 6}},
		{Name: "octaver", Bypass: []int{8}, Params: []int{8, 9, 10, 11}},
		{Name: "overdrive", Bypass: []int{13}, Params: []int{13, 14, 15, 16}},
		{Name: "distortion", Bypass: []int{17}, Params: []int{17, 18, 19, 20}},
		{Name: "phaser", Bypass: []int{21}, Params: []int{21, 22}},
		{Name: "chorus", Bypass: []int{23}, Params: []int{23, 24, 25, 27}},
		{Name: "delay", Bypass: []int{101}, Params: []int{101, 105, 106, 108}},
		{Name: "reverb", Bypass: []int{112}, Params: []int{112, 114, 115, 116, 117}},
	}
}
