package sim

import (
	"fmt"
	"math"
)

type ParamKind string

const (
	KindContinuous ParamKind = "continuous"
	KindSwitch     ParamKind = "switch"
	KindEnum       ParamKind = "enum"
)

// ParamSpec describes one simulated plugin parameter and how the plugin
// formats its normalized value.
type ParamSpec struct {
	Name    string
	Kind    ParamKind
	Min     float64
	Max     float64
	Unit    string
	Options []string
	Default float64
}

func (p ParamSpec) quantize(v float64) float64 {
	if p.Kind == KindSwitch {
		if v >= 0.5 {
			return 1
		}
		return 0
	}

	return v
}

func (p ParamSpec) format(v float64) string {
	switch p.Kind {
	case KindSwitch:
		if v >= 0.5 {
			return "On"
		}
		return "Off"
	case KindEnum:
		if len(p.Options) == 0 {
			return ""
		}
		i := int(math.Floor(v * float64(len(p.Options))))
		if i >= len(p.Options) {
			i = len(p.Options) - 1
		}
		if i < 0 {
			i = 0
		}
		return p.Options[i]
	default:
		scaled := p.Min + v*(p.Max-p.Min)
		if p.Unit == "" {
			return fmt.Sprintf("%.2f", scaled)
		}
		return fmt.Sprintf("%.1f %s", scaled, p.Unit)
	}
}

func continuous(name string, lo, hi float64, unit string, def float64) ParamSpec {
	return ParamSpec{Name: name, Kind: KindContinuous, Min: lo, Max: hi, Unit: unit, Default: def}
}

func toggle(name string, def float64) ParamSpec {
	return ParamSpec{Name: name, Kind: KindSwitch, Default: def}
}

func selector(name string, options ...string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindEnum, Options: options}
}

func knob(name string) ParamSpec {
	return continuous(name, 0, 10, "", 0.5)
}

// Preset names a built-in parameter set.
type Preset string

const (
	PresetGojira  Preset = "gojira"
	PresetGeneric Preset = "generic"
)

func PresetParams(p Preset) ([]ParamSpec, error) {
	switch p {
	case PresetGojira, "":
		return GojiraParams(), nil
	case PresetGeneric:
		return GenericParams(), nil
	default:
		return nil, fmt.Errorf("unknown param preset %q", p)
	}
}

// GojiraParams is the parameter map of the amp sim the bridge targets. Indices
// that the plugin does not name are exposed as "Param N".
func GojiraParams() []ParamSpec {
	params := make([]ParamSpec, 128)
	for i := range params {
		params[i] = knob(fmt.Sprintf("Param %d", i))
	}

	set := func(idx int, p ParamSpec) { params[idx] = p }

	set(0, continuous("Input Gain", -24, 24, "dB", 0.5))
	set(1, continuous("Output Gain", -24, 24, "dB", 0.5))
	set(2, continuous("Noise Gate", -96, 0, "dB", 0))
	set(3, toggle("Wow Pedal Switch", 0))
	set(4, toggle("Wow Active", 0))
	set(5, selector("Wow Mode", "Whammy", "Detune", "Wah"))
	set(6, continuous("Wow Pitch", -24, 24, "st", 0.5))
	set(8, toggle("Octaver Active", 0))
	set(9, knob("Octaver Oct 1"))
	set(10, knob("Octaver Oct 2"))
	set(11, knob("Octaver Direct"))
	set(13, toggle("Overdrive Active", 0))
	set(14, knob("Overdrive Drive"))
	set(15, knob("Overdrive Tone"))
	set(16, knob("Overdrive Level"))
	set(17, toggle("Distortion Active", 0))
	set(18, knob("Distortion Dist"))
	set(19, knob("Distortion Filter"))
	set(20, knob("Distortion Vol"))
	set(21, toggle("Phaser Active", 0))
	set(22, continuous("Phaser Rate", 0.1, 10, "Hz", 0.3))
	set(23, toggle("Chorus Active", 0))
	set(24, continuous("Chorus Rate", 0.1, 10, "Hz", 0.3))
	set(25, knob("Chorus Depth"))
	set(26, knob("Chorus Feedback"))
	set(27, continuous("Mix", 0, 100, "%", 0.5))
	set(29, selector("Amp Type", "Clean", "Rust", "Hot"))

	for ch, channel := range []string{"Clean", "Rust", "Hot"} {
		for k, name := range []string{"Gain", "Bass", "Mid", "Treble", "Presence", "Volume", "Depth"} {
			set(30+ch*7+k, knob(fmt.Sprintf("Amp %s %s", channel, name)))
		}
	}
	set(51, toggle("Amp Bright", 0))

	set(83, toggle("Cab Active", 1))
	set(84, selector("Cab Type", "1x12 Open", "2x12 Closed", "4x12 Vintage", "4x12 Modern"))
	set(87, continuous("Mic 1 Position", 0, 1, "", 0.5))
	set(88, continuous("Mic 1 Distance", 0, 30, "cm", 0.2))
	set(89, continuous("Mic 1 Level", -36, 12, "dB", 0.75))
	set(92, selector("Mic 1 IR", "Dynamic 57", "Dynamic 421", "Ribbon 121", "Condenser 414"))
	set(94, continuous("Mic 2 Position", 0, 1, "", 0.5))
	set(95, continuous("Mic 2 Distance", 0, 30, "cm", 0.2))
	set(96, continuous("Mic 2 Level", -36, 12, "dB", 0.75))
	set(99, selector("Mic 2 IR", "Dynamic 57", "Dynamic 421", "Ribbon 121", "Condenser 414"))

	set(101, toggle("Delay Active", 0))
	set(105, continuous("Delay Mix", 0, 100, "%", 0.3))
	set(106, continuous("Delay Feedback", 0, 100, "%", 0.3))
	set(108, continuous("Delay Time", 1, 2000, "ms", 0.2))
	set(112, toggle("Reverb Active", 0))
	set(113, selector("Reverb Mode", "Room", "Hall", "Plate", "Spring"))
	set(114, continuous("Reverb Mix", 0, 100, "%", 0.25))
	set(115, continuous("Reverb Time", 0.1, 10, "s", 0.3))
	set(116, continuous("Reverb Low Cut", 20, 1000, "Hz", 0))
	set(117, continuous("Reverb High Cut", 1000, 20000, "Hz", 1))

	return params
}

func GenericParams() []ParamSpec {
	return []ParamSpec{
		toggle("Bypass", 0),
		continuous("Gain", -24, 24, "dB", 0.5),
		continuous("Frequency", 20, 20000, "Hz", 0.5),
		continuous("Q", 0.1, 10, "", 0.2),
		continuous("Mix", 0, 100, "%", 1),
	}
}
