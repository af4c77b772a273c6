package sim

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/ports"
)

var ErrUnknownGUID = errors.New("unknown guid")

// PluginSpec describes a plugin to load into a simulated track. Values
// overrides the preset defaults by parameter index.
type PluginSpec struct {
	GUID   string
	Name   string
	Preset Preset
	Values map[int]float64
}

type TrackSpec struct {
	GUID    string
	Name    string
	Plugins []PluginSpec
}

type plugin struct {
	guid   string
	name   string
	specs  []ParamSpec
	values []float64
}

type track struct {
	guid    string
	name    string
	plugins []*plugin
}

// Session is an in-memory DAW session implementing ports.Host. Handles are
// tagged with a layout epoch so that a handle obtained before a structural
// change stops resolving afterwards, the way a real host invalidates them.
type Session struct {
	mu         sync.Mutex
	tracks     []*track
	generation uint64
	epoch      uint32
	failWrites map[string]int
}

var _ ports.Host = (*Session)(nil)

func New(tracks ...TrackSpec) (*Session, error) {
	s := &Session{generation: 1, epoch: 1, failWrites: map[string]int{}}
	for _, t := range tracks {
		if err := s.addTrack(t); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// DefaultSession is a small project with one exact match, one fuzzy match and
// an unrelated plugin.
func DefaultSession() *Session {
	s, err := New(
		TrackSpec{
			GUID: "{6A1F0C2E-3B7D-4E59-9A41-0C5B7E2D9F10}",
			Name: "Guitar DI",
			Plugins: []PluginSpec{
				{GUID: "{0B5E9F64-2C1A-4D8E-B7F3-91A6C4D2E801}", Name: "VST3: ReaEQ (Cockos)", Preset: PresetGeneric},
				{GUID: "{D3C2A1B0-7E6F-4A5B-8C9D-0E1F2A3B4C5D}", Name: "VST3: Archetype Gojira (Neural DSP)", Preset: PresetGojira},
			},
		},
		TrackSpec{
			GUID: "{9E8D7C6B-5A49-4382-A1F0-E9D8C7B6A543}",
			Name: "Guitar Double",
			Plugins: []PluginSpec{
				{GUID: "{1F2E3D4C-5B6A-4798-8A9B-CADBECFD0E1F}", Name: "VST3: Gojira X (Neural DSP)", Preset: PresetGojira},
			},
		},
	)
	if err != nil {
		panic(fmt.Sprintf("default session: %v", err))
	}

	return s
}

func (s *Session) addTrack(spec TrackSpec) error {
	if spec.GUID == "" {
		return fmt.Errorf("track %q: guid is required", spec.Name)
	}
	if s.findTrack(spec.GUID) >= 0 {
		return fmt.Errorf("track %s: duplicate guid", spec.GUID)
	}
	t := &track{guid: spec.GUID, name: spec.Name}
	seen := make(map[string]struct{}, len(spec.Plugins))
	for _, ps := range spec.Plugins {
		if _, dup := seen[ps.GUID]; dup {
			return fmt.Errorf("track %s: plugin %s: duplicate guid", spec.GUID, ps.GUID)
		}
		seen[ps.GUID] = struct{}{}
		p, err := s.newPlugin(ps)
		if err != nil {
			return fmt.Errorf("track %s: %w", spec.GUID, err)
		}
		t.plugins = append(t.plugins, p)
	}
	s.tracks = append(s.tracks, t)

	return nil
}

func (s *Session) newPlugin(spec PluginSpec) (*plugin, error) {
	if spec.GUID == "" {
		return nil, fmt.Errorf("plugin %q: guid is required", spec.Name)
	}
	if _, _, ok := s.findPlugin(spec.GUID); ok {
		return nil, fmt.Errorf("plugin %s: duplicate guid", spec.GUID)
	}
	specs, err := PresetParams(spec.Preset)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", spec.GUID, err)
	}
	values := make([]float64, len(specs))
	for i, p := range specs {
		values[i] = p.Default
	}
	for idx, v := range spec.Values {
		if idx < 0 || idx >= len(values) {
			return nil, fmt.Errorf("plugin %s: value for param %d out of range", spec.GUID, idx)
		}
		values[idx] = specs[idx].quantize(v)
	}

	return &plugin{guid: spec.GUID, name: spec.Name, specs: specs, values: values}, nil
}

func (s *Session) findTrack(guid string) int {
	return slices.IndexFunc(s.tracks, func(t *track) bool { return t.guid == guid })
}

func (s *Session) findPlugin(guid string) (int, int, bool) {
	for ti, t := range s.tracks {
		for pi, p := range t.plugins {
			if p.guid == guid {
				return ti, pi, true
			}
		}
	}

	return 0, 0, false
}

func (s *Session) structural() {
	s.generation++
	s.epoch++
}

func (s *Session) handle(index int) ports.ContainerHandle {
	return ports.ContainerHandle(uintptr(s.epoch)<<16 | uintptr(index+1))
}

func (s *Session) track(h ports.ContainerHandle) (*track, bool) {
	if uint32(uintptr(h)>>16) != s.epoch {
		return nil, false
	}
	idx := int(uintptr(h)&0xffff) - 1
	if idx < 0 || idx >= len(s.tracks) {
		return nil, false
	}

	return s.tracks[idx], true
}

func (s *Session) plugin(h ports.ContainerHandle, position int) (*plugin, bool) {
	t, ok := s.track(h)
	if !ok || position < 0 || position >= len(t.plugins) {
		return nil, false
	}

	return t.plugins[position], true
}

func (s *Session) StateGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generation
}

func (s *Session) ContainerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tracks)
}

func (s *Session) Container(index int) (ports.ContainerHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.tracks) {
		return 0, false
	}

	return s.handle(index), true
}

func (s *Session) ContainerGUID(h ports.ContainerHandle) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.track(h)
	if !ok {
		return "", false
	}

	return t.guid, true
}

func (s *Session) ContainerName(h ports.ContainerHandle) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.track(h)
	if !ok {
		return ""
	}

	return t.name
}

func (s *Session) ItemCount(h ports.ContainerHandle) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.track(h)
	if !ok {
		return 0
	}

	return len(t.plugins)
}

func (s *Session) ItemGUID(h ports.ContainerHandle, position int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plugin(h, position)
	if !ok {
		return "", false
	}

	return p.guid, true
}

func (s *Session) ItemName(h ports.ContainerHandle, position int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plugin(h, position)
	if !ok {
		return ""
	}

	return p.name
}

func (s *Session) ParamCount(h ports.ContainerHandle, position int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plugin(h, position)
	if !ok {
		return 0, false
	}

	return len(p.specs), true
}

func (s *Session) ParamName(h ports.ContainerHandle, position, index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plugin(h, position)
	if !ok || index < 0 || index >= len(p.specs) {
		return "", false
	}

	return p.specs[index].Name, true
}

func (s *Session) GetParam(h ports.ContainerHandle, position, index int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plugin(h, position)
	if !ok || index < 0 || index >= len(p.values) {
		return 0, false
	}

	return p.values[index], true
}

func (s *Session) SetParam(h ports.ContainerHandle, position, index int, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plugin(h, position)
	if !ok {
		return fmt.Errorf("set param %d: stale handle: %w", index, domain.ErrHostUnavailable)
	}
	if n := s.failWrites[p.guid]; n > 0 {
		s.failWrites[p.guid] = n - 1
		return fmt.Errorf("set param %d on %s: %w", index, p.guid, domain.ErrHostUnavailable)
	}
	if index < 0 || index >= len(p.values) {
		return fmt.Errorf("set param %d on %s: index out of range", index, p.guid)
	}
	p.values[index] = p.specs[index].quantize(value)
	s.generation++

	return nil
}

func (s *Session) FormatParamValue(h ports.ContainerHandle, position, index int, value float64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plugin(h, position)
	if !ok || index < 0 || index >= len(p.specs) {
		return "", false
	}

	return p.specs[index].format(value), true
}
