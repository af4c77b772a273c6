package sim

import "fmt"

// The methods below change the session the way a user would while the bridge
// is running. They are safe to call from any goroutine.

func (s *Session) AddTrack(spec TrackSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.addTrack(spec); err != nil {
		return err
	}
	s.structural()

	return nil
}

func (s *Session) RemoveTrack(guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findTrack(guid)
	if i < 0 {
		return fmt.Errorf("remove track %s: %w", guid, ErrUnknownGUID)
	}
	s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
	s.structural()

	return nil
}

func (s *Session) RenameTrack(guid, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findTrack(guid)
	if i < 0 {
		return fmt.Errorf("rename track %s: %w", guid, ErrUnknownGUID)
	}
	s.tracks[i].name = name
	s.generation++

	return nil
}

// InsertPlugin loads a plugin at position on the track, shifting the plugins
// after it.
func (s *Session) InsertPlugin(trackGUID string, position int, spec PluginSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findTrack(trackGUID)
	if i < 0 {
		return fmt.Errorf("insert plugin on %s: %w", trackGUID, ErrUnknownGUID)
	}
	t := s.tracks[i]
	if position < 0 || position > len(t.plugins) {
		return fmt.Errorf("insert plugin on %s: position %d out of range", trackGUID, position)
	}
	p, err := s.newPlugin(spec)
	if err != nil {
		return err
	}
	t.plugins = append(t.plugins[:position], append([]*plugin{p}, t.plugins[position:]...)...)
	s.structural()

	return nil
}

func (s *Session) RemovePlugin(guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti, pi, ok := s.findPlugin(guid)
	if !ok {
		return fmt.Errorf("remove plugin %s: %w", guid, ErrUnknownGUID)
	}
	t := s.tracks[ti]
	t.plugins = append(t.plugins[:pi], t.plugins[pi+1:]...)
	s.structural()

	return nil
}

// MovePlugin moves a plugin to position on the destination track. The
// destination may be the plugin's own track.
func (s *Session) MovePlugin(guid, trackGUID string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti, pi, ok := s.findPlugin(guid)
	if !ok {
		return fmt.Errorf("move plugin %s: %w", guid, ErrUnknownGUID)
	}
	di := s.findTrack(trackGUID)
	if di < 0 {
		return fmt.Errorf("move plugin %s to %s: %w", guid, trackGUID, ErrUnknownGUID)
	}

	src := s.tracks[ti]
	p := src.plugins[pi]
	src.plugins = append(src.plugins[:pi], src.plugins[pi+1:]...)

	dst := s.tracks[di]
	if position < 0 || position > len(dst.plugins) {
		position = len(dst.plugins)
	}
	dst.plugins = append(dst.plugins[:position], append([]*plugin{p}, dst.plugins[position:]...)...)
	s.structural()

	return nil
}

// FailWrites makes the next n SetParam calls on the plugin fail.
func (s *Session) FailWrites(guid string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failWrites[guid] = n
}

// Value reads a parameter without a handle, for tests and the CLI.
func (s *Session) Value(guid string, index int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti, pi, ok := s.findPlugin(guid)
	if !ok {
		return 0, false
	}
	p := s.tracks[ti].plugins[pi]
	if index < 0 || index >= len(p.values) {
		return 0, false
	}

	return p.values[index], true
}

// Position reports the track and slot a plugin currently occupies.
func (s *Session) Position(guid string) (string, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti, pi, ok := s.findPlugin(guid)
	if !ok {
		return "", 0, false
	}

	return s.tracks[ti].guid, pi, true
}
