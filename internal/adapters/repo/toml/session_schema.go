package toml

import "fmt"

const currentSessionSchemaVersion = 1

// sessionFileSchema describes a simulated host session: tracks in order, each
// with its plugin chain.
type sessionFileSchema struct {
	Version int           `toml:"version"`
	Tracks  []trackSchema `toml:"tracks"`
}

func (s *sessionFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSessionSchemaVersion
	}
}

func (s sessionFileSchema) validateVersion() error {
	if s.Version > currentSessionSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSessionSchemaVersion)
	}

	return nil
}

type trackSchema struct {
	GUID    string         `toml:"guid"`
	Name    string         `toml:"name"`
	Plugins []pluginSchema `toml:"plugins"`
}

type pluginSchema struct {
	GUID   string        `toml:"guid"`
	Name   string        `toml:"name"`
	Preset string        `toml:"preset"`
	Values []valueSchema `toml:"values"`
}

type valueSchema struct {
	Index int     `toml:"index"`
	Value float64 `toml:"value"`
}
