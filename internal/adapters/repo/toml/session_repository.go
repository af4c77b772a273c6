package toml

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const sessionPathKey = "session.fixture"

var ErrNoSessionFixture = errors.New("no session fixture configured")

type SessionFixture struct {
	Tracks []TrackFixture
}

type TrackFixture struct {
	GUID    string
	Name    string
	Plugins []PluginFixture
}

type PluginFixture struct {
	GUID   string
	Name   string
	Preset string
	Values map[int]float64
}

// LoadSessionFixture reads the file named by session.fixture. It returns
// ErrNoSessionFixture when the key is unset so callers can fall back to a
// built-in session.
func LoadSessionFixture(cfg *viper.Viper) (SessionFixture, error) {
	if cfg == nil {
		return SessionFixture{}, ErrNoSessionFixture
	}

	path := cfg.GetString(sessionPathKey)
	if path == "" {
		return SessionFixture{}, ErrNoSessionFixture
	}
	path, err := normalizePath(path)
	if err != nil {
		return SessionFixture{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SessionFixture{}, fmt.Errorf("read session fixture: %w", err)
	}

	var file sessionFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return SessionFixture{}, fmt.Errorf("decode session fixture: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return SessionFixture{}, err
	}
	file.applyDefaults()

	return file.toFixture()
}

func (s sessionFileSchema) toFixture() (SessionFixture, error) {
	fixture := SessionFixture{Tracks: make([]TrackFixture, 0, len(s.Tracks))}
	for i, t := range s.Tracks {
		if t.GUID == "" {
			return SessionFixture{}, fmt.Errorf("track %d: guid is required", i)
		}
		track := TrackFixture{GUID: t.GUID, Name: t.Name}
		for _, p := range t.Plugins {
			plugin := PluginFixture{GUID: p.GUID, Name: p.Name, Preset: p.Preset}
			if len(p.Values) > 0 {
				plugin.Values = make(map[int]float64, len(p.Values))
				for _, v := range p.Values {
					plugin.Values[v.Index] = v.Value
				}
			}
			track.Plugins = append(track.Plugins, plugin)
		}
		fixture.Tracks = append(fixture.Tracks, track)
	}

	return fixture, nil
}
