package toml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionFixture = `
version = 1

[[tracks]]
guid = "{AAAA0000-0000-4000-8000-000000000001}"
name = "Rhythm L"

  [[tracks.plugins]]
  guid = "{BBBB0000-0000-4000-8000-000000000001}"
  name = "VST3: Archetype Gojira (Neural DSP)"
  preset = "gojira"
  values = [
    { index = 101, value = 1.0 },
    { index = 105, value = 0.25 },
  ]

[[tracks]]
guid = "{AAAA0000-0000-4000-8000-000000000002}"
name = "Bus"
`

func TestLoadSessionFixture(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.toml")
	require.NoError(t, os.WriteFile(path, []byte(sessionFixture), 0o644))

	config := viper.New()
	config.Set("session.fixture", path)

	fixture, err := LoadSessionFixture(config)
	require.NoError(t, err)

	require.Len(t, fixture.Tracks, 2)
	assert.Equal(t, "Rhythm L", fixture.Tracks[0].Name)
	require.Len(t, fixture.Tracks[0].Plugins, 1)
	plugin := fixture.Tracks[0].Plugins[0]
	assert.Equal(t, "gojira", plugin.Preset)
	assert.Equal(t, map[int]float64{101: 1.0, 105: 0.25}, plugin.Values)
	assert.Empty(t, fixture.Tracks[1].Plugins)
}

func TestLoadSessionFixtureUnset(t *testing.T) {
	t.Parallel()

	_, err := LoadSessionFixture(viper.New())
	require.ErrorIs(t, err, ErrNoSessionFixture)

	_, err = LoadSessionFixture(nil)
	require.ErrorIs(t, err, ErrNoSessionFixture)
}

func TestLoadSessionFixtureErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed", content: "tracks = [", wantErr: "decode session fixture"},
		{name: "future version", content: "version = 2\n", wantErr: "unsupported session schema version 2"},
		{name: "missing guid", content: "[[tracks]]\nname = \"x\"\n", wantErr: "track 0: guid is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "session.toml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			config := viper.New()
			config.Set("session.fixture", path)

			_, err := LoadSessionFixture(config)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}

	config := viper.New()
	config.Set("session.fixture", filepath.Join(t.TempDir(), "absent.toml"))
	_, err := LoadSessionFixture(config)
	require.ErrorContains(t, err, "read session fixture")
}
