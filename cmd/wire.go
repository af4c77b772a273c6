package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/tonebridge/internal/adapters/host/sim"
	statusadapter "github.com/bnema/tonebridge/internal/adapters/render/status"
	tomlrepo "github.com/bnema/tonebridge/internal/adapters/repo/toml"
	"github.com/bnema/tonebridge/internal/adapters/ws"
	"github.com/bnema/tonebridge/internal/application"
	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/ports"
	"github.com/bnema/tonebridge/internal/queue"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envPrefix      = "TONEBRIDGE"
	configFileName = "config.toml"
)

type app struct {
	config     *viper.Viper
	logger     *zap.Logger
	profiles   *tomlrepo.ProfileStore
	renderScan func(domain.ScanResult, statusadapter.RenderOptions) (string, error)
	clock      ports.Clock
	bindErrs   []error
}

func newApp() *app {
	cfg := viper.New()
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault("listen", ws.DefaultConfig().Addr)
	cfg.SetDefault("tick_rate", application.DefaultTickRate)
	cfg.SetDefault("debounce", application.DefaultDebounce)
	cfg.SetDefault("queue_capacity", queue.DefaultCapacity)
	cfg.SetDefault("log.debug", false)

	return &app{
		config:     cfg,
		logger:     zap.NewNop(),
		renderScan: statusadapter.Render,
		clock:      ports.SystemClock{},
	}
}

func (a *app) bindFlag(key string, flag *pflag.Flag) {
	if err := a.config.BindPFlag(key, flag); err != nil {
		a.bindErrs = append(a.bindErrs, fmt.Errorf("bind flag %s: %w", key, err))
	}
}

// wire reads the config file, builds the logger and opens the profile. It
// runs once the command line has been parsed so flags take precedence.
func (a *app) wire(cmd *cobra.Command) error {
	if err := errors.Join(a.bindErrs...); err != nil {
		return err
	}

	configPath, _ := cmd.Flags().GetString("config")
	if err := a.readConfig(configPath); err != nil {
		return err
	}

	a.logger = newLogger(cmd.ErrOrStderr(), a.config.GetBool("log.debug"))

	profiles, err := tomlrepo.NewProfileStore(a.config, a.logger.Named("profile"))
	if err != nil {
		return fmt.Errorf("wire profile store: %w", err)
	}
	a.profiles = profiles

	return nil
}

func (a *app) readConfig(path string) error {
	explicit := path != ""
	if !explicit {
		dir, err := tomlrepo.DefaultConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, configFileName)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	a.config.SetConfigFile(path)
	a.config.SetConfigType("toml")
	if err := a.config.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	return nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// newLogger writes JSON lines at info level, or colored console lines at
// debug level when debug is set.
func newLogger(out io.Writer, debug bool) *zap.Logger {
	sink := zapcore.Lock(zapcore.AddSync(out))
	if debug {
		encoderCfg := zap.NewDevelopmentEncoderConfig()
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), sink, zap.DebugLevel), zap.AddCaller())
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, zap.InfoLevel))
}

// loadSession builds the simulated host from session.fixture, or the
// built-in demo session when none is configured.
func (a *app) loadSession() (*sim.Session, error) {
	fixture, err := tomlrepo.LoadSessionFixture(a.config)
	if errors.Is(err, tomlrepo.ErrNoSessionFixture) {
		return sim.DefaultSession(), nil
	}
	if err != nil {
		return nil, err
	}

	session, err := sim.New(trackSpecs(fixture)...)
	if err != nil {
		return nil, fmt.Errorf("build simulated session: %w", err)
	}

	return session, nil
}

func trackSpecs(fixture tomlrepo.SessionFixture) []sim.TrackSpec {
	specs := make([]sim.TrackSpec, 0, len(fixture.Tracks))
	for _, t := range fixture.Tracks {
		spec := sim.TrackSpec{GUID: t.GUID, Name: t.Name}
		for _, p := range t.Plugins {
			spec.Plugins = append(spec.Plugins, sim.PluginSpec{
				GUID:   p.GUID,
				Name:   p.Name,
				Preset: sim.Preset(p.Preset),
				Values: p.Values,
			})
		}
		specs = append(specs, spec)
	}

	return specs
}
