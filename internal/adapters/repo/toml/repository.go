package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/ports"
	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	profilePathKey    = "profile.path"
	profileFileMode   = 0o644
	profileDirMode    = 0o755
	configDir         = "tonebridge"
	profileConfigFile = "profile.toml"
	tempFilePattern   = ".profile-*.toml.tmp"
)

// ProfileStore loads the plugin profile from a TOML file and keeps the index
// remap current while the file changes on disk.
type ProfileStore struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	profile atomic.Pointer[domain.Profile]
	remap   atomic.Pointer[domain.IndexRemap]

	onReload func(domain.Profile)
}

var _ ports.RemapSource = (*ProfileStore)(nil)

func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}

	return filepath.Join(dir, configDir), nil
}

// NewProfileStore resolves profile.path from cfg and loads it. A missing file
// yields the compiled-in default profile.
func NewProfileStore(cfg *viper.Viper, logger *zap.Logger) (*ProfileStore, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dir, err := DefaultConfigDir()
	if err != nil {
		return nil, err
	}
	cfg.SetDefault(profilePathKey, filepath.Join(dir, profileConfigFile))

	path := cfg.GetString(profilePathKey)
	if path == "" {
		return nil, errors.New("profile path is empty")
	}
	path, err = normalizePath(path)
	if err != nil {
		return nil, err
	}

	s := &ProfileStore{path: path, logger: logger}
	profile, err := s.load()
	if err != nil {
		return nil, err
	}
	s.store(profile)

	return s, nil
}

func (s *ProfileStore) Path() string {
	return s.path
}

func (s *ProfileStore) Profile() domain.Profile {
	return *s.profile.Load()
}

// IndexRemap returns the current table. It never blocks.
func (s *ProfileStore) IndexRemap() domain.IndexRemap {
	return *s.remap.Load()
}

// OnReload registers fn to run after each successful reload.
func (s *ProfileStore) OnReload(fn func(domain.Profile)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onReload = fn
}

// Watch reloads the profile whenever the file is written. The watch lasts
// for the life of the process. The containing directory must exist.
func (s *ProfileStore) Watch() error {
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch profile: %w", err)
	}

	watcher := viper.New()
	watcher.SetConfigFile(s.path)
	watcher.SetConfigType("toml")
	watcher.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := s.Reload(); err != nil {
			s.logger.Warn("profile reload failed, keeping previous", zap.String("path", s.path), zap.Error(err))
		}
	})
	watcher.WatchConfig()
	s.logger.Info("watching profile", zap.String("path", s.path))

	return nil
}

// Reload reads the file again. On error the previous profile stays active.
func (s *ProfileStore) Reload() error {
	profile, err := s.load()
	if err != nil {
		return err
	}
	s.store(profile)

	s.mu.Lock()
	fn := s.onReload
	s.mu.Unlock()
	if fn != nil {
		fn(profile)
	}
	s.logger.Info("profile reloaded", zap.Int("remap_entries", len(profile.Remap)))

	return nil
}

// Save writes profile to the store's path atomically and makes it current.
func (s *ProfileStore) Save(profile domain.Profile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.path, toProfileSchema(profile)); err != nil {
		return err
	}
	s.store(profile)

	return nil
}

func (s *ProfileStore) store(profile domain.Profile) {
	remap := profile.Remap.Clone()
	s.profile.Store(&profile)
	s.remap.Store(&remap)
}

func (s *ProfileStore) load() (domain.Profile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultProfile(), nil
		}
		return domain.Profile{}, fmt.Errorf("read profile file: %w", err)
	}

	var file profileFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return domain.Profile{}, err
	}
	file.applyDefaults()

	profile := file.toProfile()
	if err := profile.Validate(); err != nil {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", s.path, err)
	}

	return profile, nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}

	return filepath.Clean(absPath), nil
}

func writeFileAtomic(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), profileDirMode); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	data, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode profile file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp profile file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp profile file: %w", err)
	}

	if err := tempFile.Chmod(profileFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp profile file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp profile file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace profile file: %w", err)
	}

	cleanup = false

	return nil
}

func sortedKeys(m domain.IndexRemap) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
