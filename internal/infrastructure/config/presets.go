package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
)

// Preset is a named, reusable probe configuration. The model is left
// empty in the preset and supplied when the preset is applied.
type Preset struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Builtin     bool         `yaml:"-"`
	Config      probe.Config `yaml:"config"`
}

// Apply returns the preset's probe configuration bound to a model.
func (p Preset) Apply(modelID string) probe.Config {
	cfg := p.Config
	cfg.ModelID = modelID
	return cfg
}

// builtinPresets returns the presets shipped with the application.
func builtinPresets() []Preset {
	return []Preset{
		{
			Name:        "quick",
			Description: "Fast boundary estimate with coarse precision",
			Builtin:     true,
			Config: probe.Config{
				Strategy:       probe.StrategyBinary,
				MinTokens:      1000,
				MaxTokens:      200000,
				StepSize:       20000,
				Precision:      4000,
				MaxAttempts:    10,
				RequestTimeout: 1 * time.Minute,
				OutputBudget:   128,
				RetryCount:     1,
			},
		},
		{
			Name:        "standard",
			Description: "Balanced binary search probe",
			Builtin:     true,
			Config:      probe.DefaultConfig(""),
		},
		{
			Name:        "thorough",
			Description: "Adaptive search with fine precision and generous budget",
			Builtin:     true,
			Config: probe.Config{
				Strategy:       probe.StrategyAdaptive,
				MinTokens:      1000,
				MaxTokens:      200000,
				StepSize:       5000,
				Precision:      100,
				MaxAttempts:    60,
				RequestTimeout: 5 * time.Minute,
				OutputBudget:   256,
				RetryCount:     3,
			},
		},
	}
}

// PresetStore holds the builtin presets plus any loaded from the user
// preset directory. User presets shadow builtins with the same name.
type PresetStore struct {
	mu      sync.RWMutex
	dir     string
	presets map[string]Preset
}

// NewPresetStore creates a store populated with the builtin presets.
func NewPresetStore(dir string) *PresetStore {
	store := &PresetStore{
		dir:     dir,
		presets: make(map[string]Preset),
	}
	for _, p := range builtinPresets() {
		store.presets[p.Name] = p
	}
	return store
}

// Dir returns the user preset directory.
func (s *PresetStore) Dir() string {
	return s.dir
}

// Get returns the preset with the given name.
func (s *PresetStore) Get(name string) (Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	preset, ok := s.presets[name]
	if !ok {
		return Preset{}, errors.NewError(errors.CodeNotFound,
			fmt.Sprintf("preset %q is not defined", name), errors.ErrPresetNotFound)
	}
	return preset, nil
}

// List returns all presets sorted by name.
func (s *PresetStore) List() []Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Preset, 0, len(s.presets))
	for _, p := range s.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reload re-reads the user preset directory, replacing previously loaded
// user presets. Builtins survive a reload; a missing directory leaves
// only the builtins.
func (s *PresetStore) Reload() error {
	loaded := make(map[string]Preset)
	for _, p := range builtinPresets() {
		loaded[p.Name] = p
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.replace(loaded)
			return nil
		}
		return fmt.Errorf("failed to read preset directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		preset, err := loadPresetFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return err
		}
		loaded[preset.Name] = preset
	}

	s.replace(loaded)
	return nil
}

func (s *PresetStore) replace(presets map[string]Preset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets = presets
}

// loadPresetFile parses a single preset yaml file. A preset without a
// name takes the file's base name.
func loadPresetFile(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("failed to read preset file %s: %w", path, err)
	}

	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return Preset{}, fmt.Errorf("failed to parse preset file %s: %w", path, err)
	}

	if preset.Name == "" {
		base := filepath.Base(path)
		preset.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return preset, nil
}

// isYAMLFile returns true if the file has a .yaml or .yml extension.
func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
