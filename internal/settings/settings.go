// Package settings persists the active narrator personality and custom
// presets as a single YAML snapshot.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/brogue-dm/internal/personality"
)

// FileName is the snapshot file inside the settings directory.
const FileName = "narrator_settings.yaml"

// CustomName is reported when the live personality matches no preset.
const CustomName = "custom"

// document is the persisted snapshot.
type document struct {
	CurrentPreset string                        `yaml:"currentPreset"`
	CustomPresets map[string]personality.Preset `yaml:"customPresets"`
}

// View is a read-only snapshot of the settings for transports.
type View struct {
	PresetName       string         `json:"presetName"`
	Attributes       map[string]int `json:"attributes"`
	SignaturePhrases []string       `json:"signaturePhrases"`
	AvailablePresets []string       `json:"availablePresets"`
}

// Store owns the live personality. Every mutation is serialized and followed
// by a synchronous write of the full snapshot.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	live   *personality.Personality
	custom map[string]personality.Preset
}

// New opens the settings directory, creating it if needed, starts from the
// default preset and restores any persisted snapshot. Storage problems are
// logged and never fatal.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   filepath.Join(dir, FileName),
		logger: logger,
		live:   personality.New(),
		custom: map[string]personality.Preset{},
	}
	s.live.ApplyPreset(personality.DefaultPreset)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("failed to create settings directory", "dir", dir, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch err := s.load(); {
	case errors.Is(err, os.ErrNotExist):
		s.persist()
	case err != nil:
		logger.Error("failed to load narrator settings", "path", s.path, "error", err)
	default:
		logger.Info("loaded narrator settings", "path", s.path, "preset", s.currentLocked())
	}
	return s
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Personality returns a copy of the live personality for one orchestration
// call.
func (s *Store) Personality() *personality.Personality {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live.Clone()
}

// CurrentPresetName scans built-in then custom presets for an exact match
// and returns CustomName if none matches.
func (s *Store) CurrentPresetName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// Presets lists built-in preset names followed by custom names in sorted
// order.
func (s *Store) Presets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(personality.BuiltinNames(), s.customNames()...)
}

// View returns the current settings.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		PresetName:       s.currentLocked(),
		Attributes:       s.live.Attributes(),
		SignaturePhrases: s.live.SignaturePhrases(),
		AvailablePresets: append(personality.BuiltinNames(), s.customNames()...),
	}
}

// ApplyPreset applies a built-in or custom preset by name.
func (s *Store) ApplyPreset(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.applyLocked(name) {
		s.logger.Warn("unknown narrator preset", "preset", name)
		return false
	}
	s.persist()
	return true
}

// SaveCustomPreset stores the live personality under name. Empty names and
// built-in names are rejected.
func (s *Store) SaveCustomPreset(name string) bool {
	if name == "" || name == CustomName || personality.IsBuiltin(name) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.custom[name] = s.live.Snapshot()
	s.persist()
	return true
}

// DeleteCustomPreset removes a custom preset.
func (s *Store) DeleteCustomPreset(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.custom[name]; !ok {
		return false
	}
	delete(s.custom, name)
	s.persist()
	return true
}

// SetAttribute sets one clamped attribute.
func (s *Store) SetAttribute(name string, value int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live.SetAttribute(name, value) {
		return false
	}
	s.persist()
	return true
}

// AddSignaturePhrase appends a new, non-empty phrase.
func (s *Store) AddSignaturePhrase(phrase string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live.AddSignaturePhrase(phrase) {
		return false
	}
	s.persist()
	return true
}

// RemoveSignaturePhrase removes the phrase at index.
func (s *Store) RemoveSignaturePhrase(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live.RemoveSignaturePhrase(index) {
		return false
	}
	s.persist()
	return true
}

// ResetDefault re-applies the default preset.
func (s *Store) ResetDefault() bool {
	return s.ApplyPreset(personality.DefaultPreset)
}

func (s *Store) applyLocked(name string) bool {
	if s.live.ApplyPreset(name) {
		return true
	}
	if p, ok := s.custom[name]; ok {
		s.live.Apply(p)
		return true
	}
	return false
}

func (s *Store) currentLocked() string {
	for _, name := range personality.BuiltinNames() {
		p, _ := personality.Builtin(name)
		if s.live.Matches(p) {
			return name
		}
	}
	for _, name := range s.customNames() {
		if s.live.Matches(s.custom[name]) {
			return name
		}
	}
	return CustomName
}

func (s *Store) customNames() []string {
	names := make([]string, 0, len(s.custom))
	for name := range s.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}

	for name, p := range doc.CustomPresets {
		if personality.IsBuiltin(name) || name == CustomName || name == "" {
			s.logger.Warn("ignoring custom preset with reserved name", "preset", name)
			continue
		}
		s.custom[name] = p.Clone()
	}

	if doc.CurrentPreset != "" && doc.CurrentPreset != CustomName && !s.applyLocked(doc.CurrentPreset) {
		s.logger.Warn("persisted preset no longer exists", "preset", doc.CurrentPreset)
	}
	return nil
}

// persist writes the snapshot through a temp file and rename. Failures are
// logged; the in-memory change stands.
func (s *Store) persist() {
	doc := document{
		CurrentPreset: s.currentLocked(),
		CustomPresets: make(map[string]personality.Preset, len(s.custom)),
	}
	for name, p := range s.custom {
		doc.CustomPresets[name] = p.Clone()
	}

	if err := writeAtomic(s.path, doc); err != nil {
		s.logger.Error("failed to save narrator settings", "path", s.path, "error", err)
		return
	}
	s.logger.Debug("saved narrator settings", "path", s.path, "preset", doc.CurrentPreset)
}

func writeAtomic(path string, doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".narrator_settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename settings file: %w", err)
	}
	return nil
}
