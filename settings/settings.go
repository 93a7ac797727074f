// Package settings persists user preferences between sessions as a small YAML file
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/lixenwraith/quietear/parameter"
)

const (
	// DefaultBaseDir is the settings directory under the user's home
	DefaultBaseDir = ".quietear"
	// DefaultFile is the settings filename
	DefaultFile = "settings.yaml"
)

// Settings is the persisted preference set
// Keys missing from the file keep their Defaults value
type Settings struct {
	Mode          string  `yaml:"mode,omitempty"`
	Frequency     float64 `yaml:"frequency,omitempty"`
	Volume        float64 `yaml:"volume"`
	Waveform      string  `yaml:"waveform,omitempty"`
	NoiseColor    string  `yaml:"noise_color,omitempty"`
	Bandpass      bool    `yaml:"bandpass,omitempty"`
	BandpassQ     float64 `yaml:"bandpass_q,omitempty"`
	NotchQ        float64 `yaml:"notch_q,omitempty"`
	TempoMs       int     `yaml:"tempo_ms,omitempty"`
	ModRate       float64 `yaml:"mod_rate,omitempty"`
	ModDepth      float64 `yaml:"mod_depth"`
	BeatFrequency float64 `yaml:"beat_frequency,omitempty"`
	InhibitionSec int     `yaml:"inhibition_sec,omitempty"`
}

// Patch carries the fields a Save should change; nil fields are left alone
type Patch struct {
	Mode          *string
	Frequency     *float64
	Volume        *float64
	Waveform      *string
	NoiseColor    *string
	Bandpass      *bool
	BandpassQ     *float64
	NotchQ        *float64
	TempoMs       *int
	ModRate       *float64
	ModDepth      *float64
	BeatFrequency *float64
	InhibitionSec *int
}

// Store is the key-value collaborator the CLI reads preferences from
type Store interface {
	Load() (*Settings, error)
	Save(p Patch) error
}

// Defaults returns the preferences used before anything is saved
func Defaults() *Settings {
	return &Settings{
		Mode:          "tone",
		Frequency:     4000,
		Volume:        parameter.DefaultVolume,
		Waveform:      "sine",
		NoiseColor:    "pink",
		BandpassQ:     parameter.DefaultBandpassQ,
		NotchQ:        parameter.DefaultNotchQ,
		TempoMs:       int(parameter.DefaultResetTempo.Milliseconds()),
		ModRate:       parameter.DefaultModRate,
		ModDepth:      parameter.DefaultModDepth,
		BeatFrequency: parameter.DefaultBeatFrequency,
		InhibitionSec: int(parameter.DefaultInhibition.Seconds()),
	}
}

// Apply copies every set field of p onto s
func (s *Settings) Apply(p Patch) {
	setIf(&s.Mode, p.Mode)
	setIf(&s.Frequency, p.Frequency)
	setIf(&s.Volume, p.Volume)
	setIf(&s.Waveform, p.Waveform)
	setIf(&s.NoiseColor, p.NoiseColor)
	setIf(&s.Bandpass, p.Bandpass)
	setIf(&s.BandpassQ, p.BandpassQ)
	setIf(&s.NotchQ, p.NotchQ)
	setIf(&s.TempoMs, p.TempoMs)
	setIf(&s.ModRate, p.ModRate)
	setIf(&s.ModDepth, p.ModDepth)
	setIf(&s.BeatFrequency, p.BeatFrequency)
	setIf(&s.InhibitionSec, p.InhibitionSec)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Ptr returns a pointer to v, for building a Patch inline
func Ptr[T any](v T) *T {
	return &v
}

// FileStore keeps Settings in a YAML file
type FileStore struct {
	mu   sync.Mutex
	path string
}

// DefaultPath returns ~/.quietear/settings.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultFile), nil
}

// NewFileStore creates a store at path, or at DefaultPath when path is empty
// The file is created on the first Save
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &FileStore{path: path}, nil
}

// Path returns the settings file path
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the file over Defaults; a missing file yields Defaults
func (f *FileStore) Load() (*Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadLocked()
}

func (f *FileStore) loadLocked() (*Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", f.path, err)
	}
	return s, nil
}

// Save merges p into the stored settings and writes the file
func (f *FileStore) Save(p Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.loadLocked()
	if err != nil {
		return err
	}
	s.Apply(p)

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	// Replace via rename
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
