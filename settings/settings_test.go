package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lixenwraith/quietear/parameter"
)

// TestLoadMissingFile verifies defaults come back when nothing is saved
func TestLoadMissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "settings.yaml"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	s, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *s != *Defaults() {
		t.Errorf("Expected defaults, got %+v", s)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("Expected Load to leave the file absent")
	}
}

// TestSaveMergesPatch verifies partial saves keep earlier fields
func TestSaveMergesPatch(t *testing.T) {
	store, _ := NewFileStore(filepath.Join(t.TempDir(), "q", "settings.yaml"))

	if err := store.Save(Patch{Frequency: Ptr(6000.0), Mode: Ptr("binaural")}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(Patch{Volume: Ptr(0.2), TempoMs: Ptr(300)}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	s, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Frequency != 6000 || s.Mode != "binaural" {
		t.Errorf("Expected first patch kept, got frequency %v mode %q", s.Frequency, s.Mode)
	}
	if s.Volume != 0.2 || s.TempoMs != 300 {
		t.Errorf("Expected second patch applied, got volume %v tempo %d", s.Volume, s.TempoMs)
	}
	if s.NotchQ != parameter.DefaultNotchQ {
		t.Errorf("Expected untouched field at default %v, got %v", parameter.DefaultNotchQ, s.NotchQ)
	}

	info, err := os.Stat(store.Path())
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}
}

// TestLoadPartialFile verifies fields absent from the file take defaults
func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("frequency: 3500\nnoise_color: brown\n"), 0600); err != nil {
		t.Fatal(err)
	}

	store, _ := NewFileStore(path)
	s, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Frequency != 3500 || s.NoiseColor != "brown" {
		t.Errorf("Expected file values, got %v %q", s.Frequency, s.NoiseColor)
	}
	if s.Waveform != "sine" || s.ModRate != parameter.DefaultModRate {
		t.Errorf("Expected defaults for missing keys, got %q %v", s.Waveform, s.ModRate)
	}
}

// TestLoadInvalidFile verifies parse errors name the file
func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("frequency: [1, 2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	store, _ := NewFileStore(path)
	if _, err := store.Load(); err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("Expected parse error naming %s, got %v", path, err)
	}
	if err := store.Save(Patch{Volume: Ptr(0.1)}); err == nil {
		t.Error("Expected Save to refuse overwriting an unreadable file")
	}
}

// TestDefaultPath verifies the home-relative location
func TestDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewFileStore("")
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	want := filepath.Join(home, DefaultBaseDir, DefaultFile)
	if store.Path() != want {
		t.Errorf("Expected %s, got %s", want, store.Path())
	}
}
