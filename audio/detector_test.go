package audio

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"slices"
	"testing"
)

// fakeInstalled makes lookPath find only the listed binaries for the test
func fakeInstalled(t *testing.T, bins ...string) {
	t.Helper()
	orig := lookPath
	lookPath = func(bin string) (string, error) {
		if slices.Contains(bins, bin) {
			return "/usr/bin/" + bin, nil
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookPath = orig })
}

// fakeOS pins the platform and whether the OSS device exists
func fakeOS(t *testing.T, name string, dsp bool) {
	t.Helper()
	origOS, origStat := goos, statPath
	goos = name
	statPath = func(string) (os.FileInfo, error) {
		if dsp {
			return nil, nil
		}
		return nil, fs.ErrNotExist
	}
	t.Cleanup(func() { goos, statPath = origOS, origStat })
}

// TestDetectBackendPriority verifies the first installed player in probe order wins
func TestDetectBackendPriority(t *testing.T) {
	fakeOS(t, "linux", false)
	fakeInstalled(t, "aplay", "ffplay")

	b, err := DetectBackend(48000, "")
	if err != nil {
		t.Fatalf("DetectBackend failed: %v", err)
	}
	if b.Type != BackendALSA || b.Path != "/usr/bin/aplay" {
		t.Errorf("Expected aplay, got %+v", b)
	}
	if !slices.Contains(b.Args, "48000") {
		t.Errorf("Expected rate in args, got %v", b.Args)
	}
}

// TestDetectBackendPreferred verifies a named player skips the probe order
func TestDetectBackendPreferred(t *testing.T) {
	fakeOS(t, "linux", false)
	fakeInstalled(t, "pacat", "play")

	b, err := DetectBackend(44100, "sox")
	if err != nil {
		t.Fatalf("DetectBackend failed: %v", err)
	}
	if b.Type != BackendSoX || b.Name != "sox" {
		t.Errorf("Expected sox, got %+v", b)
	}

	if _, err := DetectBackend(44100, "aplay"); !errors.Is(err, ErrNoAudioBackend) {
		t.Errorf("Expected ErrNoAudioBackend for missing player, got %v", err)
	}
	if _, err := DetectBackend(44100, "winamp"); !errors.Is(err, ErrNoAudioBackend) {
		t.Errorf("Expected ErrNoAudioBackend for unknown player, got %v", err)
	}
}

// TestDetectBackendPulseArgs verifies rate and latency reach the pacat command line
func TestDetectBackendPulseArgs(t *testing.T) {
	fakeOS(t, "linux", false)
	fakeInstalled(t, "pacat")

	b, err := DetectBackend(22050, "")
	if err != nil {
		t.Fatalf("DetectBackend failed: %v", err)
	}
	for _, want := range []string{"--rate=22050", "--latency-msec=50", "--channels=2"} {
		if !slices.Contains(b.Args, want) {
			t.Errorf("Expected %q in %v", want, b.Args)
		}
	}
}

// TestDetectBackendOSS verifies the FreeBSD device fallback
func TestDetectBackendOSS(t *testing.T) {
	fakeInstalled(t)

	fakeOS(t, "linux", true)
	if _, err := DetectBackend(44100, ""); !errors.Is(err, ErrNoAudioBackend) {
		t.Errorf("Expected ErrNoAudioBackend on linux, got %v", err)
	}

	fakeOS(t, "freebsd", true)
	b, err := DetectBackend(44100, "")
	if err != nil {
		t.Fatalf("DetectBackend failed: %v", err)
	}
	if b.Type != BackendOSS || b.Path != ossDevice || b.Args != nil {
		t.Errorf("Expected OSS device backend, got %+v", b)
	}

	fakeOS(t, "freebsd", false)
	if _, err := DetectBackend(44100, "oss"); !errors.Is(err, ErrNoAudioBackend) {
		t.Errorf("Expected ErrNoAudioBackend without /dev/dsp, got %v", err)
	}
}
