package audio

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/gopxl/beep"
)

// pipeLatency is the device-side buffer requested from backends that accept one
const pipeLatency = 50

// pipeCandidate builds the command line for one CLI player
type pipeCandidate struct {
	typ  BackendType
	name string
	bin  string
	args func(hz string) []string
}

// pipeCandidates in probe order, all reading stereo s16le from stdin
var pipeCandidates = []pipeCandidate{
	{BackendPulse, "pacat", "pacat", func(hz string) []string {
		return []string{"--raw", "--format=s16le", "--rate=" + hz, "--channels=2",
			"--latency-msec=" + strconv.Itoa(pipeLatency), "--playback"}
	}},
	{BackendPipeWire, "pw-cat", "pw-cat", func(hz string) []string {
		return []string{"--playback", "--format=s16", "--rate=" + hz, "--channels=2",
			"--latency=" + strconv.Itoa(pipeLatency) + "ms", "-"}
	}},
	{BackendALSA, "aplay", "aplay", func(hz string) []string {
		return []string{"-t", "raw", "-f", "S16_LE", "-r", hz, "-c", "2", "-q"}
	}},
	{BackendSoX, "sox", "play", func(hz string) []string {
		return []string{"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", hz, "-", "-d", "-q"}
	}},
	{BackendFFplay, "ffplay", "ffplay", func(hz string) []string {
		return []string{"-nodisp", "-autoexit", "-f", "s16le", "-ac", "2", "-ar", hz,
			"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0", "-loglevel", "quiet"}
	}},
}

// ossDevice is written directly on FreeBSD when no player is installed
const ossDevice = "/dev/dsp"

// Swapped in tests
var (
	lookPath = exec.LookPath
	goos     = runtime.GOOS
	statPath = os.Stat
)

// DetectBackend finds a CLI player for stereo s16le at rate
// A non-empty prefer names the only candidate tried; otherwise the first installed one wins
func DetectBackend(rate beep.SampleRate, prefer string) (*BackendConfig, error) {
	hz := strconv.Itoa(int(rate))

	if prefer != "" {
		if prefer == "oss" {
			return ossBackend()
		}
		for _, c := range pipeCandidates {
			if c.name == prefer {
				if b, ok := c.resolve(hz); ok {
					return b, nil
				}
				return nil, fmt.Errorf("%w: %s not installed", ErrNoAudioBackend, prefer)
			}
		}
		return nil, fmt.Errorf("%w: unknown backend %q", ErrNoAudioBackend, prefer)
	}

	for _, c := range pipeCandidates {
		if b, ok := c.resolve(hz); ok {
			return b, nil
		}
	}
	return ossBackend()
}

func (c pipeCandidate) resolve(hz string) (*BackendConfig, bool) {
	path, err := lookPath(c.bin)
	if err != nil {
		return nil, false
	}
	return &BackendConfig{Type: c.typ, Name: c.name, Path: path, Args: c.args(hz)}, true
}

func ossBackend() (*BackendConfig, error) {
	if goos != "freebsd" {
		return nil, ErrNoAudioBackend
	}
	if _, err := statPath(ossDevice); err != nil {
		return nil, ErrNoAudioBackend
	}
	return &BackendConfig{Type: BackendOSS, Name: "oss", Path: ossDevice}, nil
}
