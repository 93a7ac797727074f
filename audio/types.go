package audio

import (
	"errors"
	"strings"
)

// Waveform selects an oscillator shape
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
)

var waveformNames = [...]string{"sine", "square", "sawtooth", "triangle"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return "unknown"
	}
	return waveformNames[w]
}

// ParseWaveform maps a name to a Waveform, accepting "saw" for sawtooth
func ParseWaveform(name string) (Waveform, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "saw" {
		return WaveSawtooth, nil
	}
	for i, n := range waveformNames {
		if n == name {
			return Waveform(i), nil
		}
	}
	return WaveSine, ErrUnknownWaveform
}

// NoiseColor selects a noise spectrum
type NoiseColor int

const (
	NoiseWhite NoiseColor = iota
	NoisePink
	NoiseBrown
	noiseColorCount
)

var noiseColorNames = [...]string{"white", "pink", "brown"}

func (c NoiseColor) String() string {
	if c < 0 || c >= noiseColorCount {
		return "unknown"
	}
	return noiseColorNames[c]
}

// ParseNoiseColor maps a name to a NoiseColor
func ParseNoiseColor(name string) (NoiseColor, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range noiseColorNames {
		if n == name {
			return NoiseColor(i), nil
		}
	}
	return NoisePink, ErrUnknownNoiseColor
}

// Mode identifies the active playback topology
type Mode int

const (
	ModeNone Mode = iota
	ModeTone
	ModeNoise
	ModeNotchedNoise
	ModeCoordinatedReset
	ModeAmplitudeModulation
	ModeBinaural
	ModeResidualInhibition
	ModePhaseCancellation
)

var modeNames = [...]string{
	"none", "tone", "noise", "notched-noise", "coordinated-reset",
	"amplitude-modulation", "binaural", "residual-inhibition", "phase-cancellation",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// ParseMode maps a mode name to a Mode; "none" is not a playable mode
func ParseMode(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := ModeTone; int(i) < len(modeNames); i++ {
		if modeNames[i] == name {
			return i, nil
		}
	}
	return ModeNone, ErrUnknownMode
}

// PlayableModes lists every mode a session can run, in declaration order
func PlayableModes() []Mode {
	modes := make([]Mode, 0, len(modeNames)-1)
	for m := ModeTone; int(m) < len(modeNames); m++ {
		modes = append(modes, m)
	}
	return modes
}

// State is the playback lifecycle state
type State int

const (
	StateIdle State = iota
	StateStarting
	StatePlaying
	StateStopping
)

var stateNames = [...]string{"idle", "starting", "playing", "stopping"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// BackendType identifies the pipe backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

// BackendConfig describes a CLI audio backend
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// SinkType selects the output device implementation
type SinkType string

const (
	SinkAuto    SinkType = "auto"
	SinkSpeaker SinkType = "speaker"
	SinkPipe    SinkType = "pipe"
	SinkNull    SinkType = "null"
)

// Sentinel errors
var (
	ErrNoAudioBackend    = errors.New("no compatible audio backend found")
	ErrPipeClosed        = errors.New("audio pipe closed")
	ErrEngineDestroyed   = errors.New("audio engine destroyed")
	ErrUnknownWaveform   = errors.New("unknown waveform")
	ErrUnknownNoiseColor = errors.New("unknown noise color")
	ErrUnknownSink       = errors.New("unknown output sink")
	ErrUnknownMode       = errors.New("unknown playback mode")
)
