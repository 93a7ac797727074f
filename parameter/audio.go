// Package parameter holds the audio tuning constants
package parameter

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Output Timing
const (
	// AudioBufferDuration is the pull period of pipe and null sinks
	AudioBufferDuration = 20 * time.Millisecond

	// SpeakerBufferDuration sizes the beep speaker buffer
	SpeakerBufferDuration = 50 * time.Millisecond
)

// Safety Ceiling
const (
	// MaxSafeGain is the absolute linear ceiling of the master gain
	MaxSafeGain = 0.45

	// MinFreq and MaxFreq bound every oscillator and filter frequency
	MinFreq = 20.0
	MaxFreq = 20000.0

	// DefaultVolume is the engine volume before the first SetVolume
	DefaultVolume = 0.3
)

// Playback Fades
const (
	FadeIn  = 350 * time.Millisecond
	FadeOut = 120 * time.Millisecond

	// FadeFloor is the start value of the exponential fade-in, must be > 0
	FadeFloor = 0.0001

	// StopTimeConstant drives the master gain toward zero on stop
	StopTimeConstant = 25 * time.Millisecond

	// TeardownDelay is the wait between stop and hard teardown
	TeardownDelay = FadeOut + 60*time.Millisecond

	// ParamTimeConstant smooths live volume and frequency updates
	ParamTimeConstant = 20 * time.Millisecond
)

// Master Limiter
const (
	LimiterThresholdDB = -3.0
	LimiterKneeDB      = 6.0
	LimiterRatio       = 20.0
	LimiterAttack      = 2 * time.Millisecond
	LimiterRelease     = 50 * time.Millisecond
)

// Analyser
const (
	AnalyserSize      = 2048
	AnalyserSmoothing = 0.8
	AnalyserMinDB     = -100.0
)

// Noise Buffers
const (
	// NoiseDuration is the length of each cached loop
	NoiseDuration = 2 * time.Second

	DefaultBandpassQ = 1.0
	DefaultNotchQ    = 6.0
)

// Coordinated Reset
const (
	DefaultResetTempo = 250 * time.Millisecond
	ResetToneLevel    = 0.5
	ResetTimeConstant = 15 * time.Millisecond
	ResetOnsetDelay   = 20 * time.Millisecond
	ResetToneCount    = 4
	MinResetTempo     = 20 * time.Millisecond
)

// ResetRatios are the tone frequencies relative to the center frequency
var ResetRatios = [ResetToneCount]float64{0.773, 0.867, 1.133, 1.227}

// Mode Defaults
const (
	DefaultModRate       = 10.0 // Hz
	DefaultModDepth      = 1.0
	DefaultBeatFrequency = 10.0 // Hz
	DefaultInhibition    = 60 * time.Second
	PhaseInversionGain   = -1.0
)
