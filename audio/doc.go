// Package audio synthesises tinnitus relief sound through a single safety-limited output chain.
//
// Features:
//   - Eight playback modes: tone, noise, notched noise, coordinated reset,
//     amplitude modulation, binaural, residual inhibition, phase cancellation
//   - Sample-accurate parameter automation on a 128-frame render quantum
//   - Master gain hard-capped at MaxSafeGain, followed by a soft-knee limiter
//   - Cached two-second white, pink and brown noise loops
//   - Output through beep/speaker, a CLI player pipe, or a null sink
//
// One Engine plays at most one session. Starting a new mode fades out the current
// one first, and every timer callback checks the session generation before acting.
package audio
