package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lixenwraith/quietear/audio"
	"github.com/lixenwraith/quietear/settings"
)

// Per-command flag values; only flags the user set are applied
var (
	flagFreq      float64
	flagVolume    float64
	flagWave      string
	flagColor     string
	flagBandpass  bool
	flagQ         float64
	flagTempo     time.Duration
	flagRate      float64
	flagDepth     float64
	flagBeat      float64
	flagInhibit   time.Duration
	flagFor       time.Duration
	flagScopeAddr string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one mode until interrupted",
	Long: `Play a mode until Ctrl-C, or for --for when given.

Without a subcommand the last saved mode is played.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, "")
	},
}

// modeCommand builds a play subcommand for one mode
func modeCommand(use, mode, short string, flags func(fs *pflag.FlagSet)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, mode)
		},
	}
	if flags != nil {
		flags(cmd.Flags())
	}
	return cmd
}

func freqFlag(fs *pflag.FlagSet, name string) {
	fs.Float64Var(&flagFreq, name, 0, "frequency in Hz (20-20000)")
}

func init() {
	playCmd.PersistentFlags().Float64Var(&flagVolume, "volume", 0, "volume 0.0-1.0, capped at 0.45")
	playCmd.PersistentFlags().DurationVar(&flagFor, "for", 0, "stop after this long (0 plays until interrupted)")
	playCmd.PersistentFlags().StringVar(&flagScopeAddr, "scope", "", "also serve the scope websocket on this address")

	playCmd.AddCommand(
		modeCommand("tone", "tone", "Pure or shaped tone", func(fs *pflag.FlagSet) {
			freqFlag(fs, "freq")
			fs.StringVar(&flagWave, "wave", "", "waveform: sine, square, sawtooth, triangle")
		}),
		modeCommand("noise", "noise", "Colored noise", func(fs *pflag.FlagSet) {
			fs.StringVar(&flagColor, "color", "", "noise color: white, pink, brown")
			fs.BoolVar(&flagBandpass, "bandpass", false, "band-pass the noise around --center")
			freqFlag(fs, "center")
			fs.Float64Var(&flagQ, "q", 0, "band-pass Q")
		}),
		modeCommand("notched", "notched-noise", "Noise with a notch at the tinnitus frequency", func(fs *pflag.FlagSet) {
			freqFlag(fs, "freq")
			fs.StringVar(&flagColor, "color", "", "noise color: white, pink, brown")
			fs.Float64Var(&flagQ, "q", 0, "notch Q")
		}),
		modeCommand("reset", "coordinated-reset", "Coordinated reset tones around a center", func(fs *pflag.FlagSet) {
			freqFlag(fs, "center")
			fs.DurationVar(&flagTempo, "tempo", 0, "time between tones")
		}),
		modeCommand("am", "amplitude-modulation", "Amplitude-modulated tone", func(fs *pflag.FlagSet) {
			freqFlag(fs, "freq")
			fs.Float64Var(&flagRate, "rate", 0, "modulation rate in Hz")
			fs.Float64Var(&flagDepth, "depth", 0, "modulation depth 0.0-1.0")
		}),
		modeCommand("binaural", "binaural", "Binaural beat", func(fs *pflag.FlagSet) {
			freqFlag(fs, "base")
			fs.Float64Var(&flagBeat, "beat", 0, "beat frequency in Hz")
		}),
		modeCommand("residual", "residual-inhibition", "Tone for a fixed time, then stop", func(fs *pflag.FlagSet) {
			freqFlag(fs, "freq")
			fs.DurationVar(&flagInhibit, "duration", 0, "how long to play")
		}),
		modeCommand("phase", "phase-cancellation", "Phase-inverted tone", func(fs *pflag.FlagSet) {
			freqFlag(fs, "freq")
		}),
	)
}

// patchFromFlags collects the flags the user set on cmd
func patchFromFlags(cmd *cobra.Command, mode string) settings.Patch {
	var p settings.Patch
	fs := cmd.Flags()
	changed := func(names ...string) bool {
		for _, n := range names {
			if fs.Changed(n) {
				return true
			}
		}
		return false
	}

	if mode != "" {
		p.Mode = settings.Ptr(mode)
	}
	if changed("freq", "center", "base") {
		p.Frequency = settings.Ptr(flagFreq)
	}
	if changed("volume") {
		p.Volume = settings.Ptr(audio.ClampGain(flagVolume))
	}
	if changed("wave") {
		p.Waveform = settings.Ptr(flagWave)
	}
	if changed("color") {
		p.NoiseColor = settings.Ptr(flagColor)
	}
	if changed("bandpass") {
		p.Bandpass = settings.Ptr(flagBandpass)
	}
	if changed("q") {
		if mode == "noise" {
			p.BandpassQ = settings.Ptr(flagQ)
		} else {
			p.NotchQ = settings.Ptr(flagQ)
		}
	}
	if changed("tempo") {
		p.TempoMs = settings.Ptr(int(flagTempo.Milliseconds()))
	}
	if changed("rate") {
		p.ModRate = settings.Ptr(flagRate)
	}
	if changed("depth") {
		p.ModDepth = settings.Ptr(flagDepth)
	}
	if changed("beat") {
		p.BeatFrequency = settings.Ptr(flagBeat)
	}
	if changed("duration") {
		p.InhibitionSec = settings.Ptr(int(flagInhibit.Seconds()))
	}
	return p
}

func runPlay(cmd *cobra.Command, mode string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	preset, err := store.Load()
	if err != nil {
		return err
	}
	patch := patchFromFlags(cmd, mode)
	preset.Apply(patch)

	rt, err := startRuntime(flagScopeAddr, false)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	finished := make(chan struct{})
	onFinish := func() { close(finished) }
	if err := preset.Start(ctx, rt.engine, onFinish); err != nil {
		return err
	}
	if err := store.Save(patch); err != nil {
		slog.Warn("settings not saved", "error", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "playing %s at %.0f Hz, volume %.0f%% (session %s)\n",
		preset.Mode, preset.Frequency, rt.engine.Volume()*100, rt.engine.SessionID())

	var timeout <-chan time.Time
	if flagFor > 0 {
		timer := time.NewTimer(flagFor)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
	case <-timeout:
	case <-finished:
		fmt.Fprintln(cmd.OutOrStdout(), "residual inhibition complete")
		return nil
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rt.engine.Stop(stopCtx)
}
