package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/quietear/audio"
	"github.com/lixenwraith/quietear/settings"
)

var (
	// Global flags
	verbose      bool
	settingsFile string
	sinkName     string
	backendName  string
	logFile      string

	// logOutput is closed on exit when logging goes to a file
	logOutput io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "quietear",
	Short: "Tinnitus relief sound generator",
	Long: `quietear - synthesises therapeutic sound for tinnitus relief.

Every mode plays through a gain ceiling of 45% with fades on start and stop.

Modes:
  tone        pure or shaped tone
  noise       white, pink or brown noise, optionally band-passed
  notched     noise with a notch at the tinnitus frequency
  reset       coordinated reset: four tones around a center, sequenced
  am          amplitude-modulated tone
  binaural    different tones per ear
  residual    tone for a fixed time, then stop
  phase       phase-inverted tone

Flags not given fall back to the values saved in ~/.quietear/settings.yaml,
and the values used are saved back after a successful start.

Examples:
  quietear play tone --freq 6000 --wave sine
  quietear play notched --freq 4000 --q 8
  quietear tui
  quietear scope --addr 127.0.0.1:8765`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logOutput != nil {
			logOutput.Close()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file (default is ~/.quietear/settings.yaml)")
	rootCmd.PersistentFlags().StringVar(&sinkName, "sink", "", "audio output: auto, speaker, pipe, null (default from QUIETEAR_SINK or auto)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "pipe player: pacat, pw-cat, aplay, sox, ffplay, oss (default probes in that order)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a file instead of stderr")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(scopeCmd)
	rootCmd.AddCommand(settingsCmd)
}

// initLogging configures slog based on the verbose flag
// The console owns the terminal, so tui logs nowhere unless a file is given
func initLogging(cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out, logOutput = f, f
	case cmd == tuiCmd:
		out = io.Discard
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: logLevel,
	})))
	return nil
}

// openStore returns the settings store named by --settings
func openStore() (*settings.FileStore, error) {
	store, err := settings.NewFileStore(settingsFile)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return store, nil
}

// engineConfig loads env config and applies --sink and --backend
func engineConfig() *audio.Config {
	cfg := audio.LoadConfig()
	if sinkName != "" {
		cfg.Sink = audio.SinkType(sinkName)
	}
	if backendName != "" {
		cfg.Backend = backendName
	}
	return cfg
}
