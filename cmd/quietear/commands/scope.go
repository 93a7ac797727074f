package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/quietear/scope"
)

var (
	scopeAddr     string
	scopeSpectrum bool
)

var scopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Play the saved preset and stream the analyser over websocket",
	Long: `Play the saved preset and stream analyser frames to websocket clients.

Clients connect to ws://<addr>/scope and receive msgpack frames:
  {seq, rate, samples[], spectrum[]}`,
	Args: cobra.NoArgs,
	RunE: runScope,
}

func init() {
	scopeCmd.Flags().StringVar(&scopeAddr, "addr", scope.DefaultAddr, "listen address")
	scopeCmd.Flags().BoolVar(&scopeSpectrum, "spectrum", true, "include magnitude spectra in frames")
}

func runScope(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	preset, err := store.Load()
	if err != nil {
		return err
	}

	rt, err := startRuntime(scopeAddr, scopeSpectrum)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := preset.Start(ctx, rt.engine, stop); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "playing %s, scope at ws://%s%s\n", preset.Mode, rt.scope.Addr(), scope.DefaultPath)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rt.engine.Stop(stopCtx)
}
