package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/quietear/console"
)

var tuiScopeAddr string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive console with a live oscilloscope",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiScopeAddr, "scope", "", "also serve the scope websocket on this address")
}

func runTUI(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	rt, err := startRuntime(tuiScopeAddr, true)
	if err != nil {
		return err
	}
	defer rt.close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	c, err := console.New(screen, rt.engine, store, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.Run(ctx)
}
