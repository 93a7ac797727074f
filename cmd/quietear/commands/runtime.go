package commands

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/lixenwraith/quietear/audio"
	"github.com/lixenwraith/quietear/scope"
	"github.com/lixenwraith/quietear/service"
	"github.com/lixenwraith/quietear/status"
)

// runtime holds the hub-managed services for one command invocation
type runtime struct {
	hub    *service.Hub
	status *status.Registry
	audio  *audio.Service
	scope  *scope.Service
	engine *audio.Engine
}

// startRuntime brings up the audio service and, when scopeAddr is set, the scope server
func startRuntime(scopeAddr string, spectrum bool) (*runtime, error) {
	rt := &runtime{
		hub:    service.NewHub(service.WithHubLogger(slog.Default())),
		status: status.NewRegistry(),
		audio:  audio.NewService(),
	}
	args := map[string][]any{
		"audio": {engineConfig(), audio.WithLogger(slog.Default()), audio.WithStatus(rt.status)},
	}

	if err := rt.hub.Register(rt.audio); err != nil {
		return nil, err
	}
	if scopeAddr != "" {
		rt.scope = scope.NewService()
		if err := rt.hub.Register(rt.scope); err != nil {
			return nil, err
		}
		args["scope"] = []any{scopeAddr, scope.Source(rt.audio), scope.WithSpectrum(spectrum), scope.WithLogger(slog.Default()), scope.WithStatus(rt.status)}
	}

	if err := rt.hub.InitAll(args); err != nil {
		return nil, err
	}
	if err := rt.hub.StartAll(); err != nil {
		return nil, err
	}

	rt.hub.ContributeAll(func(r any) {
		if e, ok := r.(*audio.Engine); ok {
			rt.engine = e
		}
	})
	if rt.engine == nil {
		rt.hub.StopAll()
		return nil, fmt.Errorf("audio engine unavailable")
	}
	return rt, nil
}

// close stops every service, fading out any playback, and logs the final counters
func (rt *runtime) close() error {
	err := rt.hub.StopAll()
	snap := rt.status.Snapshot()
	attrs := make([]any, 0, 2*len(snap))
	for _, k := range slices.Sorted(maps.Keys(snap)) {
		attrs = append(attrs, k, snap[k])
	}
	slog.Debug("runtime stopped", attrs...)
	return err
}
