package audio

import (
	"sync/atomic"

	"github.com/lixenwraith/quietear/status"
)

// Metric names the engine publishes
const (
	MetricSessions     = "audio.sessions"
	MetricAutoStops    = "audio.auto_stops"
	MetricOutputErrors = "audio.output_errors"
	MetricPlaying      = "audio.playing"
	MetricVolume       = "audio.volume"
	MetricReduction    = "audio.limiter_db"
	MetricMode         = "audio.mode"
	MetricSink         = "audio.sink"
)

// engineMetrics caches registry pointers so hot paths skip the map
type engineMetrics struct {
	sessions     *atomic.Int64
	autoStops    *atomic.Int64
	outputErrors *atomic.Int64
	playing      *atomic.Bool
	volume       *status.Float
	reduction    *status.Float
	mode         *status.Text
	sink         *status.Text
}

func newEngineMetrics(r *status.Registry) engineMetrics {
	m := engineMetrics{
		sessions:     r.Counters.Get(MetricSessions),
		autoStops:    r.Counters.Get(MetricAutoStops),
		outputErrors: r.Counters.Get(MetricOutputErrors),
		playing:      r.Flags.Get(MetricPlaying),
		volume:       r.Gauges.Get(MetricVolume),
		reduction:    r.Gauges.Get(MetricReduction),
		mode:         r.Labels.Get(MetricMode),
		sink:         r.Labels.Get(MetricSink),
	}
	m.mode.Set(ModeNone.String())
	return m
}

// WithStatus publishes engine metrics into r instead of a private registry
func WithStatus(r *status.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.status = r
		}
	}
}

// Status returns the registry the engine publishes into
func (e *Engine) Status() *status.Registry {
	return e.status
}
