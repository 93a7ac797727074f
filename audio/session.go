package audio

import (
	"github.com/google/uuid"
)

// session is one play* invocation: its graph, its timers and its completion signal
// Fields are guarded by the engine mutex
type session struct {
	id     uuid.UUID
	gen    uint64
	graph  graph
	target float64 // Master gain the fade-in aims for, already equalized

	stopping    bool
	autoStopped bool // Set when the residual inhibition timer ended the session
	onFinish    func()

	autoStop Timer // Residual inhibition expiry
	teardown Timer
	done     chan struct{}
}

func newSession(gen uint64, g graph, target float64) *session {
	return &session{
		id:     uuid.New(),
		gen:    gen,
		graph:  g,
		target: target,
		done:   make(chan struct{}),
	}
}

// release cancels every pending timer and stops all nodes
// Safe to call more than once and on partially built sessions
func (s *session) release() {
	if s.autoStop != nil {
		s.autoStop.Stop()
		s.autoStop = nil
	}
	if s.teardown != nil {
		s.teardown.Stop()
		s.teardown = nil
	}
	if s.graph != nil {
		s.graph.release()
	}
}

// closedChan is returned by stop requests when nothing is playing
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
