package audio

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

// TestOpenSinkUnknown verifies unknown sink names are rejected
func TestOpenSinkUnknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sink = "carrier-pigeon"
	if _, err := OpenSink(cfg); !errors.Is(err, ErrUnknownSink) {
		t.Errorf("Expected ErrUnknownSink, got %v", err)
	}
}

// TestOpenSinkNull verifies the headless sink is selectable
func TestOpenSinkNull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sink = SinkNull
	sink, err := OpenSink(cfg)
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}
	if sink.Name() != "null" {
		t.Errorf("Expected null sink, got %s", sink.Name())
	}
}

// TestNullSinkAdvancesClock verifies the headless sink pulls in real time and stops cleanly
func TestNullSinkAdvancesClock(t *testing.T) {
	ctx := NewContext(testRate)
	ctx.setDestination(newOscillator(ctx, WaveSine, 440, 20))

	sink := NewNullSink(testRate, 5*time.Millisecond)
	if err := sink.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ctx.Frames() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := sink.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if ctx.Frames() == 0 || sink.Pulled() == 0 {
		t.Error("Expected the sink to pull frames")
	}

	frames := ctx.Frames()
	time.Sleep(20 * time.Millisecond)
	if ctx.Frames() != frames {
		t.Error("Expected no pulls after Close")
	}

	if err := sink.Close(); err != nil {
		t.Errorf("Expected idempotent Close, got %v", err)
	}
	if err := sink.Start(ctx); !errors.Is(err, ErrPipeClosed) {
		t.Errorf("Expected restart after Close to fail, got %v", err)
	}
}

// TestFloatToBytes verifies interleaved s16le conversion with soft limiting
func TestFloatToBytes(t *testing.T) {
	in := [][2]float64{{0, 0.5}, {-0.5, 1}, {2, -2}}
	out := make([]byte, len(in)*4)
	floatToBytes(in, out)

	sample := func(i, ch int) int16 {
		return int16(binary.LittleEndian.Uint16(out[i*4+ch*2:]))
	}

	if sample(0, 0) != 0 {
		t.Errorf("Expected 0, got %d", sample(0, 0))
	}
	// Conversion truncates toward zero: 0.5*32767 = 16383.5
	if sample(0, 1) != 16383 {
		t.Errorf("Expected 16383, got %d", sample(0, 1))
	}
	if sample(1, 0) != -16383 {
		t.Errorf("Expected -16383, got %d", sample(1, 0))
	}

	// Above 0.8 the soft limiter compresses toward 1.0
	const knee = 26213 // 0.8 * 32767, truncated
	if s := sample(1, 1); s >= 32767 || s <= knee {
		t.Errorf("Expected soft-limited value in (0.8, 1.0), got %d", s)
	}
	if s := sample(2, 0); s > 32767 || s <= knee {
		t.Errorf("Expected clipped positive value, got %d", s)
	}
	if s := sample(2, 1); s < -32767 || s >= -knee {
		t.Errorf("Expected clipped negative value, got %d", s)
	}
}

// TestContextClosedRendersSilence verifies Close stops rendering and the clock
func TestContextClosedRendersSilence(t *testing.T) {
	ctx := NewContext(testRate)
	ctx.setDestination(newOscillator(ctx, WaveSquare, 440, 20))

	buf := make([][2]float64, 300)
	ctx.Stream(buf)
	if ctx.Frames() != 300 {
		t.Errorf("Expected 300 frames rendered, got %d", ctx.Frames())
	}
	if got := ctx.CurrentTime(); got != 300.0/44100 {
		t.Errorf("Expected time %v, got %v", 300.0/44100, got)
	}

	ctx.Close()
	if !ctx.Closed() {
		t.Error("Expected closed context")
	}
	ctx.Stream(buf)
	for i, s := range buf {
		if s != [2]float64{} {
			t.Fatalf("Frame %d: expected silence, got %v", i, s)
		}
	}
	if ctx.Frames() != 300 {
		t.Errorf("Expected clock to stop at 300, got %d", ctx.Frames())
	}
}

// TestSinkErrorChannelsClose verifies error channels close so monitors exit
func TestSinkErrorChannelsClose(t *testing.T) {
	p := &pipeSink{
		backend:  &BackendConfig{Name: "test"},
		stopChan: make(chan struct{}),
		errChan:  make(chan error, 1),
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, ok := <-p.Errors(); ok {
		t.Error("Expected pipe error channel closed")
	}
	if err := p.Close(); err != nil {
		t.Errorf("Expected repeated Close to succeed, got %v", err)
	}

	auto := &autoSink{cfg: DefaultConfig(), active: NewNullSink(testRate, time.Millisecond)}
	if _, ok := <-auto.Errors(); ok {
		t.Error("Expected closed channel for a sink without errors")
	}

	auto.active = p
	if auto.Errors() != p.Errors() {
		t.Error("Expected auto sink to forward the pipe channel")
	}
}
