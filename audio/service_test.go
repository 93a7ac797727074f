package audio

import (
	"testing"

	"github.com/lixenwraith/quietear/service"
)

// TestServiceLifecycle verifies Init, Start, Contribute and idempotent Stop
func TestServiceLifecycle(t *testing.T) {
	svc := NewService()
	if err := svc.Start(); err == nil {
		t.Error("Expected Start before Init to fail")
	}
	if svc.Analyser() != nil {
		t.Error("Expected no analyser before Init")
	}

	cfg := DefaultConfig()
	cfg.Sink = SinkNull
	sink := &nopSink{}
	err := svc.Init(cfg, WithLogger(discardLogger()), WithSinkFactory(func(*Config) (Sink, error) { return sink, nil }))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if svc.Engine() == nil || svc.Engine().Config() != cfg {
		t.Fatal("Expected engine built from the given config")
	}
	if err := svc.Start(); err != nil {
		t.Errorf("Start failed: %v", err)
	}

	var published []any
	svc.Contribute(func(r any) { published = append(published, r) })
	if len(published) != 1 || published[0] != svc.Engine() {
		t.Errorf("Expected the engine published, got %v", published)
	}

	if err := svc.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Errorf("Expected idempotent Stop, got %v", err)
	}
	if svc.Analyser() != nil {
		t.Error("Expected no analyser after Stop")
	}
}

// TestServiceInHub verifies the audio service runs under the hub
func TestServiceInHub(t *testing.T) {
	hub := service.NewHub()
	svc := NewService()
	if err := hub.Register(svc); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Sink = "bogus"
	if err := hub.InitAll(map[string][]any{"audio": {cfg}}); err == nil {
		t.Fatal("Expected init to fail for an unknown sink")
	}

	cfg.Sink = SinkNull
	if err := hub.InitAll(map[string][]any{"audio": {cfg, WithLogger(discardLogger())}}); err != nil {
		t.Fatalf("InitAll failed: %v", err)
	}
	if err := hub.StartAll(); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if got := service.MustGet[*Service](hub, "audio"); got != svc {
		t.Error("Expected MustGet to return the registered service")
	}
	if err := hub.StopAll(); err != nil {
		t.Errorf("StopAll failed: %v", err)
	}
}
