package scope

import (
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/quietear/audio"
)

type analyserSource struct {
	a *audio.Analyser
}

func (s analyserSource) Analyser() *audio.Analyser { return s.a }

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + DefaultPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, got %d", n, s.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestFrameRoundTrip verifies capture and msgpack encoding keep the analyser window
func TestFrameRoundTrip(t *testing.T) {
	a := audio.NewAnalyser(48000, 512)

	var f Frame
	f.capture(a, true, nil)
	f.Seq = 7
	data, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Seq != 7 || got.Rate != 48000 {
		t.Errorf("Expected seq 7 rate 48000, got %d %d", got.Seq, got.Rate)
	}
	if len(got.Samples) != 512 || len(got.Spectrum) != 256 {
		t.Errorf("Expected 512 samples and 256 bins, got %d and %d", len(got.Samples), len(got.Spectrum))
	}

	f.capture(a, false, nil)
	data, _ = f.Encode()
	got, _ = Decode(data)
	if len(got.Spectrum) != 0 {
		t.Errorf("Expected no spectrum, got %d bins", len(got.Spectrum))
	}

	if _, err := Decode([]byte{0xc1}); err == nil {
		t.Error("Expected decode error for invalid input")
	}
}

// TestServerBroadcasts verifies every client receives increasing frames
func TestServerBroadcasts(t *testing.T) {
	s := NewServer(analyserSource{audio.NewAnalyser(44100, 256)}, WithInterval(5*time.Millisecond))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	s.Run()
	defer s.Close()

	a, b := dial(t, srv), dial(t, srv)
	defer a.Close()
	defer b.Close()
	waitClients(t, s, 2)

	for _, conn := range []*websocket.Conn{a, b} {
		var last uint64
		for i := 0; i < 3; i++ {
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			kind, data, err := conn.ReadMessage()
			if err != nil {
				t.Fatalf("ReadMessage failed: %v", err)
			}
			if kind != websocket.BinaryMessage {
				t.Errorf("Expected binary message, got %d", kind)
			}
			f, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if f.Seq <= last {
				t.Errorf("Expected increasing sequence, got %d after %d", f.Seq, last)
			}
			last = f.Seq
			if len(f.Samples) != 256 {
				t.Errorf("Expected 256 samples, got %d", len(f.Samples))
			}
		}
	}

	if sent := s.Status().Counters.Get(MetricSent).Load(); sent < 6 {
		t.Errorf("Expected at least 6 frames counted, got %d", sent)
	}
}

// TestServerSkipsMissingAnalyser verifies nothing is sent while the source has no analyser
func TestServerSkipsMissingAnalyser(t *testing.T) {
	s := NewServer(analyserSource{}, WithInterval(5*time.Millisecond))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	s.Run()
	defer s.Close()

	conn := dial(t, srv)
	defer conn.Close()
	waitClients(t, s, 1)

	conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected no frames without an analyser")
	}
	if sent := s.Status().Counters.Get(MetricSent).Load(); sent != 0 {
		t.Errorf("Expected no frames counted, got %d", sent)
	}
}

// TestServerClientDisconnect verifies closed clients are dropped
func TestServerClientDisconnect(t *testing.T) {
	s := NewServer(analyserSource{audio.NewAnalyser(44100, 64)}, WithInterval(5*time.Millisecond))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	s.Run()
	defer s.Close()

	conn := dial(t, srv)
	waitClients(t, s, 1)
	conn.Close()
	waitClients(t, s, 0)
}

// TestServerClose verifies Close disconnects clients and is idempotent
func TestServerClose(t *testing.T) {
	s := NewServer(analyserSource{audio.NewAnalyser(44100, 64)})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	s.Run()

	conn := dial(t, srv)
	defer conn.Close()
	waitClients(t, s, 1)

	if err := s.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if s.Clients() != 0 {
		t.Errorf("Expected no clients after Close, got %d", s.Clients())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.Close()
}

// TestService verifies the hub wrapper listens on the requested address
func TestService(t *testing.T) {
	svc := NewService()
	if err := svc.Init("127.0.0.1:0"); err == nil {
		t.Error("Expected Init without a source to fail")
	}

	src := analyserSource{audio.NewAnalyser(44100, 64)}
	if err := svc.Init("127.0.0.1:0", src, WithInterval(5*time.Millisecond)); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if svc.Dependencies()[0] != "audio" {
		t.Errorf("Expected audio dependency, got %v", svc.Dependencies())
	}
	if err := svc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	conn, err := net.Dial("tcp", svc.Addr())
	if err != nil {
		t.Fatalf("Expected listener at %s: %v", svc.Addr(), err)
	}
	conn.Close()

	if err := svc.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Errorf("Expected idempotent Stop, got %v", err)
	}
}
