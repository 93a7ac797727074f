package scope

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/quietear/audio"
	"github.com/lixenwraith/quietear/status"
)

const (
	// DefaultInterval is the frame period, about 30 frames per second
	DefaultInterval = 33 * time.Millisecond
	// DefaultPath is the websocket endpoint
	DefaultPath = "/scope"

	clientQueue  = 4
	writeTimeout = time.Second

	MetricSent    = "scope.frames_sent"
	MetricDropped = "scope.frames_dropped"
)

// Source provides the analyser to sample; it may return nil while no engine exists
type Source interface {
	Analyser() *audio.Analyser
}

// Option configures a Server
type Option func(*Server)

// WithInterval sets the frame period
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSpectrum includes magnitude spectra in frames
func WithSpectrum(on bool) Option {
	return func(s *Server) {
		s.spectrum = on
	}
}

// WithLogger sets the server logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStatus counts delivered and dropped frames in r
func WithStatus(r *status.Registry) Option {
	return func(s *Server) {
		if r != nil {
			s.status = r
		}
	}
}

// client is one websocket subscriber with a bounded send queue
type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Server polls a Source and broadcasts frames to every connected client
// Slow clients drop frames rather than stall the broadcaster
type Server struct {
	src      Source
	interval time.Duration
	spectrum bool
	log      *slog.Logger
	upgrader websocket.Upgrader
	status   *status.Registry
	sent     *atomic.Int64
	dropped  *atomic.Int64

	mu      sync.Mutex
	clients map[*client]struct{}

	seq       atomic.Uint64
	running   atomic.Bool
	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
	http      *http.Server
}

// NewServer creates a broadcaster over src
func NewServer(src Source, opts ...Option) *Server {
	s := &Server{
		src:      src,
		interval: DefaultInterval,
		log:      slog.Default(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.status == nil {
		s.status = status.NewRegistry()
	}
	s.sent = s.status.Counters.Get(MetricSent)
	s.dropped = s.status.Counters.Get(MetricDropped)
	return s
}

// Status returns the registry frame counts are published into
func (s *Server) Status() *status.Registry {
	return s.status
}

// Handler returns the HTTP handler serving the websocket endpoint
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(DefaultPath, s.handleWS)
	return mux
}

// Clients returns the number of connected subscribers
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run starts the broadcast loop; it returns immediately if already running
func (s *Server) Run() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go s.broadcastLoop()
}

// Serve runs the broadcaster and serves HTTP on ln until Close
func (s *Server) Serve(ln net.Listener) {
	s.http = &http.Server{Handler: s.Handler()}
	s.Run()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("scope server stopped", "error", err)
		}
	}()
}

// Close stops broadcasting and disconnects every client
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		if s.http != nil {
			err = s.http.Close()
		}

		s.mu.Lock()
		for c := range s.clients {
			c.close()
			delete(s.clients, c)
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
	return err
}

func (s *Server) closed() bool {
	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueue)}

	s.mu.Lock()
	if s.closed() {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.wg.Add(2)
	s.mu.Unlock()

	s.log.Debug("scope client connected", "remote", r.RemoteAddr)

	go s.writePump(c)
	go s.readPump(c)
}

// readPump discards inbound messages and unregisters the client when the connection ends
func (s *Server) readPump(c *client) {
	defer s.wg.Done()
	defer s.remove(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	defer s.wg.Done()
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			s.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
		s.log.Debug("scope client disconnected")
	}
	s.mu.Unlock()
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var frame Frame
	var db []float64
	for {
		select {
		case <-s.closeCh:
			return
		case <-ticker.C:
			if s.Clients() == 0 {
				continue
			}
			a := s.src.Analyser()
			if a == nil {
				continue
			}

			db = frame.capture(a, s.spectrum, db)
			frame.Seq = s.seq.Add(1)
			msg, err := frame.Encode()
			if err != nil {
				s.log.Warn("scope frame encode failed", "error", err)
				continue
			}
			s.publish(msg)
		}
	}
}

// publish queues msg for every client, dropping it for clients whose queue is full
func (s *Server) publish(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		select {
		case c.send <- msg:
			s.sent.Add(1)
		default:
			s.dropped.Add(1)
		}
	}
}
