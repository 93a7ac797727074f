package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/quietear/parameter"
)

// pipeSink streams s16le stereo to a CLI audio backend or an OSS device
type pipeSink struct {
	rate    beep.SampleRate
	period  time.Duration
	backend *BackendConfig

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ossFile *os.File // For direct OSS writes
	output  io.Writer

	stopChan chan struct{}
	stopped  atomic.Bool
	wg       sync.WaitGroup

	// Error signaling
	errChan chan error
}

// newPipeSink detects a backend for the configured rate
func newPipeSink(cfg *Config) (*pipeSink, error) {
	backend, err := DetectBackend(cfg.SampleRate, cfg.Backend)
	if err != nil {
		return nil, err
	}
	return &pipeSink{
		rate:     cfg.SampleRate,
		period:   cfg.BufferSize,
		backend:  backend,
		stopChan: make(chan struct{}),
		errChan:  make(chan error, 1),
	}, nil
}

// Start launches the backend process and the write loop
func (p *pipeSink) Start(src beep.Streamer) error {
	if p.backend.Type == BackendOSS {
		// Direct file write for OSS
		f, err := os.OpenFile(p.backend.Path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open %s: %w", p.backend.Path, err)
		}
		p.ossFile = f
		p.output = f
	} else {
		cmd := exec.Command(p.backend.Path, p.backend.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("%s stdin: %w", p.backend.Name, err)
		}
		if err := cmd.Start(); err != nil {
			stdin.Close()
			return fmt.Errorf("start %s: %w", p.backend.Name, err)
		}
		p.cmd = cmd
		p.stdin = stdin
		p.output = stdin
	}

	p.wg.Add(1)
	go p.loop(src)
	return nil
}

// Errors returns channel for pipe errors
func (p *pipeSink) Errors() <-chan error {
	return p.errChan
}

// loop pulls one period per tick and writes it to the backend
func (p *pipeSink) loop(src beep.Streamer) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	frames := p.rate.N(p.period)
	buf := make([][2]float64, frames)
	outBytes := make([]byte, frames*parameter.AudioBytesPerFrame)

	for {
		select {
		case <-p.stopChan:
			return

		case <-ticker.C:
			n, _ := src.Stream(buf)
			if n < len(buf) {
				clear(buf[n:])
			}
			floatToBytes(buf, outBytes)

			if _, err := p.output.Write(outBytes); err != nil {
				select {
				case p.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
				default:
				}
				return
			}
		}
	}
}

// Close stops the loop and terminates the backend
func (p *pipeSink) Close() error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(p.stopChan)

	if p.stdin != nil {
		p.stdin.Close()
	}
	if p.ossFile != nil {
		p.ossFile.Close()
	}
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
	}

	p.wg.Wait()
	close(p.errChan)
	return nil
}

func (p *pipeSink) Name() string {
	return p.backend.Name
}

// floatToBytes converts float64 stereo frames to interleaved int16 LE bytes
// Applies soft limiting before hard clip
func floatToBytes(in [][2]float64, out []byte) {
	for i := range in {
		for ch := 0; ch < 2; ch++ {
			v := in[i][ch]

			// Soft limiter (tanh-style)
			if v > 0.8 {
				v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
			} else if v < -0.8 {
				v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
			}

			// Hard clip
			if v > 1.0 {
				v = 1.0
			} else if v < -1.0 {
				v = -1.0
			}

			i16 := int16(v * 32767)
			binary.LittleEndian.PutUint16(out[i*4+ch*2:], uint16(i16))
		}
	}
}
