// Package console is an interactive terminal front end for the engine with a live oscilloscope
package console

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/quietear/audio"
	"github.com/lixenwraith/quietear/parameter"
	"github.com/lixenwraith/quietear/settings"
	"github.com/lixenwraith/quietear/status"
)

const (
	frameInterval = 33 * time.Millisecond
	volumeStep    = 0.05
	fineStep      = 10.0  // Hz
	coarseStep    = 250.0 // Hz
	playTimeout   = 2 * time.Second
	scopeMargin   = 4 // Rows used by header and footer

	helpLine = "space play/stop  m/M mode  ←/→ ±10Hz  ↑/↓ ±250Hz  +/- volume  w wave  n noise  q quit"
)

// Engine is the engine surface the console drives
type Engine interface {
	settings.Player
	Stop(ctx context.Context) error
	Volume() float64
	State() audio.State
	Mode() audio.Mode
	UpdateOscillatorFrequency(f float64) bool
	UpdateFilterFrequency(f float64) bool
	Analyser() *audio.Analyser
	Status() *status.Registry
}

var (
	styleTitle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleLabel = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleValue = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleWarn  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleTrace = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleAxis  = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	styleHelp  = tcell.StyleDefault.Foreground(tcell.ColorYellow)

	modeOrder = audio.PlayableModes()
)

// Console owns the screen and the current preset
type Console struct {
	screen tcell.Screen
	engine Engine
	store  settings.Store
	log    *slog.Logger

	current *settings.Settings
	status  string
	failed  bool
	dirty   bool

	width, height int
	samples       []float32
	finished      chan struct{}
}

// New creates a console over an initialised screen, loading the stored preset
func New(screen tcell.Screen, engine Engine, store settings.Store, log *slog.Logger) (*Console, error) {
	cur, err := store.Load()
	if err != nil {
		return nil, err
	}
	if _, err := cur.ParsedMode(); err != nil {
		cur.Mode = audio.ModeTone.String()
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Console{
		screen:   screen,
		engine:   engine,
		store:    store,
		log:      log,
		current:  cur,
		status:   "ready",
		finished: make(chan struct{}, 1),
	}
	c.width, c.height = screen.Size()
	return c, nil
}

// Settings returns the preset being edited
func (c *Console) Settings() *settings.Settings {
	return c.current
}

// Status returns the last status message
func (c *Console) Status() string {
	return c.status
}

func (c *Console) setStatus(format string, args ...any) {
	c.status = fmt.Sprintf(format, args...)
	c.failed = false
}

func (c *Console) setError(err error) {
	c.status = err.Error()
	c.failed = true
	c.log.Warn("console action failed", "error", err)
}

// Run polls input and redraws until quit or ctx is done
func (c *Console) Run(ctx context.Context) error {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	c.Draw()
	for {
		select {
		case <-ctx.Done():
			return c.shutdown()
		case ev := <-eventChan:
			if !c.HandleEvent(ev) {
				return c.shutdown()
			}
		case <-c.finished:
			c.setStatus("residual inhibition complete")
		case <-ticker.C:
			c.Draw()
		}
	}
}

// shutdown stops playback and persists the preset
func (c *Console) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()
	if err := c.engine.Stop(ctx); err != nil {
		return err
	}
	return c.save()
}

func (c *Console) save() error {
	if !c.dirty {
		return nil
	}
	s := c.current
	err := c.store.Save(settings.Patch{
		Mode:       &s.Mode,
		Frequency:  &s.Frequency,
		Volume:     &s.Volume,
		Waveform:   &s.Waveform,
		NoiseColor: &s.NoiseColor,
	})
	if err == nil {
		c.dirty = false
	}
	return err
}

// HandleEvent applies one input event; it returns false when the console should exit
func (c *Console) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return c.handleKey(ev)
	case *tcell.EventResize:
		c.width, c.height = c.screen.Size()
		c.screen.Sync()
	}
	return true
}

func (c *Console) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		c.shiftFrequency(-fineStep)
	case tcell.KeyRight:
		c.shiftFrequency(fineStep)
	case tcell.KeyDown:
		c.shiftFrequency(-coarseStep)
	case tcell.KeyUp:
		c.shiftFrequency(coarseStep)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			c.toggle()
		case 'm':
			c.cycleMode(1)
		case 'M':
			c.cycleMode(-1)
		case '+', '=':
			c.shiftVolume(volumeStep)
		case '-', '_':
			c.shiftVolume(-volumeStep)
		case 'w':
			c.cycleWaveform()
		case 'n':
			c.cycleNoise()
		}
	}
	return true
}

func (c *Console) playing() bool {
	st := c.engine.State()
	return st == audio.StateStarting || st == audio.StatePlaying
}

func (c *Console) toggle() {
	if c.playing() {
		c.stop()
		return
	}
	c.play()
}

func (c *Console) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()
	if err := c.engine.Stop(ctx); err != nil {
		c.setError(err)
		return
	}
	c.setStatus("stopped")
}

func (c *Console) play() {
	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()

	onFinish := func() {
		select {
		case c.finished <- struct{}{}:
		default:
		}
	}
	if err := c.current.Start(ctx, c.engine, onFinish); err != nil {
		c.setError(err)
		return
	}
	c.setStatus("playing %s", c.current.Mode)
}

// restart re-runs the current preset when something that needs a new graph changed
func (c *Console) restart() {
	if c.playing() {
		c.play()
	}
}

func (c *Console) cycleMode(dir int) {
	mode, _ := c.current.ParsedMode()
	idx := 0
	for i, m := range modeOrder {
		if m == mode {
			idx = i
		}
	}
	idx = (idx + dir + len(modeOrder)) % len(modeOrder)
	c.current.Mode = modeOrder[idx].String()
	c.dirty = true
	c.setStatus("mode %s", c.current.Mode)
	c.restart()
}

func (c *Console) shiftFrequency(delta float64) {
	f := audio.ClampFrequency(c.current.Frequency + delta)
	c.current.Frequency = f
	c.dirty = true

	if c.playing() && !c.engine.UpdateOscillatorFrequency(f) {
		c.engine.UpdateFilterFrequency(f)
	}
	c.setStatus("frequency %.0f Hz", f)
}

func (c *Console) shiftVolume(delta float64) {
	v := audio.ClampGain(c.current.Volume + delta)
	// Round to whole percent
	v = math.Round(v*100) / 100
	c.current.Volume = v
	c.dirty = true
	c.engine.SetVolume(v)
	c.setStatus("volume %.0f%%", c.engine.Volume()*100)
}

func (c *Console) cycleWaveform() {
	w, _ := audio.ParseWaveform(c.current.Waveform)
	w = (w + 1) % (audio.WaveTriangle + 1)
	c.current.Waveform = w.String()
	c.dirty = true
	c.setStatus("waveform %s", w)
	if mode, _ := c.current.ParsedMode(); mode == audio.ModeTone {
		c.restart()
	}
}

func (c *Console) cycleNoise() {
	n, _ := audio.ParseNoiseColor(c.current.NoiseColor)
	n = (n + 1) % (audio.NoiseBrown + 1)
	c.current.NoiseColor = n.String()
	c.dirty = true
	c.setStatus("noise %s", n)
	if mode, _ := c.current.ParsedMode(); mode == audio.ModeNoise || mode == audio.ModeNotchedNoise {
		c.restart()
	}
}

// Draw renders header, oscilloscope and footer
func (c *Console) Draw() {
	c.screen.Clear()
	c.drawHeader()
	c.drawScope()
	c.drawFooter()
	c.screen.Show()
}

func (c *Console) drawText(x, y int, style tcell.Style, text string) int {
	for _, r := range text {
		if x >= c.width {
			break
		}
		c.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

func (c *Console) drawHeader() {
	x := c.drawText(0, 0, styleTitle, "quietear ")
	x = c.drawText(x, 0, styleLabel, "mode ")
	x = c.drawText(x, 0, styleValue, c.current.Mode+"  ")
	x = c.drawText(x, 0, styleLabel, "state ")
	x = c.drawText(x, 0, styleValue, c.engine.State().String()+"  ")
	x = c.drawText(x, 0, styleLabel, "freq ")
	x = c.drawText(x, 0, styleValue, fmt.Sprintf("%.0fHz  ", c.current.Frequency))
	x = c.drawText(x, 0, styleLabel, "vol ")
	x = c.drawText(x, 0, styleValue, fmt.Sprintf("%.0f%%/%.0f%%  ", c.engine.Volume()*100, parameter.MaxSafeGain*100))
	if reg := c.engine.Status(); reg != nil {
		x = c.drawText(x, 0, styleLabel, "lim ")
		c.drawText(x, 0, styleValue, fmt.Sprintf("-%.1fdB", reg.Gauges.Get(audio.MetricReduction).Get()))
	}

	style := styleValue
	if c.failed {
		style = styleWarn
	}
	c.drawText(0, 1, style, c.status)
}

func (c *Console) drawFooter() {
	if c.height > 0 {
		c.drawText(0, c.height-1, styleHelp, helpLine)
	}
}

// drawScope plots the newest analyser window across the screen width
func (c *Console) drawScope() {
	rows := c.height - scopeMargin
	if rows < 3 || c.width < 1 {
		return
	}
	top := 2
	mid := top + (rows-1)/2

	for x := 0; x < c.width; x++ {
		c.screen.SetContent(x, mid, '─', nil, styleAxis)
	}

	a := c.engine.Analyser()
	if a == nil {
		return
	}
	if cap(c.samples) < a.Size() {
		c.samples = make([]float32, a.Size())
	}
	c.samples = c.samples[:a.Size()]
	n := a.TimeDomainData(c.samples)
	if n == 0 {
		return
	}

	// Full scale is the safe gain ceiling
	half := float64((rows - 1) / 2)
	for x := 0; x < c.width; x++ {
		v := float64(c.samples[x*n/c.width]) / parameter.MaxSafeGain
		v = math.Max(-1, math.Min(1, v))
		y := mid - int(math.Round(v*half))
		c.screen.SetContent(x, y, '•', nil, styleTrace)
	}
}
