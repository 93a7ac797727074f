// Package scope streams analyser snapshots to external visualisers over websocket
package scope

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lixenwraith/quietear/audio"
)

// Frame is one analyser snapshot on the wire
type Frame struct {
	Seq      uint64    `msgpack:"seq"`
	Rate     int       `msgpack:"rate"`
	Samples  []float32 `msgpack:"samples"`
	Spectrum []float32 `msgpack:"spectrum,omitempty"` // dB per bin, bin k at k*rate/len(samples) Hz
}

// capture fills f from a, reusing its slices
func (f *Frame) capture(a *audio.Analyser, spectrum bool, db []float64) []float64 {
	size := a.Size()
	if cap(f.Samples) < size {
		f.Samples = make([]float32, size)
	}
	f.Samples = f.Samples[:size]
	f.Rate = int(a.SampleRate())
	a.TimeDomainData(f.Samples)

	if !spectrum {
		f.Spectrum = f.Spectrum[:0]
		return db
	}

	if cap(db) < size/2 {
		db = make([]float64, size/2)
	}
	db = db[:size/2]
	n := a.FrequencyData(db)
	if cap(f.Spectrum) < n {
		f.Spectrum = make([]float32, n)
	}
	f.Spectrum = f.Spectrum[:n]
	for i := 0; i < n; i++ {
		f.Spectrum[i] = float32(db[i])
	}
	return db
}

// Encode serialises f as msgpack
func (f *Frame) Encode() ([]byte, error) {
	return msgpack.Marshal(f)
}

// Decode parses a msgpack frame
func Decode(data []byte) (*Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
