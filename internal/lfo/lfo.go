package lfo

import (
	"math"
	"math/rand/v2"
)

// Waveform numbering follows the tracker's E4x/E7x parameter; do not reorder.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSawtooth
	WaveSquare
	WaveRandom
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSawtooth:
		return "sawtooth"
	case WaveSquare:
		return "square"
	case WaveRandom:
		return "random"
	}
	return "unknown"
}

// Value evaluates one concrete waveform at rowPosition (0..1 through the
// current row). WaveRandom never reaches here; it is resolved on assignment.
func (w Waveform) Value(rowPosition, offset, oscillationsPerRow, amplitude float64) float64 {
	phase := rowPosition*oscillationsPerRow + offset
	switch w {
	case WaveSawtooth:
		return (1 - frac(phase)) * amplitude
	case WaveSquare:
		if frac(phase) < 0.5 {
			return amplitude
		}
		return -amplitude
	default:
		return math.Sin(phase*2*math.Pi) * amplitude
	}
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

// Oscillator modulates a value (a period for vibrato, a volume for tremolo)
// around the value it was centred on at the start of the row.
type Oscillator struct {
	amplitude          float64
	offset             float64 // phase carried between rows, [0, 1)
	originalValue      float64
	oscillationsPerRow float64
	retrigger          bool
	waveform           Waveform
}

func New() *Oscillator {
	o := &Oscillator{}
	o.Reset()
	return o
}

// Reset restores a sine wave of amplitude 1, one oscillation per row.
func (o *Oscillator) Reset() {
	*o = Oscillator{amplitude: 1, oscillationsPerRow: 1, waveform: WaveSine}
}

func (o *Oscillator) Value(rowPosition float64) float64 {
	return o.originalValue + o.waveform.Value(rowPosition, o.offset, o.oscillationsPerRow, o.amplitude)
}

// Advance moves the carried phase on by one row.
func (o *Oscillator) Advance() {
	o.offset = frac(o.offset + o.oscillationsPerRow)
}

// SetAmplitude ignores non-positive values so a zero parameter keeps the
// previous depth.
func (o *Oscillator) SetAmplitude(amplitude float64) {
	if amplitude > 0 {
		o.amplitude = amplitude
	}
}

func (o *Oscillator) SetOscillationsPerRow(n float64) {
	if n > 0 {
		o.oscillationsPerRow = n
	}
}

// SetWaveform selects the generator. WaveRandom picks one of the concrete
// waves now; it is not re-rolled per sample.
func (o *Oscillator) SetWaveform(w Waveform) {
	if w == WaveRandom {
		w = Waveform(rand.IntN(3))
	}
	if w < WaveSine || w > WaveSquare {
		w = WaveSine
	}
	o.waveform = w
}

func (o *Oscillator) SetOriginalValue(v float64) { o.originalValue = v }
func (o *Oscillator) SetOffset(offset float64)    { o.offset = frac(offset) }
func (o *Oscillator) SetRetrigger(r bool)         { o.retrigger = r }

func (o *Oscillator) Amplitude() float64          { return o.amplitude }
func (o *Oscillator) Offset() float64             { return o.offset }
func (o *Oscillator) OriginalValue() float64      { return o.originalValue }
func (o *Oscillator) OscillationsPerRow() float64 { return o.oscillationsPerRow }
func (o *Oscillator) Retrigger() bool             { return o.retrigger }
func (o *Oscillator) Waveform() Waveform          { return o.waveform }
