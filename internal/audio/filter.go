package audio

import (
	"math"
	"sync/atomic"
)

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessBuffer runs the chain over interleaved stereo frames in place.
func (c *Chain) ProcessBuffer(buf []float32) {
	if len(c.effects) == 0 {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = c.Process(buf[i], buf[i+1])
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func onePoleAlpha(sampleRate int, cutoff float64) float32 {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	dt := 1.0 / float64(sampleRate)
	return float32(dt / (rc + dt))
}

// LEDCutoff approximates the Amiga 500 "power LED" output filter.
const LEDCutoff = 3275.0

// LEDFilter is the switchable lowpass the Amiga placed in front of its audio
// outputs, modelled as two cascaded one-pole sections. It starts disabled
// and passes audio through untouched until enabled.
type LEDFilter struct {
	enabled atomic.Bool
	alpha   float32
	l, r    [2]float32
}

func NewLEDFilter(sampleRate int) *LEDFilter {
	return &LEDFilter{alpha: onePoleAlpha(sampleRate, LEDCutoff)}
}

// SetEnabled is safe to call from any goroutine.
func (f *LEDFilter) SetEnabled(on bool) { f.enabled.Store(on) }

func (f *LEDFilter) Enabled() bool { return f.enabled.Load() }

func (f *LEDFilter) Process(l, r float32) (float32, float32) {
	if !f.enabled.Load() {
		return l, r
	}
	for i := range f.l {
		f.l[i] += f.alpha * (l - f.l[i])
		f.r[i] += f.alpha * (r - f.r[i])
		l, r = f.l[i], f.r[i]
	}
	return l, r
}

func (f *LEDFilter) Reset() {
	f.l = [2]float32{}
	f.r = [2]float32{}
}

// DefaultCrossovers split the spectrum into five bands.
var DefaultCrossovers = []float64{200, 800, 2500, 8000}

// Equalizer is a crossover equalizer with runtime-adjustable band gains.
// n crossover frequencies yield n+1 bands, lowest first. Gains are stored as
// float32 bit patterns so the audio goroutine reads them without locking.
type Equalizer struct {
	gains  []atomic.Uint32
	alphas []float32
	lpL    []float32
	lpR    []float32
	bandL  []float32
	bandR  []float32
}

// NewEqualizer builds an equalizer with all gains at unity. Without
// crossovers DefaultCrossovers is used.
func NewEqualizer(sampleRate int, crossovers ...float64) *Equalizer {
	if len(crossovers) == 0 {
		crossovers = DefaultCrossovers
	}
	n := len(crossovers)
	eq := &Equalizer{
		gains:  make([]atomic.Uint32, n+1),
		alphas: make([]float32, n),
		lpL:    make([]float32, n),
		lpR:    make([]float32, n),
		bandL:  make([]float32, n+1),
		bandR:  make([]float32, n+1),
	}
	for i, freq := range crossovers {
		eq.alphas[i] = onePoleAlpha(sampleRate, freq)
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
	return eq
}

func (eq *Equalizer) Bands() int { return len(eq.gains) }

// SetGain sets the gain for band. 1.0 = unity, 0.0 = silence, 2.0 = +6dB.
func (eq *Equalizer) SetGain(band int, gain float32) {
	if band >= 0 && band < len(eq.gains) {
		eq.gains[band].Store(math.Float32bits(gain))
	}
}

// Gain returns the current gain for band, or 1 for bands out of range.
func (eq *Equalizer) Gain(band int) float32 {
	if band >= 0 && band < len(eq.gains) {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1.0
}

func (eq *Equalizer) Process(l, r float32) (float32, float32) {
	// Each crossover peels its lowpass off the remainder; what is left above
	// the last crossover is the top band.
	remL, remR := l, r
	last := len(eq.alphas)
	for i, a := range eq.alphas {
		eq.lpL[i] += a * (remL - eq.lpL[i])
		eq.lpR[i] += a * (remR - eq.lpR[i])
		eq.bandL[i] = eq.lpL[i]
		eq.bandR[i] = eq.lpR[i]
		remL -= eq.bandL[i]
		remR -= eq.bandR[i]
	}
	eq.bandL[last] = remL
	eq.bandR[last] = remR

	var outL, outR float32
	for i := range eq.gains {
		g := math.Float32frombits(eq.gains[i].Load())
		outL += eq.bandL[i] * g
		outR += eq.bandR[i] * g
	}
	return outL, outR
}

func (eq *Equalizer) Reset() {
	clear(eq.lpL)
	clear(eq.lpR)
}
