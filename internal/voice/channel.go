// Package voice renders one tracker channel from its current sample, period
// and volume.
package voice

import (
	"math"

	"github.com/cbegin/protracker-go/internal/lfo"
	"github.com/cbegin/protracker-go/internal/mod"
)

const (
	ClockPAL  = 7093789.2
	ClockNTSC = 7159090.5

	fullVolume = 64
)

// FineTunedPeriod shifts period by fineTune 1/8ths of a semitone; positive
// values raise the pitch (shorten the period).
func FineTunedPeriod(period float64, fineTune int) float64 {
	if fineTune == 0 {
		return period
	}
	ratio := math.Pow(2, math.Abs(float64(fineTune))/(8*12))
	if fineTune > 0 {
		return period / ratio
	}
	return period * ratio
}

// Frequency is the playback rate of a sample at period on the given clock.
// A non-positive period yields 0 so that an unset channel stays still.
func Frequency(clock, period float64) float64 {
	if period <= 0 {
		return 0
	}
	return clock / (period * 2)
}

type Channel struct {
	id         int
	sampleRate float64
	clock      float64

	sample          *mod.Sample
	instruction     mod.Instruction
	fineTune        int
	originalPeriod  float64
	fineTunedPeriod float64
	period          float64
	frequency       float64
	samplePosition  float64
	sampleIncrement float64
	sampleHasEnded  bool
	volume          float64
	slideRate       float64
	slideTarget     float64

	vibrato *lfo.Oscillator
	tremolo *lfo.Oscillator
}

func New(id int, sampleRate int, clock float64) *Channel {
	c := &Channel{
		id:         id,
		sampleRate: float64(sampleRate),
		clock:      clock,
		vibrato:    lfo.New(),
		tremolo:    lfo.New(),
	}
	c.Reset()
	return c
}

// Reset returns the channel to its power-on state without reallocating.
func (c *Channel) Reset() {
	c.sample = nil
	c.instruction = mod.Instruction{}
	c.fineTune = 0
	c.originalPeriod = 0
	c.fineTunedPeriod = 0
	c.period = 0
	c.frequency = 0
	c.samplePosition = 0
	c.sampleIncrement = 0
	c.sampleHasEnded = false
	c.volume = fullVolume
	c.slideRate = 0
	c.slideTarget = 0
	c.vibrato.Reset()
	c.tremolo.Reset()
}

// FillBuffer writes count interpolated, volume-scaled frames starting at
// dst[start]. Frames past the end of dst are dropped.
func (c *Channel) FillBuffer(dst []float32, start, count int) {
	end := min(start+count, len(dst))
	for i := start; i < end; i++ {
		if !c.audible() {
			dst[i] = 0
			continue
		}
		dst[i] = float32(c.value() * c.volume / fullVolume)
		c.step()
	}
}

func (c *Channel) audible() bool {
	return c.sample != nil && !c.sampleHasEnded && len(c.sample.Audio) > 0
}

// value interpolates linearly between the frames either side of the
// fractional position.
func (c *Channel) value() float64 {
	audio := c.sample.Audio
	pos := c.samplePosition
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 || lo >= len(audio) {
		return 0
	}
	if hi >= len(audio) {
		hi = lo
	}
	lower := float64(audio[lo])
	upper := float64(audio[hi])
	return lower + (pos-math.Floor(pos))*(upper-lower)
}

func (c *Channel) step() {
	s := c.sample
	next := c.samplePosition + c.sampleIncrement
	end := float64(s.End())
	if next >= end {
		if s.Loops() {
			next = float64(s.RepeatOffset) + math.Mod(next-end, float64(s.RepeatLength))
		} else {
			next = end
			c.sampleHasEnded = true
		}
	}
	c.samplePosition = next
}

func (c *Channel) recalc() {
	c.frequency = Frequency(c.clock, c.period)
	c.sampleIncrement = c.frequency / c.sampleRate
}

// ResetFineTune restores the fine-tune of the current sample.
func (c *Channel) ResetFineTune() {
	if c.sample != nil {
		c.fineTune = c.sample.FineTune
	} else {
		c.fineTune = 0
	}
}

// ResetPeriod drops any effect offset and returns to the tuned note.
func (c *Channel) ResetPeriod() { c.SetPeriod(c.fineTunedPeriod) }

// ResetSample restarts the sample from its first frame.
func (c *Channel) ResetSample() {
	c.sampleHasEnded = false
	c.samplePosition = 0
	c.recalc()
}

func (c *Channel) ResetVolume() {
	if c.sample != nil {
		c.volume = float64(c.sample.Volume)
	} else {
		c.volume = fullVolume
	}
}

func (c *Channel) SetFineTune(fineTune int) {
	c.fineTune = fineTune
	c.fineTunedPeriod = FineTunedPeriod(c.originalPeriod, c.fineTune)
	c.SetPeriod(c.fineTunedPeriod)
}

// SetOriginalPeriod sets the note's untuned period and plays it tuned.
func (c *Channel) SetOriginalPeriod(period int) {
	c.originalPeriod = float64(period)
	c.fineTunedPeriod = FineTunedPeriod(c.originalPeriod, c.fineTune)
	c.SetPeriod(c.fineTunedPeriod)
}

func (c *Channel) SetPeriod(period float64) {
	c.period = period
	c.recalc()
}

func (c *Channel) SetClock(clock float64) {
	c.clock = clock
	c.recalc()
}

func (c *Channel) SetInstruction(ins mod.Instruction) { c.instruction = ins }

// SetSample shares s with the song; the channel only reads it.
func (c *Channel) SetSample(s *mod.Sample) { c.sample = s }

// EndSample silences the channel until the sample is reset.
func (c *Channel) EndSample() { c.sampleHasEnded = true }

// Retrigger restarts the current sample without touching pitch or volume.
func (c *Channel) Retrigger() {
	c.samplePosition = 0
	c.sampleHasEnded = false
}

func (c *Channel) SetSamplePosition(pos float64) { c.samplePosition = pos }
func (c *Channel) SetSlideRate(rate float64)     { c.slideRate = rate }
func (c *Channel) SetSlideTarget(period float64) { c.slideTarget = period }
func (c *Channel) SetVolume(volume float64)      { c.volume = volume }

func (c *Channel) ID() int                      { return c.id }
func (c *Channel) Sample() *mod.Sample          { return c.sample }
func (c *Channel) Instruction() mod.Instruction { return c.instruction }
func (c *Channel) FineTune() int                { return c.fineTune }
func (c *Channel) OriginalPeriod() float64      { return c.originalPeriod }
func (c *Channel) FineTunedPeriod() float64     { return c.fineTunedPeriod }
func (c *Channel) Period() float64              { return c.period }
func (c *Channel) Frequency() float64           { return c.frequency }
func (c *Channel) SamplePosition() float64      { return c.samplePosition }
func (c *Channel) SampleIncrement() float64     { return c.sampleIncrement }
func (c *Channel) SampleHasEnded() bool         { return c.sampleHasEnded }
func (c *Channel) Volume() float64              { return c.volume }
func (c *Channel) SlideRate() float64           { return c.slideRate }
func (c *Channel) SlideTarget() float64         { return c.slideTarget }
func (c *Channel) Vibrato() *lfo.Oscillator     { return c.vibrato }
func (c *Channel) Tremolo() *lfo.Oscillator     { return c.tremolo }
