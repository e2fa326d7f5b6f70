package audio

import (
	"math"
	"sync/atomic"
)

// Side reports the speaker a tracker channel is panned to: 0 left, 1 right.
// Four-channel songs use the Amiga's LRRL hardware split; any other count
// alternates LRLR.
func Side(channel, channels int) int {
	if channels == 4 {
		if channel == 1 || channel == 2 {
			return 1
		}
		return 0
	}
	return channel % 2
}

// Mixer owns one scratch buffer per tracker channel and folds them down to
// interleaved stereo. Each side is divided by the larger of the two side
// channel counts so that a full-scale song never clips.
type Mixer struct {
	channels   int
	bufs       [][]float32
	divider    float32
	volume     atomic.Uint32
	separation atomic.Uint32
}

func NewMixer(channels int) *Mixer {
	m := &Mixer{
		channels: channels,
		bufs:     make([][]float32, channels),
	}
	var sides [2]int
	for i := range channels {
		sides[Side(i, channels)]++
	}
	m.divider = float32(max(1, sides[0], sides[1]))
	m.volume.Store(math.Float32bits(1))
	m.separation.Store(math.Float32bits(1))
	return m
}

// Buffers returns the per-channel buffers resized to frames, for the
// sequencer to render into.
func (m *Mixer) Buffers(frames int) [][]float32 {
	for i := range m.bufs {
		if cap(m.bufs[i]) < frames {
			m.bufs[i] = make([]float32, frames)
		}
		m.bufs[i] = m.bufs[i][:frames]
	}
	return m.bufs
}

func (m *Mixer) SetVolume(v float32) { m.volume.Store(math.Float32bits(max(0, v))) }

func (m *Mixer) Volume() float32 { return math.Float32frombits(m.volume.Load()) }

// SetSeparation sets the stereo width: 1 is the hard Amiga split, 0 is mono.
func (m *Mixer) SetSeparation(s float32) {
	m.separation.Store(math.Float32bits(min(1, max(0, s))))
}

func (m *Mixer) Separation() float32 { return math.Float32frombits(m.separation.Load()) }

// Downmix writes len(dst)/2 stereo frames from the channel buffers last
// returned by Buffers.
func (m *Mixer) Downmix(dst []float32) {
	frames := len(dst) / 2
	gain := m.Volume() / m.divider
	sep := m.Separation()
	near := gain * (1 + sep) / 2
	far := gain * (1 - sep) / 2
	clear(dst)
	for ch, buf := range m.bufs {
		gl, gr := near, far
		if Side(ch, m.channels) == 1 {
			gl, gr = far, near
		}
		n := min(frames, len(buf))
		for i := range n {
			v := buf[i]
			dst[2*i] += v * gl
			dst[2*i+1] += v * gr
		}
	}
}
