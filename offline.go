package protracker

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	intaudio "github.com/cbegin/protracker-go/internal/audio"
	intseq "github.com/cbegin/protracker-go/internal/sequencer"
)

const renderBlock = 1024

// RenderSamples renders exactly seconds of song as interleaved stereo,
// following its loop point. A song without one starts over after the end.
func RenderSamples(song *Song, sampleRate int, seconds float64) []float32 {
	r := newRenderer(song, sampleRate, intseq.Options{}, nil)
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	for pos := 0; pos < frames; pos += renderBlock {
		n := min(renderBlock, frames-pos)
		r.Process(out[pos*2 : (pos+n)*2])
	}
	return out
}

// RenderSong plays song once through as interleaved stereo and returns the
// audio, ending on the frame of the last position or of the first
// backwards position jump. maxSeconds bounds songs that never end; zero
// means no bound.
func RenderSong(song *Song, sampleRate int, clock float64, maxSeconds float64) []float32 {
	var r *renderer
	end := -1
	r = newRenderer(song, sampleRate, intseq.Options{
		Clock:          clock,
		IgnoreSongLoop: true,
		OnEvent: func(intseq.EventKind) {
			if end < 0 {
				end = r.seq.Rendered()
			}
			r.finished.Store(true)
		},
	}, nil)
	limit := math.MaxInt
	if maxSeconds > 0 {
		limit = int(float64(sampleRate) * maxSeconds)
	}
	var out []float32
	for frames := 0; frames < limit && !r.Finished(); frames += renderBlock {
		n := min(renderBlock, limit-frames)
		start := len(out)
		out = append(out, make([]float32, n*2)...)
		r.Process(out[start:])
	}
	if end >= 0 && end*2 < len(out) {
		out = out[:end*2]
	}
	return out
}

// ApplyLEDFilter runs interleaved stereo samples through the Amiga LED
// lowpass in place.
func ApplyLEDFilter(samples []float32, sampleRate int) {
	f := intaudio.NewLEDFilter(sampleRate)
	f.SetEnabled(true)
	intaudio.NewChain(f).ProcessBuffer(samples)
}

// WriteWAV encodes interleaved float samples as integer PCM at bitDepth
// (16, 24 or 32). Samples are clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate, channels, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	if channels <= 0 {
		return fmt.Errorf("invalid channel count %d", channels)
	}
	const pcm = 1
	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, pcm)
	scale := float64(int64(1)<<(bitDepth-1) - 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitDepth,
	}
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		buf.Data[i] = int(math.Round(v * scale))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}
