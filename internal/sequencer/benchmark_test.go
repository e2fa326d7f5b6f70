package sequencer

import (
	"testing"

	"github.com/cbegin/protracker-go/internal/mod/modtest"
)

func BenchmarkSequencerProcess(b *testing.B) {
	cells := map[int]modtest.Cell{}
	for r := 0; r < 64; r += 4 {
		cells[r] = modtest.Cell{Sample: 1, Period: 428 - r, Effect: 0x4, Param: 0x48}
	}
	song := parse(b, &modtest.Builder{
		Sequence: []int{0},
		Samples:  []modtest.SampleSpec{squareSample()},
		Patterns: [][][]modtest.Cell{rows(cells)},
	})
	out := make([][]float32, song.ChannelCount)
	for i := range out {
		out[i] = make([]float32, 2048)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		seq := New(song, 48000)
		seq.Process(out)
	}
}
