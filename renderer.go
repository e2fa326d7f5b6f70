package protracker

import (
	"sync"
	"sync/atomic"

	intaudio "github.com/cbegin/protracker-go/internal/audio"
	intseq "github.com/cbegin/protracker-go/internal/sequencer"
)

// renderer drives a sequencer from the audio goroutine. It implements
// audio.FinishingSource; mu serialises control commands against Process.
type renderer struct {
	mu        sync.Mutex
	seq       *intseq.Sequencer
	mixer     *intaudio.Mixer
	chain     *intaudio.Chain
	sampleTap func([]float32)
	finished  atomic.Bool
}

func newRenderer(song *Song, sampleRate int, opts intseq.Options, chain *intaudio.Chain) *renderer {
	if chain == nil {
		chain = intaudio.NewChain()
	}
	return &renderer{
		seq:   intseq.NewWithOptions(song, sampleRate, opts),
		mixer: intaudio.NewMixer(song.ChannelCount),
		chain: chain,
	}
}

func (r *renderer) Process(dst []float32) {
	r.mu.Lock()
	if r.finished.Load() {
		clear(dst)
	} else {
		r.seq.Process(r.mixer.Buffers(len(dst) / 2))
		r.mixer.Downmix(dst)
		r.chain.ProcessBuffer(dst)
	}
	tap := r.sampleTap
	r.mu.Unlock()
	if tap != nil {
		tap(dst)
	}
}

func (r *renderer) Finished() bool { return r.finished.Load() }

// do runs fn against the sequencer between two Process calls.
func (r *renderer) do(fn func(seq *intseq.Sequencer)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.seq)
}
