package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource renders interleaved stereo float32 frames into dst.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// Backend is a real-time output device pulling from a SampleSource.
type Backend interface {
	Play()
	Pause()
	IsPlaying() bool
	// Position is how much audio the listener has heard so far.
	Position() time.Duration
	Close() error
}

const (
	BackendEbiten = "ebiten"
	BackendOto    = "oto"
)

// Open starts a paused backend of the named kind. An empty name selects
// ebiten.
func Open(kind string, sampleRate int, source SampleSource) (Backend, error) {
	switch kind {
	case "", BackendEbiten:
		return NewPlayer(sampleRate, source)
	case BackendOto:
		return NewOtoPlayer(sampleRate, source)
	}
	return nil, fmt.Errorf("unknown audio backend %q (expected %s|%s)", kind, BackendEbiten, BackendOto)
}

// StreamReader encodes a SampleSource as little-endian float32 stereo bytes.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
	frames atomic.Int64
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

const bytesPerFrame = 2 * 4

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, v := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	r.frames.Add(int64(frames))
	n := frames * bytesPerFrame
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

// Frames is the number of frames handed to the device so far.
func (r *StreamReader) Frames() int64 { return r.frames.Load() }

func (r *StreamReader) Close() error { return nil }

// Player is the ebiten backend.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// ebiten allows one audio context per process, at one sample rate.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{
		player: pl,
		reader: reader,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Close() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
