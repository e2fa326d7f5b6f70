package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer drives the device through oto directly, without the ebiten
// audio mixer in between.
type OtoPlayer struct {
	mu         sync.Mutex
	player     *oto.Player
	reader     *StreamReader
	sampleRate int
}

var (
	otoContextOnce sync.Once
	otoContext     *oto.Context
	otoContextErr  error
	otoSampleRate  int
)

func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoContextOnce.Do(func() {
		otoSampleRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoContextErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoSampleRate != sampleRate {
		return nil, fmt.Errorf("oto context already initialized at %d Hz (requested %d Hz)", otoSampleRate, sampleRate)
	}
	return otoContext, nil
}

func NewOtoPlayer(sampleRate int, source SampleSource) (*OtoPlayer, error) {
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	return &OtoPlayer{
		player:     ctx.NewPlayer(reader),
		reader:     reader,
		sampleRate: sampleRate,
	}, nil
}

func (p *OtoPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Play()
	}
}

func (p *OtoPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Pause()
	}
}

func (p *OtoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && p.player.IsPlaying()
}

// Position subtracts what oto still holds in its buffer from what has been
// read, which is what has reached the device.
func (p *OtoPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return 0
	}
	frames := p.reader.Frames() - int64(p.player.BufferedSize()/bytesPerFrame)
	if frames < 0 {
		frames = 0
	}
	return time.Duration(frames) * time.Second / time.Duration(p.sampleRate)
}

func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	p.player.Pause()
	err := p.player.Close()
	p.player = nil
	return err
}
