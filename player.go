package protracker

import (
	"errors"
	"fmt"
	"os"
	"sync"

	intaudio "github.com/cbegin/protracker-go/internal/audio"
	"github.com/cbegin/protracker-go/internal/mod"
	intseq "github.com/cbegin/protracker-go/internal/sequencer"
	"github.com/cbegin/protracker-go/internal/voice"
)

// PlaybackEvent carries playback events from Watch().
type PlaybackEvent struct {
	Kind int // EventLoopCompleted or EventPlaybackEnded
	// Position is the pattern sequence index playback continues from.
	Position int
}

const (
	EventLoopCompleted int = iota
	EventPlaybackEnded
)

const (
	ClockPAL  = voice.ClockPAL
	ClockNTSC = voice.ClockNTSC
)

var ErrNoSong = errors.New("no song loaded")

type PlayerOption func(*playerConfig)

type playerConfig struct {
	loopPlayback bool
	clock        float64
	backend      string
	sampleTap    func([]float32)
	ledFilter    bool
	parser       mod.ParserConfig
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		loopPlayback: true,
		clock:        ClockPAL,
		backend:      intaudio.BackendEbiten,
		parser:       mod.DefaultParserConfig(),
	}
}

// WithLoopPlayback keeps playing past the end of the song: from its loop
// point when it has one, otherwise from the start. When disabled playback
// ends after the last position or at the first backwards position jump.
func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopPlayback = enabled
	}
}

// WithClock selects the Amiga clock, ClockPAL or ClockNTSC.
func WithClock(clock float64) PlayerOption {
	return func(cfg *playerConfig) {
		if clock > 0 {
			cfg.clock = clock
		}
	}
}

// WithBackend selects the audio output: "ebiten" (default) or "oto".
func WithBackend(name string) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = name
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithLEDFilter starts playback with the Amiga output lowpass engaged.
func WithLEDFilter(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.ledFilter = enabled
	}
}

// WithParserConfig sets how Load, LoadFile and PlayFile decode modules.
func WithParserConfig(pc mod.ParserConfig) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.parser = pc
	}
}

// Player is the control surface for real-time playback of one song at a
// time. All methods are safe for concurrent use.
type Player struct {
	mu         sync.Mutex
	cfg        playerConfig
	parser     *mod.Parser
	sampleRate int
	song       *Song
	r          *renderer
	backend    intaudio.Backend
	volume     float32
	separation float32
	led        *intaudio.LEDFilter
	masterEQ   *intaudio.Equalizer

	doneMu sync.Mutex
	done   chan struct{}

	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.backend {
	case "", intaudio.BackendEbiten, intaudio.BackendOto:
	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.backend)
	}
	p := &Player{
		cfg:        cfg,
		parser:     mod.NewParser(cfg.parser),
		sampleRate: sampleRate,
		volume:     1,
		separation: 1,
		led:        intaudio.NewLEDFilter(sampleRate),
		masterEQ:   intaudio.NewEqualizer(sampleRate),
	}
	p.led.SetEnabled(cfg.ledFilter)
	return p, nil
}

// Load parses data and makes it the current song, stopping anything that
// was playing. A parse failure leaves the current song in place.
func (p *Player) Load(data []byte) error {
	song, err := p.parser.Parse(data)
	if err != nil {
		return err
	}
	p.LoadSong(song)
	return nil
}

func (p *Player) LoadSong(song *Song) {
	p.mu.Lock()
	p.closeBackendLocked()
	p.led.Reset()
	p.masterEQ.Reset()

	var r *renderer
	onEvent := func(kind intseq.EventKind) {
		p.handleEvent(r, kind)
	}
	r = newRenderer(song, p.sampleRate, intseq.Options{
		Clock:          p.cfg.clock,
		IgnoreSongLoop: !p.cfg.loopPlayback,
		OnEvent:        onEvent,
	}, intaudio.NewChain(p.led, p.masterEQ))
	r.sampleTap = p.cfg.sampleTap
	r.mixer.SetVolume(p.volume)
	r.mixer.SetSeparation(p.separation)
	p.song = song
	p.r = r
	p.mu.Unlock()

	p.signalDone()
}

// handleEvent runs on the audio goroutine inside renderer.Process, so it
// must not call back into the renderer or take p.mu.
func (p *Player) handleEvent(r *renderer, kind intseq.EventKind) {
	pos := r.seq.PatternSequenceIndex()
	switch kind {
	case intseq.EventLoopCompleted:
		if p.cfg.loopPlayback {
			p.sendEvent(PlaybackEvent{Kind: EventLoopCompleted, Position: pos})
			return
		}
		r.finished.Store(true)
	case intseq.EventPlaybackEnded:
		if p.cfg.loopPlayback {
			// The sequencer has already rewound to the first position.
			p.sendEvent(PlaybackEvent{Kind: EventLoopCompleted, Position: pos})
			return
		}
		r.finished.Store(true)
	}
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded, Position: pos})
	p.signalDone()
}

// LoadFile reads and loads the module at path with the player's parser
// configuration.
func (p *Player) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return p.Load(data)
}

// PlayFile loads and starts the module at path.
func (p *Player) PlayFile(path string) error {
	if err := p.LoadFile(path); err != nil {
		return err
	}
	return p.Play()
}

// Play starts or resumes the current song. A song that has ended plays
// again from the start.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.r == nil {
		return ErrNoSong
	}
	if p.r.finished.Load() {
		p.closeBackendLocked()
		p.r.do(func(seq *intseq.Sequencer) { seq.Reset() })
		p.r.finished.Store(false)
	}
	if p.backend == nil {
		backend, err := intaudio.Open(p.cfg.backend, p.sampleRate, p.r)
		if err != nil {
			return err
		}
		p.backend = backend
	}
	p.doneMu.Lock()
	if p.done == nil {
		p.done = make(chan struct{})
	}
	p.doneMu.Unlock()
	p.backend.Play()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backend != nil {
		p.backend.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.backend != nil {
		p.backend.Play()
	}
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backend != nil && p.backend.IsPlaying()
}

// Stop halts output and rewinds the song to its first position.
func (p *Player) Stop() error {
	p.mu.Lock()
	if p.backend == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.closeBackendLocked()
	r := p.r
	p.mu.Unlock()

	r.do(func(seq *intseq.Sequencer) { seq.Reset() })
	r.finished.Store(false)
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	p.signalDone()
	return err
}

func (p *Player) closeBackendLocked() error {
	if p.backend == nil {
		return nil
	}
	err := p.backend.Close()
	p.backend = nil
	return err
}

// Reset rewinds to the first position without changing whether audio is
// running.
func (p *Player) Reset() {
	p.withSequencer(func(seq *intseq.Sequencer) { seq.Reset() })
}

// SkipToPosition continues playback at pattern sequence position pos.
func (p *Player) SkipToPosition(pos int) bool {
	ok := false
	p.withSequencer(func(seq *intseq.Sequencer) { ok = seq.SkipToPosition(pos) })
	return ok
}

func (p *Player) NextPosition() bool {
	ok := false
	p.withSequencer(func(seq *intseq.Sequencer) {
		ok = seq.SkipToPosition(seq.PatternSequenceIndex() + 1)
	})
	return ok
}

func (p *Player) PreviousPosition() bool {
	ok := false
	p.withSequencer(func(seq *intseq.Sequencer) {
		ok = seq.SkipToPosition(seq.PatternSequenceIndex() - 1)
	})
	return ok
}

// Modules carry a single song; the subtrack commands exist for hosts that
// drive several formats through one interface and always fail here.
func (p *Player) HasSubtracks() bool {
	ok := false
	p.withSequencer(func(seq *intseq.Sequencer) { ok = seq.HasSubtracks() })
	return ok
}

func (p *Player) Subtrack() int {
	n := 0
	p.withSequencer(func(seq *intseq.Sequencer) { n = seq.Subtrack() })
	return n
}

func (p *Player) SetSubtrack(index int) bool {
	ok := false
	p.withSequencer(func(seq *intseq.Sequencer) { ok = seq.SetSubtrack(index) })
	return ok
}

func (p *Player) NextSubtrack() bool {
	ok := false
	p.withSequencer(func(seq *intseq.Sequencer) { ok = seq.NextSubtrack() })
	return ok
}

func (p *Player) PreviousSubtrack() bool {
	ok := false
	p.withSequencer(func(seq *intseq.Sequencer) { ok = seq.PreviousSubtrack() })
	return ok
}

func (p *Player) withSequencer(fn func(seq *intseq.Sequencer)) {
	p.mu.Lock()
	r := p.r
	p.mu.Unlock()
	if r != nil {
		r.do(fn)
	}
}

// Song returns the loaded song, or nil.
func (p *Player) Song() *Song {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.song
}

// Info describes the loaded song.
func (p *Player) Info() (SongInfo, error) {
	song := p.Song()
	if song == nil {
		return SongInfo{}, ErrNoSong
	}
	return Info(song), nil
}

// Status is a snapshot of the sequencer position.
type Status struct {
	Playing  bool
	Position int
	Pattern  int
	Row      int
	Tick     int
	Speed    int
	Tempo    int
}

func (p *Player) Status() Status {
	st := Status{Playing: p.IsPlaying()}
	p.withSequencer(func(seq *intseq.Sequencer) {
		s := seq.State()
		st.Position = s.PatternSequenceIndex
		if s.PatternSequenceIndex < len(seq.Song().PatternSequence) {
			st.Pattern = seq.Song().PatternSequence[s.PatternSequenceIndex]
		}
		st.Row = s.RowIndex
		st.Tick = s.Tick
		st.Speed = s.Speed
		st.Tempo = s.Tempo
	})
	return st
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

func (p *Player) signalDone() {
	p.doneMu.Lock()
	done := p.done
	p.done = nil
	p.doneMu.Unlock()
	if done != nil {
		close(done)
	}
}

// Wait blocks until the current playback ends. When loop playback is enabled,
// Wait blocks until Stop (use Watch for loop-counting instead).
// Wait returns immediately if nothing is playing.
func (p *Player) Wait() {
	p.doneMu.Lock()
	done := p.done
	p.doneMu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events. Events are sent when:
//   - EventLoopCompleted: playback returned to an earlier position (when looping)
//   - EventPlaybackEnded: playback finished or was stopped
//
// The channel is buffered (cap 8); receive in a goroutine to avoid missing events.
// Only the most recent Watch() channel receives events.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = float32(max(0, volume))
	if p.r != nil {
		p.r.mixer.SetVolume(p.volume)
	}
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.volume)
}

// SetStereoSeparation narrows the hard Amiga panning: 1 keeps it, 0 is mono.
func (p *Player) SetStereoSeparation(sep float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.separation = float32(min(1, max(0, sep)))
	if p.r != nil {
		p.r.mixer.SetSeparation(p.separation)
	}
}

func (p *Player) StereoSeparation() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.separation)
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
// This takes effect immediately on the audio thread (lock-free).
func (p *Player) SetEQBand(band int, gain float32) {
	p.masterEQ.SetGain(band, gain)
}

// EQBand returns the current gain for a master EQ band (0-4).
func (p *Player) EQBand(band int) float32 {
	return p.masterEQ.Gain(band)
}

// SetLEDFilter switches the Amiga output lowpass on or off.
func (p *Player) SetLEDFilter(on bool) { p.led.SetEnabled(on) }

func (p *Player) LEDFilter() bool { return p.led.Enabled() }

// SetClock retunes playback to the PAL or NTSC Amiga clock.
func (p *Player) SetClock(clock float64) {
	if clock <= 0 {
		return
	}
	p.mu.Lock()
	p.cfg.clock = clock
	p.mu.Unlock()
	p.withSequencer(func(seq *intseq.Sequencer) { seq.SetClock(clock) })
}

func (p *Player) Clock() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.clock
}

// PlaybackPosition returns the current output position of the audio driver,
// i.e. what the listener actually hears right now. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	b := p.backend
	p.mu.Unlock()
	if b == nil {
		return 0
	}
	pos := b.Position()
	return int64(pos.Seconds() * float64(p.sampleRate))
}
