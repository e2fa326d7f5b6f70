package sequencer

import (
	"math"

	"github.com/cbegin/protracker-go/internal/effects"
	"github.com/cbegin/protracker-go/internal/mod"
	"github.com/cbegin/protracker-go/internal/voice"
)

const (
	DefaultSpeed = 6
	DefaultTempo = 125
)

// EventKind identifies sequencer lifecycle events.
type EventKind int

const (
	// EventLoopCompleted fires when playback returns to an earlier position,
	// through the song loop or a backwards position jump.
	EventLoopCompleted EventKind = iota
	// EventPlaybackEnded fires once the last row has played and the song has
	// no loop point. The sequencer has already reset itself.
	EventPlaybackEnded
)

func (k EventKind) String() string {
	switch k {
	case EventLoopCompleted:
		return "loop"
	case EventPlaybackEnded:
		return "ended"
	}
	return "unknown"
}

type Options struct {
	// Clock is the Amiga clock rate in Hz; zero selects PAL.
	Clock float64
	// IgnoreSongLoop ends playback after the last position even when the
	// module names a loop point.
	IgnoreSongLoop bool
	OnEvent        func(EventKind)
}

// PlaybackState is the sequencer's position and timing.
type PlaybackState struct {
	Tempo                int
	Speed                int
	SamplesPerTick       int
	PatternSequenceIndex int
	RowIndex             int
	Tick                 int
	TickSamplePosition   int
	// PatternDelay is the number of ticks the current row is still held for.
	PatternDelay        int
	PatternLoopCount    int
	PatternLoopRowIndex int
}

func defaultState() PlaybackState {
	return PlaybackState{Tempo: DefaultTempo, Speed: DefaultSpeed}
}

var _ effects.Transport = (*Sequencer)(nil)

// Sequencer walks a song's pattern sequence and renders one buffer per
// channel. It is not safe for concurrent use; callers serialise commands
// against Process.
type Sequencer struct {
	song           *mod.Song
	sampleRate     int
	clock          float64
	ignoreSongLoop bool
	onEvent        func(EventKind)

	state    PlaybackState
	channels []*voice.Channel
	effects  []effects.Effect

	// holding is true while a pattern delay keeps the current row playing.
	holding bool
	// Set by row-end effects and cleared at the next row start.
	moved    bool
	jumped   bool
	broke    bool
	breakRow int
	ended    bool

	// rendered counts frames produced since construction; Reset keeps it.
	rendered int
}

func New(song *mod.Song, sampleRate int) *Sequencer {
	return NewWithOptions(song, sampleRate, Options{})
}

func NewWithOptions(song *mod.Song, sampleRate int, opts Options) *Sequencer {
	clock := opts.Clock
	if clock <= 0 {
		clock = voice.ClockPAL
	}
	s := &Sequencer{
		song:           song,
		sampleRate:     sampleRate,
		clock:          clock,
		ignoreSongLoop: opts.IgnoreSongLoop,
		onEvent:        opts.OnEvent,
		channels:       make([]*voice.Channel, song.ChannelCount),
		effects:        make([]effects.Effect, song.ChannelCount),
	}
	for i := range s.channels {
		s.channels[i] = voice.New(i, sampleRate, clock)
	}
	s.Reset()
	return s
}

// Reset rewinds to the first position with default speed and tempo and
// silences every channel.
func (s *Sequencer) Reset() {
	s.state = defaultState()
	s.state.SamplesPerTick = s.samplesPerTick(s.state.Tempo)
	for i, ch := range s.channels {
		ch.Reset()
		s.effects[i] = effects.Effect{}
	}
	s.clearRowFlags()
	s.holding = false
}

func (s *Sequencer) clearRowFlags() {
	s.moved = false
	s.jumped = false
	s.broke = false
	s.breakRow = 0
	s.ended = false
}

// samplesPerTick is round(sampleRate * 2.5 / tempo), never less than one so
// that the render loop always makes progress.
func (s *Sequencer) samplesPerTick(tempo int) int {
	if tempo <= 0 {
		tempo = DefaultTempo
	}
	return max(1, int(math.Round(float64(s.sampleRate)*2.5/float64(tempo))))
}

// Process fills every buffer in buffers, one per channel, with the next
// len(buffers[0]) frames. It returns false when the song ended inside this
// call; the remainder of each buffer is then silent and the sequencer has
// been reset for a replay.
func (s *Sequencer) Process(buffers [][]float32) bool {
	frames := 0
	if len(buffers) > 0 {
		frames = len(buffers[0])
	}
	st := &s.state
	pos := 0
	for pos < frames {
		if !s.holding {
			if st.Tick == 0 && st.TickSamplePosition == 0 {
				s.startRow()
			}
			if st.TickSamplePosition == 0 {
				s.startTick()
			}
		}

		n := min(st.SamplesPerTick-st.TickSamplePosition, frames-pos)
		for i, ch := range s.channels {
			if i < len(buffers) {
				ch.FillBuffer(buffers[i], pos, n)
			}
		}
		pos += n
		s.rendered += n
		st.TickSamplePosition += n
		if st.TickSamplePosition < st.SamplesPerTick {
			continue
		}

		if !s.endTick() {
			for _, b := range buffers {
				clear(b[min(pos, len(b)):])
			}
			s.Reset()
			s.emit(EventPlaybackEnded)
			return false
		}
	}
	return true
}

func (s *Sequencer) startRow() {
	s.clearRowFlags()
	pat, ok := s.song.PatternAt(s.state.PatternSequenceIndex)
	if !ok || s.state.RowIndex >= len(pat) {
		return
	}
	row := pat[s.state.RowIndex]
	for i, ch := range s.channels {
		var ins mod.Instruction
		if i < len(row) {
			ins = row[i]
		}
		e := effects.New(ins)
		s.effects[i] = e
		ch.SetInstruction(ins)

		if ins.SampleIndex > 0 && ins.SampleIndex <= len(s.song.Samples) {
			ch.SetSample(&s.song.Samples[ins.SampleIndex-1])
			ch.ResetVolume()
		}
		if ins.Period > 0 && !e.IsTonePortamento() {
			ch.ResetFineTune()
			ch.SetOriginalPeriod(ins.Period)
			ch.ResetSample()
		}
	}
	for i, ch := range s.channels {
		s.effects[i].RowStart(s, ch)
	}
}

func (s *Sequencer) startTick() {
	for i, ch := range s.channels {
		s.effects[i].TickStart(s, ch)
	}
}

// endTick moves past a fully rendered tick. It returns false when there is
// nowhere left to go.
func (s *Sequencer) endTick() bool {
	st := &s.state
	if s.holding {
		st.TickSamplePosition = 0
		st.PatternDelay--
		if st.PatternDelay > 0 {
			return true
		}
		s.holding = false
		return s.leaveRow()
	}
	if st.Tick+1 < st.Speed {
		return s.SetTick(st.Tick + 1)
	}

	for i, ch := range s.channels {
		s.effects[i].RowEnd(s, ch)
	}
	if s.ended {
		return false
	}
	st.TickSamplePosition = 0
	if st.PatternDelay > 0 {
		s.holding = true
		return true
	}
	return s.leaveRow()
}

// leaveRow continues at the position a row-end effect chose, or at the
// next row.
func (s *Sequencer) leaveRow() bool {
	st := &s.state
	st.PatternDelay = 0
	if s.moved {
		st.Tick = 0
		st.TickSamplePosition = 0
		return true
	}
	return s.advanceRow()
}

// Advance moves one tick forward: the next tick, else the next row, else
// the next pattern, else the song loop. It reports false at the end of the
// song.
func (s *Sequencer) Advance() bool {
	if s.SetTick(s.state.Tick + 1) {
		return true
	}
	return s.advanceRow()
}

func (s *Sequencer) advanceRow() bool {
	st := &s.state
	if s.moveToRow(st.RowIndex + 1) {
		return true
	}
	if s.SetPatternSequenceIndex(st.PatternSequenceIndex+1, false) {
		return true
	}
	return s.loopSong()
}

func (s *Sequencer) loopSong() bool {
	loop := s.SongLoopIndex()
	if loop < 0 || !s.SetPatternSequenceIndex(loop, false) {
		return false
	}
	s.emit(EventLoopCompleted)
	return true
}

func (s *Sequencer) emit(kind EventKind) {
	if s.onEvent != nil {
		s.onEvent(kind)
	}
}

func (s *Sequencer) Song() *mod.Song { return s.song }

func (s *Sequencer) SampleRate() int { return s.sampleRate }

// Rendered is the number of frames produced since the sequencer was built.
// Read from an event callback it is the frame the event happened at.
func (s *Sequencer) Rendered() int { return s.rendered }

// State returns a copy of the current playback state.
func (s *Sequencer) State() PlaybackState { return s.state }

// Channels exposes the channel voices for inspection.
func (s *Sequencer) Channels() []*voice.Channel { return s.channels }

// Effect returns the effect decoded for channel i on the current row.
func (s *Sequencer) Effect(i int) effects.Effect {
	if i < 0 || i >= len(s.effects) {
		return effects.Effect{}
	}
	return s.effects[i]
}

func (s *Sequencer) Clock() float64 { return s.clock }

// SetClock switches between PAL and NTSC pitch; playing notes retune at once.
func (s *Sequencer) SetClock(clock float64) {
	if clock <= 0 {
		return
	}
	s.clock = clock
	for _, ch := range s.channels {
		ch.SetClock(clock)
	}
}

// SongLoopIndex is the sequence index playback continues from after the
// last position, or -1.
func (s *Sequencer) SongLoopIndex() int {
	if s.ignoreSongLoop || !s.song.HasSongLoop() {
		return -1
	}
	return s.song.SongLoop
}
