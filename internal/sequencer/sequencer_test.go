package sequencer

import (
	"testing"

	"github.com/cbegin/protracker-go/internal/mod"
	"github.com/cbegin/protracker-go/internal/mod/modtest"
	"github.com/cbegin/protracker-go/internal/voice"
)

// At 1000Hz and the default tempo of 125 a tick is 20 frames and a row of
// six ticks is 120 frames.
const (
	testRate     = 1000
	tickFrames   = 20
	rowFrames    = 6 * tickFrames
	noSongLoop   = 127
	testChannels = 4
)

func parse(t testing.TB, b *modtest.Builder) *mod.Song {
	t.Helper()
	song, err := mod.Parse(b.Bytes())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return song
}

func buffers(frames int) [][]float32 {
	out := make([][]float32, testChannels)
	for i := range out {
		out[i] = make([]float32, frames)
	}
	return out
}

func squareSample() modtest.SampleSpec {
	data := make([]int8, 64)
	for i := range data {
		if i%8 < 4 {
			data[i] = 100
		} else {
			data[i] = -100
		}
	}
	return modtest.SampleSpec{Name: "square", Volume: 64, RepeatOffset: 0, RepeatLength: 64, Data: data}
}

// rows builds a pattern with one cell on channel 0 at each given row.
func rows(cells map[int]modtest.Cell) [][]modtest.Cell {
	out := make([][]modtest.Cell, 64)
	for r, c := range cells {
		out[r] = []modtest.Cell{c}
	}
	return out
}

type eventLog struct{ kinds []EventKind }

func (l *eventLog) record(k EventKind) { l.kinds = append(l.kinds, k) }

func (l *eventLog) count(k EventKind) int {
	n := 0
	for _, got := range l.kinds {
		if got == k {
			n++
		}
	}
	return n
}

func TestSetTickBounds(t *testing.T) {
	seq := New(parse(t, &modtest.Builder{Sequence: []int{0}}), testRate)
	if seq.Speed() != 6 {
		t.Fatalf("default speed = %d", seq.Speed())
	}
	before := seq.State()
	if seq.SetTick(6) || seq.SetTick(-1) {
		t.Fatalf("out-of-range tick accepted")
	}
	if seq.State() != before {
		t.Fatalf("failed SetTick changed state: %+v", seq.State())
	}
	if !seq.SetTick(5) || seq.Tick() != 5 {
		t.Fatalf("SetTick(5) failed")
	}
}

func TestSamplesPerTick(t *testing.T) {
	song := parse(t, &modtest.Builder{Sequence: []int{0}})
	seq := New(song, 44100)
	if seq.SamplesPerTick() != 882 {
		t.Fatalf("samples per tick = %d, want 882", seq.SamplesPerTick())
	}
	seq.SetTempo(150)
	if seq.SamplesPerTick() != 735 {
		t.Fatalf("samples per tick at 150 BPM = %d, want 735", seq.SamplesPerTick())
	}
	seq.SetTempo(0)
	if seq.Tempo() != 150 {
		t.Fatalf("zero tempo accepted")
	}
	if New(song, 1).SamplesPerTick() != 1 {
		t.Fatalf("samples per tick must never drop below one")
	}
}

func TestProcessPlaysToEndAndResets(t *testing.T) {
	song := parse(t, &modtest.Builder{Sequence: []int{0}, Restart: noSongLoop})
	var log eventLog
	seq := NewWithOptions(song, testRate, Options{OnEvent: log.record})
	buf := buffers(100)
	calls := 0
	for seq.Process(buf) {
		calls++
		if calls > 1000 {
			t.Fatalf("song never ended")
		}
	}
	// 64 rows of 120 frames end inside the 77th buffer.
	if calls != 76 {
		t.Fatalf("song ended after %d full buffers, want 76", calls)
	}
	if log.count(EventPlaybackEnded) != 1 || log.count(EventLoopCompleted) != 0 {
		t.Fatalf("unexpected events %v", log.kinds)
	}
	st := seq.State()
	if st.PatternSequenceIndex != 0 || st.RowIndex != 0 || st.Tick != 0 || st.TickSamplePosition != 0 {
		t.Fatalf("sequencer not reset: %+v", st)
	}
}

func TestRenderedMarksEventFrame(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0},
		Restart:  noSongLoop,
		Patterns: [][][]modtest.Cell{rows(map[int]modtest.Cell{1: {Effect: 0xB}})},
	})
	var seq *Sequencer
	at := -1
	seq = NewWithOptions(song, testRate, Options{OnEvent: func(EventKind) {
		if at < 0 {
			at = seq.Rendered()
		}
	}})
	for i := 0; i < 3; i++ {
		seq.Process(buffers(100))
	}
	if at != 2*rowFrames {
		t.Fatalf("event at frame %d, want %d", at, 2*rowFrames)
	}
	if seq.Rendered() != 300 {
		t.Fatalf("rendered = %d, want 300", seq.Rendered())
	}
}

func TestSongLoopContinues(t *testing.T) {
	song := parse(t, &modtest.Builder{Sequence: []int{0, 1}, Restart: 1})
	var log eventLog
	seq := NewWithOptions(song, testRate, Options{OnEvent: log.record})
	buf := buffers(64 * rowFrames)
	for i := 0; i < 3; i++ {
		if !seq.Process(buf) {
			t.Fatalf("looping song reported its end")
		}
	}
	if log.count(EventLoopCompleted) != 2 {
		t.Fatalf("loop events = %d, want 2", log.count(EventLoopCompleted))
	}
	if seq.PatternSequenceIndex() != 1 {
		t.Fatalf("position = %d, want loop point 1", seq.PatternSequenceIndex())
	}

	ignoring := NewWithOptions(song, testRate, Options{IgnoreSongLoop: true})
	ignoring.Process(buf)
	if ignoring.Process(buf) {
		t.Fatalf("IgnoreSongLoop should end after the last position")
	}
}

func TestAdvance(t *testing.T) {
	seq := New(parse(t, &modtest.Builder{Sequence: []int{0, 1}, Restart: noSongLoop}), testRate)
	seq.SetTick(5)
	if !seq.Advance() || seq.RowIndex() != 1 || seq.Tick() != 0 {
		t.Fatalf("advance from last tick: row %d tick %d", seq.RowIndex(), seq.Tick())
	}
	seq.SetRowIndex(63)
	seq.SetTick(5)
	if !seq.Advance() || seq.PatternSequenceIndex() != 1 || seq.RowIndex() != 0 {
		t.Fatalf("advance from last row: position %d row %d", seq.PatternSequenceIndex(), seq.RowIndex())
	}
	seq.SetRowIndex(63)
	seq.SetTick(5)
	if seq.Advance() {
		t.Fatalf("advance past the last position should report the end")
	}
}

func TestPositionJump(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0, 1, 2},
		Restart:  noSongLoop,
		Patterns: [][][]modtest.Cell{
			rows(map[int]modtest.Cell{0: {Effect: 0xB, Param: 2}}),
			rows(map[int]modtest.Cell{0: {Effect: 0xB, Param: 9}}),
		},
	})
	seq := New(song, testRate)
	seq.Process(buffers(rowFrames))
	if seq.PatternSequenceIndex() != 2 || seq.RowIndex() != 0 {
		t.Fatalf("jump to 2 landed on %d row %d", seq.PatternSequenceIndex(), seq.RowIndex())
	}

	seq.SetPatternSequenceIndex(1, false)
	seq.Process(buffers(rowFrames))
	if seq.PatternSequenceIndex() != 0 {
		t.Fatalf("invalid jump landed on %d, want 0", seq.PatternSequenceIndex())
	}
}

func TestPatternBreak(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0, 1},
		Restart:  noSongLoop,
		Patterns: [][][]modtest.Cell{
			rows(map[int]modtest.Cell{0: {Effect: 0xD, Param: 0x05}}),
			rows(map[int]modtest.Cell{5: {Effect: 0xD, Param: 0x00}}),
		},
	})
	seq := New(song, testRate)
	seq.Process(buffers(rowFrames))
	if seq.PatternSequenceIndex() != 1 || seq.RowIndex() != 5 || seq.Tick() != 0 {
		t.Fatalf("break landed on %d row %d tick %d", seq.PatternSequenceIndex(), seq.RowIndex(), seq.Tick())
	}
	// Breaking out of the last pattern without a loop point ends the song.
	if seq.Process(buffers(rowFrames + 1)) {
		t.Fatalf("break past the last pattern should end the song")
	}
}

func TestBreakAndJumpOnSameRow(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0, 1, 2},
		Patterns: [][][]modtest.Cell{{
			{{Effect: 0xD, Param: 0x10}, {Effect: 0xB, Param: 2}},
		}},
	})
	seq := New(song, testRate)
	seq.Process(buffers(rowFrames))
	if seq.PatternSequenceIndex() != 2 || seq.RowIndex() != 10 {
		t.Fatalf("break+jump landed on %d row %d, want 2 row 10", seq.PatternSequenceIndex(), seq.RowIndex())
	}
}

func TestPatternDelayHoldsRow(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0},
		Patterns: [][][]modtest.Cell{rows(map[int]modtest.Cell{0: {Effect: 0xE, Param: 0xE2}})},
	})
	seq := New(song, testRate)
	hold := 2 * 6 * tickFrames
	seq.Process(buffers(rowFrames + hold - 1))
	if seq.RowIndex() != 0 {
		t.Fatalf("row %d before the delay ran out", seq.RowIndex())
	}
	seq.Process(buffers(1))
	if seq.RowIndex() != 1 {
		t.Fatalf("row %d after the delay, want 1", seq.RowIndex())
	}
	seq.Process(buffers(rowFrames))
	if seq.RowIndex() != 2 {
		t.Fatalf("delay repeated on the next row: row %d", seq.RowIndex())
	}
}

func TestPatternLoop(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0},
		Patterns: [][][]modtest.Cell{rows(map[int]modtest.Cell{
			2: {Effect: 0xE, Param: 0x60},
			3: {Effect: 0xE, Param: 0x62},
		})},
	})
	seq := New(song, testRate)
	want := []int{1, 2, 3, 2, 3, 2, 3, 4, 5}
	for i, w := range want {
		seq.Process(buffers(rowFrames))
		if seq.RowIndex() != w {
			t.Fatalf("after row %d: at row %d, want %d", i, seq.RowIndex(), w)
		}
	}
}

func TestSetSpeedShortensRows(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0},
		Patterns: [][][]modtest.Cell{rows(map[int]modtest.Cell{0: {Effect: 0xF, Param: 0x03}})},
	})
	seq := New(song, testRate)
	seq.Process(buffers(3 * tickFrames))
	if seq.Speed() != 3 || seq.RowIndex() != 1 {
		t.Fatalf("speed %d row %d, want speed 3 on row 1", seq.Speed(), seq.RowIndex())
	}
}

func TestNoteRendersOnItsChannel(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0},
		Samples:  []modtest.SampleSpec{squareSample()},
		Patterns: [][][]modtest.Cell{rows(map[int]modtest.Cell{0: {Sample: 1, Period: 428}})},
	})
	seq := New(song, 8000)
	buf := buffers(512)
	seq.Process(buf)

	var energy float64
	for _, v := range buf[0] {
		energy += float64(v * v)
	}
	if energy == 0 {
		t.Fatalf("expected audio on channel 0")
	}
	for c := 1; c < testChannels; c++ {
		for _, v := range buf[c] {
			if v != 0 {
				t.Fatalf("channel %d should be silent", c)
			}
		}
	}
	ch := seq.Channels()[0]
	if ch.Volume() != 64 || ch.OriginalPeriod() != 428 || ch.Sample() != &song.Samples[0] {
		t.Fatalf("channel state after note: volume %f period %f", ch.Volume(), ch.OriginalPeriod())
	}
}

func TestTonePortamentoDoesNotRetrigger(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0},
		Samples:  []modtest.SampleSpec{squareSample()},
		Patterns: [][][]modtest.Cell{rows(map[int]modtest.Cell{
			0: {Sample: 1, Period: 428},
			1: {Period: 214, Effect: 0x3, Param: 0xFF},
		})},
	})
	seq := New(song, testRate)
	seq.Process(buffers(rowFrames + 1))
	ch := seq.Channels()[0]
	if ch.OriginalPeriod() != 428 {
		t.Fatalf("tone portamento replaced the note: %f", ch.OriginalPeriod())
	}
	if ch.SlideTarget() != 214 {
		t.Fatalf("slide target = %f, want 214", ch.SlideTarget())
	}
	seq.Process(buffers(rowFrames - 1))
	if ch.Period() != 214 {
		t.Fatalf("period after a fast slide = %f, want 214", ch.Period())
	}
}

func TestNavigation(t *testing.T) {
	seq := New(parse(t, &modtest.Builder{Sequence: []int{0, 1}}), testRate)
	if seq.PreviousTick() || seq.PreviousRow() || seq.PreviousPattern() {
		t.Fatalf("moved before the first position")
	}
	seq.SetRowIndex(63)
	if !seq.NextRow() || seq.PatternSequenceIndex() != 1 || seq.RowIndex() != 0 {
		t.Fatalf("next row did not cross into the next pattern")
	}
	if !seq.PreviousTick() || seq.PatternSequenceIndex() != 0 || seq.RowIndex() != 63 || seq.Tick() != 5 {
		t.Fatalf("previous tick landed on %d/%d/%d", seq.PatternSequenceIndex(), seq.RowIndex(), seq.Tick())
	}
	if !seq.NextTick() || seq.PatternSequenceIndex() != 1 {
		t.Fatalf("next tick from the last tick should reach the next pattern")
	}
	if !seq.SkipToPosition(0) || seq.PatternSequenceIndex() != 0 || seq.SkipToPosition(2) {
		t.Fatalf("skip to position misbehaved")
	}
	if seq.HasSubtracks() || seq.NextSubtrack() || seq.PreviousSubtrack() || seq.SetSubtrack(1) {
		t.Fatalf("subtracks must be unsupported")
	}
}

func TestSetRowIndexForgetsLoopMark(t *testing.T) {
	seq := New(parse(t, &modtest.Builder{Sequence: []int{0}}), testRate)
	seq.SetPatternLoopRowIndex(7)
	if !seq.SetRowIndex(10) || seq.PatternLoopRowIndex() != 0 {
		t.Fatalf("loop mark survived SetRowIndex")
	}
	if seq.SetRowIndex(64) {
		t.Fatalf("row 64 accepted in a 64-row pattern")
	}
}

func TestSetClockRetunes(t *testing.T) {
	song := parse(t, &modtest.Builder{
		Sequence: []int{0},
		Samples:  []modtest.SampleSpec{squareSample()},
		Patterns: [][][]modtest.Cell{rows(map[int]modtest.Cell{0: {Sample: 1, Period: 428}})},
	})
	seq := New(song, testRate)
	seq.Process(buffers(1))
	pal := seq.Channels()[0].Frequency()
	seq.SetClock(voice.ClockNTSC)
	if ntsc := seq.Channels()[0].Frequency(); ntsc <= pal {
		t.Fatalf("NTSC frequency %f not above PAL %f", ntsc, pal)
	}
}

func TestRowPosition(t *testing.T) {
	seq := New(parse(t, &modtest.Builder{Sequence: []int{0}}), testRate)
	seq.Process(buffers(3*tickFrames + tickFrames/2))
	if got, want := seq.RowPosition(), 3.5/6; got != want {
		t.Fatalf("row position = %f, want %f", got, want)
	}
}
