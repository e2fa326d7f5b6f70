package effects

import (
	"math"

	"github.com/cbegin/protracker-go/internal/lfo"
	"github.com/cbegin/protracker-go/internal/mod"
	"github.com/cbegin/protracker-go/internal/voice"
)

// Transport is the part of the sequencer that effects may read or move.
type Transport interface {
	Tick() int
	Speed() int
	RowIndex() int
	// RowPosition is the fraction of the current row already played, [0, 1).
	RowPosition() float64

	SetSpeed(ticksPerRow int)
	SetTempo(bpm int)

	// JumpToPosition moves to a pattern-sequence index, falling back to 0
	// when the index is invalid.
	JumpToPosition(index int)
	// BreakToRow continues at row of the next pattern.
	BreakToRow(row int)
	// LoopToRow moves within the current pattern and keeps the pattern-loop
	// bookkeeping intact.
	LoopToRow(row int)
	SetPatternDelay(ticks int)

	PatternLoopCount() int
	SetPatternLoopCount(n int)
	PatternLoopRowIndex() int
	SetPatternLoopRowIndex(row int)
}

// RowStart runs once after the row's instruction has been assigned to ch.
func (e Effect) RowStart(t Transport, ch *voice.Channel) {
	switch e.Kind {
	case TonePortamento:
		startTonePortamento(ch, e.P)
	case Vibrato:
		startOscillator(t, ch.Vibrato(), ch.Period(), e.X, e.Y)
	case VolumeSlideTonePortamento:
		startTonePortamento(ch, 0)
	case VolumeSlideVibrato:
		startOscillator(t, ch.Vibrato(), ch.Period(), 0, 0)
	case Tremolo:
		startOscillator(t, ch.Tremolo(), ch.Volume(), e.X, e.Y)
	case SetSampleOffset:
		ch.SetSamplePosition(float64(256 * e.P))
	case SetVolume:
		ch.SetVolume(float64(min(e.P, mod.MaxVolume)))
	case SetVibratoWaveform:
		setWaveform(ch.Vibrato(), e.Y)
	case SetTremoloWaveform:
		setWaveform(ch.Tremolo(), e.Y)
	case SetFineTune:
		if ch.Instruction().Period != 0 {
			ft := e.Y
			if ft >= 8 {
				ft -= 16
			}
			ch.SetFineTune(ft)
		}
	case FineVolumeSlideUp:
		slideVolume(ch, float64(e.Y))
	case FineVolumeSlideDown:
		slideVolume(ch, -float64(e.Y))
	case SetSpeed:
		switch {
		case e.P == 0:
		case e.P <= 31:
			t.SetSpeed(e.P)
		default:
			t.SetTempo(e.P)
		}
	}
}

// TickStart runs at the first frame of every tick of the row, tick 0
// included.
func (e Effect) TickStart(t Transport, ch *voice.Channel) {
	tick := t.Tick()
	switch e.Kind {
	case Arpeggio:
		base := ch.FineTunedPeriod()
		if base <= 0 {
			return
		}
		switch tick % 3 {
		case 0:
			ch.ResetPeriod()
		case 1:
			ch.SetPeriod(base / math.Pow(2, float64(e.X)/12))
		case 2:
			ch.SetPeriod(base / math.Pow(2, float64(e.Y)/12))
		}
	case PortamentoUp:
		if tick > 0 {
			slidePeriod(ch, -float64(e.P))
		}
	case PortamentoDown:
		if tick > 0 {
			slidePeriod(ch, float64(e.P))
		}
	case TonePortamento:
		stepTonePortamento(ch)
	case Vibrato:
		applyVibrato(t, ch)
	case VolumeSlideTonePortamento:
		if tick > 0 {
			slideVolume(ch, float64(e.X-e.Y))
		}
		stepTonePortamento(ch)
	case VolumeSlideVibrato:
		if tick > 0 {
			slideVolume(ch, float64(e.X-e.Y))
		}
		applyVibrato(t, ch)
	case Tremolo:
		tr := ch.Tremolo()
		ch.SetVolume(clampVolume(tr.Value(t.RowPosition())))
	case VolumeSlide:
		if tick > 0 {
			slideVolume(ch, float64(e.X-e.Y))
		}
	case RetriggerNote:
		if e.Y > 0 && tick%e.Y == 0 {
			ch.Retrigger()
		}
	case NoteCut:
		if tick == e.Y {
			ch.SetVolume(0)
		}
	case NoteDelay:
		if ch.Instruction().Period == 0 {
			return
		}
		if tick < e.Y {
			ch.EndSample()
		} else if tick == e.Y {
			ch.ResetSample()
		}
	}
}

// RowEnd runs once after the last frame of the row, before the sequencer
// advances.
func (e Effect) RowEnd(t Transport, ch *voice.Channel) {
	switch e.Kind {
	case Arpeggio:
		if ch.FineTunedPeriod() > 0 {
			ch.ResetPeriod()
		}
	case Vibrato, VolumeSlideVibrato:
		endOscillator(ch.Vibrato(), ch.SetPeriod)
	case Tremolo:
		endOscillator(ch.Tremolo(), ch.SetVolume)
	case PositionJump:
		t.JumpToPosition(e.P)
	case PatternBreak:
		t.BreakToRow(10*e.X + e.Y)
	case FinePortamentoUp:
		slidePeriod(ch, -float64(e.Y))
	case FinePortamentoDown:
		slidePeriod(ch, float64(e.Y))
	case PatternLoop:
		loopPattern(t, e.Y)
	case PatternDelay:
		t.SetPatternDelay(e.Y * t.Speed())
	}
}

func startTonePortamento(ch *voice.Channel, rate int) {
	if rate > 0 {
		ch.SetSlideRate(float64(rate))
	}
	if p := ch.Instruction().Period; p != 0 {
		ch.SetSlideTarget(voice.FineTunedPeriod(float64(p), ch.FineTune()))
	}
}

func stepTonePortamento(ch *voice.Channel) {
	target, period := ch.SlideTarget(), ch.Period()
	if target <= 0 || period <= 0 {
		return
	}
	switch {
	case period > target:
		ch.SetPeriod(max(period-ch.SlideRate(), target))
	case period < target:
		ch.SetPeriod(min(period+ch.SlideRate(), target))
	}
}

// startOscillator centres o on value and applies any non-zero speed x and
// depth y; zeros continue with the previous settings.
func startOscillator(t Transport, o *lfo.Oscillator, value float64, x, y int) {
	o.SetOriginalValue(value)
	if x > 0 {
		o.SetOscillationsPerRow(float64(x*(t.Speed()-1)) / 64)
	}
	if y > 0 {
		o.SetAmplitude(float64(y * 2))
	}
}

func applyVibrato(t Transport, ch *voice.Channel) {
	v := ch.Vibrato()
	if v.OriginalValue() <= 0 {
		return
	}
	ch.SetPeriod(v.Value(t.RowPosition()))
}

func endOscillator(o *lfo.Oscillator, restore func(float64)) {
	if !o.Retrigger() {
		o.Advance()
	}
	restore(o.OriginalValue())
}

// setWaveform decodes an E4y/E7y argument: the low two bits pick the wave
// and values 4-7 keep the phase running across notes.
func setWaveform(o *lfo.Oscillator, y int) {
	o.SetWaveform(lfo.Waveform(y & 3))
	o.SetRetrigger(y < 4)
}

// slidePeriod clamps only in the direction of travel, so fine-tuned notes
// just outside [MinPeriod, MaxPeriod] still move by delta.
func slidePeriod(ch *voice.Channel, delta float64) {
	p := ch.Period()
	if p <= 0 {
		return
	}
	next := p + delta
	switch {
	case delta < 0 && p >= mod.MinPeriod:
		next = math.Max(next, mod.MinPeriod)
	case delta > 0 && p <= mod.MaxPeriod:
		next = math.Min(next, mod.MaxPeriod)
	}
	ch.SetPeriod(next)
}

func slideVolume(ch *voice.Channel, delta float64) {
	ch.SetVolume(clampVolume(ch.Volume() + delta))
}

func clampVolume(v float64) float64 {
	return math.Max(0, math.Min(mod.MaxVolume, v))
}

// loopPattern plays the rows since the E60 mark count+1 times in total.
func loopPattern(t Transport, count int) {
	if count == 0 {
		t.SetPatternLoopRowIndex(t.RowIndex())
		return
	}
	remaining := t.PatternLoopCount()
	if remaining == 0 {
		t.SetPatternLoopCount(count)
		t.LoopToRow(t.PatternLoopRowIndex())
		return
	}
	remaining--
	t.SetPatternLoopCount(remaining)
	if remaining > 0 {
		t.LoopToRow(t.PatternLoopRowIndex())
	}
}
