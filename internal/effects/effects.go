// Package effects applies pattern-cell effect commands to a channel and to
// the playback position.
//
// An Effect is a plain value decoded once per row. The sequencer calls its
// hooks at fixed points: RowStart after the row's instruction is assigned,
// TickStart at the first frame of every tick, and RowEnd after the last frame
// of the row. Hooks that have nothing to do for a kind return immediately.
package effects

import (
	"fmt"

	"github.com/cbegin/protracker-go/internal/mod"
)

type Kind uint8

const (
	None Kind = iota
	Arpeggio
	PortamentoUp
	PortamentoDown
	TonePortamento
	Vibrato
	VolumeSlideTonePortamento
	VolumeSlideVibrato
	Tremolo
	SetSampleOffset
	VolumeSlide
	PositionJump
	SetVolume
	PatternBreak
	FinePortamentoUp
	FinePortamentoDown
	SetVibratoWaveform
	SetFineTune
	PatternLoop
	SetTremoloWaveform
	RetriggerNote
	FineVolumeSlideUp
	FineVolumeSlideDown
	NoteCut
	NoteDelay
	PatternDelay
	SetSpeed
)

var kindNames = [...]string{
	None:                      "none",
	Arpeggio:                  "arpeggio",
	PortamentoUp:              "portamento up",
	PortamentoDown:            "portamento down",
	TonePortamento:            "tone portamento",
	Vibrato:                   "vibrato",
	VolumeSlideTonePortamento: "volume slide + tone portamento",
	VolumeSlideVibrato:        "volume slide + vibrato",
	Tremolo:                   "tremolo",
	SetSampleOffset:           "set sample offset",
	VolumeSlide:               "volume slide",
	PositionJump:              "position jump",
	SetVolume:                 "set volume",
	PatternBreak:              "pattern break",
	FinePortamentoUp:          "fine portamento up",
	FinePortamentoDown:        "fine portamento down",
	SetVibratoWaveform:        "set vibrato waveform",
	SetFineTune:               "set fine-tune",
	PatternLoop:               "pattern loop",
	SetTremoloWaveform:        "set tremolo waveform",
	RetriggerNote:             "retrigger note",
	FineVolumeSlideUp:         "fine volume slide up",
	FineVolumeSlideDown:       "fine volume slide down",
	NoteCut:                   "note cut",
	NoteDelay:                 "note delay",
	PatternDelay:              "pattern delay",
	SetSpeed:                  "set speed",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Effect is one decoded effect command. P is the full parameter byte, X and
// Y its high and low nibbles.
type Effect struct {
	Kind Kind
	P    int
	X    int
	Y    int
}

var mainKinds = [16]Kind{
	mod.CodeArpeggio:                  Arpeggio,
	mod.CodePortamentoUp:              PortamentoUp,
	mod.CodePortamentoDown:            PortamentoDown,
	mod.CodeTonePortamento:            TonePortamento,
	mod.CodeVibrato:                   Vibrato,
	mod.CodeVolumeSlideTonePortamento: VolumeSlideTonePortamento,
	mod.CodeVolumeSlideVibrato:        VolumeSlideVibrato,
	mod.CodeTremolo:                   Tremolo,
	mod.CodeSetPanning:                None,
	mod.CodeSetSampleOffset:           SetSampleOffset,
	mod.CodeVolumeSlide:               VolumeSlide,
	mod.CodePositionJump:              PositionJump,
	mod.CodeSetVolume:                 SetVolume,
	mod.CodePatternBreak:              PatternBreak,
	mod.CodeExtended:                  None,
	mod.CodeSetSpeed:                  SetSpeed,
}

// Extended commands are selected by X; E0 (filter), E3 (glissando), E8
// (panning) and EF (invert loop) have no effect on playback here.
var extendedKinds = [16]Kind{
	0x1: FinePortamentoUp,
	0x2: FinePortamentoDown,
	0x4: SetVibratoWaveform,
	0x5: SetFineTune,
	0x6: PatternLoop,
	0x7: SetTremoloWaveform,
	0x9: RetriggerNote,
	0xA: FineVolumeSlideUp,
	0xB: FineVolumeSlideDown,
	0xC: NoteCut,
	0xD: NoteDelay,
	0xE: PatternDelay,
}

// FromCode maps a decoded cell effect to its Effect. Unknown commands, and
// a zero code with a zero parameter, yield Kind None.
func FromCode(code mod.EffectCode) Effect {
	if code.IsZero() {
		return Effect{}
	}
	e := Effect{P: int(code.Param), X: int(code.X), Y: int(code.Y)}
	c := code.Code & 0x0F
	if c == mod.CodeExtended {
		e.Kind = extendedKinds[code.X]
		// Extended commands carry their argument in the low nibble only.
		e.P = e.Y
	} else {
		e.Kind = mainKinds[c]
	}
	if e.Kind == None {
		return Effect{}
	}
	return e
}

// New decodes the effect of ins.
func New(ins mod.Instruction) Effect { return FromCode(ins.Effect) }

func (e Effect) IsNone() bool { return e.Kind == None }

// IsTonePortamento reports whether the effect slides to the row's note
// instead of retriggering it.
func (e Effect) IsTonePortamento() bool {
	return e.Kind == TonePortamento || e.Kind == VolumeSlideTonePortamento
}

func (e Effect) String() string {
	if e.Kind == None {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s %02X", e.Kind, e.P)
}
