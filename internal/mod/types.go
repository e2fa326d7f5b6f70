package mod

import "strings"

const (
	SampleCount    = 31
	MaxVolume      = 64
	sequenceSlots  = 128
	sampleHdrSize  = 30
	bytesPerCell   = 4
	titleOffset    = 0
	titleSize      = 20
	samplesOffset  = titleOffset + titleSize
	songLenOffset  = samplesOffset + sampleHdrSize*SampleCount
	restartOffset  = songLenOffset + 1
	sequenceOffset = restartOffset + 1
	sigOffset      = sequenceOffset + sequenceSlots
	patternsOffset = sigOffset + 4

	// noLoopMarker and above in the restart byte means the song does not loop.
	noLoopMarker = 127
)

// Extended (Exy) sub-commands live in the high nibble of the parameter.
const (
	CodeArpeggio                  = 0x0
	CodePortamentoUp              = 0x1
	CodePortamentoDown            = 0x2
	CodeTonePortamento            = 0x3
	CodeVibrato                   = 0x4
	CodeVolumeSlideTonePortamento = 0x5
	CodeVolumeSlideVibrato        = 0x6
	CodeTremolo                   = 0x7
	CodeSetPanning                = 0x8
	CodeSetSampleOffset           = 0x9
	CodeVolumeSlide               = 0xA
	CodePositionJump              = 0xB
	CodeSetVolume                 = 0xC
	CodePatternBreak              = 0xD
	CodeExtended                  = 0xE
	CodeSetSpeed                  = 0xF
)

// EffectCode is the decoded 12-bit effect field of a pattern cell.
// Param is the whole byte; X and Y are its high and low nibbles.
type EffectCode struct {
	Code  uint8
	Param uint8
	X     uint8
	Y     uint8
}

func NewEffectCode(code, param uint8) EffectCode {
	return EffectCode{Code: code & 0x0F, Param: param, X: param >> 4, Y: param & 0x0F}
}

// IsZero reports whether the cell carries no effect at all.
func (e EffectCode) IsZero() bool { return e.Code == 0 && e.Param == 0 }

// Instruction is one channel's cell in a pattern row. Zero SampleIndex and
// Period mean "no change".
type Instruction struct {
	SampleIndex int
	Period      int
	Effect      EffectCode
}

func (i Instruction) HasEffect() bool { return !i.Effect.IsZero() }

type Sample struct {
	// Name is the raw 22-byte header field including NUL padding.
	Name         string
	Length       int
	FineTune     int
	Volume       int
	RepeatOffset int
	RepeatLength int
	// Audio holds Length frames in [-1, 1) plus, when the parser adds it, one
	// guard frame duplicating the last so that index Length is addressable.
	Audio []float32
}

func (s *Sample) DisplayName() string {
	return strings.TrimSpace(strings.ReplaceAll(s.Name, "\x00", " "))
}

// Loops reports whether the sample has a repeat window. Repeat lengths of two
// frames or fewer are the tracker convention for "one-shot".
func (s *Sample) Loops() bool { return s.RepeatLength > 2 }

// End is the position at which playback wraps or stops.
func (s *Sample) End() int {
	if s.Loops() {
		return s.RepeatOffset + s.RepeatLength
	}
	return s.Length
}

type Pattern [][]Instruction

// Song is immutable after Parse returns it.
type Song struct {
	Title              string
	Signature          string
	Format             string
	ChannelCount       int
	RowsPerPattern     int
	Patterns           []Pattern
	PatternSequence    []int
	UsedSequenceLength int
	// SongLoop is the sequence index playback returns to after the last
	// position; -1 means the song ends instead.
	SongLoop int
	Samples  []Sample
}

func (s *Song) PatternCount() int { return len(s.Patterns) }

func (s *Song) HasSongLoop() bool { return s.SongLoop >= 0 }

// PlayableLength is the number of pattern-sequence positions playback may
// visit: the trimmed sequence, further bounded by the header's song length
// when that is set.
func (s *Song) PlayableLength() int {
	n := len(s.PatternSequence)
	if s.UsedSequenceLength > 0 && s.UsedSequenceLength < n {
		n = s.UsedSequenceLength
	}
	return n
}

// PatternAt returns the pattern played at sequence position pos.
func (s *Song) PatternAt(pos int) (Pattern, bool) {
	if pos < 0 || pos >= s.PlayableLength() {
		return nil, false
	}
	idx := s.PatternSequence[pos]
	if idx < 0 || idx >= len(s.Patterns) {
		return nil, false
	}
	return s.Patterns[idx], true
}
