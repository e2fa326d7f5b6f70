package mod

import (
	"strings"

	"github.com/cbegin/protracker-go/internal/binread"
)

type ParserConfig struct {
	// GuardFrame appends a copy of the last frame to each sample so that the
	// interpolator can address index Length. Without it very short loops play
	// noticeably sharp.
	GuardFrame bool
	// ZeroSongLoop ignores the restart byte and always loops to position 0.
	ZeroSongLoop bool
	// TolerateShortSamples clamps sample payloads that run past the end of
	// the file instead of failing with ErrTruncated.
	TolerateShortSamples bool
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{GuardFrame: true}
}

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser { return &Parser{cfg: cfg} }

// Parse decodes a whole module with the default configuration.
func Parse(data []byte) (*Song, error) {
	return NewParser(DefaultParserConfig()).Parse(data)
}

// Parse decodes a MOD file. It never retains data; sample audio is copied
// into float buffers.
func (p *Parser) Parse(data []byte) (*Song, error) {
	r := binread.New(data)
	if !r.Has(0, patternsOffset) {
		return nil, truncated(r.Len(), nil)
	}
	sig, err := r.String(sigOffset, 4)
	if err != nil {
		return nil, truncated(sigOffset, err)
	}
	channels := ChannelCount(sig)
	if channels == 0 {
		return nil, &FormatError{Kind: ErrUnsupported, Offset: sigOffset, Signature: sig}
	}
	song := &Song{
		Signature:      sig,
		Format:         FormatDescription(sig),
		ChannelCount:   channels,
		RowsPerPattern: RowsPerPattern(sig),
	}

	title, err := r.String(titleOffset, titleSize)
	if err != nil {
		return nil, truncated(titleOffset, err)
	}
	song.Title = strings.TrimSpace(strings.ReplaceAll(title, "\x00", " "))

	used, err := r.Uint8(songLenOffset)
	if err != nil {
		return nil, truncated(songLenOffset, err)
	}
	song.UsedSequenceLength = int(used)

	seq, err := readSequence(r)
	if err != nil {
		return nil, err
	}
	song.PatternSequence = seq

	restart, err := r.Uint8(restartOffset)
	if err != nil {
		return nil, truncated(restartOffset, err)
	}
	song.SongLoop = songLoopIndex(int(restart), song.PlayableLength(), p.cfg.ZeroSongLoop)

	patternCount := 0
	for _, idx := range seq {
		if idx+1 > patternCount {
			patternCount = idx + 1
		}
	}
	song.Patterns, err = readPatterns(r, patternCount, song.RowsPerPattern, channels)
	if err != nil {
		return nil, err
	}

	sampleData := patternsOffset + patternCount*song.RowsPerPattern*channels*bytesPerCell
	song.Samples = make([]Sample, SampleCount)
	for i := range song.Samples {
		hdrOff := samplesOffset + i*sampleHdrSize
		if err := readSampleHeader(r, hdrOff, &song.Samples[i]); err != nil {
			return nil, err
		}
		n, err := p.readSampleAudio(r, sampleData, &song.Samples[i])
		if err != nil {
			return nil, err
		}
		sampleData += n
	}
	return song, nil
}

// readSequence returns the 128-entry order table with its zero padding
// removed. Zeros before the last non-zero entry are real pattern indices.
func readSequence(r *binread.Reader) ([]int, error) {
	raw, err := r.Bytes(sequenceOffset, sequenceSlots)
	if err != nil {
		return nil, truncated(sequenceOffset, err)
	}
	last := 0
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i] != 0 {
			last = i
			break
		}
	}
	seq := make([]int, last+1)
	for i := range seq {
		seq[i] = int(raw[i])
	}
	return seq, nil
}

func songLoopIndex(restart, playable int, zero bool) int {
	if zero {
		return 0
	}
	if restart >= noLoopMarker || restart >= playable {
		return -1
	}
	return restart
}

func readPatterns(r *binread.Reader, count, rows, channels int) ([]Pattern, error) {
	size := count * rows * channels * bytesPerCell
	raw, err := r.Bytes(patternsOffset, size)
	if err != nil {
		return nil, truncated(patternsOffset, err)
	}
	patterns := make([]Pattern, count)
	off := 0
	for p := range patterns {
		pat := make(Pattern, rows)
		for row := range pat {
			cells := make([]Instruction, channels)
			for ch := range cells {
				cells[ch] = decodeCell(raw[off : off+bytesPerCell])
				off += bytesPerCell
			}
			pat[row] = cells
		}
		patterns[p] = pat
	}
	return patterns, nil
}

// decodeCell unpacks the 32-bit cell layout:
//
//	ssss pppp pppp pppp ssss eeee PPPP PPPP
//
// where s is the sample number split across bytes 0 and 2, p the 12-bit
// period, e the effect code and P its parameter.
func decodeCell(b []byte) Instruction {
	return Instruction{
		SampleIndex: int(b[0]&0xF0) | int(b[2]>>4),
		Period:      int(b[0]&0x0F)<<8 | int(b[1]),
		Effect:      NewEffectCode(b[2]&0x0F, b[3]),
	}
}

// fineTuneTable maps the 4-bit header nibble to a signed fine-tune.
var fineTuneTable = [16]int{0, 1, 2, 3, 4, 5, 6, 7, -8, -7, -6, -5, -4, -3, -2, -1}

func DecodeFineTune(nibble uint8) int { return fineTuneTable[nibble&0x0F] }

func readSampleHeader(r *binread.Reader, off int, s *Sample) error {
	name, err := r.String(off, 22)
	if err != nil {
		return truncated(off, err)
	}
	length, err := r.Uint16BE(off + 22)
	if err != nil {
		return truncated(off+22, err)
	}
	fine, err := r.Uint8(off + 24)
	if err != nil {
		return truncated(off+24, err)
	}
	vol, err := r.Uint8(off + 25)
	if err != nil {
		return truncated(off+25, err)
	}
	repOff, err := r.Uint16BE(off + 26)
	if err != nil {
		return truncated(off+26, err)
	}
	repLen, err := r.Uint16BE(off + 28)
	if err != nil {
		return truncated(off+28, err)
	}
	s.Name = name
	s.Length = int(length) * 2
	s.FineTune = DecodeFineTune(fine)
	s.Volume = min(int(vol), MaxVolume)
	s.RepeatOffset = int(repOff) * 2
	s.RepeatLength = int(repLen) * 2
	fixLoop(s)
	return nil
}

// fixLoop pulls a repeat window that overshoots the sample back inside it,
// first by moving its start and then by shortening it.
func fixLoop(s *Sample) {
	if !s.Loops() || s.End() <= s.Length {
		return
	}
	over := s.End() - s.Length
	s.RepeatOffset = max(s.RepeatOffset-over, 0)
	if s.End() > s.Length {
		s.RepeatLength = s.Length - s.RepeatOffset
	}
}

func (p *Parser) readSampleAudio(r *binread.Reader, off int, s *Sample) (int, error) {
	n := s.Length
	if !r.Has(off, n) {
		if !p.cfg.TolerateShortSamples {
			_, err := r.Bytes(off, n)
			return 0, truncated(off, err)
		}
		n = max(r.Len()-off, 0)
		s.Length = n
		fixLoop(s)
	}
	if n == 0 {
		return 0, nil
	}
	raw, _ := r.Bytes(off, n)
	size := n
	if p.cfg.GuardFrame {
		size++
	}
	audio := make([]float32, size)
	for i, b := range raw {
		audio[i] = float32(int8(b)) / 128.0
	}
	if p.cfg.GuardFrame {
		audio[n] = audio[n-1]
	}
	s.Audio = audio
	return n, nil
}
