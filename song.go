package protracker

import (
	"os"

	"github.com/cbegin/protracker-go/internal/mod"
)

type (
	Song         = mod.Song
	Sample       = mod.Sample
	Pattern      = mod.Pattern
	Instruction  = mod.Instruction
	EffectCode   = mod.EffectCode
	FormatError  = mod.FormatError
	ParserConfig = mod.ParserConfig
	Parser       = mod.Parser
)

var (
	ErrUnsupported = mod.ErrUnsupported
	ErrTruncated   = mod.ErrTruncated
)

func DefaultParserConfig() ParserConfig { return mod.DefaultParserConfig() }

// Parse decodes a MOD file with the default parser configuration.
func Parse(data []byte) (*Song, error) {
	return mod.Parse(data)
}

func NewParser(cfg ParserConfig) *Parser { return mod.NewParser(cfg) }

func ParseFile(path string) (*Song, error) {
	return ParseFileWithConfig(path, DefaultParserConfig())
}

func ParseFileWithConfig(path string, cfg ParserConfig) (*Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return mod.NewParser(cfg).Parse(data)
}

// SongInfo summarises a parsed song for display.
type SongInfo struct {
	Title           string       `yaml:"title"`
	Signature       string       `yaml:"signature"`
	Format          string       `yaml:"format"`
	Channels        int          `yaml:"channels"`
	Patterns        int          `yaml:"patterns"`
	SequenceLength  int          `yaml:"sequence_length"`
	PatternSequence []int        `yaml:"pattern_sequence,flow"`
	SongLoop        int          `yaml:"song_loop"`
	Samples         []SampleInfo `yaml:"samples"`
}

type SampleInfo struct {
	Index        int    `yaml:"index"`
	Name         string `yaml:"name"`
	Length       int    `yaml:"length"`
	FineTune     int    `yaml:"finetune"`
	Volume       int    `yaml:"volume"`
	RepeatOffset int    `yaml:"repeat_offset,omitempty"`
	RepeatLength int    `yaml:"repeat_length,omitempty"`
}

// Info describes song. Samples with neither a name nor audio are left out.
func Info(song *Song) SongInfo {
	info := SongInfo{
		Title:           song.Title,
		Signature:       song.Signature,
		Format:          song.Format,
		Channels:        song.ChannelCount,
		Patterns:        song.PatternCount(),
		SequenceLength:  song.PlayableLength(),
		PatternSequence: song.PatternSequence[:song.PlayableLength()],
		SongLoop:        song.SongLoop,
	}
	for i := range song.Samples {
		s := &song.Samples[i]
		if s.Length == 0 && s.DisplayName() == "" {
			continue
		}
		si := SampleInfo{
			Index:    i + 1,
			Name:     s.DisplayName(),
			Length:   s.Length,
			FineTune: s.FineTune,
			Volume:   s.Volume,
		}
		if s.Loops() {
			si.RepeatOffset = s.RepeatOffset
			si.RepeatLength = s.RepeatLength
		}
		info.Samples = append(info.Samples, si)
	}
	return info
}
