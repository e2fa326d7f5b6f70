package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"

	"github.com/cbegin/protracker-go"
	"github.com/cbegin/protracker-go/internal/mod/modtest"
)

func testSong(t *testing.T) *protracker.Song {
	t.Helper()
	b := &modtest.Builder{
		Title:    "demo",
		Sequence: []int{0, 1, 0},
		Restart:  1,
		Samples: []modtest.SampleSpec{
			{Name: "bass", Volume: 48, FineTune: 0xF, Data: make([]int8, 32)},
		},
		Patterns: [][][]modtest.Cell{
			{{{Sample: 1, Period: 428, Effect: 0xC, Param: 0x20}}},
		},
	}
	song, err := protracker.Parse(b.Bytes())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return song
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeYAML(&buf, testSong(t)); err != nil {
		t.Fatalf("writeYAML: %v", err)
	}
	var got protracker.SongInfo
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, buf.String())
	}
	if got.Title != "demo" || got.Channels != 4 || got.SongLoop != 1 {
		t.Fatalf("info = %+v", got)
	}
	if len(got.PatternSequence) != 3 || got.PatternSequence[1] != 1 {
		t.Fatalf("sequence = %v", got.PatternSequence)
	}
	if len(got.Samples) != 1 || got.Samples[0].Name != "bass" || got.Samples[0].FineTune != -1 {
		t.Fatalf("samples = %+v", got.Samples)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := writeText(&buf, testSong(t), true); err != nil {
		t.Fatalf("writeText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Title:     demo",
		"Format:    ProTracker (M.K.)",
		"Loop to:   1",
		"bass",
		"Pattern 1",
		"00 | C-2 01 C20 | --- .. ...",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParserConfigFlags(t *testing.T) {
	b := &modtest.Builder{
		Sequence: []int{0, 0},
		Restart:  1,
		Samples:  []modtest.SampleSpec{{Name: "cut", Volume: 64, Data: make([]int8, 64)}},
	}
	full := b.Bytes()
	path := filepath.Join(t.TempDir(), "cut.mod")
	if err := os.WriteFile(path, full[:len(full)-8], 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := protracker.ParseFileWithConfig(path, parserConfig(false, false)); !errors.Is(err, protracker.ErrTruncated) {
		t.Fatalf("strict parse err = %v, want ErrTruncated", err)
	}
	song, err := protracker.ParseFileWithConfig(path, parserConfig(true, true))
	if err != nil {
		t.Fatalf("tolerant parse failed: %v", err)
	}
	if song.SongLoop != 0 || song.Samples[0].Length != 56 {
		t.Fatalf("loop = %d, length = %d", song.SongLoop, song.Samples[0].Length)
	}
}
