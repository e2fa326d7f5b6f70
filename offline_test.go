package protracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/cbegin/protracker-go/internal/mod/modtest"
)

func parseModule(t *testing.T, data []byte) *Song {
	t.Helper()
	song, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return song
}

func TestRenderSamplesLength(t *testing.T) {
	song := parseModule(t, testModule(noSongLoop))
	out := RenderSamples(song, 1000, 0.5)
	if len(out) != 1000 {
		t.Fatalf("len = %d, want 1000", len(out))
	}
	nonZero := false
	for _, v := range out {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected audible output")
	}
}

func TestRenderSamplesDeterministic(t *testing.T) {
	song := parseModule(t, testModule(0))
	a := RenderSamples(song, 8000, 0.25)
	b := RenderSamples(song, 8000, 0.25)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("renders differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRenderSongStopsAtEnd(t *testing.T) {
	song := parseModule(t, testModule(0))
	out := RenderSong(song, 1000, ClockPAL, 0)
	if len(out) != songFrames*2 {
		t.Fatalf("len = %d, want %d", len(out), songFrames*2)
	}
}

func TestRenderSongStopsAtBackwardJump(t *testing.T) {
	// A jump back to position 0 at the end of row 0: six ticks of 20 frames.
	song := parseModule(t, testModule(noSongLoop, modtest.Cell{Sample: 1, Period: 428, Effect: 0xB}))
	out := RenderSong(song, 1000, ClockPAL, 0)
	if len(out) != 120*2 {
		t.Fatalf("len = %d, want %d", len(out), 120*2)
	}
}

func TestRenderSongMaxSeconds(t *testing.T) {
	song := parseModule(t, testModule(0))
	out := RenderSong(song, 1000, ClockPAL, 1.5)
	if len(out) != 1500*2 {
		t.Fatalf("len = %d, want %d", len(out), 1500*2)
	}
}

func TestApplyLEDFilterSmoothsEdges(t *testing.T) {
	samples := make([]float32, 64)
	for i := range samples {
		if i/2%2 == 0 {
			samples[i] = 1
		} else {
			samples[i] = -1
		}
	}
	ApplyLEDFilter(samples, 44100)
	for i, v := range samples {
		if v >= 1 || v <= -1 {
			t.Fatalf("sample %d = %v, want a Nyquist square attenuated", i, v)
		}
	}
}

func TestWriteWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	samples := []float32{0, 0.5, -1, 1.5, 0.25, -0.25}
	if err := WriteWAV(f, samples, 22050, 2, 16); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer in.Close()
	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		t.Fatal("invalid wav file")
	}
	if dec.NumChans != 2 || dec.SampleRate != 22050 || dec.BitDepth != 16 {
		t.Fatalf("header = %d ch, %d Hz, %d bit", dec.NumChans, dec.SampleRate, dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []int{0, 16384, -32767, 32767, 8192, -8192}
	if len(buf.Data) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, buf.Data[i], want[i])
		}
	}
}

func TestWriteWAVRejectsBadFormat(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := WriteWAV(f, nil, 44100, 2, 12); err == nil {
		t.Fatal("expected error for 12-bit output")
	}
	if err := WriteWAV(f, nil, 44100, 0, 16); err == nil {
		t.Fatal("expected error for zero channels")
	}
}

func TestRenderedSongWritesWAV(t *testing.T) {
	song := parseModule(t, testModule(0))
	samples := RenderSong(song, 8000, ClockPAL, 0.5)
	path := filepath.Join(t.TempDir(), "song.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := WriteWAV(f, samples, 8000, 2, 24); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	f.Close()

	in, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer in.Close()
	dec := wav.NewDecoder(in)
	dur, err := dec.Duration()
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if dur.Seconds() < 0.49 || dur.Seconds() > 0.51 {
		t.Fatalf("duration = %v, want 0.5s", dur)
	}
}
