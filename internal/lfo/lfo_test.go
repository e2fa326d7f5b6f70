package lfo

import (
	"math"
	"testing"
)

func TestSineShape(t *testing.T) {
	cases := []struct {
		pos  float64
		want float64
	}{
		{0, 0},
		{0.25, 2},
		{0.5, 0},
		{0.75, -2},
	}
	for _, tc := range cases {
		if got := WaveSine.Value(tc.pos, 0, 1, 2); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("sine at %v: got %f, want %f", tc.pos, got, tc.want)
		}
	}
}

func TestSawtoothShape(t *testing.T) {
	if got := WaveSawtooth.Value(0, 0, 1, 1); math.Abs(got-1) > 1e-9 {
		t.Errorf("saw at phase 0: got %f, want 1", got)
	}
	if got := WaveSawtooth.Value(0.5, 0, 1, 1); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("saw at phase 0.5: got %f, want 0.5", got)
	}
	// Two oscillations per row wrap at 0.5.
	if got := WaveSawtooth.Value(0.75, 0, 2, 1); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("saw wrapped: got %f, want 0.5", got)
	}
}

func TestSquareShape(t *testing.T) {
	if got := WaveSquare.Value(0.1, 0, 1, 3); got != 3 {
		t.Errorf("square first half: got %f, want 3", got)
	}
	if got := WaveSquare.Value(0.6, 0, 1, 3); got != -3 {
		t.Errorf("square second half: got %f, want -3", got)
	}
	if got := WaveSquare.Value(0.1, 0.5, 1, 3); got != -3 {
		t.Errorf("square with offset: got %f, want -3", got)
	}
}

func TestOscillatorDefaults(t *testing.T) {
	o := New()
	if o.Amplitude() != 1 || o.OscillationsPerRow() != 1 || o.Waveform() != WaveSine || o.Retrigger() {
		t.Fatalf("unexpected defaults %+v", o)
	}
	o.SetOriginalValue(428)
	if got := o.Value(0); got != 428 {
		t.Fatalf("value at phase 0 = %f, want 428", got)
	}
}

func TestOscillatorIgnoresNonPositiveSettings(t *testing.T) {
	o := New()
	o.SetAmplitude(4)
	o.SetAmplitude(0)
	o.SetOscillationsPerRow(0.25)
	o.SetOscillationsPerRow(-1)
	if o.Amplitude() != 4 || o.OscillationsPerRow() != 0.25 {
		t.Fatalf("settings overwritten: amplitude %f, rate %f", o.Amplitude(), o.OscillationsPerRow())
	}
}

func TestOscillatorAdvanceWraps(t *testing.T) {
	o := New()
	o.SetOscillationsPerRow(0.75)
	o.Advance()
	o.Advance()
	if math.Abs(o.Offset()-0.5) > 1e-9 {
		t.Fatalf("offset = %f, want 0.5", o.Offset())
	}
}

func TestRandomWaveformResolvesOnAssignment(t *testing.T) {
	o := New()
	for i := 0; i < 20; i++ {
		o.SetWaveform(WaveRandom)
		switch o.Waveform() {
		case WaveSine, WaveSawtooth, WaveSquare:
		default:
			t.Fatalf("random resolved to %v", o.Waveform())
		}
	}
}
