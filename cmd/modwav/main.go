// modwav renders a MOD file once through to a WAV file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cbegin/protracker-go"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("modwav: ")
	var (
		out        = flag.String("wav", "", "output WAV path (default: ./<song>.wav)")
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		bits       = flag.Int("bits", 16, "bit depth: 16|24|32")
		clockName  = flag.String("clock", "pal", "Amiga clock: pal|ntsc")
		maxSeconds = flag.Float64("max", 600, "stop after this many seconds (0 = no limit)")
		led        = flag.Bool("led", false, "apply the Amiga LED lowpass filter")
		tolerant   = flag.Bool("tolerant", false, "accept files whose sample data is cut short")
		zeroLoop   = flag.Bool("zero-loop", false, "ignore the restart byte and loop to position 0")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("missing song filename")
	}
	songPath := flag.Arg(0)
	if *out == "" {
		base := filepath.Base(songPath)
		*out = strings.TrimSuffix(base, filepath.Ext(base)) + ".wav"
	}

	clock := protracker.ClockPAL
	switch strings.ToLower(*clockName) {
	case "pal":
	case "ntsc":
		clock = protracker.ClockNTSC
	default:
		log.Fatalf("invalid -clock %q (expected pal|ntsc)", *clockName)
	}

	cfg := protracker.DefaultParserConfig()
	cfg.TolerateShortSamples = *tolerant
	cfg.ZeroSongLoop = *zeroLoop
	song, err := protracker.ParseFileWithConfig(songPath, cfg)
	if err != nil {
		log.Fatal(err)
	}
	samples := protracker.RenderSong(song, *sampleRate, clock, *maxSeconds)
	if *led {
		protracker.ApplyLEDFilter(samples, *sampleRate)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	if err := protracker.WriteWAV(f, samples, *sampleRate, 2, *bits); err != nil {
		f.Close()
		log.Fatal(err)
	}
	if err := f.Close(); err != nil {
		log.Fatal(err)
	}
	frames := len(samples) / 2
	fmt.Printf("wrote %s: %.1fs, %d Hz, %d-bit stereo\n", *out, float64(frames)/float64(*sampleRate), *sampleRate, *bits)
}
