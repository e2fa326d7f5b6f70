package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cbegin/protracker-go"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		clockName  = flag.String("clock", "pal", "Amiga clock: pal|ntsc")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto")
		loop       = flag.Bool("loop", false, "loop playback; use with -loops to count then stop")
		loops      = flag.Int("loops", 3, "when -loop, stop after N loops (0 = loop forever)")
		modPath    = flag.String("file", "", "path to a MOD file (or pass it as the first argument)")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		separation = flag.Float64("separation", 1.0, "stereo separation (0 = mono, 1 = Amiga hard pan)")
		led        = flag.Bool("led", false, "engage the Amiga LED lowpass filter")
		start      = flag.Int("position", 0, "pattern sequence position to start at")
		keys       = flag.Bool("keys", true, "interactive keys when stdin is a terminal")
		tolerant   = flag.Bool("tolerant", false, "accept files whose sample data is cut short")
		zeroLoop   = flag.Bool("zero-loop", false, "ignore the restart byte and loop to position 0")
	)
	flag.Parse()

	path := *modPath
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if strings.TrimSpace(path) == "" {
		log.Fatal("no MOD file given (use -file or pass a path)")
	}
	clock, err := parseClock(*clockName)
	if err != nil {
		log.Fatal(err)
	}

	parserCfg := protracker.DefaultParserConfig()
	parserCfg.TolerateShortSamples = *tolerant
	parserCfg.ZeroSongLoop = *zeroLoop
	pl, err := protracker.NewPlayer(*sampleRate,
		protracker.WithParserConfig(parserCfg),
		protracker.WithLoopPlayback(*loop),
		protracker.WithClock(clock),
		protracker.WithBackend(*backend),
		protracker.WithLEDFilter(*led),
	)
	if err != nil {
		log.Fatal(err)
	}
	pl.SetMasterVolume(*volume)
	pl.SetStereoSeparation(*separation)

	if err := pl.LoadFile(path); err != nil {
		log.Fatal(err)
	}
	if *start > 0 && !pl.SkipToPosition(*start) {
		log.Fatalf("position %d is outside the song", *start)
	}
	info, _ := pl.Info()
	fmt.Printf("%q  %s, %d channels, %d positions\n", info.Title, info.Format, info.Channels, info.SequenceLength)

	ch := pl.Watch()
	if err := pl.Play(); err != nil {
		log.Fatal(err)
	}

	var (
		in  <-chan byte
		con *console
	)
	if *keys {
		if c, err := openConsole(); err == nil {
			con = c
			defer con.Close()
			in = con.Keys()
			con.Println("keys: space pause, n/p next/prev position, r restart, l LED filter, q quit")
		}
	}
	say := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		if con != nil {
			con.Println(msg)
			return
		}
		fmt.Println(msg)
	}

	status := time.NewTicker(250 * time.Millisecond)
	defer status.Stop()
	loopCount := 0
	for {
		select {
		case event := <-ch:
			switch event.Kind {
			case protracker.EventPlaybackEnded:
				say("playback completed")
				pl.Wait()
				return
			case protracker.EventLoopCompleted:
				loopCount++
				say("loop %d completed", loopCount)
				if *loop && *loops > 0 && loopCount >= *loops {
					pl.Stop()
				}
			}
		case k, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			if !handleKey(pl, k, say) {
				pl.Stop()
				return
			}
		case <-status.C:
			if con != nil {
				st := pl.Status()
				con.Status(fmt.Sprintf("pos %02d/%02d  pat %02d  row %02d  spd %d  bpm %d",
					st.Position, info.SequenceLength, st.Pattern, st.Row, st.Speed, st.Tempo))
			}
		}
	}
}

// handleKey applies one key press and reports whether to keep running.
func handleKey(pl *protracker.Player, k byte, say func(string, ...any)) bool {
	switch k {
	case 'q', 'Q', 0x03, 0x1b:
		return false
	case ' ':
		if pl.IsPlaying() {
			pl.Pause()
		} else {
			pl.Resume()
		}
	case 'n':
		if !pl.NextPosition() {
			say("already at the last position")
		}
	case 'p':
		if !pl.PreviousPosition() {
			say("already at the first position")
		}
	case 'r':
		pl.Reset()
	case 'l':
		pl.SetLEDFilter(!pl.LEDFilter())
		say("LED filter %v", onOff(pl.LEDFilter()))
	}
	return true
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func parseClock(name string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pal", "":
		return protracker.ClockPAL, nil
	case "ntsc":
		return protracker.ClockNTSC, nil
	default:
		return 0, fmt.Errorf("invalid -clock %q (expected pal|ntsc)", name)
	}
}
