// modinfo prints what a MOD file contains.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/cbegin/protracker-go"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("modinfo: ")
	var (
		format   = flag.String("format", "text", "output format: text|yaml")
		patterns = flag.Bool("patterns", false, "also dump pattern data (text format)")
		tolerant = flag.Bool("tolerant", false, "accept files whose sample data is cut short")
		zeroLoop = flag.Bool("zero-loop", false, "ignore the restart byte and loop to position 0")
	)
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatal("missing song filename")
	}

	cfg := parserConfig(*tolerant, *zeroLoop)
	for _, path := range flag.Args() {
		song, err := protracker.ParseFileWithConfig(path, cfg)
		if err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		switch strings.ToLower(*format) {
		case "yaml":
			err = writeYAML(os.Stdout, song)
		case "text":
			err = writeText(os.Stdout, song, *patterns)
		default:
			log.Fatalf("invalid -format %q (expected text|yaml)", *format)
		}
		if err != nil {
			log.Fatal(err)
		}
	}
}

func parserConfig(tolerant, zeroLoop bool) protracker.ParserConfig {
	cfg := protracker.DefaultParserConfig()
	cfg.TolerateShortSamples = tolerant
	cfg.ZeroSongLoop = zeroLoop
	return cfg
}

func writeYAML(w io.Writer, song *protracker.Song) error {
	out, err := yaml.Marshal(protracker.Info(song))
	if err != nil {
		return err
	}
	_, err = w.Write(append([]byte("---\n"), out...))
	return err
}

func writeText(w io.Writer, song *protracker.Song, withPatterns bool) error {
	info := protracker.Info(song)
	var b strings.Builder
	fmt.Fprintf(&b, "Title:     %s\n", info.Title)
	fmt.Fprintf(&b, "Format:    %s (%s)\n", info.Format, info.Signature)
	fmt.Fprintf(&b, "Channels:  %d\n", info.Channels)
	fmt.Fprintf(&b, "Patterns:  %d\n", info.Patterns)
	fmt.Fprintf(&b, "Sequence:  %v\n", info.PatternSequence)
	if info.SongLoop >= 0 {
		fmt.Fprintf(&b, "Loop to:   %d\n", info.SongLoop)
	} else {
		b.WriteString("Loop to:   none\n")
	}
	b.WriteString("\n  #  Name                    Length  Fine  Vol  Loop\n")
	for _, s := range info.Samples {
		loop := "-"
		if s.RepeatLength > 0 {
			loop = fmt.Sprintf("%d+%d", s.RepeatOffset, s.RepeatLength)
		}
		fmt.Fprintf(&b, " %2d  %-22s  %6d  %+4d  %3d  %s\n", s.Index, s.Name, s.Length, s.FineTune, s.Volume, loop)
	}
	if withPatterns {
		for i, pat := range song.Patterns {
			fmt.Fprintf(&b, "\nPattern %d\n", i)
			for r, row := range pat {
				fmt.Fprintf(&b, "%02d", r)
				for _, ins := range row {
					fmt.Fprintf(&b, " | %s", ins)
				}
				b.WriteByte('\n')
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
