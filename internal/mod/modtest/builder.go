// Package modtest assembles MOD files in memory for tests.
package modtest

import "encoding/binary"

type SampleSpec struct {
	Name         string
	FineTune     uint8 // raw header nibble
	Volume       uint8
	RepeatOffset int // frames, must be even
	RepeatLength int // frames, must be even
	Data         []int8
}

type Cell struct {
	Sample int
	Period int
	Effect uint8
	Param  uint8
}

// Builder lays out a module exactly as the file format expects. Patterns
// are indexed [pattern][row][channel]; missing rows and cells stay zero.
type Builder struct {
	Title     string
	Signature string
	Sequence  []int
	SongLen   int // 0 means len(Sequence)
	Restart   uint8
	Samples   []SampleSpec
	Patterns  [][][]Cell
	Rows      int // 0 means 64
	Channels  int // 0 means 4
}

func (b *Builder) Bytes() []byte {
	rows := b.Rows
	if rows == 0 {
		rows = 64
	}
	channels := b.Channels
	if channels == 0 {
		channels = 4
	}
	sig := b.Signature
	if sig == "" {
		sig = "M.K."
	}
	patternCount := 0
	for _, p := range b.Sequence {
		if p+1 > patternCount {
			patternCount = p + 1
		}
	}
	if patternCount == 0 {
		patternCount = 1
	}

	out := make([]byte, 1084)
	copy(out[0:20], b.Title)
	for i := 0; i < 31 && i < len(b.Samples); i++ {
		s := b.Samples[i]
		h := out[20+i*30 : 20+(i+1)*30]
		copy(h[0:22], s.Name)
		binary.BigEndian.PutUint16(h[22:], uint16(len(s.Data)/2))
		h[24] = s.FineTune
		h[25] = s.Volume
		binary.BigEndian.PutUint16(h[26:], uint16(s.RepeatOffset/2))
		binary.BigEndian.PutUint16(h[28:], uint16(s.RepeatLength/2))
	}
	songLen := b.SongLen
	if songLen == 0 {
		songLen = len(b.Sequence)
	}
	out[950] = byte(songLen)
	out[951] = b.Restart
	for i, p := range b.Sequence {
		out[952+i] = byte(p)
	}
	copy(out[1080:1084], sig)

	pat := make([]byte, patternCount*rows*channels*4)
	for p := 0; p < patternCount && p < len(b.Patterns); p++ {
		for r := 0; r < rows && r < len(b.Patterns[p]); r++ {
			for c := 0; c < channels && c < len(b.Patterns[p][r]); c++ {
				cell := b.Patterns[p][r][c]
				off := ((p*rows+r)*channels + c) * 4
				pat[off] = byte(cell.Sample&0xF0) | byte(cell.Period>>8&0x0F)
				pat[off+1] = byte(cell.Period)
				pat[off+2] = byte(cell.Sample&0x0F)<<4 | cell.Effect&0x0F
				pat[off+3] = cell.Param
			}
		}
	}
	out = append(out, pat...)
	for i := 0; i < 31 && i < len(b.Samples); i++ {
		for _, v := range b.Samples[i].Data[:len(b.Samples[i].Data)/2*2] {
			out = append(out, byte(v))
		}
	}
	return out
}
