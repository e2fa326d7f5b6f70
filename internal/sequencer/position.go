package sequencer

func (s *Sequencer) Tick() int                 { return s.state.Tick }
func (s *Sequencer) Speed() int                { return s.state.Speed }
func (s *Sequencer) Tempo() int                { return s.state.Tempo }
func (s *Sequencer) RowIndex() int             { return s.state.RowIndex }
func (s *Sequencer) PatternSequenceIndex() int { return s.state.PatternSequenceIndex }
func (s *Sequencer) SamplesPerTick() int       { return s.state.SamplesPerTick }

// RowPosition is the fraction of the current row already rendered.
func (s *Sequencer) RowPosition() float64 {
	st := s.state
	total := st.Speed * st.SamplesPerTick
	if total <= 0 {
		return 0
	}
	return float64(st.Tick*st.SamplesPerTick+st.TickSamplePosition) / float64(total)
}

// SetSpeed sets the ticks per row. Non-positive values are ignored.
func (s *Sequencer) SetSpeed(ticksPerRow int) {
	if ticksPerRow > 0 {
		s.state.Speed = ticksPerRow
	}
}

// SetTempo sets the beats per minute and recomputes the tick length.
func (s *Sequencer) SetTempo(bpm int) {
	if bpm <= 0 {
		return
	}
	st := &s.state
	st.Tempo = bpm
	st.SamplesPerTick = s.samplesPerTick(bpm)
	st.TickSamplePosition = min(st.TickSamplePosition, st.SamplesPerTick)
}

// SetTick moves within the current row. It fails unless 0 <= tick < speed,
// leaving the state untouched.
func (s *Sequencer) SetTick(tick int) bool {
	if tick < 0 || tick >= s.state.Speed {
		return false
	}
	s.state.Tick = tick
	s.state.TickSamplePosition = 0
	return true
}

// SetRowIndex moves to row of the current pattern and forgets any
// pattern-loop start mark.
func (s *Sequencer) SetRowIndex(row int) bool {
	if !s.moveToRow(row) {
		return false
	}
	s.state.PatternLoopRowIndex = 0
	return true
}

func (s *Sequencer) moveToRow(row int) bool {
	pat, ok := s.song.PatternAt(s.state.PatternSequenceIndex)
	if !ok || row < 0 || row >= len(pat) {
		return false
	}
	s.state.RowIndex = row
	s.state.Tick = 0
	s.state.TickSamplePosition = 0
	return true
}

// SetPatternSequenceIndex moves to the first row of the pattern at sequence
// position index. An invalid index fails, unless zeroOnFail is set, in
// which case playback goes to position 0 instead.
func (s *Sequencer) SetPatternSequenceIndex(index int, zeroOnFail bool) bool {
	if _, ok := s.song.PatternAt(index); !ok {
		if !zeroOnFail {
			return false
		}
		index = 0
	}
	st := &s.state
	st.PatternSequenceIndex = index
	st.PatternLoopCount = 0
	st.PatternLoopRowIndex = 0
	if !s.moveToRow(0) {
		st.RowIndex = 0
		st.Tick = 0
		st.TickSamplePosition = 0
	}
	return true
}

func (s *Sequencer) NextTick() bool {
	return s.SetTick(s.state.Tick+1) || s.NextRow()
}

func (s *Sequencer) PreviousTick() bool {
	if s.SetTick(s.state.Tick - 1) {
		return true
	}
	if !s.PreviousRow() {
		return false
	}
	s.SetTick(s.state.Speed - 1)
	return true
}

func (s *Sequencer) NextRow() bool {
	return s.SetRowIndex(s.state.RowIndex+1) || s.NextPattern()
}

// PreviousRow steps back one row, into the last row of the previous
// pattern when already on the first.
func (s *Sequencer) PreviousRow() bool {
	if s.SetRowIndex(s.state.RowIndex - 1) {
		return true
	}
	if !s.PreviousPattern() {
		return false
	}
	pat, _ := s.song.PatternAt(s.state.PatternSequenceIndex)
	return s.SetRowIndex(len(pat) - 1)
}

func (s *Sequencer) NextPattern() bool {
	return s.SetPatternSequenceIndex(s.state.PatternSequenceIndex+1, false)
}

func (s *Sequencer) PreviousPattern() bool {
	return s.SetPatternSequenceIndex(s.state.PatternSequenceIndex-1, false)
}

// SkipToPosition restarts playback at the first row of sequence position
// pos. Notes already sounding keep playing until the next row replaces
// them.
func (s *Sequencer) SkipToPosition(pos int) bool {
	if !s.SetPatternSequenceIndex(pos, false) {
		return false
	}
	s.holding = false
	s.state.PatternDelay = 0
	return true
}

// Modules hold a single song; subtracks are never available.
func (s *Sequencer) HasSubtracks() bool         { return false }
func (s *Sequencer) Subtrack() int              { return 0 }
func (s *Sequencer) SetSubtrack(index int) bool { return false }
func (s *Sequencer) NextSubtrack() bool         { return s.SetSubtrack(s.Subtrack() + 1) }
func (s *Sequencer) PreviousSubtrack() bool     { return s.SetSubtrack(s.Subtrack() - 1) }

// The methods below are the effects.Transport surface.

// JumpToPosition moves to sequence position index, or to 0 when index is
// invalid. A pattern break earlier in the same row keeps its target row.
func (s *Sequencer) JumpToPosition(index int) {
	from := s.state.PatternSequenceIndex
	s.SetPatternSequenceIndex(index, true)
	s.ended = false
	s.jumped = true
	s.moved = true
	if s.broke {
		s.moveToRow(s.breakRow)
	}
	if s.state.PatternSequenceIndex <= from {
		s.emit(EventLoopCompleted)
	}
}

// BreakToRow continues at row of the next pattern, or of the song loop
// position after the last pattern. Without either the song ends. When a
// position jump already chose the pattern only the row changes.
func (s *Sequencer) BreakToRow(row int) {
	if !s.jumped && !s.broke {
		if !s.NextPattern() && !s.loopSong() {
			s.ended = true
			return
		}
	}
	s.broke = true
	s.breakRow = row
	s.moved = true
	s.moveToRow(row)
}

func (s *Sequencer) LoopToRow(row int) {
	if s.moveToRow(row) {
		s.moved = true
	}
}

func (s *Sequencer) SetPatternDelay(ticks int) { s.state.PatternDelay = max(ticks, 0) }

func (s *Sequencer) PatternLoopCount() int          { return s.state.PatternLoopCount }
func (s *Sequencer) SetPatternLoopCount(n int)      { s.state.PatternLoopCount = n }
func (s *Sequencer) PatternLoopRowIndex() int       { return s.state.PatternLoopRowIndex }
func (s *Sequencer) SetPatternLoopRowIndex(row int) { s.state.PatternLoopRowIndex = row }
