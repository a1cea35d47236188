package famiscope

import (
	"errors"
	"fmt"
	"image/color"
)

type (
	// Song is the arrangement of one tune of a project: one Channel per
	// sound generator, each with its own patterns and a list of pattern
	// instances. All channels share Speed (frames per row), PatternLength
	// (rows per pattern) and Length (pattern instances in the song).
	Song struct {
		Name          string
		Speed         int
		PatternLength int
		Length        int
		// LoopPoint is the instance index where playback jumps back to after
		// the end of the song; negative means the song does not loop.
		LoopPoint int
		Channels  []Channel
	}

	// Channel holds the patterns of one sound generator and the order in
	// which they are played. Instances refer to Patterns by index; -1 marks
	// an empty slot.
	Channel struct {
		Type      ChannelType
		Patterns  []Pattern
		Instances []int `yaml:",flow"`
	}

	// Pattern is a block of PatternLength rows; missing trailing rows are
	// empty.
	Pattern struct {
		Name  string
		Color color.NRGBA `yaml:",flow"`
		Notes []Note      `yaml:",flow"`
	}
)

// Note returns the note at the given row of the pattern, or an empty note if
// the row is out of range.
func (p Pattern) Note(row int) Note {
	if row < 0 || row >= len(p.Notes) {
		return Note{}
	}
	return p.Notes[row]
}

// Instance returns the pattern played at the given instance index, or nil
// for empty or out of range slots.
func (c *Channel) Instance(index int) *Pattern {
	if index < 0 || index >= len(c.Instances) {
		return nil
	}
	p := c.Instances[index]
	if p < 0 || p >= len(c.Patterns) {
		return nil
	}
	return &c.Patterns[p]
}

// FirstPatternColor returns the color of the first non-empty pattern
// instance of the channel.
func (c *Channel) FirstPatternColor() (color.NRGBA, bool) {
	for i := range c.Instances {
		if p := c.Instance(i); p != nil {
			return p.Color, true
		}
	}
	return color.NRGBA{}, false
}

// Copy makes a deep copy of a Channel.
func (c *Channel) Copy() Channel {
	patterns := make([]Pattern, len(c.Patterns))
	for i, p := range c.Patterns {
		notes := make([]Note, len(p.Notes))
		copy(notes, p.Notes)
		patterns[i] = Pattern{Name: p.Name, Color: p.Color, Notes: notes}
	}
	instances := make([]int, len(c.Instances))
	copy(instances, c.Instances)
	return Channel{Type: c.Type, Patterns: patterns, Instances: instances}
}

// Copy makes a deep copy of a Song.
func (s *Song) Copy() Song {
	channels := make([]Channel, len(s.Channels))
	for i := range s.Channels {
		channels[i] = s.Channels[i].Copy()
	}
	ret := *s
	ret.Channels = channels
	return ret
}

// LengthInRows returns PatternLength * Length.
func (s *Song) LengthInRows() int {
	return s.PatternLength * s.Length
}

// LengthInFrames returns the number of player frames (ticks) in the song.
func (s *Song) LengthInFrames() int {
	return s.LengthInRows() * s.Speed
}

// NoteAt returns the note written on the given song row of a channel.
func (s *Song) NoteAt(channel, row int) Note {
	if channel < 0 || channel >= len(s.Channels) || s.PatternLength <= 0 || row < 0 {
		return Note{}
	}
	p := s.Channels[channel].Instance(row / s.PatternLength)
	if p == nil {
		return Note{}
	}
	return p.Note(row % s.PatternLength)
}

// ExtendForLooping unrolls the loop of the song so that the section from the
// loop point to the end is played loopCount times in total. The song is
// modified in place; callers that need the original should Copy it first.
func (s *Song) ExtendForLooping(loopCount int) {
	if loopCount <= 1 || s.LoopPoint < 0 || s.LoopPoint >= s.Length {
		return
	}
	loopLength := s.Length - s.LoopPoint
	for i := range s.Channels {
		c := &s.Channels[i]
		for len(c.Instances) < s.Length {
			c.Instances = append(c.Instances, -1)
		}
		section := make([]int, loopLength)
		copy(section, c.Instances[s.LoopPoint:s.Length])
		c.Instances = c.Instances[:s.Length]
		for l := 1; l < loopCount; l++ {
			c.Instances = append(c.Instances, section...)
		}
	}
	s.LoopPoint += loopLength * (loopCount - 1)
	s.Length += loopLength * (loopCount - 1)
}

// Validate checks that the song can be played: positive speed and pattern
// length, at least one channel and no duplicate channel types.
func (s *Song) Validate() error {
	if s.Speed < 1 {
		return errors.New("song speed should be > 0")
	}
	if s.PatternLength < 1 {
		return errors.New("song pattern length should be > 0")
	}
	if len(s.Channels) == 0 {
		return errors.New("song contains no channels")
	}
	var seen [NumChannelTypes]bool
	for i, c := range s.Channels {
		if c.Type < 0 || c.Type >= NumChannelTypes {
			return fmt.Errorf("channel %d has invalid type %d", i, c.Type)
		}
		if seen[c.Type] {
			return fmt.Errorf("channel type %v used more than once", c.Type)
		}
		seen[c.Type] = true
	}
	return nil
}
