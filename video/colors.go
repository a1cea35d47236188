package video

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/player"
	"golang.org/x/text/cases"
)

// ColorMode selects what drives the color of a channel's waveform.
type ColorMode int

const (
	ColorNone ColorMode = iota
	ColorInstruments
	ColorInstrumentsAndSamples
	ColorChannel
	NumColorModes
)

// ColorBlendTime is the number of frames averaged into each frame's color.
const ColorBlendTime = 5

var colorModeNames = [NumColorModes]string{"None", "Instruments", "Instruments and Samples", "Channel (First pattern color)"}

var colorModeKeys = [NumColorModes]string{"none", "instruments", "instrumentsandsamples", "channel"}

func (m ColorMode) String() string {
	if m < 0 || m >= NumColorModes {
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
	return colorModeNames[m]
}

// ParseColorMode accepts the display names of the color modes as well as
// their compact forms ("InstrumentsAndSamples"), ignoring case and spaces.
func ParseColorMode(s string) (ColorMode, error) {
	folder := cases.Fold()
	key := strings.Join(strings.Fields(folder.String(s)), "")
	for i := range colorModeNames {
		name := strings.Join(strings.Fields(folder.String(colorModeNames[i])), "")
		if key == colorModeKeys[i] || key == name {
			return ColorMode(i), nil
		}
	}
	return ColorNone, fmt.Errorf("unknown color mode %q", s)
}

func (m ColorMode) MarshalText() ([]byte, error) {
	if m < 0 || m >= NumColorModes {
		return nil, fmt.Errorf("invalid color mode %d", int(m))
	}
	return []byte(colorModeKeys[m]), nil
}

func (m *ColorMode) UnmarshalText(text []byte) (err error) {
	*m, err = ParseColorMode(string(text))
	return err
}

func opaque(c color.NRGBA) color.NRGBA {
	c.A = 0xFF
	return c
}

func isSet(c color.NRGBA) bool {
	return c.A != 0
}

// ResolveColors returns the raw color grid of the given song channels,
// indexed [channel][frame]. Cells whose note is absent or not musical are
// left unset (zero alpha); in ColorChannel mode every cell gets the color of
// the channel's first pattern.
func ResolveColors(project *famiscope.Project, song *famiscope.Song, meta []player.FrameMetadata, channels []int, mode ColorMode, neutral color.NRGBA) [][]color.NRGBA {
	neutral = opaque(neutral)
	ret := make([][]color.NRGBA, len(channels))
	for j, ci := range channels {
		colors := make([]color.NRGBA, len(meta))
		ret[j] = colors
		channel := &song.Channels[ci]
		if mode == ColorChannel {
			c := neutral
			if pc, ok := channel.FirstPatternColor(); ok && isSet(pc) {
				c = opaque(pc)
			}
			for i := range colors {
				colors[i] = c
			}
			continue
		}
		for i, m := range meta {
			if ci >= len(m.ChannelNotes) || !m.ChannelNotes[ci].IsMusical() {
				continue
			}
			colors[i] = noteColor(project, channel.Type, m.ChannelNotes[ci], mode, neutral)
		}
	}
	return ret
}

func noteColor(project *famiscope.Project, t famiscope.ChannelType, note famiscope.Note, mode ColorMode, neutral color.NRGBA) color.NRGBA {
	switch {
	case mode == ColorNone:
	case t == famiscope.DPCM:
		if mode != ColorInstrumentsAndSamples {
			break
		}
		if mapping, ok := project.DPCMMapping(note.Value); ok {
			if s, ok := project.Sample(mapping.Sample); ok && isSet(s.Color) {
				return opaque(s.Color)
			}
		}
	default:
		if instr, ok := project.Instrument(note.Instrument); ok && isSet(instr.Color) {
			return opaque(instr.Color)
		}
	}
	return neutral
}

// FillGaps returns a copy of colors where every unset cell inherits the
// color of the previous frame. An unset first frame becomes neutral.
func FillGaps(colors []color.NRGBA, neutral color.NRGBA) []color.NRGBA {
	ret := make([]color.NRGBA, len(colors))
	prev := opaque(neutral)
	for i, c := range colors {
		if isSet(c) {
			prev = c
		}
		ret[i] = prev
	}
	return ret
}

// Blend returns the colors smoothed over time: each frame is the average of
// itself and the next ColorBlendTime-1 frames, or fewer near the end.
func Blend(colors []color.NRGBA) []color.NRGBA {
	ret := make([]color.NRGBA, len(colors))
	for i := range colors {
		var r, g, b, count int
		for k := i; k < i+ColorBlendTime && k < len(colors); k++ {
			r += int(colors[k].R)
			g += int(colors[k].G)
			b += int(colors[k].B)
			count++
		}
		ret[i] = color.NRGBA{R: uint8(r / count), G: uint8(g / count), B: uint8(b / count), A: 0xFF}
	}
	return ret
}

// ChannelColors resolves, gap fills and blends the colors of the given song
// channels.
func ChannelColors(project *famiscope.Project, song *famiscope.Song, meta []player.FrameMetadata, channels []int, mode ColorMode, neutral color.NRGBA) [][]color.NRGBA {
	ret := ResolveColors(project, song, meta, channels, mode, neutral)
	for i := range ret {
		ret[i] = Blend(FillGaps(ret[i], neutral))
	}
	return ret
}
