// Package gomidi converts Standard MIDI Files into famiscope projects, so
// that tunes written in any sequencer can be rendered without first being
// transcribed into pattern files.
package gomidi

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/apu"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// RowsPerQuarter is the row resolution of imported songs.
	RowsPerQuarter = 4
	// PatternLength is the number of rows in each imported pattern.
	PatternLength = 64
	// DrumChannel is the zero-based MIDI channel (channel 10) that is mapped
	// to the noise generator.
	DrumChannel = 9

	defaultBPM = 120
)

var tonalChannels = []famiscope.ChannelType{famiscope.Square1, famiscope.Square2, famiscope.Triangle}

type event struct {
	row      int
	channel  uint8
	key      uint8
	velocity uint8
	on       bool
}

// Import reads a Standard MIDI File and converts it into a project with a
// single song.
func Import(path string) (*famiscope.Project, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read MIDI file: %w", err)
	}
	p, err := FromSMF(s, false)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	p.Name = name
	p.Songs[0].Name = name
	return p, nil
}

// FromSMF converts a parsed MIDI file into a project. MIDI channel 10 plays
// on the noise channel; the other MIDI channels are assigned to square 1,
// square 2 and triangle in the order they first play a note, and any further
// channels are dropped. Each channel is monophonic: a later note on the same
// row replaces the earlier one, and a note-off only stops the channel if it
// releases the note currently sounding.
func FromSMF(s *smf.SMF, pal bool) (*famiscope.Project, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || ticks.Resolution() == 0 {
		return nil, errors.New("only MIDI files with metric time format are supported")
	}
	ticksPerRow := float64(ticks.Resolution()) / RowsPerQuarter

	bpm, tempoTick := float64(defaultBPM), int64(math.MaxInt64)
	var events []event
	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			var t float64
			if ev.Message.GetMetaTempo(&t) {
				if abs < tempoTick && t > 0 {
					bpm, tempoTick = t, abs
				}
				continue
			}
			row := int(math.Round(float64(abs) / ticksPerRow))
			var ch, key, vel uint8
			msg := midi.Message(ev.Message)
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				events = append(events, event{row: row, channel: ch, key: key, velocity: vel, on: true})
			case msg.GetNoteEnd(&ch, &key):
				events = append(events, event{row: row, channel: ch, key: key})
			}
		}
	}
	if len(events) == 0 {
		return nil, errors.New("MIDI file contains no notes")
	}
	// note-offs before note-ons on the same row, so that repeated notes
	// retrigger instead of stopping
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].row != events[j].row {
			return events[i].row < events[j].row
		}
		return !events[i].on && events[j].on
	})

	numRows := events[len(events)-1].row + 1
	assigned := map[uint8]famiscope.ChannelType{}
	var order []famiscope.ChannelType
	rows := map[famiscope.ChannelType][]famiscope.Note{}
	sounding := map[famiscope.ChannelType]uint8{}
	for _, e := range events {
		t, ok := assigned[e.channel]
		if !ok {
			if !e.on {
				continue
			}
			if e.channel == DrumChannel {
				t = famiscope.Noise
			} else {
				n := len(order)
				if _, ok := rows[famiscope.Noise]; ok {
					n--
				}
				if n >= len(tonalChannels) {
					continue
				}
				t = tonalChannels[n]
			}
			assigned[e.channel] = t
			order = append(order, t)
			rows[t] = make([]famiscope.Note, numRows)
		}
		value, ok := noteValue(e.key)
		if !ok {
			continue
		}
		r := rows[t]
		if e.on {
			r[e.row] = famiscope.Note{Value: value, Volume: velocityToVolume(e.velocity)}
			sounding[t] = value
		} else if playing, ok := sounding[t]; ok && playing == value {
			if r[e.row].IsNone() {
				r[e.row] = famiscope.Note{Value: famiscope.NoteStop}
			}
			delete(sounding, t)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	length := (numRows + PatternLength - 1) / PatternLength
	song := famiscope.Song{
		Speed:         speed(bpm, pal),
		PatternLength: PatternLength,
		Length:        length,
		LoopPoint:     -1,
	}
	for _, t := range order {
		song.Channels = append(song.Channels, makeChannel(t, rows[t], length))
	}
	return &famiscope.Project{PAL: pal, Songs: []famiscope.Song{song}}, nil
}

// makeChannel cuts the rows into patterns, reusing identical patterns and
// leaving silent ones empty.
func makeChannel(t famiscope.ChannelType, rows []famiscope.Note, length int) famiscope.Channel {
	c := famiscope.Channel{Type: t, Instances: make([]int, length)}
	seen := map[string]int{}
	for i := range c.Instances {
		start := i * PatternLength
		end := min(start+PatternLength, len(rows))
		notes := rows[start:end]
		for len(notes) > 0 && notes[len(notes)-1].IsNone() {
			notes = notes[:len(notes)-1]
		}
		if len(notes) == 0 {
			c.Instances[i] = -1
			continue
		}
		key := fmt.Sprint(notes)
		if index, ok := seen[key]; ok {
			c.Instances[i] = index
			continue
		}
		index := len(c.Patterns)
		c.Patterns = append(c.Patterns, famiscope.Pattern{
			Name:  fmt.Sprintf("%02X", index),
			Notes: append([]famiscope.Note(nil), notes...),
		})
		seen[key] = index
		c.Instances[i] = index
	}
	return c
}

// noteValue converts a MIDI key (60 = C-4) into a note value.
func noteValue(key uint8) (byte, bool) {
	v := int(key) - 12 + int(famiscope.NoteMin)
	if v < int(famiscope.NoteMin) || v > int(famiscope.NoteMax) {
		return 0, false
	}
	return byte(v), true
}

func velocityToVolume(velocity uint8) int {
	return max(1, (int(velocity)*famiscope.MaxVolume+126)/127)
}

// speed returns the number of frames per row closest to the tempo.
func speed(bpm float64, pal bool) int {
	num, den := apu.FrameRate(pal)
	framesPerMinute := 60 * float64(num) / float64(den)
	return max(1, int(math.Round(framesPerMinute/(bpm*RowsPerQuarter))))
}
