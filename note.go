package famiscope

import (
	"fmt"
	"strconv"
	"strings"
)

// Note is a single event in a pattern row. The zero value is an empty row
// (NoteNone); NoteStop silences the channel; values NoteMin..NoteMax are
// musical notes from C-0 to B-7, optionally carrying the name of the
// instrument and a volume (1..15, 0 meaning "instrument default").
type Note struct {
	Value      byte
	Instrument string
	Volume     int
}

const (
	NoteNone byte = 0
	NoteMin  byte = 1
	NoteMax  byte = 96
	NoteStop byte = 0xFF

	MaxVolume = 15
)

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

func (n Note) IsNone() bool    { return n.Value == NoteNone }
func (n Note) IsStop() bool    { return n.Value == NoteStop }
func (n Note) IsMusical() bool { return n.Value >= NoteMin && n.Value <= NoteMax }

// EffectiveVolume returns the note volume, or MaxVolume if the note does not
// override it.
func (n Note) EffectiveVolume() int {
	if n.Volume <= 0 || n.Volume > MaxVolume {
		return MaxVolume
	}
	return n.Volume
}

// Pitch returns the tracker style name of the note value, e.g. "C#4".
func (n Note) Pitch() string {
	switch {
	case n.IsNone():
		return "..."
	case n.IsStop():
		return "---"
	case n.IsMusical():
		idx := int(n.Value - NoteMin)
		return noteNames[idx%12] + strconv.Itoa(idx/12)
	}
	return "???"
}

func (n Note) String() string {
	s := n.Pitch()
	if n.Instrument != "" {
		s += " " + n.Instrument
	}
	if n.Volume > 0 {
		s += " v" + strconv.Itoa(n.Volume)
	}
	return s
}

// MarshalText encodes the note in the compact form used in project files:
// "" for none, "---" for stop and "C#4 Lead v12" for musical notes.
func (n Note) MarshalText() ([]byte, error) {
	if n.IsNone() {
		return []byte{}, nil
	}
	if !n.IsStop() && !n.IsMusical() {
		return nil, fmt.Errorf("invalid note value %d", n.Value)
	}
	return []byte(n.String()), nil
}

func (n *Note) UnmarshalText(text []byte) error {
	fields := strings.Fields(string(text))
	*n = Note{}
	if len(fields) == 0 || fields[0] == "..." {
		return nil
	}
	if fields[0] == "---" {
		n.Value = NoteStop
		return nil
	}
	value, err := ParsePitch(fields[0])
	if err != nil {
		return err
	}
	n.Value = value
	var instr []string
	for _, f := range fields[1:] {
		if len(f) > 1 && f[0] == 'v' {
			if vol, err := strconv.Atoi(f[1:]); err == nil {
				if vol < 0 || vol > MaxVolume {
					return fmt.Errorf("note %q: volume %d out of range", text, vol)
				}
				n.Volume = vol
				continue
			}
		}
		instr = append(instr, f)
	}
	n.Instrument = strings.Join(instr, " ")
	return nil
}

// ParsePitch parses names like "C-4", "C#4" or "A4" into a note value.
func ParsePitch(s string) (byte, error) {
	if len(s) == 2 {
		s = s[:1] + "-" + s[1:]
	}
	if len(s) != 3 {
		return 0, fmt.Errorf("invalid pitch %q", s)
	}
	semitone := -1
	for i, name := range noteNames {
		if strings.EqualFold(name, s[:2]) {
			semitone = i
			break
		}
	}
	octave := int(s[2] - '0')
	if semitone < 0 || octave < 0 || octave > 7 {
		return 0, fmt.Errorf("invalid pitch %q", s)
	}
	return NoteMin + byte(octave*12+semitone), nil
}
