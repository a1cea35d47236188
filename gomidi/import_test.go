package gomidi_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/gomidi"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func testSMF(t *testing.T) *smf.SMF {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)
	var tempo smf.Track
	tempo.Add(0, smf.MetaTempo(150))
	tempo.Close(0)

	var lead smf.Track
	lead.Add(0, midi.NoteOn(0, 60, 64))
	lead.Add(48, midi.NoteOff(0, 60))
	lead.Add(48, midi.NoteOn(0, 62, 127))
	lead.Add(48, midi.NoteOff(0, 62))
	lead.Add(0, midi.NoteOn(0, 62, 127))
	lead.Add(24, midi.NoteOff(0, 62))
	lead.Close(0)

	var drums smf.Track
	drums.Add(0, midi.NoteOn(9, 36, 100))
	drums.Add(24, midi.NoteOff(9, 36))
	drums.Add(128*24-24, midi.NoteOn(9, 36, 100))
	drums.Add(24, midi.NoteOff(9, 36))
	drums.Close(0)

	var bass smf.Track
	bass.Add(0, midi.NoteOn(3, 48, 127))
	bass.Add(24, midi.NoteOff(3, 50))
	bass.Close(0)

	var pad smf.Track
	pad.Add(0, midi.NoteOn(5, 72, 127))
	pad.Add(0, midi.NoteOn(6, 74, 127))
	pad.Close(0)

	for _, track := range []smf.Track{tempo, lead, drums, bass, pad} {
		if err := s.Add(track); err != nil {
			t.Fatalf("could not add track: %v", err)
		}
	}
	return s
}

func TestFromSMF(t *testing.T) {
	p, err := gomidi.FromSMF(testSMF(t), false)
	if err != nil {
		t.Fatalf("FromSMF failed: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("imported project is invalid: %v", err)
	}
	song := p.Songs[0]
	if song.Speed != 6 {
		t.Errorf("expected speed 6 at 150 bpm, got %d", song.Speed)
	}
	if song.Length != 3 || song.PatternLength != gomidi.PatternLength {
		t.Errorf("expected 3 patterns of %d rows, got %d of %d", gomidi.PatternLength, song.Length, song.PatternLength)
	}
	var types []famiscope.ChannelType
	for _, c := range song.Channels {
		types = append(types, c.Type)
	}
	expectedTypes := []famiscope.ChannelType{famiscope.Square1, famiscope.Square2, famiscope.Triangle, famiscope.Noise}
	if !reflect.DeepEqual(types, expectedTypes) {
		t.Fatalf("expected channels %v, got %v", expectedTypes, types)
	}
}

func TestFromSMFNotes(t *testing.T) {
	p, err := gomidi.FromSMF(testSMF(t), false)
	if err != nil {
		t.Fatalf("FromSMF failed: %v", err)
	}
	song := &p.Songs[0]
	stop := famiscope.Note{Value: famiscope.NoteStop}
	t.Run("lead", func(t *testing.T) {
		expected := []famiscope.Note{
			{Value: 49, Volume: 8}, {}, stop, {},
			{Value: 51, Volume: 15}, {}, {Value: 51, Volume: 15}, stop, {},
		}
		for row, e := range expected {
			if got := song.NoteAt(0, row); got != e {
				t.Errorf("row %d: expected %v, got %v", row, e, got)
			}
		}
	})
	t.Run("unrelated note-off", func(t *testing.T) {
		if got := song.NoteAt(1, 1); !got.IsNone() {
			t.Errorf("releasing a key that is not sounding should not stop the channel, got %v", got)
		}
	})
	t.Run("drums", func(t *testing.T) {
		c := song.Channels[3]
		if !reflect.DeepEqual(c.Instances, []int{0, -1, 0}) {
			t.Errorf("identical patterns should be reused, got instances %v", c.Instances)
		}
		if got := song.NoteAt(3, 128); got.Value != 25 || got.Volume != 12 {
			t.Errorf("unexpected drum note %v", got)
		}
	})
}

func TestImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tune.mid")
	if err := testSMF(t).WriteFile(path); err != nil {
		t.Fatalf("could not write MIDI file: %v", err)
	}
	p, err := gomidi.Import(path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if p.Name != "tune" || p.Songs[0].Name != "tune" {
		t.Fatalf("project should be named after the file, got %q", p.Name)
	}
	if len(p.Songs[0].Channels) != 4 {
		t.Fatalf("expected 4 channels, got %d", len(p.Songs[0].Channels))
	}
}

func TestImportErrors(t *testing.T) {
	if _, err := gomidi.Import(filepath.Join(t.TempDir(), "missing.mid")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)
	var empty smf.Track
	empty.Close(0)
	if err := s.Add(empty); err != nil {
		t.Fatalf("could not add track: %v", err)
	}
	if _, err := gomidi.FromSMF(s, false); err == nil {
		t.Errorf("expected an error for a file without notes")
	}
}
