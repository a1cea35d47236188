package player_test

import (
	"testing"

	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/apu"
	"github.com/famiscope/famiscope/player"
)

type write struct {
	addr  uint16
	value byte
}

type recorder struct {
	writes []write
}

func (r *recorder) WriteRegister(addr uint16, value byte) {
	r.writes = append(r.writes, write{addr, value})
}

type fakeSamples struct {
	mapping      famiscope.DPCMMapping
	mapped       bool
	addr, length int
	initialValue byte
}

func (f fakeSamples) DPCMMapping(note byte) (famiscope.DPCMMapping, bool) {
	return f.mapping, f.mapped
}

func (f fakeSamples) SampleAddress(name string) (int, int, byte) {
	return f.addr, f.length, f.initialValue
}

func triggerDPCM(samples player.SampleSource, note famiscope.Note) []write {
	r := &recorder{}
	s := player.NewChannelState(0, false, r, &player.DPCM{Samples: samples})
	s.PlayNote(note)
	s.UpdateRegisters()
	return r.writes
}

func TestDPCMTriggerSequence(t *testing.T) {
	for _, loop := range []bool{false, true} {
		samples := fakeSamples{
			mapping:      famiscope.DPCMMapping{Sample: "kick", Pitch: 15, Loop: loop},
			mapped:       true,
			addr:         0x1C0,
			length:       0x211,
			initialValue: 0x40,
		}
		freq := byte(0x0F)
		if loop {
			freq |= 0x40
		}
		expected := []write{
			{apu.SoundChannel, 0x0F},
			{apu.DMCStart, 0x07},
			{apu.DMCLen, 0x21},
			{apu.DMCFreq, freq},
			{apu.DMCRaw, 0x40},
			{apu.SoundChannel, 0x1F},
		}
		got := triggerDPCM(samples, famiscope.Note{Value: 37})
		if len(got) != len(expected) {
			t.Fatalf("loop=%v: expected %d writes, got %d: %v", loop, len(expected), len(got), got)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Errorf("loop=%v: write %d: expected %#v, got %#v", loop, i, expected[i], got[i])
			}
		}
	}
}

func TestDPCMBoundaryValuesAreWritten(t *testing.T) {
	samples := fakeSamples{mapped: true, addr: 0xFF << 6, length: famiscope.MaxSampleSize}
	got := triggerDPCM(samples, famiscope.Note{Value: 1})
	if len(got) != 6 {
		t.Fatalf("expected 6 writes at the edges of the valid range, got %v", got)
	}
	if got[1] != (write{apu.DMCStart, 0xFF}) || got[2] != (write{apu.DMCLen, 0xFF}) {
		t.Fatalf("unexpected address or length writes: %v", got)
	}
}

func TestDPCMOutOfRangeIsSilent(t *testing.T) {
	cases := []struct {
		name         string
		addr, length int
	}{
		{"negative address", -1, 17},
		{"address past memory", 0x100 << 6, 17},
		{"negative length", 0, -1},
		{"length too long", 0, famiscope.MaxSampleSize + 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			samples := fakeSamples{mapped: true, addr: c.addr, length: c.length}
			got := triggerDPCM(samples, famiscope.Note{Value: 1})
			if len(got) != 1 || got[0] != (write{apu.SoundChannel, 0x0F}) {
				t.Fatalf("expected a single silence write, got %v", got)
			}
		})
	}
}

func TestDPCMUnmappedNoteIsSilent(t *testing.T) {
	got := triggerDPCM(fakeSamples{}, famiscope.Note{Value: 30})
	if len(got) != 1 || got[0] != (write{apu.SoundChannel, 0x0F}) {
		t.Fatalf("expected a single silence write, got %v", got)
	}
}

func TestDPCMStop(t *testing.T) {
	samples := fakeSamples{mapped: true, length: 17}
	r := &recorder{}
	s := player.NewChannelState(0, false, r, &player.DPCM{Samples: samples})
	s.PlayNote(famiscope.Note{Value: famiscope.NoteStop})
	s.UpdateRegisters()
	if len(r.writes) != 1 || r.writes[0] != (write{apu.SoundChannel, 0x0F}) {
		t.Fatalf("stop without a prior note: expected a single silence write, got %v", r.writes)
	}
	s.PlayNote(famiscope.Note{Value: 40})
	s.UpdateRegisters()
	r.writes = nil
	s.PlayNote(famiscope.Note{Value: famiscope.NoteStop})
	s.UpdateRegisters()
	if len(r.writes) != 1 || r.writes[0] != (write{apu.SoundChannel, 0x0F}) {
		t.Fatalf("stop after a note: expected a single silence write, got %v", r.writes)
	}
}

func TestDPCMSustainWritesNothing(t *testing.T) {
	samples := fakeSamples{mapped: true, length: 17}
	r := &recorder{}
	s := player.NewChannelState(0, false, r, &player.DPCM{Samples: samples})
	s.PlayNote(famiscope.Note{Value: 40})
	s.UpdateRegisters()
	r.writes = nil
	s.PlayNote(famiscope.Note{})
	s.UpdateRegisters()
	s.UpdateRegisters()
	if len(r.writes) != 0 {
		t.Fatalf("a sustaining sample should not touch the registers, got %v", r.writes)
	}
}

func TestDPCMWithProject(t *testing.T) {
	project := &famiscope.Project{
		Samples: []famiscope.DPCMSample{
			{Name: "a", Data: make([]byte, 20)},
			{Name: "b", Data: make([]byte, 33), InitialValue: 12},
		},
		Mappings: map[byte]famiscope.DPCMMapping{37: {Sample: "b", Pitch: 3}},
	}
	got := triggerDPCM(project, famiscope.Note{Value: 37})
	expected := []write{
		{apu.SoundChannel, 0x0F},
		{apu.DMCStart, 1}, // "a" is padded to 33 bytes, "b" starts at the next 64 byte boundary
		{apu.DMCLen, 2},
		{apu.DMCFreq, 3},
		{apu.DMCRaw, 12},
		{apu.SoundChannel, 0x1F},
	}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("write %d: expected %#v, got %#v", i, expected[i], got[i])
		}
	}
}
