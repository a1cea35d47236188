// Package player turns the notes of a song into register writes of the
// emulated sound hardware, one frame at a time, and renders the resulting
// audio and the per-frame note metadata used by the video exporter.
package player

import (
	"github.com/famiscope/famiscope"
)

type (
	// RegisterWriter is the emulated hardware as seen by a channel state:
	// a sink of register writes. Nothing is ever read back.
	RegisterWriter interface {
		WriteRegister(addr uint16, value byte)
	}

	// SampleSource resolves DPCM notes to samples and samples to their
	// location in sample memory. *famiscope.Project implements it.
	SampleSource interface {
		DPCMMapping(note byte) (famiscope.DPCMMapping, bool)
		SampleAddress(name string) (addr, length int, initialValue byte)
	}

	// InstrumentSource looks up instruments by name. *famiscope.Project
	// implements it.
	InstrumentSource interface {
		Instrument(name string) (*famiscope.Instrument, bool)
	}

	// Voice holds the register logic of one channel type. Stop silences the
	// channel, Trigger starts a new musical note and PostUpdate runs on every
	// frame after either of them (or neither).
	Voice interface {
		Stop(w RegisterWriter, s *ChannelState)
		Trigger(w RegisterWriter, s *ChannelState)
		PostUpdate(w RegisterWriter, s *ChannelState)
	}

	// ChannelState is the state machine of one logical sound channel: the
	// note currently playing, whether it was triggered on this frame and how
	// many frames have passed since. It is the only writer of its channel's
	// registers.
	ChannelState struct {
		index     int
		pal       bool
		note      famiscope.Note
		triggered bool
		frame     int
		writer    RegisterWriter
		voice     Voice
	}
)

// NewChannelState returns the state of channel index, writing its registers
// to w through the given voice.
func NewChannelState(index int, pal bool, w RegisterWriter, voice Voice) *ChannelState {
	return &ChannelState{index: index, pal: pal, writer: w, voice: voice}
}

// Index returns the index of the channel in the song.
func (s *ChannelState) Index() int { return s.index }

// PAL reports whether the channel runs on the PAL clock.
func (s *ChannelState) PAL() bool { return s.pal }

// Note returns the note currently held by the channel.
func (s *ChannelState) Note() famiscope.Note { return s.note }

// Triggered reports whether the current note starts on this frame.
func (s *ChannelState) Triggered() bool { return s.triggered }

// Frame returns the number of frames since the current note was triggered.
func (s *ChannelState) Frame() int { return s.frame }

// PlayNote feeds the note of a new row to the channel. Empty rows keep the
// current note sustaining; stops and musical notes replace it, and musical
// notes trigger.
func (s *ChannelState) PlayNote(note famiscope.Note) {
	if note.IsNone() {
		return
	}
	s.note = note
	s.triggered = note.IsMusical()
	if s.triggered {
		s.frame = 0
	}
}

// UpdateRegisters writes the registers for the current frame: silence for a
// stopped channel, the trigger sequence for a freshly triggered note, then
// always the per-frame update of the voice.
func (s *ChannelState) UpdateRegisters() {
	switch {
	case s.note.IsStop():
		s.voice.Stop(s.writer, s)
	case s.note.IsMusical() && s.triggered:
		s.voice.Trigger(s.writer, s)
	}
	s.voice.PostUpdate(s.writer, s)
	s.triggered = false
	s.frame++
}

// NewVoice returns the voice of a channel type.
func NewVoice(t famiscope.ChannelType, instruments InstrumentSource, samples SampleSource) Voice {
	switch t {
	case famiscope.Square1:
		return &Square{Base: 0x4000, Instruments: instruments}
	case famiscope.Square2:
		return &Square{Base: 0x4004, Instruments: instruments}
	case famiscope.Triangle:
		return &Triangle{}
	case famiscope.Noise:
		return &Noise{Instruments: instruments}
	case famiscope.DPCM:
		return &DPCM{Samples: samples}
	}
	return nil
}
