package player

import (
	"math"

	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/apu"
)

type (
	// Square is the voice of a pulse channel; Base is the address of its
	// first register ($4000 or $4004).
	Square struct {
		Base        uint16
		Instruments InstrumentSource
	}

	Triangle struct{}

	Noise struct {
		Instruments InstrumentSource
	}
)

const (
	constantVolume = 0x30
	sweepDisabled  = 0x08
	triangleOn     = 0x81
	triangleOff    = 0x80
	maxPeriod      = 0x7FF
	noteA4         = 58
)

func frequency(note byte) float64 {
	return 440 * math.Pow(2, float64(int(note)-noteA4)/12)
}

// timerPeriod returns the 11-bit timer value that makes a channel dividing
// the CPU clock by divider*(t+1) play the note.
func timerPeriod(note byte, pal bool, divider float64) uint16 {
	t := math.Round(float64(apu.CPUClock(pal))/(divider*frequency(note))) - 1
	return uint16(min(max(t, 0), maxPeriod))
}

// volume combines the instrument envelope at the current frame with the
// note volume. Notes without an instrument play at full envelope.
func volume(instruments InstrumentSource, s *ChannelState) byte {
	note := s.Note()
	env := famiscope.MaxVolume
	if instr, ok := instruments.Instrument(note.Instrument); ok && len(instr.Envelope) > 0 {
		env = instr.Envelope[min(s.Frame(), len(instr.Envelope)-1)]
		env = min(max(env, 0), famiscope.MaxVolume)
	}
	return byte((env*note.EffectiveVolume() + famiscope.MaxVolume - 1) / famiscope.MaxVolume)
}

func duty(instruments InstrumentSource, note famiscope.Note) byte {
	if instr, ok := instruments.Instrument(note.Instrument); ok {
		return byte(instr.Duty & 3)
	}
	return 2
}

func (q *Square) Stop(w RegisterWriter, s *ChannelState) {
	w.WriteRegister(q.Base, constantVolume)
}

func (q *Square) Trigger(w RegisterWriter, s *ChannelState) {
	period := timerPeriod(s.Note().Value, s.PAL(), 16)
	w.WriteRegister(q.Base+1, sweepDisabled)
	w.WriteRegister(q.Base+2, byte(period))
	w.WriteRegister(q.Base+3, byte(period>>8))
}

func (q *Square) PostUpdate(w RegisterWriter, s *ChannelState) {
	if !s.Note().IsMusical() {
		return
	}
	w.WriteRegister(q.Base, duty(q.Instruments, s.Note())<<6 | constantVolume | volume(q.Instruments, s))
}

func (Triangle) Stop(w RegisterWriter, s *ChannelState) {
	w.WriteRegister(apu.TriangleLin, triangleOff)
}

func (Triangle) Trigger(w RegisterWriter, s *ChannelState) {
	period := timerPeriod(s.Note().Value, s.PAL(), 32)
	w.WriteRegister(apu.TriangleLo, byte(period))
	w.WriteRegister(apu.TriangleHi, byte(period>>8))
}

func (Triangle) PostUpdate(w RegisterWriter, s *ChannelState) {
	if s.Note().IsMusical() {
		w.WriteRegister(apu.TriangleLin, triangleOn)
	}
}

func (n *Noise) Stop(w RegisterWriter, s *ChannelState) {
	w.WriteRegister(apu.NoiseVolume, constantVolume)
}

// Trigger maps the note value onto the 16 noise periods, higher notes
// giving shorter periods. Odd instrument duties select the short, tonal
// mode of the generator.
func (n *Noise) Trigger(w RegisterWriter, s *ChannelState) {
	note := s.Note()
	period := (note.Value-famiscope.NoteMin)&0x0F ^ 0x0F
	if duty(n.Instruments, note)&1 != 0 {
		period |= 0x80
	}
	w.WriteRegister(apu.NoisePeriod, period)
}

func (n *Noise) PostUpdate(w RegisterWriter, s *ChannelState) {
	if s.Note().IsMusical() {
		w.WriteRegister(apu.NoiseVolume, constantVolume|volume(n.Instruments, s))
	}
}
