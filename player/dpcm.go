package player

import (
	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/apu"
)

// DPCM is the voice of the sample playback channel.
type DPCM struct {
	Samples SampleSource
}

const (
	dpcmSilence = 0x0F
	dpcmPlay    = 0x1F
	dpcmLoopBit = 0x40
)

func (d *DPCM) Stop(w RegisterWriter, s *ChannelState) {
	w.WriteRegister(apu.SoundChannel, dpcmSilence)
}

// Trigger silences the channel and, if the note maps to a sample that the
// hardware can address, latches the sample registers and restarts playback.
// Samples outside the addressable range leave the channel silent.
func (d *DPCM) Trigger(w RegisterWriter, s *ChannelState) {
	w.WriteRegister(apu.SoundChannel, dpcmSilence)
	mapping, ok := d.Samples.DPCMMapping(s.Note().Value)
	if !ok {
		return
	}
	addr, length, initialValue := d.Samples.SampleAddress(mapping.Sample)
	addr >>= 6
	if addr < 0 || addr > 0xFF || length < 0 || length > famiscope.MaxSampleSize {
		return
	}
	freq := byte(mapping.Pitch & 0x0F)
	if mapping.Loop {
		freq |= dpcmLoopBit
	}
	w.WriteRegister(apu.DMCStart, byte(addr))
	w.WriteRegister(apu.DMCLen, byte(length>>4))
	w.WriteRegister(apu.DMCFreq, freq)
	w.WriteRegister(apu.DMCRaw, initialValue)
	w.WriteRegister(apu.SoundChannel, dpcmPlay)
}

func (d *DPCM) PostUpdate(w RegisterWriter, s *ChannelState) {}
