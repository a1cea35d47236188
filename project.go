package famiscope

import (
	"errors"
	"fmt"
	"image/color"
)

type (
	// Project is the top level document: instruments, DPCM samples, the note
	// to sample mapping of the DPCM channel and one or more songs.
	Project struct {
		Name        string `yaml:",omitempty"`
		Author      string `yaml:",omitempty"`
		PAL         bool   `yaml:",omitempty"`
		Instruments []Instrument
		Samples     []DPCMSample         `yaml:",omitempty"`
		Mappings    map[byte]DPCMMapping `yaml:",omitempty"`
		Songs       []Song
	}

	// Instrument shapes the notes of the square and noise channels. Envelope
	// is the volume (0..15) for each frame after the note triggers; the last
	// value holds. An empty envelope plays at full volume.
	Instrument struct {
		Name     string
		Color    color.NRGBA `yaml:",flow"`
		Duty     int         `yaml:",omitempty"`
		Envelope []int       `yaml:",flow,omitempty"`
	}

	// DPCMSample is delta encoded 1-bit sample data played by the DPCM
	// channel. InitialValue is loaded into the DAC when the sample starts.
	DPCMSample struct {
		Name         string
		Color        color.NRGBA `yaml:",flow"`
		InitialValue byte        `yaml:",omitempty"`
		Data         []byte      `yaml:",flow"`
	}

	// DPCMMapping assigns a sample to a note value of the DPCM channel. Pitch
	// is the 4-bit rate index; Loop restarts the sample when it ends.
	DPCMMapping struct {
		Sample string
		Pitch  int
		Loop   bool `yaml:",omitempty"`
	}
)

const (
	// DPCMBaseAddress is the CPU address where sample memory starts.
	DPCMBaseAddress = 0xC000
	// DPCMMemorySize is the amount of sample memory reachable by the 8-bit
	// start address register.
	DPCMMemorySize = 0x4000
	// MaxSampleSize is the longest sample the 8-bit length register can
	// express (255*16 + 1 bytes).
	MaxSampleSize = 0xFF1

	dpcmAlignment  = 64
	dpcmPadding    = 0x55
	dpcmLengthUnit = 16
)

// Instrument returns the instrument with the given name.
func (p *Project) Instrument(name string) (*Instrument, bool) {
	for i := range p.Instruments {
		if p.Instruments[i].Name == name {
			return &p.Instruments[i], true
		}
	}
	return nil, false
}

// Sample returns the DPCM sample with the given name.
func (p *Project) Sample(name string) (*DPCMSample, bool) {
	for i := range p.Samples {
		if p.Samples[i].Name == name {
			return &p.Samples[i], true
		}
	}
	return nil, false
}

// DPCMMapping returns the sample mapping of a DPCM note value.
func (p *Project) DPCMMapping(note byte) (DPCMMapping, bool) {
	m, ok := p.Mappings[note]
	return m, ok
}

// paddedLength returns the length of the sample after padding to the 16*n+1
// byte granularity of the length register.
func paddedLength(n int) int {
	if n <= 1 {
		return 1
	}
	return (n-1+dpcmLengthUnit-1)/dpcmLengthUnit*dpcmLengthUnit + 1
}

func alignUp(n, alignment int) int {
	return (n + alignment - 1) / alignment * alignment
}

// SampleAddress returns where the named sample lives in DPCM memory: the
// offset from DPCMBaseAddress, the padded length in bytes and the initial
// DAC value. Samples are laid out in declaration order, each aligned to 64
// bytes. Unknown samples return a negative address. The returned values are
// not range checked; samples past the end of the addressable memory produce
// addresses the hardware cannot reach.
func (p *Project) SampleAddress(name string) (addr, length int, initialValue byte) {
	offset := 0
	for i := range p.Samples {
		s := &p.Samples[i]
		l := paddedLength(len(s.Data))
		if s.Name == name {
			return offset, l, s.InitialValue
		}
		offset = alignUp(offset+l, dpcmAlignment)
	}
	return -1, 0, 0
}

// DPCMMemory returns the sample memory image starting at DPCMBaseAddress.
// Samples that do not fit in the addressable range are left out.
func (p *Project) DPCMMemory() []byte {
	mem := make([]byte, 0, DPCMMemorySize)
	for i := range p.Samples {
		s := &p.Samples[i]
		l := paddedLength(len(s.Data))
		start := alignUp(len(mem), dpcmAlignment)
		if start+l > DPCMMemorySize {
			break
		}
		for len(mem) < start {
			mem = append(mem, dpcmPadding)
		}
		mem = append(mem, s.Data...)
		for len(mem) < start+l {
			mem = append(mem, dpcmPadding)
		}
	}
	return mem
}

// Copy makes a deep copy of a Project.
func (p *Project) Copy() Project {
	instruments := make([]Instrument, len(p.Instruments))
	for i, instr := range p.Instruments {
		envelope := make([]int, len(instr.Envelope))
		copy(envelope, instr.Envelope)
		instr.Envelope = envelope
		instruments[i] = instr
	}
	samples := make([]DPCMSample, len(p.Samples))
	for i, s := range p.Samples {
		data := make([]byte, len(s.Data))
		copy(data, s.Data)
		s.Data = data
		samples[i] = s
	}
	var mappings map[byte]DPCMMapping
	if p.Mappings != nil {
		mappings = make(map[byte]DPCMMapping, len(p.Mappings))
		for k, v := range p.Mappings {
			mappings[k] = v
		}
	}
	songs := make([]Song, len(p.Songs))
	for i := range p.Songs {
		songs[i] = p.Songs[i].Copy()
	}
	return Project{
		Name:        p.Name,
		Author:      p.Author,
		PAL:         p.PAL,
		Instruments: instruments,
		Samples:     samples,
		Mappings:    mappings,
		Songs:       songs,
	}
}

// Validate checks the songs of the project and that every mapping refers to
// an existing sample.
func (p *Project) Validate() error {
	if len(p.Songs) == 0 {
		return errors.New("project contains no songs")
	}
	for i := range p.Songs {
		if err := p.Songs[i].Validate(); err != nil {
			return fmt.Errorf("song %d (%v): %w", i, p.Songs[i].Name, err)
		}
	}
	for note, m := range p.Mappings {
		if _, ok := p.Sample(m.Sample); !ok {
			return fmt.Errorf("mapping of note %v refers to unknown sample %q", Note{Value: note}.Pitch(), m.Sample)
		}
		if m.Pitch < 0 || m.Pitch > 15 {
			return fmt.Errorf("mapping of note %v has pitch %d out of range 0..15", Note{Value: note}.Pitch(), m.Pitch)
		}
	}
	return nil
}
