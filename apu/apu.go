// Package apu emulates the sound hardware of the 2A03: two pulse channels, a
// triangle, a noise generator and the delta modulation channel, mixed with the
// non-linear DAC formulas into 16-bit sample units.
//
// The emulation is register driven: callers write registers between frames
// and call EndFrame to render the audio of one video frame.
package apu

// APU is one instance of the emulated sound hardware. It is not safe for
// concurrent use.
type APU struct {
	cyclesPerSample float64
	clock           FrameClock

	pulse1   pulse
	pulse2   pulse
	triangle triangle
	noise    noise
	dmc      dmc

	mask uint

	dcIn, dcOut float32
	primed      bool
}

// FrameClock hands out the number of samples in each consecutive frame, so
// that the frame boundaries of every render at the same sample rate and
// region land on exactly the same sample indices.
type FrameClock struct {
	samplesPerFrame float64
	pos             float64
	emitted         int
}

const dcBlockerPole = 0.995

// FrameRate returns the video frame rate of the region as a fraction.
func FrameRate(pal bool) (num, den int) {
	if pal {
		return 5000773, 100000
	}
	return 6009883, 100000
}

// CPUClock returns the CPU clock frequency of the region in Hz.
func CPUClock(pal bool) int {
	if pal {
		return ClockPAL
	}
	return ClockNTSC
}

// NewFrameClock returns a FrameClock for the given sample rate and region.
func NewFrameClock(sampleRate int, pal bool) FrameClock {
	num, den := FrameRate(pal)
	return FrameClock{samplesPerFrame: float64(sampleRate) * float64(den) / float64(num)}
}

// Next returns the number of samples in the next frame.
func (c *FrameClock) Next() int {
	c.pos += c.samplesPerFrame
	n := int(c.pos) - c.emitted
	c.emitted += n
	return n
}

// Position returns the number of samples handed out so far, i.e. the sample
// index at which the next frame starts.
func (c *FrameClock) Position() int {
	return c.emitted
}

// New returns an APU rendering at sampleRate. memory is the DPCM sample
// memory starting at $C000; reads outside it return the padding byte 0x55.
func New(sampleRate int, pal bool, memory []byte) *APU {
	region := 0
	if pal {
		region = 1
	}
	a := &APU{
		cyclesPerSample: float64(CPUClock(pal)) / float64(sampleRate),
		clock:           NewFrameClock(sampleRate, pal),
		mask:            1<<NumChannels - 1,
	}
	a.noise.periods = &noiseTable[region]
	a.noise.period = a.noise.periods[0]
	a.noise.shift = 1
	a.dmc.memory = memory
	a.dmc.rates = &dmcTable[region]
	a.dmc.period = a.dmc.rates[0]
	a.dmc.bitsLeft = 8
	a.dmc.silent = true
	return a
}

// SetChannelMask selects which channels are heard in the mix: bit n enables
// channel n (ChannelPulse1 ... ChannelDMC). Muted channels still run, so
// muting does not change their timing.
func (a *APU) SetChannelMask(mask uint) {
	a.mask = mask
}

// WriteRegister writes a value to one of the sound registers $4000-$4013 or
// the channel enable register $4015. Writes to other addresses are ignored.
func (a *APU) WriteRegister(addr uint16, value byte) {
	switch {
	case addr >= Pulse1Duty && addr <= Pulse1Hi:
		a.pulse1.write(addr, value)
	case addr >= Pulse2Duty && addr <= Pulse2Hi:
		a.pulse2.write(addr, value)
	case addr >= TriangleLin && addr <= TriangleHi:
		a.triangle.write(addr, value)
	case addr >= NoiseVolume && addr <= NoiseLength:
		a.noise.write(addr, value)
	case addr >= DMCFreq && addr <= DMCLen:
		a.dmc.write(addr, value)
	case addr == SoundChannel:
		a.pulse1.enabled = value&(1<<ChannelPulse1) != 0
		a.pulse2.enabled = value&(1<<ChannelPulse2) != 0
		a.triangle.enabled = value&(1<<ChannelTriangle) != 0
		a.noise.enabled = value&(1<<ChannelNoise) != 0
		a.dmc.setEnabled(value&(1<<ChannelDMC) != 0)
	}
}

// DMCActive reports whether the DMC reader still has sample bytes to fetch.
func (a *APU) DMCActive() bool {
	return a.dmc.active()
}

// EndFrame renders the samples of one video frame and appends them to out.
func (a *APU) EndFrame(out []float32) []float32 {
	n := a.clock.Next()
	for i := 0; i < n; i++ {
		out = append(out, a.sample())
	}
	return out
}

// Position returns the index of the next sample EndFrame will produce.
func (a *APU) Position() int {
	return a.clock.Position()
}

func (a *APU) sample() float32 {
	c := a.cyclesPerSample
	a.pulse1.step(c)
	a.pulse2.step(c)
	a.triangle.step(c)
	a.noise.step(c)
	a.dmc.step(c)
	var p1, p2, t, n, d byte
	if a.mask&(1<<ChannelPulse1) != 0 {
		p1 = a.pulse1.output()
	}
	if a.mask&(1<<ChannelPulse2) != 0 {
		p2 = a.pulse2.output()
	}
	if a.mask&(1<<ChannelTriangle) != 0 {
		t = a.triangle.output()
	}
	if a.mask&(1<<ChannelNoise) != 0 {
		n = a.noise.output()
	}
	if a.mask&(1<<ChannelDMC) != 0 {
		d = a.dmc.output()
	}
	in := pulseMix[p1+p2] + tndMix[3*int(t)+2*int(n)+int(d)]
	if !a.primed {
		a.dcIn, a.primed = in, true
	}
	a.dcOut = in - a.dcIn + dcBlockerPole*a.dcOut
	a.dcIn = in
	return a.dcOut * 32767
}
