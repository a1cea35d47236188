package apu

type (
	pulse struct {
		enabled bool
		duty    byte
		volume  byte
		period  uint16
		dutyPos byte
		phase   float64
	}

	triangle struct {
		enabled bool
		active  bool
		period  uint16
		seqPos  byte
		phase   float64
	}

	noise struct {
		enabled bool
		volume  byte
		mode    bool
		periods *[16]uint16
		period  uint16
		shift   uint16
		phase   float64
	}
)

func (p *pulse) write(reg uint16, value byte) {
	switch reg & 3 {
	case 0:
		p.duty = value >> 6
		p.volume = value & 0x0F
	case 2:
		p.period = p.period&0x700 | uint16(value)
	case 3:
		p.period = p.period&0x0FF | uint16(value&0x07)<<8
		p.dutyPos = 0
	}
}

func (p *pulse) step(cycles float64) {
	period := float64(2 * (uint32(p.period) + 1))
	p.phase += cycles
	for p.phase >= period {
		p.phase -= period
		p.dutyPos = (p.dutyPos + 1) & 7
	}
}

func (p *pulse) output() byte {
	// periods below 8 are muted by the sweep unit
	if !p.enabled || p.period < 8 {
		return 0
	}
	return dutyTable[p.duty][p.dutyPos] * p.volume
}

func (t *triangle) write(reg uint16, value byte) {
	switch reg {
	case TriangleLin:
		t.active = value&0x7F != 0
	case TriangleLo:
		t.period = t.period&0x700 | uint16(value)
	case TriangleHi:
		t.period = t.period&0x0FF | uint16(value&0x07)<<8
	}
}

func (t *triangle) step(cycles float64) {
	// the sequencer halts when silenced and at ultrasonic periods; the output
	// holds its last value
	if !t.enabled || !t.active || t.period < 2 {
		return
	}
	period := float64(t.period + 1)
	t.phase += cycles
	for t.phase >= period {
		t.phase -= period
		t.seqPos = (t.seqPos + 1) & 31
	}
}

func (t *triangle) output() byte {
	return triangleTable[t.seqPos]
}

func (n *noise) write(reg uint16, value byte) {
	switch reg {
	case NoiseVolume:
		n.volume = value & 0x0F
	case NoisePeriod:
		n.mode = value&0x80 != 0
		n.period = n.periods[value&0x0F]
	}
}

func (n *noise) step(cycles float64) {
	period := float64(n.period)
	n.phase += cycles
	for n.phase >= period {
		n.phase -= period
		tap := uint16(1)
		if n.mode {
			tap = 6
		}
		feedback := (n.shift ^ n.shift>>tap) & 1
		n.shift = n.shift>>1 | feedback<<14
	}
}

func (n *noise) output() byte {
	if !n.enabled || n.shift&1 != 0 {
		return 0
	}
	return n.volume
}
