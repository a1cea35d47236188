package apu

// dmc is the delta modulation channel: a memory reader feeding a 1-bit delta
// shifter that moves a 7-bit DAC up or down by two.
type dmc struct {
	memory []byte
	rates  *[16]uint16

	loop   bool
	period uint16
	level  byte

	sampleAddr   int
	sampleLength int
	addr         int
	remaining    int

	buffer     byte
	bufferFull bool
	shift      byte
	bitsLeft   int
	silent     bool

	phase float64
}

func (d *dmc) write(reg uint16, value byte) {
	switch reg {
	case DMCFreq:
		d.loop = value&0x40 != 0
		d.period = d.rates[value&0x0F]
	case DMCRaw:
		d.level = value & 0x7F
	case DMCStart:
		d.sampleAddr = 0xC000 + int(value)*64
	case DMCLen:
		d.sampleLength = int(value)*16 + 1
	}
}

func (d *dmc) setEnabled(enabled bool) {
	if !enabled {
		d.remaining = 0
		return
	}
	if d.remaining == 0 {
		d.restart()
	}
}

func (d *dmc) restart() {
	d.addr = d.sampleAddr
	d.remaining = d.sampleLength
	d.fill()
}

func (d *dmc) read(addr int) byte {
	i := addr - 0xC000
	if i < 0 || i >= len(d.memory) {
		return 0x55
	}
	return d.memory[i]
}

func (d *dmc) fill() {
	if d.bufferFull || d.remaining == 0 {
		return
	}
	d.buffer = d.read(d.addr)
	d.bufferFull = true
	d.addr++
	if d.addr > 0xFFFF {
		d.addr = 0x8000
	}
	d.remaining--
	if d.remaining == 0 && d.loop {
		d.addr = d.sampleAddr
		d.remaining = d.sampleLength
	}
}

func (d *dmc) clock() {
	if !d.silent {
		if d.shift&1 != 0 {
			if d.level <= 125 {
				d.level += 2
			}
		} else if d.level >= 2 {
			d.level -= 2
		}
	}
	d.shift >>= 1
	d.bitsLeft--
	if d.bitsLeft <= 0 {
		d.bitsLeft = 8
		d.silent = !d.bufferFull
		if d.bufferFull {
			d.shift = d.buffer
			d.bufferFull = false
		}
	}
	d.fill()
}

func (d *dmc) step(cycles float64) {
	period := float64(d.period)
	d.phase += cycles
	for d.phase >= period {
		d.phase -= period
		d.clock()
	}
}

func (d *dmc) output() byte {
	return d.level
}

func (d *dmc) active() bool {
	return d.remaining > 0
}
