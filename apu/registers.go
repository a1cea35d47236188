package apu

// Register addresses of the 2A03 sound hardware.
const (
	Pulse1Duty   uint16 = 0x4000
	Pulse1Sweep  uint16 = 0x4001
	Pulse1Lo     uint16 = 0x4002
	Pulse1Hi     uint16 = 0x4003
	Pulse2Duty   uint16 = 0x4004
	Pulse2Sweep  uint16 = 0x4005
	Pulse2Lo     uint16 = 0x4006
	Pulse2Hi     uint16 = 0x4007
	TriangleLin  uint16 = 0x4008
	TriangleLo   uint16 = 0x400A
	TriangleHi   uint16 = 0x400B
	NoiseVolume  uint16 = 0x400C
	NoisePeriod  uint16 = 0x400E
	NoiseLength  uint16 = 0x400F
	DMCFreq      uint16 = 0x4010
	DMCRaw       uint16 = 0x4011
	DMCStart     uint16 = 0x4012
	DMCLen       uint16 = 0x4013
	SoundChannel uint16 = 0x4015
)

// Channel bits, as used in the channel mask and the status register.
const (
	ChannelPulse1 = iota
	ChannelPulse2
	ChannelTriangle
	ChannelNoise
	ChannelDMC
	NumChannels
)

const (
	ClockNTSC = 1789773
	ClockPAL  = 1662607
)

var dutyTable = [4][8]byte{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var triangleTable = [32]byte{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// periods in CPU cycles
var noiseTable = [2][16]uint16{
	{4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068},
	{4, 8, 14, 30, 60, 88, 118, 148, 188, 236, 354, 472, 708, 944, 1890, 3778},
}

var dmcTable = [2][16]uint16{
	{428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54},
	{398, 354, 316, 298, 276, 236, 210, 198, 176, 148, 132, 118, 98, 78, 66, 50},
}

var pulseMix [31]float32
var tndMix [203]float32

func init() {
	for i := 1; i < len(pulseMix); i++ {
		pulseMix[i] = 95.52 / (8128.0/float32(i) + 100)
	}
	for i := 1; i < len(tndMix); i++ {
		tndMix[i] = 163.67 / (24329.0/float32(i) + 100)
	}
}
