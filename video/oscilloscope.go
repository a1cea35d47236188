package video

import (
	"image"
	"math"

	"gioui.org/f32"
	"github.com/famiscope/famiscope"
	"github.com/viterin/vek/vek32"
)

// Oscilloscope turns windows of a PCM buffer into polylines. The point
// buffer is reused: the slice returned by Extract is only valid until the
// next call.
type Oscilloscope struct {
	WindowSize int
	Lookback   int
	Scale      float32

	samples []float32
	points  []f32.Point
}

// WindowSize returns the number of samples shown for a window of the given
// length in seconds.
func WindowSize(sampleRate int, seconds float64) int {
	return max(1, int(math.Round(float64(sampleRate)*seconds)))
}

// Lookback returns how far before the start of a frame the window starts, so
// that the window is centred on the middle of the frame.
func Lookback(windowSize, frameSamples int) int {
	return max(0, windowSize/2-frameSamples/2)
}

// Scale returns the factor that brings the loudest sample to full scale, or
// 1 for silence.
func Scale(maxAbs float32) float32 {
	if maxAbs == 0 {
		return 1
	}
	return math.MaxInt16 / maxAbs
}

func NewOscilloscope(windowSize, lookback int, scale float32) *Oscilloscope {
	windowSize = max(windowSize, 1)
	return &Oscilloscope{
		WindowSize: windowSize,
		Lookback:   lookback,
		Scale:      scale,
		samples:    make([]float32, windowSize),
		points:     make([]f32.Point, windowSize),
	}
}

// Extract returns WindowSize points spanning bounds horizontally. Positive
// samples go up, i.e. towards bounds.Min.Y, and a full scale sample reaches
// the edge of bounds. Indices before the start or past the end of the
// buffer are clamped to its first and last sample.
func (o *Oscilloscope) Extract(wav famiscope.AudioBuffer, wavOffset int, bounds image.Rectangle) []f32.Point {
	start := wavOffset - o.Lookback
	for i := range o.samples {
		if len(wav) == 0 {
			o.samples[i] = 0
			continue
		}
		o.samples[i] = wav[min(max(start+i, 0), len(wav)-1)]
	}
	halfHeight := float32(bounds.Dy()) / 2
	centerY := float32(bounds.Min.Y) + halfHeight
	vek32.MulNumber_Inplace(o.samples, -o.Scale/32768*halfHeight)
	vek32.AddNumber_Inplace(o.samples, centerY)
	minX := float32(bounds.Min.X)
	stepX := float32(0)
	if o.WindowSize > 1 {
		stepX = float32(bounds.Dx()) / float32(o.WindowSize-1)
	}
	for i, y := range o.samples {
		o.points[i] = f32.Pt(minX+float32(i)*stepX, y)
	}
	return o.points
}
