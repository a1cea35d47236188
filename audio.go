package famiscope

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/viterin/vek/vek32"
)

// AudioBuffer is a mono PCM signal in 16-bit sample units, i.e. full scale
// is ±32767, but stored as float32 so that mixing and scaling do not clip.
type AudioBuffer []float32

// MaxAbs returns the largest absolute sample value of the buffer.
func (b AudioBuffer) MaxAbs() float32 {
	if len(b) == 0 {
		return 0
	}
	return max(vek32.Max(b), -vek32.Min(b))
}

// Pan mixes mono buffers into a stereo pair. pans[i] is the position of
// buffers[i]: 0 is hard left, 0.5 centre and 1 hard right; missing entries
// are centred. The result is as long as the longest input.
func Pan(buffers []AudioBuffer, pans []float32) (left, right AudioBuffer) {
	length := 0
	for _, b := range buffers {
		length = max(length, len(b))
	}
	left = make(AudioBuffer, length)
	right = make(AudioBuffer, length)
	for i, b := range buffers {
		p := float32(0.5)
		if i < len(pans) {
			p = min(max(pans[i], 0), 1)
		}
		l := min(1, 2*(1-p))
		r := min(1, 2*p)
		vek32.Add_Inplace(left[:len(b)], vek32.MulNumber(b, l))
		vek32.Add_Inplace(right[:len(b)], vek32.MulNumber(b, r))
	}
	return left, right
}

// WriteWav writes the channels as an interleaved 16-bit PCM .wav file. All
// channels should have the same length; shorter ones are padded with
// silence.
func WriteWav(w io.WriteSeeker, sampleRate int, channels ...AudioBuffer) error {
	if len(channels) == 0 {
		return errors.New("WriteWav needs at least one channel")
	}
	length := 0
	for _, c := range channels {
		length = max(length, len(c))
	}
	data := make([]int, length*len(channels))
	for ci, c := range channels {
		for i, v := range c {
			data[i*len(channels)+ci] = clamp(int(math.Round(float64(v))), math.MinInt16, math.MaxInt16)
		}
	}
	enc := wav.NewEncoder(w, sampleRate, 16, len(channels), 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("could not write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not finalize wav file: %w", err)
	}
	return nil
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
