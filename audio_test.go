package famiscope_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/famiscope/famiscope"
	"github.com/go-audio/wav"
)

func TestMaxAbs(t *testing.T) {
	if got := (famiscope.AudioBuffer{1, -5, 3}).MaxAbs(); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
	if got := (famiscope.AudioBuffer{}).MaxAbs(); got != 0 {
		t.Fatalf("expected 0 for an empty buffer, got %v", got)
	}
}

func TestPan(t *testing.T) {
	left, right := famiscope.Pan(
		[]famiscope.AudioBuffer{{100, 100}, {10, 10, 10}, {1000}},
		[]float32{0, 1},
	)
	if len(left) != 3 || len(right) != 3 {
		t.Fatalf("output should be as long as the longest input")
	}
	if left[0] != 1100 || right[0] != 1010 {
		t.Fatalf("unexpected first frame %v %v", left[0], right[0])
	}
	if left[2] != 0 || right[2] != 10 {
		t.Fatalf("unexpected last frame %v %v", left[2], right[2])
	}
}

func TestWriteWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("could not create file: %v", err)
	}
	left := famiscope.AudioBuffer{0, 1000, 40000, -40000}
	right := famiscope.AudioBuffer{1, 2}
	if err := famiscope.WriteWav(f, 22050, left, right); err != nil {
		t.Fatalf("WriteWav failed: %v", err)
	}
	f.Close()
	f, err = os.Open(path)
	if err != nil {
		t.Fatalf("could not open file: %v", err)
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("could not decode wav: %v", err)
	}
	if d.SampleRate != 22050 || d.NumChans != 2 || d.BitDepth != 16 {
		t.Fatalf("unexpected format: %d Hz, %d channels, %d bits", d.SampleRate, d.NumChans, d.BitDepth)
	}
	expected := []int{0, 1, 1000, 2, 32767, 0, -32768, 0}
	if len(buf.Data) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(buf.Data))
	}
	for i, e := range expected {
		if buf.Data[i] != e {
			t.Fatalf("sample %d: expected %d, got %d", i, e, buf.Data[i])
		}
	}
}

func TestWriteWavNeedsChannels(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "empty.wav"))
	if err != nil {
		t.Fatalf("could not create file: %v", err)
	}
	defer f.Close()
	if err := famiscope.WriteWav(f, 44100); err == nil {
		t.Fatalf("expected an error without channels")
	}
}
