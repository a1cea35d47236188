package video_test

import (
	"context"
	"errors"
	"image/color"
	"os"
	"testing"

	"gioui.org/op"
	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/player"
	"github.com/famiscope/famiscope/video"
)

type fakeEncoder struct {
	beginErr  error
	began     bool
	params    video.EncodeParams
	frames    int
	ended     int
	cancelled bool
	onFrame   func(n int)
}

func (e *fakeEncoder) BeginEncoding(p video.EncodeParams) error {
	if e.beginErr != nil {
		return e.beginErr
	}
	e.began = true
	e.params = p
	if _, err := os.Stat(p.AudioFile); err != nil {
		return err
	}
	return nil
}

func (e *fakeEncoder) AddFrame(pixels []byte) error {
	e.frames++
	if e.onFrame != nil {
		e.onFrame(e.frames)
	}
	return nil
}

func (e *fakeEncoder) EndEncoding(cancelled bool) error {
	e.ended++
	e.cancelled = cancelled
	return nil
}

type fakeSurface struct {
	frames   int
	released bool
	panicAt  int
}

func (s *fakeSurface) Frame(ops *op.Ops) error {
	s.frames++
	if s.panicAt > 0 && s.frames == s.panicAt {
		panic("surface lost")
	}
	return nil
}

func (s *fakeSurface) Pixels() ([]byte, error) { return make([]byte, 4), nil }
func (s *fakeSurface) Release()                { s.released = true }

type fakeRenderer struct {
	frames  int
	offsets []int
}

func (r *fakeRenderer) RenderChannel(project *famiscope.Project, song *famiscope.Song, mask uint) (famiscope.AudioBuffer, error) {
	buf := make(famiscope.AudioBuffer, r.frames*100)
	for i := range buf {
		buf[i] = float32(i%200 - 100)
	}
	return buf, nil
}

func (r *fakeRenderer) FrameMetadata(project *famiscope.Project, song *famiscope.Song) ([]player.FrameMetadata, error) {
	ret := make([]player.FrameMetadata, r.frames)
	for i := range ret {
		ret[i] = player.FrameMetadata{WavOffset: i * 100, ChannelNotes: make([]famiscope.Note, len(song.Channels))}
	}
	return ret, nil
}

func exportProject() *famiscope.Project {
	pattern := famiscope.Pattern{Color: color.NRGBA{R: 200, A: 255}, Notes: []famiscope.Note{{Value: 40}}}
	return &famiscope.Project{
		Songs: []famiscope.Song{{
			Name:          "export",
			Speed:         1,
			PatternLength: 10,
			Length:        10,
			LoopPoint:     5,
			Channels: []famiscope.Channel{
				{Type: famiscope.Square1, Patterns: []famiscope.Pattern{pattern}, Instances: []int{0}},
				{Type: famiscope.Triangle, Patterns: []famiscope.Pattern{pattern}, Instances: []int{0}},
			},
		}},
	}
}

type testExport struct {
	exporter *video.Exporter
	encoder  *fakeEncoder
	surface  *fakeSurface
	surfaces int
	tempDir  string
}

func newTestExport(t *testing.T, frames int) *testExport {
	te := &testExport{encoder: &fakeEncoder{}, surface: &fakeSurface{}, tempDir: t.TempDir()}
	prefs := video.DefaultPreferences()
	prefs.SampleRate = 6000
	te.exporter = &video.Exporter{
		Preferences: prefs,
		Encoder:     te.encoder,
		NewSurface: func(w, h int) (video.Surface, error) {
			te.surfaces++
			return te.surface, nil
		},
		Renderer: &fakeRenderer{frames: frames},
		TempDir:  te.tempDir,
	}
	return te
}

func (te *testExport) tempDirEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(te.tempDir)
	if err != nil {
		t.Fatalf("could not read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temporary files were left behind: %v", entries)
	}
}

func defaultParams() video.Params {
	return video.Params{
		LoopCount:     1,
		ColorMode:     video.ColorChannel,
		NumColumns:    2,
		LineThickness: 2,
		Filename:      "out.mp4",
		ResX:          64,
		ResY:          48,
		ChannelMask:   3,
	}
}

func TestExport(t *testing.T) {
	te := newTestExport(t, 20)
	var progress []float32
	te.exporter.Progress = func(f float32) { progress = append(progress, f) }
	if err := te.exporter.Export(context.Background(), exportProject(), defaultParams()); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if te.encoder.frames != 20 {
		t.Fatalf("expected 20 frames, got %d", te.encoder.frames)
	}
	if te.encoder.ended != 1 || te.encoder.cancelled {
		t.Fatalf("encoder should be finalized once, not cancelled (ended %d, cancelled %v)", te.encoder.ended, te.encoder.cancelled)
	}
	if !te.surface.released {
		t.Fatalf("surface was not released")
	}
	if p := progress[len(progress)-1]; p != 1 {
		t.Fatalf("final progress should be 1, got %v", p)
	}
	if te.encoder.params.FrameRateNum != 6009883 || te.encoder.params.FrameRateDen != 100000 {
		t.Fatalf("unexpected NTSC frame rate %d/%d", te.encoder.params.FrameRateNum, te.encoder.params.FrameRateDen)
	}
	te.tempDirEmpty(t)
}

func TestExportHalfFrameRate(t *testing.T) {
	te := newTestExport(t, 21)
	params := defaultParams()
	params.HalfFrameRate = true
	if err := te.exporter.Export(context.Background(), exportProject(), params); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if te.encoder.frames != 11 {
		t.Fatalf("expected the 11 even frames, got %d", te.encoder.frames)
	}
	if te.encoder.params.FrameRateDen != 200000 {
		t.Fatalf("half frame rate should double the denominator, got %d", te.encoder.params.FrameRateDen)
	}
}

func TestExportAbort(t *testing.T) {
	te := newTestExport(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	te.encoder.onFrame = func(n int) {
		if n == 10 {
			cancel()
		}
	}
	err := te.exporter.Export(ctx, exportProject(), defaultParams())
	if !errors.Is(err, video.ErrAborted) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected an abort error, got %v", err)
	}
	if te.encoder.frames != 10 {
		t.Fatalf("expected exactly 10 frames before the abort, got %d", te.encoder.frames)
	}
	if te.encoder.ended != 1 || !te.encoder.cancelled {
		t.Fatalf("encoder should be finalized as cancelled (ended %d, cancelled %v)", te.encoder.ended, te.encoder.cancelled)
	}
	if !te.surface.released {
		t.Fatalf("surface was not released")
	}
	te.tempDirEmpty(t)
}

func TestExportEncoderFailure(t *testing.T) {
	te := newTestExport(t, 10)
	te.encoder.beginErr = errors.New("no encoder")
	if err := te.exporter.Export(context.Background(), exportProject(), defaultParams()); err == nil {
		t.Fatalf("expected an error when the encoder does not start")
	}
	if te.surfaces != 0 || te.surface.frames != 0 || te.encoder.frames != 0 {
		t.Fatalf("nothing should be rendered after an encoder failure (surfaces %d, frames %d)", te.surfaces, te.surface.frames)
	}
	if te.encoder.ended != 0 {
		t.Fatalf("an encoder that did not start should not be finalized")
	}
	te.tempDirEmpty(t)
}

func TestExportSurfaceFailure(t *testing.T) {
	te := newTestExport(t, 10)
	te.exporter.NewSurface = func(w, h int) (video.Surface, error) {
		return nil, errors.New("no GPU")
	}
	if err := te.exporter.Export(context.Background(), exportProject(), defaultParams()); err == nil {
		t.Fatalf("expected an error when the surface cannot be created")
	}
	if te.encoder.frames != 0 || te.encoder.ended != 1 || !te.encoder.cancelled {
		t.Fatalf("encoder should be cancelled without frames (frames %d, ended %d)", te.encoder.frames, te.encoder.ended)
	}
	te.tempDirEmpty(t)
}

func TestExportPanicIsError(t *testing.T) {
	te := newTestExport(t, 10)
	te.surface.panicAt = 3
	if err := te.exporter.Export(context.Background(), exportProject(), defaultParams()); err == nil {
		t.Fatalf("expected a panic during rendering to be reported as an error")
	}
	if !te.encoder.cancelled || !te.surface.released {
		t.Fatalf("cleanup should run after a panic (cancelled %v, released %v)", te.encoder.cancelled, te.surface.released)
	}
	te.tempDirEmpty(t)
}

func TestExportInvalidParams(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*video.Params)
		target error
	}{
		{"empty mask", func(p *video.Params) { p.ChannelMask = 0 }, video.ErrInvalidChannelMask},
		{"mask past channels", func(p *video.Params) { p.ChannelMask = 4 }, video.ErrInvalidChannelMask},
		{"zero loops", func(p *video.Params) { p.LoopCount = 0 }, video.ErrInvalidLoopCount},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			te := newTestExport(t, 10)
			params := defaultParams()
			c.modify(&params)
			err := te.exporter.Export(context.Background(), exportProject(), params)
			if !errors.Is(err, c.target) {
				t.Fatalf("expected %v, got %v", c.target, err)
			}
			if te.encoder.began {
				t.Fatalf("encoder should not start for invalid parameters")
			}
		})
	}
}

func TestExportDoesNotModifyProject(t *testing.T) {
	te := newTestExport(t, 5)
	project := exportProject()
	params := defaultParams()
	params.LoopCount = 3
	if err := te.exporter.Export(context.Background(), project, params); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if project.Songs[0].Length != 10 || len(project.Songs[0].Channels[0].Instances) != 1 {
		t.Fatalf("export modified the caller's song")
	}
}

func TestExportWithPlayerIsRepeatable(t *testing.T) {
	project := exportProject()
	run := func() (int, []player.FrameMetadata) {
		te := newTestExport(t, 0)
		te.exporter.Renderer = &player.Player{SampleRate: te.exporter.Preferences.SampleRate}
		params := defaultParams()
		params.Stereo = true
		params.Pan = []float32{0, 1}
		if err := te.exporter.Export(context.Background(), project, params); err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		meta, err := te.exporter.Renderer.FrameMetadata(project, &project.Songs[0])
		if err != nil {
			t.Fatalf("FrameMetadata failed: %v", err)
		}
		return te.encoder.frames, meta
	}
	framesA, metaA := run()
	framesB, metaB := run()
	if framesA != framesB || framesA != project.Songs[0].LengthInFrames() {
		t.Fatalf("frame counts differ: %d vs %d (song has %d frames)", framesA, framesB, project.Songs[0].LengthInFrames())
	}
	for i := range metaA {
		if metaA[i].WavOffset != metaB[i].WavOffset {
			t.Fatalf("frame %d offsets differ: %d vs %d", i, metaA[i].WavOffset, metaB[i].WavOffset)
		}
	}
}
