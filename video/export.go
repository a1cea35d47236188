// Package video renders oscilloscope videos of songs: one cell per channel
// showing the channel's waveform, colored by the notes it plays, streamed to
// an external encoder together with the song's audio.
package video

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/apu"
	"github.com/famiscope/famiscope/player"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	// Renderer renders the audio and the frame metadata of a song.
	// *player.Player implements it.
	Renderer interface {
		RenderChannel(project *famiscope.Project, song *famiscope.Song, mask uint) (famiscope.AudioBuffer, error)
		FrameMetadata(project *famiscope.Project, song *famiscope.Song) ([]player.FrameMetadata, error)
	}

	// Params are the settings of one export.
	Params struct {
		Song          int
		LoopCount     int
		ColorMode     ColorMode
		NumColumns    int
		LineThickness int
		Filename      string
		ResX, ResY    int
		HalfFrameRate bool
		// ChannelMask selects the exported channels; bit i is
		// Song.Channels[i].
		ChannelMask  uint
		AudioBitRate int
		VideoBitRate int
		Stereo       bool
		// Pan is the stereo position of each song channel, 0 left to 1
		// right; missing entries are centred.
		Pan []float32
	}

	// Exporter renders videos. Encoder, NewSurface and Renderer are
	// exclusively used by one Export at a time.
	Exporter struct {
		Preferences Preferences
		Encoder     Encoder
		NewSurface  func(width, height int) (Surface, error)
		Renderer    Renderer
		Logger      *log.Logger
		// Progress, if set, is called with the fraction of frames done.
		Progress func(fraction float32)
		// TempDir is where the temporary audio file is written; empty means
		// the default temporary directory.
		TempDir string
	}

	channelState struct {
		songIndex int
		channel   *famiscope.Channel
		wav       famiscope.AudioBuffer
		text      string
		colors    []color.NRGBA
	}
)

var (
	ErrInvalidChannelMask = errors.New("invalid channel mask")
	ErrInvalidLoopCount   = errors.New("invalid loop count")
	ErrAborted            = errors.New("export aborted")
)

const progressLogInterval = 100

// NewExporter returns an Exporter with the encoder command of the
// preferences, a GPU off-screen surface and the emulated player.
func NewExporter(prefs Preferences) *Exporter {
	return &Exporter{
		Preferences: prefs,
		Encoder:     NewFFmpegEncoder(prefs.Encoder),
		NewSurface:  NewHeadlessSurface,
		Renderer:    &player.Player{SampleRate: prefs.SampleRate},
		Logger:      log.New(os.Stderr, "famiscope: ", log.LstdFlags),
	}
}

func (e *Exporter) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

func (e *Exporter) progress(f float32) {
	if e.Progress != nil {
		e.Progress(f)
	}
}

func validate(project *famiscope.Project, params Params) (*famiscope.Song, error) {
	if project == nil || params.Song < 0 || params.Song >= len(project.Songs) {
		return nil, fmt.Errorf("song %d does not exist", params.Song)
	}
	song := &project.Songs[params.Song]
	if params.ChannelMask == 0 || params.ChannelMask>>uint(len(song.Channels)) != 0 {
		return nil, fmt.Errorf("%w: %#x for a song with %d channels", ErrInvalidChannelMask, params.ChannelMask, len(song.Channels))
	}
	if params.LoopCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLoopCount, params.LoopCount)
	}
	if params.ResX <= 0 || params.ResY <= 0 {
		return nil, fmt.Errorf("invalid resolution %dx%d", params.ResX, params.ResY)
	}
	return song, nil
}

// Export renders the selected song of project to params.Filename. The
// project is not modified. Cancelling ctx stops the export at the next frame
// boundary; the encoder is then finalized as cancelled and an error wrapping
// ErrAborted is returned. Temporary files are removed on every return path.
func (e *Exporter) Export(ctx context.Context, project *famiscope.Project, params Params) (err error) {
	if _, err := validate(project, params); err != nil {
		return err
	}
	if err := project.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	projectCopy := project.Copy()
	project = &projectCopy
	song := &project.Songs[params.Song]
	song.ExtendForLooping(params.LoopCount)
	sampleRate := e.Preferences.SampleRate
	if sampleRate <= 0 {
		sampleRate = player.DefaultSampleRate
	}

	e.logf("Exporting audio...")
	tempDir, err := os.MkdirTemp(e.TempDir, "famiscope-")
	if err != nil {
		return fmt.Errorf("could not create temporary directory: %w", err)
	}
	defer os.RemoveAll(tempDir)
	audioFile := filepath.Join(tempDir, "temp.wav")
	var selected []int
	for i := range song.Channels {
		if params.ChannelMask&(1<<i) != 0 {
			selected = append(selected, i)
		}
	}
	var isolated []famiscope.AudioBuffer
	if params.Stereo {
		if isolated, err = e.renderChannels(ctx, project, song, selected); err != nil {
			return err
		}
	}
	if err := e.writeAudio(audioFile, sampleRate, project, song, params, selected, isolated); err != nil {
		return err
	}

	num, den := apu.FrameRate(project.PAL)
	if params.HalfFrameRate {
		den *= 2
	}
	err = e.Encoder.BeginEncoding(EncodeParams{
		Width:        params.ResX,
		Height:       params.ResY,
		FrameRateNum: num,
		FrameRateDen: den,
		VideoBitRate: params.VideoBitRate,
		AudioBitRate: params.AudioBitRate,
		AudioFile:    audioFile,
		OutputFile:   params.Filename,
		Title:        song.Name,
	})
	if err != nil {
		e.logf("Error starting video encoder, aborting.")
		return fmt.Errorf("could not start video encoder: %w", err)
	}
	success := false
	defer func() {
		if endErr := e.Encoder.EndEncoding(!success); endErr != nil && err == nil {
			err = endErr
		}
	}()

	e.logf("Initializing channels...")
	surface, err := e.NewSurface(params.ResX, params.ResY)
	if err != nil {
		e.logf("Error initializing off-screen graphics, aborting.")
		return err
	}
	defer surface.Release()

	if isolated == nil {
		if isolated, err = e.renderChannels(ctx, project, song, selected); err != nil {
			return err
		}
	}
	caser := cases.Title(language.English, cases.NoLower)
	channels := make([]channelState, len(selected))
	var maxAbs float32
	for j, i := range selected {
		c := &song.Channels[i]
		channels[j] = channelState{songIndex: i, channel: c, wav: isolated[j], text: caser.String(c.Type.DisplayName())}
		maxAbs = max(maxAbs, isolated[j].MaxAbs())
	}
	e.progress(0)

	layout := NewLayout(params.ResX, params.ResY, len(channels), params.NumColumns)
	composer, err := NewComposer(layout, e.Preferences.Theme, params.LineThickness, e.Preferences.IconTextSpacing, e.Preferences.Watermark)
	if err != nil {
		return fmt.Errorf("could not load icons: %w", err)
	}

	meta, err := e.Renderer.FrameMetadata(project, song)
	if err != nil {
		return fmt.Errorf("could not generate frame metadata: %w", err)
	}
	windowSize := WindowSize(sampleRate, e.Preferences.OscilloscopeWindow)
	fnum, fden := apu.FrameRate(project.PAL)
	frameSamples := sampleRate * fden / fnum
	osc := NewOscilloscope(windowSize, Lookback(windowSize, frameSamples), Scale(maxAbs))
	colors := ChannelColors(project, song, meta, selected, params.ColorMode, e.Preferences.Theme.Neutral)
	for j := range channels {
		channels[j].colors = colors[j]
	}

	if err := e.renderFrames(ctx, meta, channels, osc, composer, surface, params.HalfFrameRate); err != nil {
		return err
	}
	success = true
	return nil
}

func (e *Exporter) renderChannels(ctx context.Context, project *famiscope.Project, song *famiscope.Song, selected []int) ([]famiscope.AudioBuffer, error) {
	ret := make([]famiscope.AudioBuffer, len(selected))
	g, ctx := errgroup.WithContext(ctx)
	for j, i := range selected {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrAborted, err)
			}
			buf, err := e.Renderer.RenderChannel(project, song, 1<<i)
			if err != nil {
				return fmt.Errorf("could not render channel %d: %w", i, err)
			}
			ret[j] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (e *Exporter) writeAudio(path string, sampleRate int, project *famiscope.Project, song *famiscope.Song, params Params, selected []int, isolated []famiscope.AudioBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create temporary audio file: %w", err)
	}
	defer f.Close()
	if params.Stereo {
		pans := make([]float32, len(selected))
		for j, i := range selected {
			pans[j] = 0.5
			if i < len(params.Pan) {
				pans[j] = params.Pan[i]
			}
		}
		left, right := famiscope.Pan(isolated, pans)
		err = famiscope.WriteWav(f, sampleRate, left, right)
	} else {
		var mixed famiscope.AudioBuffer
		if mixed, err = e.Renderer.RenderChannel(project, song, params.ChannelMask); err != nil {
			return fmt.Errorf("could not render audio: %w", err)
		}
		err = famiscope.WriteWav(f, sampleRate, mixed)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// renderFrames composes and submits the frames in order. Panics while
// rendering are turned into errors.
func (e *Exporter) renderFrames(ctx context.Context, meta []player.FrameMetadata, channels []channelState, osc *Oscilloscope, composer *Composer, surface Surface, half bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logf("Error exporting video.")
			e.logf("%v", r)
			err = fmt.Errorf("error exporting video: %v", r)
		}
	}()
	cells := make([]Cell, len(channels))
	for f, frame := range meta {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrAborted, ctxErr)
		}
		if f%progressLogInterval == 0 {
			e.logf("Rendering frame %d / %d", f, len(meta))
		}
		if len(meta) > 1 {
			e.progress(float32(f) / float32(len(meta)-1))
		} else {
			e.progress(1)
		}
		if half && f&1 != 0 {
			continue
		}
		for j := range channels {
			s := &channels[j]
			cells[j] = Cell{
				Type:  s.channel.Type,
				Label: s.text,
				Color: s.colors[f],
				// the point buffer is shared, so copy it for the cell
				Points: append(cells[j].Points[:0], osc.Extract(s.wav, frame.WavOffset, composer.Layout.Cell(j))...),
			}
		}
		if err := surface.Frame(composer.Compose(cells)); err != nil {
			return fmt.Errorf("could not render frame %d: %w", f, err)
		}
		pixels, err := surface.Pixels()
		if err != nil {
			return err
		}
		if err := e.Encoder.AddFrame(pixels); err != nil {
			return fmt.Errorf("could not encode frame %d: %w", f, err)
		}
	}
	return nil
}
