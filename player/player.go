package player

import (
	"errors"
	"fmt"

	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/apu"
)

type (
	// Player renders songs offline at a fixed sample rate.
	Player struct {
		SampleRate int
	}

	// FrameMetadata is the state of every channel at the start of one video
	// frame. WavOffset is the index of the frame's first sample in the
	// buffers returned by RenderChannel; ChannelNotes holds the note each
	// channel is playing, indexed like the song channels.
	FrameMetadata struct {
		WavOffset    int
		ChannelNotes []famiscope.Note
	}

	sequencer struct {
		song   *famiscope.Song
		states []*ChannelState
		frame  int
	}

	discard struct{}
)

// DefaultSampleRate is used when Player.SampleRate is not set.
const DefaultSampleRate = 44100

func (discard) WriteRegister(uint16, byte) {}

func newSequencer(project *famiscope.Project, song *famiscope.Song, w RegisterWriter) *sequencer {
	states := make([]*ChannelState, len(song.Channels))
	for i, c := range song.Channels {
		states[i] = NewChannelState(i, project.PAL, w, NewVoice(c.Type, project, project))
	}
	return &sequencer{song: song, states: states}
}

func (q *sequencer) done() bool {
	return q.frame >= q.song.LengthInFrames()
}

// step plays one frame: the notes of a new row are fed to the channels on
// the first frame of the row, then every channel updates its registers.
func (q *sequencer) step() {
	if q.frame%q.song.Speed == 0 {
		row := q.frame / q.song.Speed
		for i, s := range q.states {
			s.PlayNote(q.song.NoteAt(i, row))
		}
	}
	for _, s := range q.states {
		s.UpdateRegisters()
	}
	q.frame++
}

func (p *Player) sampleRate() int {
	if p.SampleRate <= 0 {
		return DefaultSampleRate
	}
	return p.SampleRate
}

func check(project *famiscope.Project, song *famiscope.Song) error {
	if project == nil || song == nil {
		return errors.New("nil project or song")
	}
	if err := song.Validate(); err != nil {
		return fmt.Errorf("invalid song: %w", err)
	}
	return nil
}

// HardwareMask converts a mask of song channel indices into the channel mask
// of the sound hardware.
func HardwareMask(song *famiscope.Song, mask uint) uint {
	var ret uint
	for i, c := range song.Channels {
		if mask&(1<<i) != 0 {
			ret |= 1 << uint(c.Type)
		}
	}
	return ret
}

// RenderChannel renders the whole song with only the channels selected by
// mask audible; bit i of mask selects song.Channels[i]. All channels are
// still played, so every render of the same song has the same length and
// frame boundaries.
func (p *Player) RenderChannel(project *famiscope.Project, song *famiscope.Song, mask uint) (famiscope.AudioBuffer, error) {
	if err := check(project, song); err != nil {
		return nil, err
	}
	a := apu.New(p.sampleRate(), project.PAL, project.DPCMMemory())
	a.SetChannelMask(HardwareMask(song, mask))
	a.WriteRegister(apu.SoundChannel, 0x0F)
	q := newSequencer(project, song, a)
	buf := make([]float32, 0, q.song.LengthInFrames()*p.sampleRate()/50+1)
	for !q.done() {
		q.step()
		buf = a.EndFrame(buf)
	}
	return famiscope.AudioBuffer(buf), nil
}

// FrameMetadata returns the metadata of every frame of the song, in frame
// order. The offsets match the frame boundaries of RenderChannel at the same
// sample rate.
func (p *Player) FrameMetadata(project *famiscope.Project, song *famiscope.Song) ([]FrameMetadata, error) {
	if err := check(project, song); err != nil {
		return nil, err
	}
	clock := apu.NewFrameClock(p.sampleRate(), project.PAL)
	q := newSequencer(project, song, discard{})
	ret := make([]FrameMetadata, 0, song.LengthInFrames())
	for !q.done() {
		q.step()
		notes := make([]famiscope.Note, len(q.states))
		for i, s := range q.states {
			notes[i] = s.Note()
		}
		ret = append(ret, FrameMetadata{WavOffset: clock.Position(), ChannelNotes: notes})
		clock.Next()
	}
	return ret, nil
}
