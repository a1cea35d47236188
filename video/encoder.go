package video

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"text/template"

	"github.com/Masterminds/sprig"
)

type (
	// Encoder is a streaming video encoder. Frames are submitted in order
	// between BeginEncoding and EndEncoding; EndEncoding is called exactly
	// once after a successful BeginEncoding, with cancelled set if the
	// export did not complete.
	Encoder interface {
		BeginEncoding(params EncodeParams) error
		AddFrame(pixels []byte) error
		EndEncoding(cancelled bool) error
	}

	EncodeParams struct {
		Width, Height int
		FrameRateNum  int
		FrameRateDen  int
		// VideoBitRate and AudioBitRate are in kbit/s.
		VideoBitRate int
		AudioBitRate int
		AudioFile    string
		OutputFile   string
		Title        string
	}

	// FFmpegEncoder pipes raw RGBA frames to an external encoder process,
	// ffmpeg by default.
	FFmpegEncoder struct {
		Command string
		Args    []string
		Stderr  io.Writer

		cmd        *exec.Cmd
		stdin      io.WriteCloser
		outputFile string
	}
)

// NewFFmpegEncoder returns an encoder running the command of the
// preferences.
func NewFFmpegEncoder(p EncoderPreferences) *FFmpegEncoder {
	return &FFmpegEncoder{Command: p.Command, Args: p.Args, Stderr: os.Stderr}
}

// ExpandArgs executes the argument templates with params. Arguments that
// expand to nothing are left out.
func ExpandArgs(templates []string, params EncodeParams) ([]string, error) {
	ret := make([]string, 0, len(templates))
	for i, t := range templates {
		tmpl, err := template.New(fmt.Sprintf("arg%d", i)).Funcs(sprig.TxtFuncMap()).Parse(t)
		if err != nil {
			return nil, fmt.Errorf("could not parse encoder argument %q: %w", t, err)
		}
		var b bytes.Buffer
		if err := tmpl.Execute(&b, params); err != nil {
			return nil, fmt.Errorf("could not execute encoder argument %q: %w", t, err)
		}
		if b.Len() > 0 {
			ret = append(ret, b.String())
		}
	}
	return ret, nil
}

func (e *FFmpegEncoder) BeginEncoding(params EncodeParams) error {
	if e.cmd != nil {
		return errors.New("encoder already running")
	}
	args, err := ExpandArgs(e.Args, params)
	if err != nil {
		return err
	}
	cmd := exec.Command(e.Command, args...)
	cmd.Stdout = e.Stderr
	cmd.Stderr = e.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("could not open encoder input: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not start %v: %w", e.Command, err)
	}
	e.cmd, e.stdin, e.outputFile = cmd, stdin, params.OutputFile
	return nil
}

func (e *FFmpegEncoder) AddFrame(pixels []byte) error {
	if e.cmd == nil {
		return errors.New("encoder not running")
	}
	if _, err := e.stdin.Write(pixels); err != nil {
		return fmt.Errorf("could not write frame to encoder: %w", err)
	}
	return nil
}

// EndEncoding closes the frame stream and waits for the encoder to finish.
// A cancelled encode is killed and its partial output removed.
func (e *FFmpegEncoder) EndEncoding(cancelled bool) error {
	if e.cmd == nil {
		return nil
	}
	cmd := e.cmd
	e.cmd = nil
	if cancelled {
		cmd.Process.Kill()
		e.stdin.Close()
		cmd.Wait()
		os.Remove(e.outputFile)
		return nil
	}
	if err := e.stdin.Close(); err != nil {
		return fmt.Errorf("could not close encoder input: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%v failed: %w", e.Command, err)
	}
	return nil
}
