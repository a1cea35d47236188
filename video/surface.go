package video

import (
	"fmt"
	"image"

	"gioui.org/gpu/headless"
	"gioui.org/op"
)

// Surface rasterizes frames off-screen. Frame draws the operations and
// Pixels reads the result back as packed RGBA, four bytes per pixel, row by
// row. The returned slice is reused by the next call to Pixels.
type Surface interface {
	Frame(ops *op.Ops) error
	Pixels() ([]byte, error)
	Release()
}

type headlessSurface struct {
	window *headless.Window
	img    *image.RGBA
}

// NewHeadlessSurface returns a GPU backed Surface of the given size.
func NewHeadlessSurface(width, height int) (Surface, error) {
	w, err := headless.NewWindow(width, height)
	if err != nil {
		return nil, fmt.Errorf("could not create off-screen surface: %w", err)
	}
	return &headlessSurface{window: w, img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

func (s *headlessSurface) Frame(ops *op.Ops) error {
	return s.window.Frame(ops)
}

func (s *headlessSurface) Pixels() ([]byte, error) {
	if err := s.window.Screenshot(s.img); err != nil {
		return nil, fmt.Errorf("could not read back frame: %w", err)
	}
	return s.img.Pix, nil
}

func (s *headlessSurface) Release() {
	s.window.Release()
}
