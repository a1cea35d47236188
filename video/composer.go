package video

import (
	"image"
	"image/color"

	"gioui.org/f32"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/famiscope/famiscope"
	"golang.org/x/exp/shiny/materialdesign/icons"
)

type (
	// Composer builds the drawing operations of one video frame: background,
	// row gradients, the waveform, icon and label of every channel, grid
	// lines and the watermark.
	Composer struct {
		Layout Layout
		Theme  Theme

		lineWidth   float32
		gridWidth   int
		iconSize    int
		textSize    unit.Sp
		textOffsetY int
		spacing     int
		font        font.Font
		watermark   string

		shaper        *text.Shaper
		icons         [famiscope.NumChannelTypes]*widget.Icon
		watermarkIcon *widget.Icon
		ops           op.Ops
	}

	// Cell is the state of one channel in one frame.
	Cell struct {
		Type   famiscope.ChannelType
		Label  string
		Color  color.NRGBA
		Points []f32.Point
	}

	C = layout.Context
	D = layout.Dimensions
)

const watermarkMargin = 8

var channelIcons = [famiscope.NumChannelTypes][]byte{
	famiscope.Square1:  icons.ImageCropSquare,
	famiscope.Square2:  icons.ImageCropSquare,
	famiscope.Triangle: icons.NavigationArrowDropUp,
	famiscope.Noise:    icons.ImageGrain,
	famiscope.DPCM:     icons.ImageAudiotrack,
}

// NewComposer prepares the fonts and icons for frames of the given layout.
// Text and icon sizes follow the cell height; thick lines get bold labels.
func NewComposer(l Layout, theme Theme, lineThickness, spacing int, watermark string) (*Composer, error) {
	c := &Composer{
		Layout:    l,
		Theme:     theme,
		lineWidth: float32(max(lineThickness, 1)),
		gridWidth: 3,
		spacing:   spacing,
		watermark: watermark,
		shaper:    text.NewShaper(text.WithCollection(gofont.Collection())),
	}
	if l.Height >= 720 {
		c.gridWidth = 5
	}
	small := l.CellHeight < 128
	if small {
		c.iconSize, c.textSize, c.textOffsetY = 16, 12, 1
	} else {
		c.iconSize, c.textSize, c.textOffsetY = 32, 24, 4
	}
	c.font = font.Font{Typeface: "Go"}
	if lineThickness > 1 {
		c.font.Weight = font.Bold
	}
	for t, data := range channelIcons {
		icon, err := widget.NewIcon(data)
		if err != nil {
			return nil, err
		}
		c.icons[t] = icon
	}
	var err error
	if c.watermarkIcon, err = widget.NewIcon(icons.ImageMusicNote); err != nil {
		return nil, err
	}
	return c, nil
}

// Compose returns the operations of a frame. The returned ops are reused by
// the next call.
func (c *Composer) Compose(cells []Cell) *op.Ops {
	c.ops.Reset()
	size := image.Pt(c.Layout.Width, c.Layout.Height)
	gtx := C{
		Ops:         &c.ops,
		Metric:      unit.Metric{PxPerDp: 1, PxPerSp: 1},
		Constraints: layout.Exact(size),
	}
	paint.FillShape(gtx.Ops, opaque(c.Theme.Background), clip.Rect{Max: size}.Op())
	c.drawGradients(gtx)
	for i, cell := range cells {
		c.drawCell(gtx, c.Layout.Cell(i), cell)
	}
	c.drawGrid(gtx)
	c.drawWatermark(gtx)
	return gtx.Ops
}

func (c *Composer) drawGradients(gtx C) {
	h := c.Layout.CellHeight / 2
	transparent := c.Theme.Gradient
	transparent.A = 0
	for row := 0; row < c.Layout.Rows; row++ {
		y := row * c.Layout.CellHeight
		stack := clip.Rect{Min: image.Pt(0, y), Max: image.Pt(c.Layout.Width, y+h)}.Push(gtx.Ops)
		paint.LinearGradientOp{
			Stop1:  f32.Pt(0, float32(y)),
			Color1: opaque(c.Theme.Gradient),
			Stop2:  f32.Pt(0, float32(y+h)),
			Color2: transparent,
		}.Add(gtx.Ops)
		paint.PaintOp{}.Add(gtx.Ops)
		stack.Pop()
	}
}

func (c *Composer) drawCell(gtx C, bounds image.Rectangle, cell Cell) {
	if len(cell.Points) > 1 {
		var path clip.Path
		path.Begin(gtx.Ops)
		path.MoveTo(cell.Points[0])
		for _, p := range cell.Points[1:] {
			path.LineTo(p)
		}
		paint.FillShape(gtx.Ops, cell.Color, clip.Stroke{Path: path.End(), Width: c.lineWidth}.Op())
	}
	// the icon box sits half an icon in from the corner of the cell
	pos := bounds.Min.Add(image.Pt(c.iconSize/2, c.iconSize/2))
	box := image.Rectangle{Min: pos, Max: pos.Add(image.Pt(c.iconSize, c.iconSize))}
	paint.FillShape(gtx.Ops, opaque(c.Theme.Text), clip.Rect(box).Op())
	paint.FillShape(gtx.Ops, opaque(c.Theme.IconBackground), clip.Rect(box.Inset(1)).Op())
	if icon := c.icon(cell.Type); icon != nil {
		stack := op.Offset(pos).Push(gtx.Ops)
		igtx := gtx
		igtx.Constraints = layout.Exact(image.Pt(c.iconSize, c.iconSize))
		icon.Layout(igtx, opaque(c.Theme.Text))
		stack.Pop()
	}
	stack := op.Offset(pos.Add(image.Pt(c.iconSize+c.spacing, c.textOffsetY))).Push(gtx.Ops)
	c.label(gtx, cell.Label, opaque(c.Theme.Text))
	stack.Pop()
}

func (c *Composer) icon(t famiscope.ChannelType) *widget.Icon {
	if t < 0 || t >= famiscope.NumChannelTypes {
		return nil
	}
	return c.icons[t]
}

func (c *Composer) label(gtx C, txt string, col color.NRGBA) D {
	gtx.Constraints.Min = image.Point{}
	m := op.Record(gtx.Ops)
	paint.ColorOp{Color: col}.Add(gtx.Ops)
	material := m.Stop()
	return widget.Label{Alignment: text.Start, MaxLines: 1}.Layout(gtx, c.shaper, c.font, c.textSize, txt, material)
}

func (c *Composer) drawGrid(gtx C) {
	col := opaque(c.Theme.GridLine)
	half := c.gridWidth / 2
	for i := 1; i < c.Layout.Rows; i++ {
		y := i * c.Layout.CellHeight
		paint.FillShape(gtx.Ops, col, clip.Rect{Min: image.Pt(0, y-half), Max: image.Pt(c.Layout.Width, y-half+c.gridWidth)}.Op())
	}
	for i := 1; i < c.Layout.Columns; i++ {
		x := i * c.Layout.CellWidth
		paint.FillShape(gtx.Ops, col, clip.Rect{Min: image.Pt(x-half, 0), Max: image.Pt(x-half+c.gridWidth, c.Layout.Height)}.Op())
	}
}

// drawWatermark records the watermark to measure it, then replays it in the
// bottom right corner.
func (c *Composer) drawWatermark(gtx C) {
	if c.watermark == "" {
		return
	}
	m := op.Record(gtx.Ops)
	igtx := gtx
	igtx.Constraints = layout.Exact(image.Pt(c.iconSize, c.iconSize))
	c.watermarkIcon.Layout(igtx, c.Theme.Watermark)
	offset := op.Offset(image.Pt(c.iconSize+c.spacing/2, 0)).Push(gtx.Ops)
	dims := c.label(gtx, c.watermark, c.Theme.Watermark)
	offset.Pop()
	call := m.Stop()
	w := c.iconSize + c.spacing/2 + dims.Size.X
	h := max(c.iconSize, dims.Size.Y)
	stack := op.Offset(image.Pt(c.Layout.Width-w-watermarkMargin, c.Layout.Height-h-watermarkMargin)).Push(gtx.Ops)
	call.Add(gtx.Ops)
	stack.Pop()
}
