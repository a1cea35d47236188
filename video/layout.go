package video

import "image"

// Layout is the grid of equally sized cells the channels are drawn in, in
// row-major order.
type Layout struct {
	Width, Height         int
	Columns, Rows         int
	CellWidth, CellHeight int
}

// NewLayout places numChannels cells on a width x height frame using at most
// columns columns.
func NewLayout(width, height, numChannels, columns int) Layout {
	numChannels = max(numChannels, 1)
	columns = min(max(columns, 1), numChannels)
	rows := (numChannels + columns - 1) / columns
	return Layout{
		Width:      width,
		Height:     height,
		Columns:    columns,
		Rows:       rows,
		CellWidth:  width / columns,
		CellHeight: height / rows,
	}
}

// Cell returns the rectangle of the i-th channel.
func (l Layout) Cell(i int) image.Rectangle {
	x, y := i%l.Columns, i/l.Columns
	return image.Rect(x*l.CellWidth, y*l.CellHeight, (x+1)*l.CellWidth, (y+1)*l.CellHeight)
}
