package pixeltobin

import "image/color"

// PixelGrid is a row-major grid of RGB pixels. Grids are never mutated
// after loading; every transform produces a new value.
type PixelGrid struct {
	Width  int
	Height int
	Pix    []color.RGBA
}

// NewPixelGrid allocates a zeroed (black) grid.
func NewPixelGrid(width, height int) *PixelGrid {
	return &PixelGrid{
		Width:  width,
		Height: height,
		Pix:    make([]color.RGBA, width*height),
	}
}

// SolidGrid creates a grid filled with a single color.
func SolidGrid(width, height int, c color.RGBA) *PixelGrid {
	g := NewPixelGrid(width, height)
	for i := range g.Pix {
		g.Pix[i] = c
	}
	return g
}

func (g *PixelGrid) At(x, y int) color.RGBA     { return g.Pix[y*g.Width+x] }
func (g *PixelGrid) Set(x, y int, c color.RGBA) { g.Pix[y*g.Width+x] = c }

// Equal reports exact pixel-for-pixel equality.
func (g *PixelGrid) Equal(o *PixelGrid) bool {
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	for i, p := range g.Pix {
		if p != o.Pix[i] {
			return false
		}
	}
	return true
}

// TextGrid is a row-major grid of symbol indices into the sample's
// symbol set.
type TextGrid struct {
	Width  int
	Height int
	Cells  []uint16
}

func NewTextGrid(width, height int) *TextGrid {
	return &TextGrid{
		Width:  width,
		Height: height,
		Cells:  make([]uint16, width*height),
	}
}

func (g *TextGrid) At(x, y int) uint16     { return g.Cells[y*g.Width+x] }
func (g *TextGrid) Set(x, y int, s uint16) { g.Cells[y*g.Width+x] = s }

func (g *TextGrid) Equal(o *TextGrid) bool {
	if g.Width != o.Width || g.Height != o.Height {
		return false
	}
	for i, c := range g.Cells {
		if c != o.Cells[i] {
			return false
		}
	}
	return true
}

// TextFrame pairs a text grid with its display metadata.
type TextFrame struct {
	Grid     *TextGrid
	Duration int // milliseconds
	Action   Action
}

// Sequence is the in-memory form of one sample, ready for encoding.
// Pixel domains populate Pixel, text domains populate Text.
type Sequence struct {
	FPS   int
	Pixel []*PixelGrid
	Text  []TextFrame
}

// Frames returns the number of frames in the sequence.
func (s *Sequence) Frames() int {
	if len(s.Pixel) > 0 {
		return len(s.Pixel)
	}
	return len(s.Text)
}

// Equal reports exact equality of two sequences, including text metadata.
func (s *Sequence) Equal(o *Sequence) bool {
	if s.FPS != o.FPS || len(s.Pixel) != len(o.Pixel) || len(s.Text) != len(o.Text) {
		return false
	}
	for i, g := range s.Pixel {
		if !g.Equal(o.Pixel[i]) {
			return false
		}
	}
	for i, f := range s.Text {
		of := o.Text[i]
		if f.Duration != of.Duration || f.Action != of.Action || !f.Grid.Equal(of.Grid) {
			return false
		}
	}
	return true
}
