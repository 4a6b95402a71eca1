package printer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"
)

// ESC/POS command constants
const (
	ESC = 0x1B
	GS  = 0x1D
	LF  = 0x0A
)

// Text alignment
const (
	AlignLeft   = 0
	AlignCenter = 1
	AlignRight  = 2
)

// rasterBandHeight is the tallest GS v 0 block sent in one command;
// several label printers drop images taller than this.
const rasterBandHeight = 255

// Document builds an ESC/POS byte stream for thermal label printers.
type Document struct {
	buf   bytes.Buffer
	width int // characters per line, used by Separator
}

// NewDocument creates a new ESC/POS document with the given character width.
func NewDocument(charWidth int) *Document {
	if charWidth <= 0 {
		charWidth = 32
	}
	d := &Document{width: charWidth}
	d.Init()
	return d
}

// Init sends ESC @.
func (d *Document) Init() *Document {
	d.buf.Write([]byte{ESC, '@'})
	return d
}

// FeedLines sends n line feeds.
func (d *Document) FeedLines(n int) *Document {
	for i := 0; i < n; i++ {
		d.buf.WriteByte(LF)
	}
	return d
}

func (d *Document) SetAlign(align int) *Document {
	d.buf.Write([]byte{ESC, 'a', byte(align)})
	return d
}

func (d *Document) SetBold(on bool) *Document {
	b := byte(0)
	if on {
		b = 1
	}
	d.buf.Write([]byte{ESC, 'E', b})
	return d
}

// Text writes a line of text followed by a line feed.
func (d *Document) Text(s string) *Document {
	d.buf.WriteString(s)
	d.buf.WriteByte(LF)
	return d
}

// TextF writes a formatted line of text followed by a line feed.
func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

// Separator prints a full-width line of char.
func (d *Document) Separator(char byte) *Document {
	d.buf.WriteString(strings.Repeat(string(char), d.width))
	d.buf.WriteByte(LF)
	return d
}

// KeyValue prints a left-aligned key and right-aligned value on the same line.
func (d *Document) KeyValue(key, value string) *Document {
	spaces := d.width - len(key) - len(value)
	if spaces < 1 {
		spaces = 1
	}
	d.buf.WriteString(key)
	d.buf.WriteString(strings.Repeat(" ", spaces))
	d.buf.WriteString(value)
	d.buf.WriteByte(LF)
	return d
}

// RasterImage prints img as a monochrome bit image using GS v 0.
// Pixels darker than mid grey are printed black. Tall images are split
// into bands.
func (d *Document) RasterImage(img image.Image) *Document {
	b := img.Bounds()
	widthBytes := (b.Dx() + 7) / 8

	for top := b.Min.Y; top < b.Max.Y; top += rasterBandHeight {
		bottom := top + rasterBandHeight
		if bottom > b.Max.Y {
			bottom = b.Max.Y
		}
		rows := bottom - top

		d.buf.Write([]byte{GS, 'v', '0', 0x00,
			byte(widthBytes), byte(widthBytes >> 8),
			byte(rows), byte(rows >> 8),
		})

		line := make([]byte, widthBytes)
		for y := top; y < bottom; y++ {
			for i := range line {
				line[i] = 0
			}
			for x := b.Min.X; x < b.Max.X; x++ {
				if isDark(img.At(x, y)) {
					col := x - b.Min.X
					line[col/8] |= 0x80 >> uint(col%8)
				}
			}
			d.buf.Write(line)
		}
	}
	return d
}

func isDark(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	_, _, _, a := c.RGBA()
	return a > 0x7fff && g.Y < 128
}

// Cut sends the full paper cut command.
func (d *Document) Cut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x00})
	return d
}

// PartialCut sends the partial cut command.
func (d *Document) PartialCut() *Document {
	d.buf.Write([]byte{GS, 'V', 0x01})
	return d
}

// Bytes returns the accumulated ESC/POS byte stream.
func (d *Document) Bytes() []byte {
	return d.buf.Bytes()
}

// Len returns the number of bytes written so far.
func (d *Document) Len() int {
	return d.buf.Len()
}
