// Package barcode rasterizes linear barcodes for shelf and product labels.
package barcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	bc "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/disintegration/imaging"
)

// Symbology identifies a linear barcode encoding
type Symbology string

const (
	Code128 Symbology = "CODE128"
	Code39  Symbology = "CODE39"
)

// ParseSymbology returns the symbology for s, case-insensitive
func ParseSymbology(s string) (Symbology, error) {
	switch Symbology(strings.ToUpper(strings.TrimSpace(s))) {
	case Code128, "":
		return Code128, nil
	case Code39:
		return Code39, nil
	}
	return "", fmt.Errorf("unsupported symbology %q", s)
}

func (s Symbology) String() string {
	return string(s)
}

// Geometry controls the rendered size of a barcode
type Geometry struct {
	// WidthFactor is the width of the narrowest bar in pixels
	WidthFactor int `json:"width_factor"`
	Height      int `json:"height"`
	// Margin is the white quiet zone on every side
	Margin int `json:"margin"`
}

// DefaultGeometry is the geometry used for shelf labels
var DefaultGeometry = Geometry{WidthFactor: 3, Height: 80, Margin: 15}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d+%d", g.WidthFactor, g.Height, g.Margin)
}

func (g Geometry) normalized() Geometry {
	if g.WidthFactor < 1 {
		g.WidthFactor = DefaultGeometry.WidthFactor
	}
	if g.Height < 1 {
		g.Height = DefaultGeometry.Height
	}
	if g.Margin < 0 {
		g.Margin = 0
	}
	return g
}

var (
	ErrEmptyPayload = errors.New("barcode payload is empty")
	// ErrUnencodable is returned when no symbology could encode the payload
	ErrUnencodable = errors.New("payload cannot be encoded as a barcode")
)

// Rasterizer renders a payload in a given symbology. Implementations
// return an error for input the symbology cannot represent.
type Rasterizer interface {
	Rasterize(payload string, symbology Symbology, geometry Geometry) (image.Image, error)
}

// Encoder is the default Rasterizer. It emits bars only, no human-readable text.
type Encoder struct{}

// NewEncoder creates a new Encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Rasterize(payload string, symbology Symbology, geometry Geometry) (image.Image, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	geometry = geometry.normalized()

	var (
		code bc.Barcode
		err  error
	)
	switch symbology {
	case Code128:
		code, err = code128.Encode(payload)
	case Code39:
		code, err = code39.Encode(payload, false, false)
	default:
		return nil, fmt.Errorf("unsupported symbology %q", symbology)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", symbology, err)
	}

	modules := code.Bounds().Dx()
	scaled, err := bc.Scale(code, modules*geometry.WidthFactor, geometry.Height)
	if err != nil {
		return nil, fmt.Errorf("scale %s: %w", symbology, err)
	}

	return withQuietZone(scaled, geometry.Margin), nil
}

func withQuietZone(img image.Image, margin int) image.Image {
	b := img.Bounds()
	canvas := imaging.New(b.Dx()+2*margin, b.Dy()+2*margin, color.White)
	return imaging.Paste(canvas, img, image.Pt(margin, margin))
}

// RasterizeWithFallback tries CODE128 and, if that fails, makes exactly
// one attempt with CODE39. The error of the last attempt is wrapped in
// ErrUnencodable when both fail.
func RasterizeWithFallback(r Rasterizer, payload string, geometry Geometry) (image.Image, Symbology, error) {
	img, err := r.Rasterize(payload, Code128, geometry)
	if err == nil {
		return img, Code128, nil
	}

	img, fallbackErr := r.Rasterize(payload, Code39, geometry)
	if fallbackErr == nil {
		return img, Code39, nil
	}

	return nil, "", fmt.Errorf("%w: code128: %v; code39: %v", ErrUnencodable, err, fallbackErr)
}

// EncodePNG serializes img as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePNG parses PNG bytes produced by EncodePNG
func DecodePNG(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}
