package label

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	mimage "github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/sangkips/retailpos-api/pkg/barcode"
)

// Vertical bands of a label in millimetres. They add up to a 38mm label
// with a small top and bottom padding.
const (
	pdfPadMM     = 1.0
	pdfLogoMM    = 7.0
	pdfBranchMM  = 5.0
	pdfBarcodeMM = 14.0
	pdfValueMM   = 4.5
	pdfPriceMM   = 5.5
)

// barcode box width relative to the label, in per cent
const pdfBarcodePercent = 92.0

// RenderPDF lays rows out as a PDF with one row per page. logos maps a
// label's LogoURL to its decoded image; labels whose logo is missing are
// rendered without one.
func RenderPDF(rows []Row, logos map[string]image.Image, layout Layout) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("render pdf: no rows")
	}
	layout = layout.withDefaults()

	cfg := config.NewBuilder().
		WithDimensions(layout.WidthMM*2+2*pdfPadMM, layout.HeightMM+2*pdfPadMM).
		WithLeftMargin(pdfPadMM).
		WithTopMargin(pdfPadMM).
		WithRightMargin(pdfPadMM).
		WithBottomMargin(pdfPadMM).
		Build()

	m := maroto.New(cfg)

	encoded := newImageCache(layout, logos)
	pages := make([]core.Page, 0, len(rows))
	for _, r := range rows {
		rowsOfPage, err := pdfRows(r, encoded, layout)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page.New().Add(rowsOfPage...))
	}
	m.AddPages(pages...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func pdfRows(r Row, images *imageCache, layout Layout) ([]core.Row, error) {
	cells := func(build func(l Label) ([]core.Component, error)) ([]core.Col, error) {
		cols := make([]core.Col, 0, 2)
		for _, l := range r.Labels() {
			components, err := build(l)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col.New(6).Add(components...))
		}
		if r.HasPlaceholder() {
			cols = append(cols, col.New(6))
		}
		return cols, nil
	}

	bands := []struct {
		height float64
		build  func(l Label) ([]core.Component, error)
	}{
		{pdfLogoMM, func(l Label) ([]core.Component, error) {
			png, ok := images.logo(l.LogoURL)
			if !ok {
				return nil, nil
			}
			return []core.Component{mimage.NewFromBytes(png, extension.Png, props.Rect{Center: true, Percent: 90})}, nil
		}},
		{pdfBranchMM, func(l Label) ([]core.Component, error) {
			return []core.Component{text.New(strings.ToUpper(l.BranchName), props.Text{
				Size:  7,
				Style: fontstyle.Bold,
				Align: align.Center,
				Top:   1,
			})}, nil
		}},
		{pdfBarcodeMM, func(l Label) ([]core.Component, error) {
			png, err := images.barcode(l)
			if err != nil {
				return nil, err
			}
			return []core.Component{mimage.NewFromBytes(png, extension.Png, props.Rect{Center: true, Percent: 100})}, nil
		}},
		{pdfValueMM, func(l Label) ([]core.Component, error) {
			return []core.Component{text.New(l.BarcodeValue, props.Text{
				Size:   6,
				Family: fontfamily.Courier,
				Align:  align.Center,
				Top:    0.5,
			})}, nil
		}},
		{pdfPriceMM, func(l Label) ([]core.Component, error) {
			return []core.Component{text.New(layout.FormatPrice(l.Price), props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Align: align.Center,
				Top:   0.5,
			})}, nil
		}},
	}

	out := make([]core.Row, 0, len(bands))
	for _, band := range bands {
		cols, err := cells(band.build)
		if err != nil {
			return nil, err
		}
		out = append(out, row.New(band.height).Add(cols...))
	}
	return out, nil
}

// imageCache keeps PNG encodings of logos and barcodes for one document
type imageCache struct {
	layout   Layout
	logos    map[string]image.Image
	logoPNG  map[string][]byte
	barcodes map[string][]byte
}

func newImageCache(layout Layout, logos map[string]image.Image) *imageCache {
	return &imageCache{
		layout:   layout,
		logos:    logos,
		logoPNG:  make(map[string][]byte),
		barcodes: make(map[string][]byte),
	}
}

func (c *imageCache) logo(location string) ([]byte, bool) {
	if location == "" {
		return nil, false
	}
	if data, ok := c.logoPNG[location]; ok {
		return data, data != nil
	}

	img, ok := c.logos[location]
	if !ok || img == nil {
		c.logoPNG[location] = nil
		return nil, false
	}
	data, err := barcode.EncodePNG(img)
	if err != nil {
		c.logoPNG[location] = nil
		return nil, false
	}
	c.logoPNG[location] = data
	return data, true
}

// barcode stretches the label's barcode to the aspect ratio of its box,
// so the image fills the box once the PDF fits it in.
func (c *imageCache) barcode(l Label) ([]byte, error) {
	key := string(l.Symbology) + ":" + l.BarcodeValue
	if data, ok := c.barcodes[key]; ok {
		return data, nil
	}

	boxW := c.layout.WidthMM * pdfBarcodePercent / 100
	boxH := pdfBarcodeMM
	width := l.Image.Bounds().Dx()
	height := int(float64(width) * boxH / boxW)
	if height < 1 {
		height = 1
	}

	stretched := imaging.Resize(l.Image, width, height, imaging.NearestNeighbor)
	data, err := barcode.EncodePNG(stretched)
	if err != nil {
		return nil, fmt.Errorf("encode barcode %q: %w", l.BarcodeValue, err)
	}
	c.barcodes[key] = data
	return data, nil
}
