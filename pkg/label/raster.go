package label

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/sangkips/retailpos-api/pkg/printer"
)

// RenderRaster draws each row as one monochrome image sized for the
// thermal printer: two labels side by side at the layout DPI.
func RenderRaster(rows []Row, logos map[string]image.Image, layout Layout) []image.Image {
	layout = layout.withDefaults()

	images := make([]image.Image, 0, len(rows))
	for _, r := range rows {
		labelW := layout.Dots(layout.WidthMM)
		labelH := layout.Dots(layout.HeightMM)

		canvas := imaging.New(labelW*2, labelH, color.White)
		for i, l := range r.Labels() {
			tile := drawLabel(l, logos[l.LogoURL], layout, labelW, labelH)
			canvas = imaging.Paste(canvas, tile, image.Pt(i*labelW, 0))
		}
		images = append(images, imaging.Grayscale(canvas))
	}
	return images
}

// EncodeESCPOS emits the row images as ESC/POS raster commands with a
// partial cut after every row.
func EncodeESCPOS(rowImages []image.Image) []byte {
	doc := printer.NewDocument(32)
	doc.SetAlign(printer.AlignCenter)
	for _, img := range rowImages {
		doc.RasterImage(img)
		doc.FeedLines(1)
		doc.PartialCut()
	}
	return doc.Bytes()
}

func drawLabel(l Label, logo image.Image, layout Layout, w, h int) *image.NRGBA {
	tile := imaging.New(w, h, color.White)
	pad := layout.Dots(pdfPadMM)
	y := pad

	if logo != nil {
		logoH := layout.Dots(pdfLogoMM)
		fitted := imaging.Fit(logo, w-2*pad, logoH, imaging.Lanczos)
		x := (w - fitted.Bounds().Dx()) / 2
		tile = imaging.Paste(tile, fitted, image.Pt(x, y))
	}
	y += layout.Dots(pdfLogoMM)

	y += layout.Dots(pdfBranchMM)
	drawCentered(tile, strings.ToUpper(l.BranchName), y-2, true)

	barW := w * int(pdfBarcodePercent) / 100
	barH := layout.Dots(pdfBarcodeMM)
	if l.Image != nil {
		bars := imaging.Resize(l.Image, barW, barH, imaging.NearestNeighbor)
		tile = imaging.Paste(tile, bars, image.Pt((w-barW)/2, y))
	}
	y += barH

	y += layout.Dots(pdfValueMM)
	drawCentered(tile, l.BarcodeValue, y-2, false)

	y += layout.Dots(pdfPriceMM)
	drawCentered(tile, layout.FormatPrice(l.Price), y-2, true)

	return tile
}

// drawCentered writes s centred on the baseline at y. Bold is simulated
// by drawing the string twice, one dot apart.
func drawCentered(dst *image.NRGBA, s string, y int, bold bool) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, s).Ceil()
	x := (dst.Bounds().Dx() - width) / 2
	if x < 0 {
		x = 0
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)

	if bold {
		d.Dot = fixed.P(x+1, y)
		d.DrawString(s)
	}
}
