package barcode

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestEncoderGeometry(t *testing.T) {
	enc := NewEncoder()
	geometry := Geometry{WidthFactor: 3, Height: 80, Margin: 15}

	img, err := enc.Rasterize("8901234567890", Code128, geometry)
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}

	b := img.Bounds()
	if b.Dy() != 80+2*15 {
		t.Fatalf("height = %d, want %d", b.Dy(), 110)
	}
	if (b.Dx()-2*15)%3 != 0 {
		t.Fatalf("width %d is not a multiple of the width factor", b.Dx()-30)
	}

	r, g, bl, _ := img.At(2, 2).RGBA()
	if r != 0xffff || g != 0xffff || bl != 0xffff {
		t.Fatalf("quiet zone pixel is not white")
	}
}

func TestEncoderSymbologies(t *testing.T) {
	enc := NewEncoder()

	cases := []struct {
		name      string
		payload   string
		symbology Symbology
		wantErr   bool
	}{
		{"code128 digits", "123456", Code128, false},
		{"code128 mixed case", "Ab-12", Code128, false},
		{"code39 upper", "ABC-123", Code39, false},
		{"code39 rejects lowercase", "abc", Code39, true},
		{"empty", "", Code128, true},
		{"unknown symbology", "123", Symbology("EAN13"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := enc.Rasterize(tc.payload, tc.symbology, DefaultGeometry)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Rasterize() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

type fakeRasterizer struct {
	fail  map[Symbology]bool
	calls []Symbology
}

func (f *fakeRasterizer) Rasterize(payload string, symbology Symbology, geometry Geometry) (image.Image, error) {
	f.calls = append(f.calls, symbology)
	if f.fail[symbology] {
		return nil, errors.New("unsupported")
	}
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	img.Set(0, 0, color.Black)
	return img, nil
}

func TestRasterizeWithFallback(t *testing.T) {
	cases := []struct {
		name      string
		fail      map[Symbology]bool
		want      Symbology
		wantCalls int
		wantErr   bool
	}{
		{"primary succeeds", nil, Code128, 1, false},
		{"fallback succeeds", map[Symbology]bool{Code128: true}, Code39, 2, false},
		{"both fail", map[Symbology]bool{Code128: true, Code39: true}, "", 2, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeRasterizer{fail: tc.fail}
			img, sym, err := RasterizeWithFallback(r, "X", DefaultGeometry)
			if (err != nil) != tc.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrUnencodable) {
					t.Fatalf("expected ErrUnencodable, got %v", err)
				}
				if img != nil {
					t.Fatal("expected no image on failure")
				}
			}
			if sym != tc.want {
				t.Fatalf("symbology = %q, want %q", sym, tc.want)
			}
			if len(r.calls) != tc.wantCalls {
				t.Fatalf("rasterizer called %d times, want %d", len(r.calls), tc.wantCalls)
			}
		})
	}
}

func TestPNGRoundTripKeepsSize(t *testing.T) {
	img, err := NewEncoder().Rasterize("LBL-0001", Code128, DefaultGeometry)
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	decoded, err := DecodePNG(data)
	if err != nil {
		t.Fatalf("DecodePNG() error = %v", err)
	}
	if decoded.Bounds().Size() != img.Bounds().Size() {
		t.Fatalf("decoded size %v, want %v", decoded.Bounds().Size(), img.Bounds().Size())
	}
}

func TestParseSymbology(t *testing.T) {
	if s, err := ParseSymbology("code39"); err != nil || s != Code39 {
		t.Fatalf("ParseSymbology(code39) = %q, %v", s, err)
	}
	if s, err := ParseSymbology(""); err != nil || s != Code128 {
		t.Fatalf("ParseSymbology(\"\") = %q, %v", s, err)
	}
	if _, err := ParseSymbology("qr"); err == nil {
		t.Fatal("expected error for qr")
	}
}
