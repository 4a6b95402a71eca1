package label

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/sangkips/retailpos-api/pkg/barcode"
)

func TestExpand(t *testing.T) {
	jobs := []Job{
		{BarcodeValue: "A1", BranchName: "Main", Price: decimal.NewFromInt(10), Quantity: 2},
		{BarcodeValue: "B2", BranchName: "Annex", Price: decimal.NewFromInt(20), Quantity: 0},
		{BarcodeValue: " C3 ", BranchName: "Main", Price: decimal.NewFromInt(30), Quantity: 1},
		{BarcodeValue: "D4", Quantity: -3},
	}

	got := Expand(jobs)
	if len(got) != 3 {
		t.Fatalf("got %d requests, want 3", len(got))
	}

	want := []string{"A1", "A1", "C3"}
	for i, w := range want {
		if got[i].BarcodeValue != w {
			t.Fatalf("request %d barcode = %q, want %q", i, got[i].BarcodeValue, w)
		}
		if got[i].Sequence != i {
			t.Fatalf("request %d sequence = %d", i, got[i].Sequence)
		}
	}
	if got[1].BranchName != "Main" || !got[1].Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("metadata not preserved: %+v", got[1])
	}
}

func TestPaginate(t *testing.T) {
	for n := 0; n <= 7; n++ {
		labels := make([]Label, n)
		for i := range labels {
			labels[i] = Label{Request: Request{Sequence: i}}
		}

		rows := Paginate(labels)
		if want := (n + 1) / 2; len(rows) != want {
			t.Fatalf("n=%d: got %d rows, want %d", n, len(rows), want)
		}
		for i, r := range rows {
			last := i == len(rows)-1
			if r.HasPlaceholder() != (last && n%2 == 1) {
				t.Fatalf("n=%d row %d: placeholder = %v", n, i, r.HasPlaceholder())
			}
		}
		if n > 1 && rows[0].Right.Sequence != 1 {
			t.Fatalf("n=%d: labels out of order", n)
		}
	}
}

type countingRasterizer struct {
	mu    sync.Mutex
	fail  map[string]bool
	no128 map[string]bool
	calls int
}

func (c *countingRasterizer) Rasterize(payload string, symbology barcode.Symbology, geometry barcode.Geometry) (image.Image, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if payload == "" || c.fail[payload] {
		return nil, errors.New("cannot encode")
	}
	if symbology == barcode.Code128 && c.no128[payload] {
		return nil, errors.New("cannot encode as code128")
	}
	return image.NewGray(image.Rect(0, 0, 20, 10)), nil
}

type memCache struct {
	data map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, data []byte) error {
	m.data[key] = data
	return nil
}

func TestPipelineAllValid(t *testing.T) {
	p := NewPipeline(&countingRasterizer{}, nil, barcode.DefaultGeometry, nil)
	reqs := Expand([]Job{{BarcodeValue: "X1", Quantity: 3}, {BarcodeValue: "X2", Quantity: 2}})

	labels, failures := p.Rasterize(context.Background(), reqs)
	if len(failures) != 0 {
		t.Fatalf("got %d failures, want 0", len(failures))
	}
	if len(labels) != len(reqs) {
		t.Fatalf("got %d labels, want %d", len(labels), len(reqs))
	}
	for i, l := range labels {
		if l.Sequence != i || l.Symbology != barcode.Code128 {
			t.Fatalf("label %d = %+v", i, l.Request)
		}
	}
}

func TestPipelinePartialAndTotalFailure(t *testing.T) {
	r := &countingRasterizer{fail: map[string]bool{"BAD": true}}
	p := NewPipeline(r, nil, barcode.DefaultGeometry, nil)

	labels, failures := p.Rasterize(context.Background(), Expand([]Job{
		{BarcodeValue: "OK", Quantity: 1},
		{BarcodeValue: "BAD", Quantity: 2},
		{BarcodeValue: "", Quantity: 1},
	}))
	if len(labels) != 1 || len(failures) != 3 {
		t.Fatalf("labels=%d failures=%d, want 1 and 3", len(labels), len(failures))
	}
	if !errors.Is(failures[0].Err, barcode.ErrUnencodable) {
		t.Fatalf("failure error = %v", failures[0].Err)
	}

	labels, failures = p.Rasterize(context.Background(), Expand([]Job{{BarcodeValue: "BAD", Quantity: 4}}))
	if len(labels) != 0 || len(failures) != 4 {
		t.Fatalf("labels=%d failures=%d, want 0 and 4", len(labels), len(failures))
	}
}

func TestPipelineUsesCache(t *testing.T) {
	cache := &memCache{data: make(map[string][]byte)}
	r := &countingRasterizer{}
	p := NewPipeline(r, cache, barcode.DefaultGeometry, nil)

	reqs := Expand([]Job{{BarcodeValue: "CACHED", Quantity: 5}})
	p.Rasterize(context.Background(), reqs)
	if r.calls != 1 {
		t.Fatalf("rasterizer called %d times in one batch, want 1", r.calls)
	}
	if _, ok := cache.data[CacheKey(barcode.Code128, barcode.DefaultGeometry, "CACHED")]; !ok {
		t.Fatal("expected rendered barcode in cache")
	}

	labels, _ := p.Rasterize(context.Background(), reqs)
	if r.calls != 1 {
		t.Fatalf("rasterizer called again despite cache hit")
	}
	if len(labels) != 5 {
		t.Fatalf("got %d labels, want 5", len(labels))
	}
}

func TestPipelineRenderSingle(t *testing.T) {
	cache := &memCache{data: make(map[string][]byte)}
	r := &countingRasterizer{}
	p := NewPipeline(r, cache, barcode.DefaultGeometry, nil)

	_, sym, err := p.Render(context.Background(), "ABC", barcode.Code39)
	if err != nil || sym != barcode.Code39 {
		t.Fatalf("Render() = %v, %v", sym, err)
	}
	if _, ok := cache.data[CacheKey(barcode.Code39, barcode.DefaultGeometry, "ABC")]; !ok {
		t.Fatal("expected CODE39 rendering in cache")
	}

	_, sym, err = p.Render(context.Background(), "XYZ", "")
	if err != nil || sym != barcode.Code128 {
		t.Fatalf("Render() fallback = %v, %v", sym, err)
	}

	if _, _, err := p.Render(context.Background(), "", barcode.Code128); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestPipelineExplicitCode39DoesNotChangeDefault(t *testing.T) {
	cache := &memCache{data: make(map[string][]byte)}
	r := &countingRasterizer{}
	p := NewPipeline(r, cache, barcode.DefaultGeometry, nil)
	ctx := context.Background()

	if _, sym, err := p.Render(ctx, "ABC123", barcode.Code39); err != nil || sym != barcode.Code39 {
		t.Fatalf("Render(CODE39) = %v, %v", sym, err)
	}

	labels, failures := p.Rasterize(ctx, Expand([]Job{{BarcodeValue: "ABC123", Quantity: 2}}))
	if len(failures) != 0 || len(labels) != 2 {
		t.Fatalf("labels=%d failures=%d, want 2 and 0", len(labels), len(failures))
	}
	for _, l := range labels {
		if l.Symbology != barcode.Code128 {
			t.Fatalf("label symbology = %s, want CODE128", l.Symbology)
		}
	}

	_, sym, err := p.Render(ctx, "ABC123", "")
	if err != nil || sym != barcode.Code128 {
		t.Fatalf("Render(default) = %v, %v", sym, err)
	}
}

func TestPipelineFallbackUsesCachedCode39(t *testing.T) {
	cache := &memCache{data: make(map[string][]byte)}
	r := &countingRasterizer{no128: map[string]bool{"lower": true}}
	p := NewPipeline(r, cache, barcode.DefaultGeometry, nil)
	ctx := context.Background()

	_, sym, err := p.Render(ctx, "lower", "")
	if err != nil || sym != barcode.Code39 {
		t.Fatalf("Render() = %v, %v", sym, err)
	}
	if r.calls != 2 {
		t.Fatalf("rasterizer called %d times, want 2", r.calls)
	}

	// CODE128 is retried, CODE39 comes from the cache
	_, sym, err = p.Render(ctx, "lower", "")
	if err != nil || sym != barcode.Code39 {
		t.Fatalf("Render() = %v, %v", sym, err)
	}
	if r.calls != 3 {
		t.Fatalf("rasterizer called %d times, want 3", r.calls)
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[string]string{
		"0":         "Rs. 0.00",
		"12.5":      "Rs. 12.50",
		"999":       "Rs. 999.00",
		"1299":      "Rs. 1,299.00",
		"79900":     "Rs. 79,900.00",
		"1234567.8": "Rs. 1,234,567.80",
		"-1500":     "Rs. -1,500.00",
		"999.999":   "Rs. 1,000.00",
		"-0.001":    "Rs. 0.00",
	}
	for in, want := range cases {
		if got := DefaultLayout.FormatPrice(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatPrice(%s) = %q, want %q", in, got, want)
		}
	}

	bare := Layout{}
	if got := bare.FormatPrice(decimal.RequireFromString("25000.5")); got != "25,000.50" {
		t.Fatalf("FormatPrice() without prefix = %q", got)
	}
}

func testLabels(t *testing.T, n int) []Label {
	t.Helper()
	enc := barcode.NewEncoder()
	labels := make([]Label, n)
	for i := range labels {
		img, err := enc.Rasterize("ITEM-00"+string(rune('0'+i)), barcode.Code128, barcode.DefaultGeometry)
		if err != nil {
			t.Fatalf("rasterize: %v", err)
		}
		labels[i] = Label{
			Request: Request{
				Sequence:     i,
				BarcodeValue: "ITEM-00" + string(rune('0'+i)),
				BranchName:   "Main Street",
				Price:        decimal.NewFromInt(499),
				LogoURL:      "logo.png",
			},
			Image:     img,
			Symbology: barcode.Code128,
		}
	}
	return labels
}

func TestRenderPDF(t *testing.T) {
	logo := image.NewRGBA(image.Rect(0, 0, 40, 20))
	rows := Paginate(testLabels(t, 3))

	data, err := RenderPDF(rows, map[string]image.Image{"logo.png": logo}, DefaultLayout)
	if err != nil {
		t.Fatalf("RenderPDF() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}

	if _, err := RenderPDF(nil, nil, DefaultLayout); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestRenderRasterAndESCPOS(t *testing.T) {
	rows := Paginate(testLabels(t, 3))
	images := RenderRaster(rows, nil, DefaultLayout)
	if len(images) != 2 {
		t.Fatalf("got %d row images, want 2", len(images))
	}

	wantW := DefaultLayout.Dots(38) * 2
	wantH := DefaultLayout.Dots(38)
	if b := images[0].Bounds(); b.Dx() != wantW || b.Dy() != wantH {
		t.Fatalf("row image %dx%d, want %dx%d", b.Dx(), b.Dy(), wantW, wantH)
	}

	// placeholder half of the last row stays blank
	r, _, _, _ := images[1].At(wantW*3/4, wantH/2).RGBA()
	if r != 0xffff {
		t.Fatalf("placeholder slot is not blank")
	}

	blank := []image.Image{image.NewGray(image.Rect(0, 0, 16, 4)), image.NewGray(image.Rect(0, 0, 16, 4))}
	for _, b := range blank {
		draw := b.(*image.Gray)
		for i := range draw.Pix {
			draw.Pix[i] = 0xff
		}
	}
	data := EncodeESCPOS(blank)
	if n := bytes.Count(data, []byte{0x1D, 'V', 0x01}); n != 2 {
		t.Fatalf("got %d cuts, want 2", n)
	}
}

func TestLoadAssets(t *testing.T) {
	var png bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.Black)
	data, _ := barcode.EncodePNG(img)
	png.Write(data)

	fetch := func(ctx context.Context, location string) ([]byte, error) {
		switch location {
		case "ok":
			return png.Bytes(), nil
		case "slow":
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return png.Bytes(), nil
			}
		case "garbage":
			return []byte("not an image"), nil
		}
		return nil, errors.New("not found")
	}

	start := time.Now()
	got := LoadAssets(context.Background(), fetch, []string{"ok", "slow", "garbage", "missing"}, 100*time.Millisecond)
	if time.Since(start) > 2*time.Second {
		t.Fatal("LoadAssets did not honour its timeout")
	}
	if len(got) != 1 || got["ok"] == nil {
		t.Fatalf("loaded %d assets, want only ok", len(got))
	}
}

func TestFetcherPolicy(t *testing.T) {
	logo := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(logo, []byte("logo"), 0o600); err != nil {
		t.Fatal(err)
	}

	var srvURL *url.URL
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/redirect" {
			http.Redirect(w, r, "http://localhost:"+srvURL.Port()+"/logo.png", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()
	srvURL, _ = url.Parse(srv.URL)

	fetch := NewFetcher(srv.Client(), FetchPolicy{
		LocalPaths: []string{logo},
		Hosts:      []string{srvURL.Hostname()},
	})
	ctx := context.Background()

	if data, err := fetch(ctx, logo); err != nil || string(data) != "logo" {
		t.Fatalf("fetch(default logo) = %q, %v", data, err)
	}
	if data, err := fetch(ctx, srv.URL+"/logo.png"); err != nil || string(data) != "remote" {
		t.Fatalf("fetch(allowed host) = %q, %v", data, err)
	}

	rejected := []string{
		"/etc/hostname",
		"/etc/passwd",
		filepath.Dir(logo) + "/../" + filepath.Base(filepath.Dir(logo)) + "/other.png",
		"file://" + logo,
		"http://localhost:" + srvURL.Port() + "/logo.png",
		"http://169.254.169.254/latest/meta-data/",
		srv.URL + "/redirect",
	}
	for _, location := range rejected {
		if _, err := fetch(ctx, location); !errors.Is(err, ErrAssetNotAllowed) {
			t.Fatalf("fetch(%s) error = %v, want ErrAssetNotAllowed", location, err)
		}
	}
}

func TestParseJobsCSV(t *testing.T) {
	input := strings.Join([]string{
		"Barcode,Branch,Price,Qty",
		"8901,Main,120.50,2",
		",Main,10,1",
		`8902,,"1,200",1`,
		"8903,Annex,5,zero",
		"8904,Annex,abc,",
		"8905,Annex,5,1001",
		",,,",
	}, "\n")

	jobs, result, err := ParseJobs(strings.NewReader(input), "labels.csv", "Default Branch")
	if err != nil {
		t.Fatalf("ParseJobs() error = %v", err)
	}
	if result.TotalRows != 6 || result.Successful != 2 || result.Failed != 4 {
		t.Fatalf("unexpected result %+v", result)
	}
	if jobs[0].Quantity != 2 || !jobs[0].Price.Equal(decimal.RequireFromString("120.5")) {
		t.Fatalf("unexpected first job %+v", jobs[0])
	}
	if jobs[1].Quantity != 1 || jobs[1].BranchName != "Default Branch" || !jobs[1].Price.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("unexpected second job %+v", jobs[1])
	}
	if result.Errors[0].Row != 3 || result.Errors[0].Field != "barcode" {
		t.Fatalf("unexpected first error %+v", result.Errors[0])
	}
	if last := result.Errors[3]; last.Row != 7 || last.Field != "quantity" || !strings.Contains(last.Message, "1000") {
		t.Fatalf("unexpected quantity cap error %+v", last)
	}
}

func TestBatchSize(t *testing.T) {
	if n := BatchSize([]Job{{Quantity: 2}, {Quantity: -1}, {Quantity: 3}}); n != 5 {
		t.Fatalf("BatchSize() = %d, want 5", n)
	}
	if n := BatchSize([]Job{{Quantity: math.MaxInt}, {Quantity: math.MaxInt}}); n <= MaxBatchLabels || n > 2*(MaxBatchLabels+1) {
		t.Fatalf("BatchSize() = %d, want just over MaxBatchLabels", n)
	}
}

func TestParseJobsXLSX(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "barcode_value")
	f.SetCellValue("Sheet1", "B1", "price")
	f.SetCellValue("Sheet1", "C1", "quantity")
	f.SetCellValue("Sheet1", "A2", "LBL-1")
	f.SetCellValue("Sheet1", "B2", 250)
	f.SetCellValue("Sheet1", "C2", 3)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	jobs, result, err := ParseJobs(buf, "labels.XLSX", "Main")
	if err != nil {
		t.Fatalf("ParseJobs() error = %v", err)
	}
	if result.Successful != 1 || len(jobs) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if jobs[0].BarcodeValue != "LBL-1" || jobs[0].Quantity != 3 || jobs[0].BranchName != "Main" {
		t.Fatalf("unexpected job %+v", jobs[0])
	}
}

func TestParseJobsRejectsUnknownFormat(t *testing.T) {
	if _, _, err := ParseJobs(strings.NewReader(""), "labels.pdf", ""); err == nil {
		t.Fatal("expected error for pdf upload")
	}
	if _, _, err := ParseJobs(strings.NewReader("price,qty\n1,1"), "labels.csv", ""); err == nil {
		t.Fatal("expected error for missing barcode column")
	}
}
