// Package label turns label print jobs into two-up pages of 38mm barcode
// labels for thermal printers and printable PDF documents.
//
// A print invocation runs in four steps: Expand the jobs into one request
// per physical label, rasterize every request (CODE128 with a CODE39
// fallback), Paginate the successful labels two per row, and render the
// rows as a PDF (RenderPDF) or as ESC/POS raster data (RenderRaster).
package label

import (
	"image"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sangkips/retailpos-api/pkg/barcode"
)

const (
	// MaxJobQuantity is the largest quantity a single job may ask for
	MaxJobQuantity = 1000
	// MaxBatchLabels is the largest number of labels one invocation may print
	MaxBatchLabels = 5000
)

// Job asks for Quantity identical labels of one product
type Job struct {
	BarcodeValue string          `json:"barcode_value"`
	BranchName   string          `json:"branch_name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	LogoURL      string          `json:"logo_url,omitempty"`
}

// Request is a single physical label to render
type Request struct {
	// Sequence is the position of the label in the expanded batch
	Sequence     int
	BarcodeValue string
	BranchName   string
	Price        decimal.Decimal
	LogoURL      string
}

// Label is a successfully rasterized Request
type Label struct {
	Request
	Image     image.Image
	Symbology barcode.Symbology
}

// Failure records a Request that could not be rasterized in any symbology
type Failure struct {
	Request
	Err error
}

// Row is one printed page: two labels side by side. A nil Right is an
// empty placeholder slot.
type Row struct {
	Left  Label
	Right *Label
}

// HasPlaceholder reports whether the right slot is empty
func (r Row) HasPlaceholder() bool {
	return r.Right == nil
}

// Labels returns the labels in the row, left first
func (r Row) Labels() []Label {
	if r.Right == nil {
		return []Label{r.Left}
	}
	return []Label{r.Left, *r.Right}
}

// Summary counts the outcome of a batch
type Summary struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BatchSize is the number of labels Expand would produce for jobs. Counting
// stops once the total passes MaxBatchLabels.
func BatchSize(jobs []Job) int {
	total := 0
	for _, job := range jobs {
		if job.Quantity > 0 {
			total += min(job.Quantity, MaxBatchLabels+1)
		}
		if total > MaxBatchLabels {
			return total
		}
	}
	return total
}

// Expand flattens each job into Quantity requests, keeping job order.
// Jobs with a quantity below one are ignored.
func Expand(jobs []Job) []Request {
	total := 0
	for _, job := range jobs {
		if job.Quantity > 0 {
			total += job.Quantity
		}
	}

	requests := make([]Request, 0, total)
	for _, job := range jobs {
		for i := 0; i < job.Quantity; i++ {
			requests = append(requests, Request{
				Sequence:     len(requests),
				BarcodeValue: strings.TrimSpace(job.BarcodeValue),
				BranchName:   job.BranchName,
				Price:        job.Price,
				LogoURL:      job.LogoURL,
			})
		}
	}
	return requests
}

// Paginate groups labels two per row. The row count is ceil(n/2) and only
// the last row of an odd batch has a placeholder.
func Paginate(labels []Label) []Row {
	rows := make([]Row, 0, (len(labels)+1)/2)
	for i := 0; i < len(labels); i += 2 {
		row := Row{Left: labels[i]}
		if i+1 < len(labels) {
			right := labels[i+1]
			row.Right = &right
		}
		rows = append(rows, row)
	}
	return rows
}

// LogoURLs returns the distinct non-empty logo locations used by rows
func LogoURLs(rows []Row) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, row := range rows {
		for _, l := range row.Labels() {
			if l.LogoURL == "" {
				continue
			}
			if _, ok := seen[l.LogoURL]; ok {
				continue
			}
			seen[l.LogoURL] = struct{}{}
			urls = append(urls, l.LogoURL)
		}
	}
	return urls
}
