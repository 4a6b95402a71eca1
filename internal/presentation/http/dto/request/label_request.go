package request

import (
	"github.com/shopspring/decimal"

	"github.com/sangkips/retailpos-api/pkg/label"
	"github.com/sangkips/retailpos-api/pkg/pagination"
)

// LabelJobRequest asks for Quantity labels of one product
type LabelJobRequest struct {
	BarcodeValue string          `json:"barcode_value"`
	BranchName   string          `json:"branch_name" binding:"max=100"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity" binding:"max=1000"`
	LogoURL      string          `json:"logo_url" binding:"omitempty,max=2048"`
}

// PrintLabelsRequest represents a label print or preview request
type PrintLabelsRequest struct {
	Jobs []LabelJobRequest `json:"jobs" binding:"dive"`
	// Channel is auto, thermal or pdf
	Channel string `json:"channel"`
}

// PrintBillLabelsRequest is the optional body for printing a bill's labels
type PrintBillLabelsRequest struct {
	Channel string `json:"channel"`
}

// LabelJobFilterRequest represents print log filter parameters
type LabelJobFilterRequest struct {
	TerminalID string `form:"terminal_id"`
	BillID     string `form:"bill_id"`
	pagination.PaginationParams
}

// ToJobs converts the request jobs
func (r *PrintLabelsRequest) ToJobs() []label.Job {
	jobs := make([]label.Job, 0, len(r.Jobs))
	for _, j := range r.Jobs {
		jobs = append(jobs, label.Job{
			BarcodeValue: j.BarcodeValue,
			BranchName:   j.BranchName,
			Price:        j.Price,
			Quantity:     j.Quantity,
			LogoURL:      j.LogoURL,
		})
	}
	return jobs
}
