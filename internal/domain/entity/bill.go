package entity

import (
	"github.com/shopspring/decimal"

	"github.com/sangkips/retailpos-api/pkg/billing"
)

// Bill is a finalized sale as served by the billing backend.
// It is not stored locally.
type Bill struct {
	ID            string               `json:"id"`
	BillNo        string               `json:"bill_no"`
	BranchName    string               `json:"branch_name"`
	BranchLogoURL string               `json:"branch_logo_url,omitempty"`
	DiscountType  billing.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal      `json:"discount_value"`
	GST           bool                 `json:"gst"`
	Items         []BillItem           `json:"items"`
}

// BillItem is one sold line of a Bill
type BillItem struct {
	ID            string               `json:"id"`
	ProductName   string               `json:"product_name"`
	Barcode       string               `json:"barcode"`
	Price         decimal.Decimal      `json:"price"`
	Qty           int64                `json:"qty"`
	ReturnedQty   int64                `json:"returned_qty"`
	DiscountType  billing.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal      `json:"discount_value"`
	// FinalAmount is the per-unit amount after discounts; nil when the backend omits it
	FinalAmount *decimal.Decimal `json:"final_amount"`
	TaxRate     decimal.Decimal  `json:"tax_rate"`
}

// ItemByID returns the bill item with the given id
func (b *Bill) ItemByID(id string) (*BillItem, bool) {
	for i := range b.Items {
		if b.Items[i].ID == id {
			return &b.Items[i], true
		}
	}
	return nil, false
}

// ReturnItem is one line of a return request
type ReturnItem struct {
	BillItemID string `json:"bill_item_id"`
	Qty        int64  `json:"qty"`
}

// ReturnRequest is the payload the billing backend accepts for a return
type ReturnRequest struct {
	BillID string       `json:"bill_id"`
	Items  []ReturnItem `json:"items"`
}

// ReturnReceipt is the backend's acknowledgement of a return
type ReturnReceipt struct {
	ID       string          `json:"id"`
	ReturnNo string          `json:"return_no,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
}
