package request

import (
	"github.com/shopspring/decimal"

	"github.com/sangkips/retailpos-api/pkg/apperror"
	"github.com/sangkips/retailpos-api/pkg/billing"
)

// LineItemRequest is one cart line
type LineItemRequest struct {
	ID            string               `json:"id"`
	UnitPrice     decimal.Decimal      `json:"unit_price"`
	Quantity      int64                `json:"quantity" binding:"min=1"`
	DiscountType  billing.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal      `json:"discount_value"`
	TaxRate       decimal.Decimal      `json:"tax_rate"`
	DecomposeTax  bool                 `json:"decompose_tax"`
}

// DiscountRequest is a bill-level discount; type accepts "%", "percent", "fixed", ...
type DiscountRequest struct {
	Type  billing.DiscountType `json:"type"`
	Value decimal.Decimal      `json:"value"`
}

// BillTotalRequest represents a cart total request
type BillTotalRequest struct {
	Items    []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount *DiscountRequest  `json:"discount"`
}

// BillBreakdownRequest adds the GST toggle to a cart total request
type BillBreakdownRequest struct {
	BillTotalRequest
	GST bool `json:"gst"`
}

// BackCalculateTaxRequest represents a tax decomposition request
type BackCalculateTaxRequest struct {
	InclusivePrice decimal.Decimal `json:"inclusive_price"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
}

// RoundOffRequest represents a round-off request
type RoundOffRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ReplacementRequest represents a replacement price difference request
type ReplacementRequest struct {
	OriginalUnitPrice    decimal.Decimal  `json:"original_unit_price"`
	ReplacementUnitPrice decimal.Decimal  `json:"replacement_unit_price"`
	Quantity             int64            `json:"quantity" binding:"min=1"`
	Discount             *DiscountRequest `json:"discount"`
}

// ToDiscount converts the request, treating a missing discount as none
func (r *DiscountRequest) ToDiscount() billing.Discount {
	if r == nil {
		return billing.Discount{}
	}
	return billing.Discount{Type: r.Type, Value: r.Value}
}

// Validate checks the value ranges binding tags cannot express for decimals
func (r *DiscountRequest) Validate(field string) []apperror.FieldError {
	if r == nil {
		return nil
	}
	var errs []apperror.FieldError
	if r.Value.IsNegative() {
		errs = append(errs, apperror.FieldError{Field: field + ".value", Message: "Discount must not be negative"})
	}
	if !r.Value.IsZero() && !r.Type.IsValid() {
		errs = append(errs, apperror.FieldError{Field: field + ".type", Message: "Discount type must be percentage or fixed"})
	}
	return errs
}

// ToLineItems converts the request items for the billing engine
func (r *BillTotalRequest) ToLineItems() []billing.LineItem {
	items := make([]billing.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, billing.LineItem{
			ID:            item.ID,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			DiscountType:  item.DiscountType,
			DiscountValue: item.DiscountValue,
			TaxRate:       item.TaxRate,
			DecomposeTax:  item.DecomposeTax,
		})
	}
	return items
}

// Validate rejects negative prices and discounts
func (r *BillTotalRequest) Validate() []apperror.FieldError {
	var errs []apperror.FieldError
	for i, item := range r.Items {
		if item.UnitPrice.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: fieldIndex("items", i, "unit_price"), Message: "Price must not be negative"})
		}
		if item.DiscountValue.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: fieldIndex("items", i, "discount_value"), Message: "Discount must not be negative"})
		}
	}
	return append(errs, r.Discount.Validate("discount")...)
}
