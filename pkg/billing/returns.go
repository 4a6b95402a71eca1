package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ReturnLine is a bill item selected for return
type ReturnLine struct {
	BillItemID string `json:"bill_item_id"`
	// FinalAmount is the per-unit amount recorded at sale time, after discounts
	FinalAmount decimal.Decimal `json:"final_amount"`
	ReturnQty   int64           `json:"return_qty"`
	OriginalQty int64           `json:"original_qty"`
	ReturnedQty int64           `json:"returned_qty"`
}

// Available is the quantity that can still be returned
func (rl ReturnLine) Available() int64 {
	return rl.OriginalQty - rl.ReturnedQty
}

// ReturnLineAmount is the refund for a single return line
type ReturnLineAmount struct {
	BillItemID string          `json:"bill_item_id"`
	Quantity   int64           `json:"quantity"`
	Amount     decimal.Decimal `json:"amount"`
}

// ReturnTotal is the result of ComputeReturnAmount
type ReturnTotal struct {
	Lines    []ReturnLineAmount `json:"lines"`
	RawTotal decimal.Decimal    `json:"raw_total"`
	Total    decimal.Decimal    `json:"total"`
}

// QuantityViolation describes one return line with an impossible quantity
type QuantityViolation struct {
	BillItemID string
	Requested  int64
	Available  int64
}

// ReturnQuantityError is returned when one or more lines ask to return
// more than is available, or less than one unit.
type ReturnQuantityError struct {
	Violations []QuantityViolation
}

func (e *ReturnQuantityError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("item %s: requested %d, available %d", v.BillItemID, v.Requested, v.Available))
	}
	return "invalid return quantity: " + strings.Join(parts, "; ")
}

// ComputeReturnAmount prices a return selection. Each line refunds
// FinalAmount × ReturnQty and the sum goes through RoundOff.
// Quantities are checked but never clamped.
func ComputeReturnAmount(lines []ReturnLine) (ReturnTotal, error) {
	var violations []QuantityViolation
	for _, line := range lines {
		if line.ReturnQty < 1 || line.ReturnQty > line.Available() {
			violations = append(violations, QuantityViolation{
				BillItemID: line.BillItemID,
				Requested:  line.ReturnQty,
				Available:  line.Available(),
			})
		}
	}
	if len(violations) > 0 {
		return ReturnTotal{}, &ReturnQuantityError{Violations: violations}
	}

	result := ReturnTotal{
		Lines:    make([]ReturnLineAmount, 0, len(lines)),
		RawTotal: decimal.Zero,
	}
	for _, line := range lines {
		amount := line.FinalAmount.Mul(decimal.NewFromInt(line.ReturnQty))
		result.Lines = append(result.Lines, ReturnLineAmount{
			BillItemID: line.BillItemID,
			Quantity:   line.ReturnQty,
			Amount:     amount,
		})
		result.RawTotal = result.RawTotal.Add(amount)
	}
	result.Total = RoundOff(result.RawTotal)

	return result, nil
}

// Replacement is the settlement when an item is swapped for another.
// A positive FinalAmount is owed by the customer, a negative one is refunded.
type Replacement struct {
	PriceDifference decimal.Decimal `json:"price_difference"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
}

// ComputeReplacementPriceDifference prices a replacement.
// Refunds are never discounted and a fixed discount is capped at the
// difference owed.
func ComputeReplacementPriceDifference(originalUnitPrice, replacementUnitPrice decimal.Decimal, quantity int64, discount *Discount) Replacement {
	diff := replacementUnitPrice.Sub(originalUnitPrice).Mul(decimal.NewFromInt(quantity))

	result := Replacement{
		PriceDifference: diff,
		DiscountAmount:  decimal.Zero,
		FinalAmount:     diff,
	}
	if !diff.IsPositive() || discount == nil {
		return result
	}

	var discountAmount decimal.Decimal
	if discount.Type == DiscountPercentage {
		discountAmount = diff.Mul(discount.Value).Div(hundred)
	} else {
		discountAmount = decimal.Min(discount.Value, diff)
	}

	result.DiscountAmount = discountAmount
	result.FinalAmount = diff.Sub(discountAmount)
	return result
}
