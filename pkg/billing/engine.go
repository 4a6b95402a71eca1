// Package billing holds the bill arithmetic used by the POS terminal:
// totals, discount allocation, inclusive-tax back calculation, returns,
// replacements and the shop's round-off rule.
//
// Every function here is pure. Prices are tax-inclusive, so no tax is
// ever added on top of a subtotal. Inputs are not validated beyond what
// each function documents; negative prices, quantities or discounts larger
// than the subtotal flow through unchanged.
package billing

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// DefaultAllocationScale is the number of decimal places a fixed discount
// share is rounded to before the remainder is settled on the last item.
const DefaultAllocationScale int32 = 2

// LineItem is one product line in a cart or a return selection
type LineItem struct {
	ID            string          `json:"id,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int64           `json:"quantity"`
	DiscountType  DiscountType    `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	// DecomposeTax marks serialized/warranty items whose GST is broken out
	DecomposeTax bool `json:"decompose_tax,omitempty"`
}

// Subtotal returns UnitPrice × Quantity
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

// BillTotal is the result of ComputeBillTotal
type BillTotal struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}

// ItemDiscount is one item's share of a bill-level discount
type ItemDiscount struct {
	ItemID  string          `json:"item_id,omitempty"`
	Type    DiscountType    `json:"type"`
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

// TaxSplit is an inclusive price broken into its base and tax parts
type TaxSplit struct {
	BasePrice decimal.Decimal `json:"base_price"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

// ItemBreakdown is a single line of a BillBreakdown
type ItemBreakdown struct {
	ItemID    string          `json:"item_id,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  ItemDiscount    `json:"discount"`
	NetAmount decimal.Decimal `json:"net_amount"`
	Tax       *TaxSplit       `json:"tax,omitempty"`
}

// BillBreakdown combines the bill total with per-item allocation and tax
type BillBreakdown struct {
	BillTotal
	GST   bool            `json:"gst"`
	Items []ItemBreakdown `json:"items"`
}

// ComputeBillTotal sums price × quantity over items and applies the bill discount.
// The grand total is not clamped at zero.
func ComputeBillTotal(items []LineItem, discount Discount) BillTotal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal())
	}

	discountAmount := discount.AmountOf(subtotal)

	return BillTotal{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		GrandTotal:     subtotal.Sub(discountAmount),
	}
}

// AllocateItemDiscount spreads a bill-level discount over the items.
//
// A percentage discount records the same percent against every item and
// derives each amount from the item's own subtotal. A fixed discount is split
// in proportion to item value; shares are rounded to scale places and the
// rounding remainder lands on the last item with a non-zero subtotal, so the
// shares always add up to the discount. A zero overall subtotal yields zero
// shares.
func AllocateItemDiscount(items []LineItem, discount Discount, scale int32) []ItemDiscount {
	shares := make([]ItemDiscount, len(items))
	if len(items) == 0 {
		return shares
	}

	if discount.Type == DiscountPercentage {
		for i, item := range items {
			shares[i] = ItemDiscount{
				ItemID:  item.ID,
				Type:    DiscountPercentage,
				Percent: discount.Value,
				Amount:  item.Subtotal().Mul(discount.Value).Div(hundred).Round(scale),
			}
		}
		return shares
	}

	overall := decimal.Zero
	last := -1
	for i, item := range items {
		sub := item.Subtotal()
		overall = overall.Add(sub)
		if !sub.IsZero() {
			last = i
		}
	}

	allocated := decimal.Zero
	for i, item := range items {
		shares[i] = ItemDiscount{ItemID: item.ID, Type: DiscountFixed, Amount: decimal.Zero, Percent: decimal.Zero}
		if overall.IsZero() || discount.Value.IsZero() {
			continue
		}
		if i == last {
			continue
		}
		amount := item.Subtotal().Mul(discount.Value).Div(overall).Round(scale)
		shares[i].Amount = amount
		allocated = allocated.Add(amount)
	}
	if last >= 0 && !overall.IsZero() && !discount.Value.IsZero() {
		shares[last].Amount = discount.Value.Sub(allocated)
	}

	for i, item := range items {
		if sub := item.Subtotal(); !sub.IsZero() {
			shares[i].Percent = shares[i].Amount.Mul(hundred).DivRound(sub, 4)
		}
	}

	return shares
}

// BackCalculateTax splits a tax-inclusive price into base and tax:
// base = price × 100 / (100 + rate), tax = price − base.
func BackCalculateTax(inclusivePrice, taxRatePercent decimal.Decimal) TaxSplit {
	base := inclusivePrice.Mul(hundred).Div(hundred.Add(taxRatePercent))
	return TaxSplit{
		BasePrice: base,
		TaxAmount: inclusivePrice.Sub(base),
	}
}

// ComputeBill returns the bill total with each item's discount share and,
// when gst is on, the tax decomposition of items flagged DecomposeTax.
func ComputeBill(items []LineItem, discount Discount, gst bool, scale int32) BillBreakdown {
	total := ComputeBillTotal(items, discount)
	shares := AllocateItemDiscount(items, discount, scale)

	lines := make([]ItemBreakdown, len(items))
	for i, item := range items {
		sub := item.Subtotal()
		net := sub.Sub(shares[i].Amount)
		lines[i] = ItemBreakdown{
			ItemID:    item.ID,
			Subtotal:  sub,
			Discount:  shares[i],
			NetAmount: net,
		}
		if gst && item.DecomposeTax {
			split := BackCalculateTax(net, item.TaxRate)
			split.BasePrice = split.BasePrice.Round(scale)
			split.TaxAmount = net.Sub(split.BasePrice)
			lines[i].Tax = &split
		}
	}

	return BillBreakdown{
		BillTotal: total,
		GST:       gst,
		Items:     lines,
	}
}

// LineFinalAmount returns the per-unit amount of an item after its own
// discount. It never goes below zero.
func LineFinalAmount(item LineItem) decimal.Decimal {
	final := item.UnitPrice
	switch item.DiscountType {
	case DiscountPercentage:
		final = final.Sub(final.Mul(item.DiscountValue).Div(hundred))
	case DiscountFixed:
		final = final.Sub(item.DiscountValue)
	}
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

// RoundOff applies the shop rounding rule: a fractional part below 0.5 is
// dropped, 0.5 and above rounds up to the next whole unit.
// Input is expected to be non-negative; callers take the absolute value of
// refunds before rounding.
func RoundOff(amount decimal.Decimal) decimal.Decimal {
	floor := amount.Floor()
	if amount.Sub(floor).LessThan(half) {
		return floor
	}
	return floor.Add(decimal.NewFromInt(1))
}
