package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeBillTotal(t *testing.T) {
	items := []LineItem{
		{ID: "a", UnitPrice: d("100"), Quantity: 2},
		{ID: "b", UnitPrice: d("250"), Quantity: 1},
	}

	cases := []struct {
		name     string
		discount Discount
		sub      string
		disc     string
		grand    string
	}{
		{"percent", Discount{Type: DiscountPercentage, Value: d("10")}, "450", "45", "405"},
		{"fixed", Discount{Type: DiscountFixed, Value: d("50")}, "450", "50", "400"},
		{"none", Discount{}, "450", "0", "450"},
		{"fixed larger than subtotal", Discount{Type: DiscountFixed, Value: d("500")}, "450", "500", "-50"},
		{"untyped value is fixed", Discount{Value: d("30")}, "450", "30", "420"},
		{"negative fixed passes through", Discount{Type: DiscountFixed, Value: d("-20")}, "450", "-20", "470"},
		{"negative percent passes through", Discount{Type: DiscountPercentage, Value: d("-10")}, "450", "-45", "495"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeBillTotal(items, tc.discount)
			if !got.Subtotal.Equal(d(tc.sub)) {
				t.Fatalf("subtotal = %s, want %s", got.Subtotal, tc.sub)
			}
			if !got.DiscountAmount.Equal(d(tc.disc)) {
				t.Fatalf("discount = %s, want %s", got.DiscountAmount, tc.disc)
			}
			if !got.GrandTotal.Equal(d(tc.grand)) {
				t.Fatalf("grand total = %s, want %s", got.GrandTotal, tc.grand)
			}
		})
	}
}

func TestComputeBillTotalEmptyCart(t *testing.T) {
	got := ComputeBillTotal(nil, Discount{Type: DiscountPercentage, Value: d("10")})
	if !got.Subtotal.IsZero() || !got.DiscountAmount.IsZero() || !got.GrandTotal.IsZero() {
		t.Fatalf("expected all zero, got %+v", got)
	}
}

func TestAllocateFixedDiscountSumsToTotal(t *testing.T) {
	cases := []struct {
		name     string
		prices   []string
		discount string
	}{
		{"uneven thirds", []string{"100", "100", "100"}, "10"},
		{"weighted", []string{"100", "200", "300"}, "100"},
		{"single item", []string{"79900"}, "1500"},
		{"tiny prices", []string{"0.99", "1.49", "3.33", "7.01"}, "2.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items := make([]LineItem, len(tc.prices))
			for i, p := range tc.prices {
				items[i] = LineItem{UnitPrice: d(p), Quantity: 1}
			}
			shares := AllocateItemDiscount(items, Discount{Type: DiscountFixed, Value: d(tc.discount)}, DefaultAllocationScale)
			if len(shares) != len(items) {
				t.Fatalf("got %d shares, want %d", len(shares), len(items))
			}
			sum := decimal.Zero
			for _, s := range shares {
				sum = sum.Add(s.Amount)
			}
			if !sum.Equal(d(tc.discount)) {
				t.Fatalf("shares sum to %s, want %s", sum, tc.discount)
			}
		})
	}
}

func TestAllocateFixedDiscountRemainderOnLastItem(t *testing.T) {
	items := []LineItem{
		{ID: "a", UnitPrice: d("100"), Quantity: 1},
		{ID: "b", UnitPrice: d("100"), Quantity: 1},
		{ID: "c", UnitPrice: d("100"), Quantity: 1},
	}
	shares := AllocateItemDiscount(items, Discount{Type: DiscountFixed, Value: d("10")}, 2)

	want := []string{"3.33", "3.33", "3.34"}
	for i, w := range want {
		if !shares[i].Amount.Equal(d(w)) {
			t.Fatalf("share %d = %s, want %s", i, shares[i].Amount, w)
		}
		if shares[i].ItemID != items[i].ID {
			t.Fatalf("share %d item id = %q", i, shares[i].ItemID)
		}
	}
}

func TestAllocateFixedDiscountZeroSubtotal(t *testing.T) {
	items := []LineItem{
		{UnitPrice: d("0"), Quantity: 1},
		{UnitPrice: d("0"), Quantity: 3},
	}
	shares := AllocateItemDiscount(items, Discount{Type: DiscountFixed, Value: d("10")}, 2)
	for i, s := range shares {
		if !s.Amount.IsZero() {
			t.Fatalf("share %d = %s, want 0", i, s.Amount)
		}
	}
}

func TestAllocatePercentDiscount(t *testing.T) {
	items := []LineItem{
		{ID: "a", UnitPrice: d("100"), Quantity: 2},
		{ID: "b", UnitPrice: d("250"), Quantity: 1},
	}
	shares := AllocateItemDiscount(items, Discount{Type: DiscountPercentage, Value: d("10")}, 2)

	for _, s := range shares {
		if !s.Percent.Equal(d("10")) {
			t.Fatalf("percent = %s, want 10", s.Percent)
		}
		if s.Type != DiscountPercentage {
			t.Fatalf("type = %s", s.Type)
		}
	}
	if !shares[0].Amount.Equal(d("20")) || !shares[1].Amount.Equal(d("25")) {
		t.Fatalf("unexpected amounts %s, %s", shares[0].Amount, shares[1].Amount)
	}
}

func TestBackCalculateTaxIsInverse(t *testing.T) {
	tolerance := d("0.000000001")
	cases := []struct {
		base string
		rate string
	}{
		{"100", "18"},
		{"37.5", "5"},
		{"19.99", "12"},
		{"1234.567", "28"},
		{"0.01", "3"},
		{"500", "0"},
	}

	for _, tc := range cases {
		base, rate := d(tc.base), d(tc.rate)
		inclusive := base.Add(base.Mul(rate).Div(hundred))
		split := BackCalculateTax(inclusive, rate)
		if split.BasePrice.Sub(base).Abs().GreaterThan(tolerance) {
			t.Fatalf("base %s rate %s: back-calculated %s", tc.base, tc.rate, split.BasePrice)
		}
		if !split.BasePrice.Add(split.TaxAmount).Equal(inclusive) {
			t.Fatalf("base + tax = %s, want %s", split.BasePrice.Add(split.TaxAmount), inclusive)
		}
	}
}

func TestRoundOff(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"4.49", "4"},
		{"4.50", "5"},
		{"4.99", "5"},
		{"5.00", "5"},
		{"0", "0"},
		{"0.5", "1"},
		{"159800", "159800"},
		{"1234.4999", "1234"},
	}

	for _, tc := range cases {
		got := RoundOff(d(tc.in))
		if !got.Equal(d(tc.want)) {
			t.Fatalf("RoundOff(%s) = %s, want %s", tc.in, got, tc.want)
		}
		if again := RoundOff(got); !again.Equal(got) {
			t.Fatalf("RoundOff not idempotent for %s: %s then %s", tc.in, got, again)
		}
	}
}

func TestComputeReturnAmount(t *testing.T) {
	got, err := ComputeReturnAmount([]ReturnLine{
		{BillItemID: "1", FinalAmount: d("79900"), ReturnQty: 2, OriginalQty: 3, ReturnedQty: 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Total.Equal(d("159800")) {
		t.Fatalf("total = %s, want 159800", got.Total)
	}
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected lines %+v", got.Lines)
	}
}

func TestComputeReturnAmountRoundsSum(t *testing.T) {
	got, err := ComputeReturnAmount([]ReturnLine{
		{BillItemID: "1", FinalAmount: d("10.25"), ReturnQty: 1, OriginalQty: 1},
		{BillItemID: "2", FinalAmount: d("5.30"), ReturnQty: 1, OriginalQty: 2, ReturnedQty: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.RawTotal.Equal(d("15.55")) {
		t.Fatalf("raw total = %s", got.RawTotal)
	}
	if !got.Total.Equal(d("16")) {
		t.Fatalf("total = %s, want 16", got.Total)
	}
}

func TestComputeReturnAmountRejectsExcessQuantity(t *testing.T) {
	_, err := ComputeReturnAmount([]ReturnLine{
		{BillItemID: "ok", FinalAmount: d("10"), ReturnQty: 1, OriginalQty: 1},
		{BillItemID: "over", FinalAmount: d("10"), ReturnQty: 2, OriginalQty: 3, ReturnedQty: 2},
		{BillItemID: "zero", FinalAmount: d("10"), ReturnQty: 0, OriginalQty: 3},
	})

	var qtyErr *ReturnQuantityError
	if !errors.As(err, &qtyErr) {
		t.Fatalf("expected ReturnQuantityError, got %v", err)
	}
	if len(qtyErr.Violations) != 2 {
		t.Fatalf("got %d violations, want 2", len(qtyErr.Violations))
	}
	if qtyErr.Violations[0].BillItemID != "over" || qtyErr.Violations[0].Available != 1 {
		t.Fatalf("unexpected violation %+v", qtyErr.Violations[0])
	}
}

func TestReplacementPriceDifference(t *testing.T) {
	pct := &Discount{Type: DiscountPercentage, Value: d("10")}
	fixed := &Discount{Type: DiscountFixed, Value: d("500")}

	cases := []struct {
		name     string
		orig     string
		repl     string
		qty      int64
		discount *Discount
		diff     string
		disc     string
		final    string
	}{
		{"upgrade no discount", "100", "150", 2, nil, "100", "0", "100"},
		{"upgrade percent", "100", "150", 2, pct, "100", "10", "90"},
		{"upgrade fixed capped", "100", "150", 2, fixed, "100", "100", "0"},
		{"upgrade fixed", "100", "1000", 1, fixed, "900", "500", "400"},
		{"refund ignores discount", "150", "100", 2, pct, "-100", "0", "-100"},
		{"refund ignores fixed", "150", "100", 1, fixed, "-50", "0", "-50"},
		{"even swap", "100", "100", 3, pct, "0", "0", "0"},
		{"untyped discount is fixed", "100", "150", 1, &Discount{Value: d("20")}, "50", "20", "30"},
		{"zero discount", "100", "150", 1, &Discount{}, "50", "0", "50"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeReplacementPriceDifference(d(tc.orig), d(tc.repl), tc.qty, tc.discount)
			if !got.PriceDifference.Equal(d(tc.diff)) {
				t.Fatalf("difference = %s, want %s", got.PriceDifference, tc.diff)
			}
			if !got.DiscountAmount.Equal(d(tc.disc)) {
				t.Fatalf("discount = %s, want %s", got.DiscountAmount, tc.disc)
			}
			if !got.FinalAmount.Equal(d(tc.final)) {
				t.Fatalf("final = %s, want %s", got.FinalAmount, tc.final)
			}
		})
	}
}

func TestComputeBillDecomposesTaxOnFlaggedItems(t *testing.T) {
	items := []LineItem{
		{ID: "phone", UnitPrice: d("1180"), Quantity: 1, TaxRate: d("18"), DecomposeTax: true},
		{ID: "cover", UnitPrice: d("200"), Quantity: 1, TaxRate: d("12")},
	}

	got := ComputeBill(items, Discount{}, true, 2)
	if got.Items[0].Tax == nil {
		t.Fatal("expected tax split on flagged item")
	}
	if !got.Items[0].Tax.BasePrice.Equal(d("1000")) || !got.Items[0].Tax.TaxAmount.Equal(d("180")) {
		t.Fatalf("unexpected split %+v", got.Items[0].Tax)
	}
	if got.Items[1].Tax != nil {
		t.Fatal("unflagged item should not carry a tax split")
	}

	noGST := ComputeBill(items, Discount{}, false, 2)
	if noGST.Items[0].Tax != nil {
		t.Fatal("tax split must be omitted when gst is off")
	}
}

func TestComputeBillNetAmountsMatchGrandTotal(t *testing.T) {
	items := []LineItem{
		{ID: "a", UnitPrice: d("99.99"), Quantity: 3},
		{ID: "b", UnitPrice: d("10"), Quantity: 7},
	}
	got := ComputeBill(items, Discount{Type: DiscountFixed, Value: d("25")}, false, 2)

	net := decimal.Zero
	for _, item := range got.Items {
		net = net.Add(item.NetAmount)
	}
	if !net.Equal(got.GrandTotal) {
		t.Fatalf("net sum %s != grand total %s", net, got.GrandTotal)
	}
}

func TestLineFinalAmount(t *testing.T) {
	cases := []struct {
		item LineItem
		want string
	}{
		{LineItem{UnitPrice: d("200")}, "200"},
		{LineItem{UnitPrice: d("200"), DiscountType: DiscountPercentage, DiscountValue: d("25")}, "150"},
		{LineItem{UnitPrice: d("200"), DiscountType: DiscountFixed, DiscountValue: d("30")}, "170"},
		{LineItem{UnitPrice: d("20"), DiscountType: DiscountFixed, DiscountValue: d("30")}, "0"},
	}
	for _, tc := range cases {
		if got := LineFinalAmount(tc.item); !got.Equal(d(tc.want)) {
			t.Fatalf("LineFinalAmount(%+v) = %s, want %s", tc.item, got, tc.want)
		}
	}
}

func TestParseDiscountType(t *testing.T) {
	cases := map[string]DiscountType{
		"%":          DiscountPercentage,
		"Percentage": DiscountPercentage,
		"fixed":      DiscountFixed,
		" flat ":     DiscountFixed,
		"":           "",
	}
	for in, want := range cases {
		got, err := ParseDiscountType(in)
		if err != nil {
			t.Fatalf("ParseDiscountType(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDiscountType(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseDiscountType("bogus"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
