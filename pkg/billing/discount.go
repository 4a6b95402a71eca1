package billing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountType represents how a discount value is interpreted
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// ParseDiscountType accepts the spellings used by the POS frontend and the
// REST backend ("%", "percent", "P", "fixed", "flat", "A", ...).
func ParseDiscountType(s string) (DiscountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "%", "p", "percent", "percentage":
		return DiscountPercentage, nil
	case "a", "fixed", "flat", "amount":
		return DiscountFixed, nil
	case "":
		return "", nil
	}
	return "", fmt.Errorf("unknown discount type %q", s)
}

func (t DiscountType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the known discount types
func (t DiscountType) IsValid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

func (t DiscountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *DiscountType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseDiscountType(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t DiscountType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *DiscountType) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = ""
	case string:
		parsed, err := ParseDiscountType(v)
		if err != nil {
			return err
		}
		*t = parsed
	case []byte:
		parsed, err := ParseDiscountType(string(v))
		if err != nil {
			return err
		}
		*t = parsed
	}
	return nil
}

// Discount is a bill-level discount policy
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// AmountOf returns the discount taken off base. Percentage discounts are
// base×value/100; any other type is the value itself. Input is not
// validated, so an empty type or a negative value passes straight through.
func (d Discount) AmountOf(base decimal.Decimal) decimal.Decimal {
	if d.Type == DiscountPercentage {
		return base.Mul(d.Value).Div(hundred)
	}
	return d.Value
}
