package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PrintChannel is the surface a label document was delivered to
type PrintChannel int

const (
	PrintChannelNone    PrintChannel = 0
	PrintChannelThermal PrintChannel = 1
	PrintChannelPDF     PrintChannel = 2
)

func (c PrintChannel) String() string {
	names := [...]string{"None", "Thermal", "PDF"}
	if int(c) < 0 || int(c) >= len(names) {
		return "None"
	}
	return names[c]
}

// ParsePrintChannel reads a channel name; "" and "auto" mean no restriction
func ParsePrintChannel(s string) (PrintChannel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "none":
		return PrintChannelNone, nil
	case "thermal", "printer":
		return PrintChannelThermal, nil
	case "pdf", "document":
		return PrintChannelPDF, nil
	}
	return PrintChannelNone, fmt.Errorf("unknown print channel %q", s)
}

func (c PrintChannel) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *PrintChannel) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*c = PrintChannel(i)
		return nil
	}
	switch str {
	case "Thermal":
		*c = PrintChannelThermal
	case "PDF":
		*c = PrintChannelPDF
	default:
		*c = PrintChannelNone
	}
	return nil
}

func (c PrintChannel) Value() (driver.Value, error) {
	return int64(c), nil
}

func (c *PrintChannel) Scan(value interface{}) error {
	if value == nil {
		*c = PrintChannelNone
		return nil
	}
	switch v := value.(type) {
	case int64:
		*c = PrintChannel(v)
	case int:
		*c = PrintChannel(v)
	}
	return nil
}
