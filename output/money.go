package output

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money formats an amount held in minor units. scale is the number of minor
// digits per major unit; 0 prints whole numbers. Thousands are grouped with
// commas: Money(-123456, 2) is "-1,234.56".
func Money(amount int64, scale int32) string {
	if scale < 0 {
		scale = 0
	}
	s := decimal.New(amount, -scale).StringFixed(scale)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// ParseMoney parses a decimal amount into minor units at scale. Grouping
// commas are accepted. Digits beyond scale are rejected.
func ParseMoney(s string, scale int32) (int64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, err
	}
	minor := d.Shift(scale)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", s, scale)
	}
	if minor.Abs().GreaterThanOrEqual(maxMinor) {
		return 0, fmt.Errorf("amount %s is out of range", s)
	}
	return minor.IntPart(), nil
}

var maxMinor = decimal.New(1, 18)
