package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatINR renders an integer rupee amount with Indian digit grouping,
// e.g. 12345678 -> "Rs 1,23,45,678".
func FormatINR(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%sRs %s", sign, groupIndian(amount))
}

// ParseINR parses "Rs 1,00,000" or "100000" into an integer rupee amount.
func ParseINR(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "rs")
	s = strings.TrimPrefix(s, ".")
	replacer := strings.NewReplacer(",", "", " ", "")
	s = replacer.Replace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid rupee amount")
	}
	return strconv.ParseInt(s, 10, 64)
}

// PercentOf computes pct percent of amount, rounded to the nearest rupee.
func PercentOf(amount int64, pct float64) int64 {
	return int64(float64(amount)*pct/100.0 + 0.5)
}

// groupIndian applies the 3-then-2 grouping used for rupee amounts.
func groupIndian(n int64) string {
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}
	head := str[:len(str)-3]
	tail := str[len(str)-3:]
	var out strings.Builder
	for i, c := range head {
		if i != 0 && (len(head)-i)%2 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String() + "," + tail
}
