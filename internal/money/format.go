package money

import (
	"strconv"
	"strings"
)

// FormatPlain renders minor units as "-1234.56".
func FormatPlain(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
	}
	a := Abs(v)
	return sign + strconv.FormatInt(a/100, 10) + "." + pad2(a%100)
}

// Format renders minor units as "$1,234.56" or "-$1,234.56".
func Format(v int64) string {
	if v < 0 {
		return "-$" + grouped(Abs(v))
	}
	return "$" + grouped(v)
}

// FormatParen renders negatives accounting-style: "($1,234.56)".
func FormatParen(v int64) string {
	if v < 0 {
		return "($" + grouped(Abs(v)) + ")"
	}
	return "$" + grouped(v)
}

// FormatCR renders negatives with a trailing credit marker: "1,234.56 CR".
func FormatCR(v int64) string {
	if v < 0 {
		return grouped(Abs(v)) + " CR"
	}
	return grouped(v)
}

func grouped(a int64) string {
	whole := strconv.FormatInt(a/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + "." + pad2(a%100)
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
