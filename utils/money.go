package utils

import (
	"strconv"
	"strings"
)

// FormatNaira formats a whole-naira amount as a string like "₦12,400"
func FormatNaira(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.FormatInt(amount, 10)
	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 4)
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₦")

	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatKobo formats a minor-unit amount as naira with two decimals, e.g. "₦12,400.50"
func FormatKobo(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	whole := FormatNaira(amount / 100)
	if neg {
		whole = "-" + whole
	}
	frac := amount % 100
	if frac < 10 {
		return whole + ".0" + strconv.FormatInt(frac, 10)
	}
	return whole + "." + strconv.FormatInt(frac, 10)
}
