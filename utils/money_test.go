package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNaira(t *testing.T) {
	tests := map[int64]string{
		0:       "₦0",
		500:     "₦500",
		3100:    "₦3,100",
		12400:   "₦12,400",
		1000000: "₦1,000,000",
		-2500:   "-₦2,500",
	}
	for amount, want := range tests {
		assert.Equal(t, want, FormatNaira(amount), "amount %d", amount)
	}
}

func TestFormatKobo(t *testing.T) {
	assert.Equal(t, "₦12,400.00", FormatKobo(1240000))
	assert.Equal(t, "₦12,400.50", FormatKobo(1240050))
	assert.Equal(t, "₦0.05", FormatKobo(5))
	assert.Equal(t, "-₦1.25", FormatKobo(-125))
}
