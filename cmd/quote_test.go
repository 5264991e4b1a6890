package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"officefruits/catalog"
	"officefruits/models"
	"officefruits/pricing"
)

func TestParseItemFlags(t *testing.T) {
	mapping, err := parseItemFlags([]string{"apple=2", " kiwi = 1", "apple=3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"apple": 5, "kiwi": 1}, mapping)

	for _, bad := range []string{"apple", "=2", "apple=two", "apple=-1"} {
		_, err := parseItemFlags([]string{bad})
		assert.Error(t, err, "flag %q", bad)
	}
}

func TestPrintQuote(t *testing.T) {
	products, err := catalog.Default()
	require.NoError(t, err)
	quote := pricing.NewEngine(products).Quote(
		models.NewBox(map[string]int{"apple": 2, "banana": 3}),
		models.FrequencyWeekly,
		[]string{"branding"},
	)

	var buf bytes.Buffer
	require.NoError(t, printQuote(&buf, quote))
	out := buf.String()
	assert.Contains(t, out, "Crunchy Apple")
	assert.Contains(t, out, "₦3,100")
	assert.Contains(t, out, "Weekly x4")
	assert.Contains(t, out, "₦12,400")
	assert.Contains(t, out, "Branded Box Sleeve")
	assert.Contains(t, out, "₦17,400")
}
