package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"officefruits/app"
	"officefruits/models"
	"officefruits/pricing"
	"officefruits/utils"
)

var (
	quoteItems     []string
	quotePreset    string
	quoteFrequency string
	quoteAddOns    []string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a box without placing an order",
	Example: `  fruitbox quote --item apple=2 --item banana=3 --frequency weekly
  fruitbox quote --preset party --frequency monthly --addon branding`,
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := app.LoadCatalog(cfg)
		if err != nil {
			return err
		}

		mapping := map[string]int{}
		if quotePreset != "" {
			preset, ok := products.Preset(quotePreset)
			if !ok {
				return fmt.Errorf("unknown preset %q", quotePreset)
			}
			for id, qty := range preset.Items {
				mapping[id] = qty
			}
		}
		items, err := parseItemFlags(quoteItems)
		if err != nil {
			return err
		}
		for id, qty := range items {
			if _, ok := products.Get(id); !ok {
				return fmt.Errorf("unknown item %q", id)
			}
			mapping[id] = qty
		}

		frequency, err := models.ParseFrequency(quoteFrequency)
		if err != nil {
			return err
		}

		quote := pricing.NewEngine(products).Quote(models.NewBox(mapping), frequency, quoteAddOns)
		return printQuote(cmd.OutOrStdout(), quote)
	},
}

func init() {
	quoteCmd.Flags().StringArrayVarP(&quoteItems, "item", "i", nil, "Item and quantity as id=qty (repeatable)")
	quoteCmd.Flags().StringVarP(&quotePreset, "preset", "p", "", "Start from a preset box")
	quoteCmd.Flags().StringVarP(&quoteFrequency, "frequency", "f", string(models.DefaultFrequency), "Delivery frequency")
	quoteCmd.Flags().StringSliceVar(&quoteAddOns, "addon", nil, "Add-on ids (branding, multi-address)")
}

// parseItemFlags turns ["apple=2", "kiwi=1"] into a box mapping
func parseItemFlags(values []string) (map[string]int, error) {
	mapping := make(map[string]int, len(values))
	for _, v := range values {
		id, qtyStr, ok := strings.Cut(v, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid item %q, expected id=qty", v)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyStr))
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("invalid quantity in %q", v)
		}
		mapping[id] += qty
	}
	return mapping, nil
}

func printQuote(out io.Writer, quote models.PricingBreakdown) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ITEM\tQTY\tUNIT\tLINE\t")
	for _, line := range quote.Lines {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t\n", line.Name, line.Qty, utils.FormatNaira(line.UnitPrice), utils.FormatNaira(line.LineTotal))
	}
	fmt.Fprintf(w, "Per delivery\t%d\t\t%s\t\n", quote.ItemCount, utils.FormatNaira(quote.PerDelivery))
	fmt.Fprintf(w, "%s x%d\t\t\t%s\t\n", quote.Frequency.Label(), quote.Multiplier, utils.FormatNaira(quote.Subtotal))
	for _, a := range quote.AddOns {
		fmt.Fprintf(w, "%s\t\t\t%s\t\n", a.Name, utils.FormatNaira(a.Fee))
	}
	fmt.Fprintf(w, "Total\t\t\t%s\t\n", utils.FormatNaira(quote.Total))
	return w.Flush()
}
