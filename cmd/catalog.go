package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"officefruits/app"
	"officefruits/utils"
)

var catalogJSON bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the product catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := app.LoadCatalog(cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if catalogJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(products.Response())
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPRICE\tDESCRIPTION")
		for _, item := range products.Items() {
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n", item.ID, item.Emoji, item.Name, utils.FormatNaira(item.Price), item.Description)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "PRESET\tNAME\tITEMS\t")
		for _, preset := range products.Presets() {
			fmt.Fprintf(w, "%s\t%s\t%v\t\n", preset.ID, preset.Name, preset.Items)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ADD-ON\tNAME\tFEE\t")
		for _, addOn := range products.AddOns() {
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", addOn.ID, addOn.Name, utils.FormatNaira(addOn.Fee))
		}
		return w.Flush()
	},
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "Print the catalog as JSON")
}
