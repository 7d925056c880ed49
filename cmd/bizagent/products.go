package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bharatbiz/bizagent/internal/application/orchestrator"
	"github.com/bharatbiz/bizagent/internal/domain/catalog"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the product catalog with GST rates",
	Long: `List the configured product catalog in match order. The first product whose
name contains (or is contained in) a spoken item name is the one billed.`,
	Example: `  bizagent products
  bizagent products --config configs/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runProducts,
}

func init() {
	rootCmd.AddCommand(productsCmd)
}

func runProducts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	cat, err := cfg.BuildCatalog()
	if err != nil {
		return err
	}

	return printCatalog(cmd.OutOrStdout(), cat, orchestrator.NewFormatter(orchestrator.DefaultLocale))
}

func printCatalog(w io.Writer, cat *catalog.Catalog, format *orchestrator.Formatter) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tUNIT\tCATEGORY\tGST")
	for _, p := range cat.List() {
		rate := cat.Taxes().Rate(p.Category).Shift(2)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s%%\n",
			p.ID, p.Name, format.Rupees(p.Price), p.Unit, p.Category, rate.String())
	}
	return tw.Flush()
}
