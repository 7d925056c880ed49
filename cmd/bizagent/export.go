package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bharatbiz/bizagent/internal/application/service"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/infrastructure/export"
	"github.com/bharatbiz/bizagent/internal/infrastructure/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export finalized invoices to an Excel workbook",
	Long: `Export finalized invoices to an Excel workbook under the output directory,
in a folder named after today's date. Invoices only outlive a session with the
sqlite record store, so this is mostly useful with database.driver=sqlite.`,
	Example: `  # Export every invoice
  BIZAGENT_DB_DRIVER=sqlite bizagent export --dir exports

  # Export a single invoice
  bizagent export --id INV-0190a1b2-... --dir exports`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("dir", "exports", "output directory")
	exportCmd.Flags().String("id", "", "export only this invoice")
}

func runExport(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	id, _ := cmd.Flags().GetString("id")

	a, err := startApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	archive := storage.NewArchive(dir, a.logger)
	path, count, err := exportInvoices(cmd.Context(), a.container.Services().Queries, a.container.Exporter(), archive, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d invoice(s) to %s\n", count, path)
	return nil
}

// exportInvoices writes one invoice, or all of them when id is empty, into
// the archive
func exportInvoices(ctx context.Context, queries service.QueryService, exporter *export.InvoiceExporter, archive *storage.Archive, id string) (string, int, error) {
	var invoices []*entity.Invoice
	if id != "" {
		inv, err := queries.Invoice(ctx, id)
		if err != nil {
			return "", 0, fmt.Errorf("find invoice %s: %w", id, err)
		}
		invoices = []*entity.Invoice{inv}
	} else {
		all, err := queries.Invoices(ctx)
		if err != nil {
			return "", 0, fmt.Errorf("list invoices: %w", err)
		}
		invoices = all
	}

	path, err := archive.Save(ctx, export.FileName(id), func(w io.Writer) error {
		return exporter.Write(w, invoices)
	})
	if err != nil {
		return "", 0, err
	}
	return path, len(invoices), nil
}
