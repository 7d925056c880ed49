package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/bharatbiz/bizagent/internal/domain/intent"
	"github.com/bharatbiz/bizagent/internal/infrastructure/export"
	"github.com/bharatbiz/bizagent/internal/infrastructure/storage"
)

func TestExportInvoices(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	session, c := newTestSession(t, &out, &intent.Classification{
		Intent: "billing",
		ExtractedData: []interface{}{
			map[string]interface{}{"name": "perfume", "quantity": 1},
		},
	})

	session.orchestrator.HandleMessage(ctx, session.conv, "ek perfume")
	confirmed := session.orchestrator.Confirm(ctx, session.conv)
	require.NotNil(t, confirmed.Invoice)

	dir := t.TempDir()
	archive := storage.NewArchive(dir, zap.NewNop())
	queries := c.Services().Queries

	t.Run("all invoices", func(t *testing.T) {
		path, count, err := exportInvoices(ctx, queries, c.Exporter(), archive, "")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, export.FileName(""), filepath.Base(path))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		book, err := excelize.OpenReader(f)
		require.NoError(t, err)
		rows, err := book.GetRows(export.SheetItems)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Contains(t, rows[1], "Perfume")
	})

	t.Run("single invoice", func(t *testing.T) {
		path, count, err := exportInvoices(ctx, queries, c.Exporter(), archive, confirmed.Invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, confirmed.Invoice.ID+".xlsx", filepath.Base(path))
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, _, err := exportInvoices(ctx, queries, c.Exporter(), archive, "INV-missing")
		assert.Error(t, err)
	})
}
