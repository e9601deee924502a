// Package export renders flat row lists into downloadable spreadsheets.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pharma-erp/internal/core"
)

// writeSheet builds a single-sheet workbook from a header row and data rows
// and returns the serialized .xlsx bytes.
func writeSheet(header []interface{}, data [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell for row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// StockLevels exports the current catalog as a spreadsheet.
func StockLevels(items []core.CatalogItem) ([]byte, error) {
	header := []interface{}{"item_id", "name", "unit", "quantity", "last_updated"}
	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		rows = append(rows, []interface{}{it.ID, it.Name, it.Unit, it.Quantity.String(), it.LastUpdated})
	}
	return writeSheet(header, rows)
}

// SalesDocuments exports a document list as one row per line item, with
// header fields repeated, so accountants get a flat filterable sheet.
// Manual-mode documents contribute a single row with empty item columns.
func SalesDocuments(docs []core.SalesDocument) ([]byte, error) {
	header := []interface{}{
		"doc_number", "manual_number", "party_type", "party_name", "issue_date", "status",
		"item", "unit", "quantity", "rate", "tax_type", "tax_percent",
		"subtotal", "tax", "total",
	}
	var rows [][]interface{}
	for _, d := range docs {
		if len(d.Lines) == 0 {
			rows = append(rows, []interface{}{
				d.Number, d.ManualNumber, string(d.PartyType), d.Party.Name, d.IssueDate, d.Status,
				"", "", "", "", "", "",
				d.Subtotal.StringFixed(2), d.Tax.StringFixed(2), d.Total.StringFixed(2),
			})
			continue
		}
		for _, l := range d.Lines {
			rows = append(rows, []interface{}{
				d.Number, d.ManualNumber, string(d.PartyType), d.Party.Name, d.IssueDate, d.Status,
				l.Name, l.Unit, l.Quantity.String(), l.Rate.StringFixed(2), string(l.TaxType), l.TaxPercent.String(),
				d.Subtotal.StringFixed(2), d.Tax.StringFixed(2), d.Total.StringFixed(2),
			})
		}
	}
	return writeSheet(header, rows)
}
