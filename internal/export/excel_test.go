package export_test

import (
	"bytes"
	"testing"

	"pharma-erp/internal/core"
	"pharma-erp/internal/export"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func openSheet(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a valid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	return rows
}

func TestStockLevels(t *testing.T) {
	data, err := export.StockLevels([]core.CatalogItem{
		{ID: "item-1", Name: "Paracetamol IP", Unit: "kg", Quantity: decimal.NewFromInt(200), LastUpdated: "2026-08-01"},
		{ID: "item-2", Name: "Ibuprofen IP", Unit: "kg", Quantity: decimal.RequireFromString("12.5"), LastUpdated: "2026-08-15"},
	})
	if err != nil {
		t.Fatalf("StockLevels failed: %v", err)
	}

	rows := openSheet(t, data)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "item_id" || rows[0][3] != "quantity" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "Paracetamol IP" || rows[1][3] != "200" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[2][3] != "12.5" {
		t.Errorf("second data row quantity = %q, want 12.5", rows[2][3])
	}
}

func TestSalesDocuments_OneRowPerLine(t *testing.T) {
	itemized := core.SalesDocument{
		Number:    "INV-20260831-0042",
		PartyType: core.PartyCustomer,
		Party:     core.PartySnapshot{Name: "Sharma Medical Stores"},
		IssueDate: "2026-08-31",
		Status:    "pending",
		Subtotal:  decimal.NewFromInt(1000),
		Tax:       decimal.NewFromInt(120),
		Total:     decimal.NewFromInt(1120),
		Lines: []core.LineItem{
			{Name: "Paracetamol IP", Unit: "kg", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(480), TaxType: core.TaxCGSTSGST, TaxPercent: decimal.NewFromInt(12)},
			{Name: "Ibuprofen IP", Unit: "kg", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(40), TaxType: core.TaxIGST, TaxPercent: decimal.NewFromInt(12)},
		},
	}
	manual := core.SalesDocument{
		Number:    "PI-20260831-0007",
		PartyType: core.PartySupplier,
		Party:     core.PartySnapshot{Name: "Qualichem Labs"},
		IssueDate: "2026-08-31",
		Status:    "draft",
		Subtotal:  decimal.NewFromInt(25000),
		Tax:       decimal.NewFromInt(4500),
		Total:     decimal.NewFromInt(29500),
	}

	data, err := export.SalesDocuments([]core.SalesDocument{itemized, manual})
	if err != nil {
		t.Fatalf("SalesDocuments failed: %v", err)
	}

	rows := openSheet(t, data)
	// header + 2 itemized rows + 1 manual row
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if rows[1][0] != "INV-20260831-0042" || rows[2][0] != "INV-20260831-0042" {
		t.Errorf("itemized document must repeat its number on each line row")
	}
	if rows[1][6] != "Paracetamol IP" || rows[2][6] != "Ibuprofen IP" {
		t.Errorf("line rows = %v / %v", rows[1], rows[2])
	}
	if rows[3][0] != "PI-20260831-0007" {
		t.Errorf("manual row number = %q", rows[3][0])
	}
	if len(rows[3]) > 6 && rows[3][6] != "" {
		t.Errorf("manual row must leave item columns empty, got %q", rows[3][6])
	}
	if rows[3][len(rows[3])-1] != "29500.00" {
		t.Errorf("manual row total = %q, want 29500.00", rows[3][len(rows[3])-1])
	}
}
