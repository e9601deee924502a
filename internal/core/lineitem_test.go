package core_test

import (
	"testing"

	"pharma-erp/internal/core"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.5", "12.5"},
		{"  7 ", "7"},
		{"0.001", "0.001"},
		{"-3", "-3"},
		{"abc", "0"},
		{"", "0"},
		{"12,5", "0"},
	}
	for _, c := range cases {
		got := core.ParseAmount(c.in)
		if got.String() != c.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestParseLines_DerivedAmounts(t *testing.T) {
	lines := core.ParseLines([]core.LineItemInput{
		{CatalogItemID: "item-1", Quantity: "2", Rate: "100", TaxType: core.TaxCGSTSGST, TaxPercent: "18"},
	})
	if len(lines) != 1 {
		t.Fatalf("expected 1 parsed line, got %d", len(lines))
	}
	l := lines[0]
	if l.Base.String() != "200" {
		t.Errorf("Base = %s, want 200", l.Base)
	}
	if l.Tax.String() != "36" {
		t.Errorf("Tax = %s, want 36", l.Tax)
	}
	if l.Total.String() != "236" {
		t.Errorf("Total = %s, want 236", l.Total)
	}
}

func TestParseLines_GarbageNumbersBecomeZero(t *testing.T) {
	lines := core.ParseLines([]core.LineItemInput{
		{CatalogItemID: "item-1", Quantity: "ten", Rate: "1,000", TaxPercent: "?"},
	})
	l := lines[0]
	if !l.Quantity.IsZero() || !l.Rate.IsZero() || !l.TaxPercent.IsZero() {
		t.Errorf("unparseable fields must decode to zero, got qty=%s rate=%s pct=%s",
			l.Quantity, l.Rate, l.TaxPercent)
	}
	if !l.Total.IsZero() {
		t.Errorf("Total = %s, want 0", l.Total)
	}
}

func TestSanitize(t *testing.T) {
	raw := core.ParseLines([]core.LineItemInput{
		{CatalogItemID: "item-1", Quantity: "5", Rate: "10"},
		{CatalogItemID: "", Quantity: "5", Rate: "10"},       // no item
		{CatalogItemID: "item-2", Quantity: "0", Rate: "10"}, // zero quantity
		{CatalogItemID: "item-3", Quantity: "-2", Rate: "10"},
		{CatalogItemID: "  ", Quantity: "5", Rate: "10"}, // whitespace ref trims to empty
	})
	kept := core.Sanitize(raw)
	if len(kept) != 1 {
		t.Fatalf("expected 1 kept line, got %d", len(kept))
	}
	if kept[0].CatalogItemID != "item-1" {
		t.Errorf("kept wrong line: %s", kept[0].CatalogItemID)
	}
}

func TestTotals_SumsLines(t *testing.T) {
	lines := core.ParseLines([]core.LineItemInput{
		{CatalogItemID: "a", Quantity: "2", Rate: "100", TaxPercent: "18"},
		{CatalogItemID: "b", Quantity: "1", Rate: "50", TaxPercent: "12"},
	})
	got := core.Totals(lines)
	if got.Subtotal.String() != "250" {
		t.Errorf("Subtotal = %s, want 250", got.Subtotal)
	}
	if got.Tax.String() != "42" {
		t.Errorf("Tax = %s, want 42", got.Tax)
	}
	if got.Total.String() != "292" {
		t.Errorf("Total = %s, want 292", got.Total)
	}
}

func TestTotals_Recomputed(t *testing.T) {
	// Totals are a pure function of the lines: removing a line and
	// recomputing must match totals computed from the remaining lines alone.
	inputs := []core.LineItemInput{
		{CatalogItemID: "a", Quantity: "2", Rate: "100", TaxPercent: "18"},
		{CatalogItemID: "b", Quantity: "3", Rate: "40", TaxPercent: "5"},
	}
	full := core.ParseLines(inputs)
	reduced := core.ParseLines(inputs[:1])

	after := core.Totals(full[:1])
	direct := core.Totals(reduced)
	if !after.Total.Equal(direct.Total) || !after.Tax.Equal(direct.Tax) {
		t.Errorf("recomputed totals diverge: %+v vs %+v", after, direct)
	}
}

func TestManualTotals(t *testing.T) {
	got := core.ManualTotals("1000", "18")
	if got.Subtotal.String() != "1000" || got.Tax.String() != "180" || got.Total.String() != "1180" {
		t.Errorf("ManualTotals = %+v, want 1000/180/1180", got)
	}

	zero := core.ManualTotals("garbage", "")
	if !zero.Subtotal.IsZero() || !zero.Tax.IsZero() || !zero.Total.IsZero() {
		t.Errorf("garbage manual fields must yield zero totals, got %+v", zero)
	}
}

func TestManualTotals_FlooredAtZero(t *testing.T) {
	got := core.ManualTotals("-500", "18")
	if !got.Subtotal.IsZero() || !got.Tax.IsZero() || !got.Total.IsZero() {
		t.Errorf("negative manual subtotal must floor to zero, got %+v", got)
	}
}

func TestSumByItem_DuplicateRefsSummed(t *testing.T) {
	lines := core.Sanitize(core.ParseLines([]core.LineItemInput{
		{CatalogItemID: "paracetamol", Quantity: "150", Rate: "10"},
		{CatalogItemID: "paracetamol", Quantity: "60", Rate: "10"},
		{CatalogItemID: "ibuprofen", Quantity: "5", Rate: "20"},
	}))
	usage := core.SumByItem(lines)
	if len(usage) != 2 {
		t.Fatalf("expected 2 distinct items, got %d", len(usage))
	}
	if usage["paracetamol"].String() != "210" {
		t.Errorf("paracetamol usage = %s, want 210", usage["paracetamol"])
	}
	if usage["ibuprofen"].String() != "5" {
		t.Errorf("ibuprofen usage = %s, want 5", usage["ibuprofen"])
	}
}

func TestTaxSplit(t *testing.T) {
	comps := core.TaxSplit(core.TaxCGSTSGST, decimal.NewFromInt(18))
	if len(comps) != 2 {
		t.Fatalf("CGST/SGST must split into 2 components, got %d", len(comps))
	}
	if comps[0].Label != "CGST" || comps[0].Percent.String() != "9" {
		t.Errorf("first component = %+v, want CGST 9", comps[0])
	}
	if comps[1].Label != "SGST" || comps[1].Percent.String() != "9" {
		t.Errorf("second component = %+v, want SGST 9", comps[1])
	}

	igst := core.TaxSplit(core.TaxIGST, decimal.NewFromInt(18))
	if len(igst) != 1 || igst[0].Label != "IGST" || igst[0].Percent.String() != "18" {
		t.Errorf("IGST components = %+v, want single IGST 18", igst)
	}
}
