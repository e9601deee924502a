package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItemInput is one row of the document form, exactly as the user typed
// it. Quantity, Rate and TaxPercent are free-form text; anything that does
// not parse as a number is treated as zero, never as an error.
type LineItemInput struct {
	CatalogItemID string  `json:"catalog_item_id"`
	Quantity      string  `json:"quantity"`
	Rate          string  `json:"rate"`
	TaxType       TaxType `json:"tax_type"`
	TaxPercent    string  `json:"tax_percent"`
}

// ParsedLine is a line item with its numeric fields decoded and its derived
// amounts computed. Decoding happens exactly once, here, at the form
// boundary; everything downstream works with decimals.
type ParsedLine struct {
	CatalogItemID string
	Quantity      decimal.Decimal
	Rate          decimal.Decimal
	TaxType       TaxType
	TaxPercent    decimal.Decimal
	Base          decimal.Decimal // Quantity × Rate
	Tax           decimal.Decimal // Base × TaxPercent / 100
	Total         decimal.Decimal // Base + Tax
}

// DocumentTotals are the document-level derived amounts. They are a pure
// function of the current line items (or of the manual fields when there are
// none) and are recomputed on every edit, never incrementally maintained.
type DocumentTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// TaxComponent is one display component of a line's tax percentage.
// CGST/SGST splits the percentage evenly into two components; IGST keeps it
// as one. The split is presentation only and never changes the tax amount.
type TaxComponent struct {
	Label   string          `json:"label"`
	Percent decimal.Decimal `json:"percent"`
}

var oneHundred = decimal.NewFromInt(100)

// ParseAmount decodes free-form numeric form text. Unparseable input is
// absorbed to zero, matching how the forms behave.
func ParseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseLines decodes every raw line and derives its per-line amounts.
// No sanitization happens here; the result is display state.
func ParseLines(raw []LineItemInput) []ParsedLine {
	lines := make([]ParsedLine, 0, len(raw))
	for _, in := range raw {
		l := ParsedLine{
			CatalogItemID: strings.TrimSpace(in.CatalogItemID),
			Quantity:      ParseAmount(in.Quantity),
			Rate:          ParseAmount(in.Rate),
			TaxType:       in.TaxType,
			TaxPercent:    ParseAmount(in.TaxPercent),
		}
		l.Base = l.Quantity.Mul(l.Rate)
		l.Tax = l.Base.Mul(l.TaxPercent).Div(oneHundred)
		l.Total = l.Base.Add(l.Tax)
		lines = append(lines, l)
	}
	return lines
}

// Sanitize drops lines that must not reach submission: empty catalog
// reference or non-positive quantity. Display keeps the raw list; only the
// persisted document uses the sanitized one.
func Sanitize(lines []ParsedLine) []ParsedLine {
	kept := make([]ParsedLine, 0, len(lines))
	for _, l := range lines {
		if l.CatalogItemID == "" || !l.Quantity.IsPositive() {
			continue
		}
		kept = append(kept, l)
	}
	return kept
}

// Totals sums the per-line amounts into document totals, floored at zero.
func Totals(lines []ParsedLine) DocumentTotals {
	var t DocumentTotals
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Base)
		t.Tax = t.Tax.Add(l.Tax)
	}
	t.Total = t.Subtotal.Add(t.Tax)
	return t.floor()
}

// ManualTotals is the fallback for documents with no line items: the subtotal
// is taken verbatim from the manual field and a single document-level tax
// percentage is applied.
func ManualTotals(subtotal, taxPercent string) DocumentTotals {
	var t DocumentTotals
	t.Subtotal = ParseAmount(subtotal)
	t.Tax = t.Subtotal.Mul(ParseAmount(taxPercent)).Div(oneHundred)
	t.Total = t.Subtotal.Add(t.Tax)
	return t.floor()
}

func (t DocumentTotals) floor() DocumentTotals {
	if t.Subtotal.IsNegative() {
		t.Subtotal = decimal.Zero
	}
	if t.Tax.IsNegative() {
		t.Tax = decimal.Zero
	}
	if t.Total.IsNegative() {
		t.Total = decimal.Zero
	}
	return t
}

// TaxSplit returns the display components of a line's tax percentage.
func TaxSplit(taxType TaxType, percent decimal.Decimal) []TaxComponent {
	if taxType == TaxCGSTSGST {
		half := percent.Div(decimal.NewFromInt(2))
		return []TaxComponent{
			{Label: "CGST", Percent: half},
			{Label: "SGST", Percent: half},
		}
	}
	return []TaxComponent{{Label: "IGST", Percent: percent}}
}

// SumByItem aggregates consumed quantity per catalog item across all lines.
// Two lines referencing the same item must be validated as a single combined
// deduction, never as two independent checks against the same stock.
func SumByItem(lines []ParsedLine) map[string]decimal.Decimal {
	usage := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		usage[l.CatalogItemID] = usage[l.CatalogItemID].Add(l.Quantity)
	}
	return usage
}

// sortedItemIDs returns the map keys in a stable order so concurrent
// transactions lock catalog rows in the same sequence.
func sortedItemIDs(usage map[string]decimal.Decimal) []string {
	ids := make([]string, 0, len(usage))
	for id := range usage {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
