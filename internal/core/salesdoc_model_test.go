package core_test

import (
	"regexp"
	"testing"
	"time"

	"pharma-erp/internal/core"
)

func TestGenerateDocNumber_Format(t *testing.T) {
	issued := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		kind   core.DocKind
		prefix string
	}{
		{core.DocInvoice, "INV"},
		{core.DocQuotation, "QT"},
		{core.DocProforma, "PI"},
	}
	for _, c := range cases {
		num := core.GenerateDocNumber(c.kind, issued)
		pattern := "^" + c.prefix + `-20260831-\d{4}$`
		if !regexp.MustCompile(pattern).MatchString(num) {
			t.Errorf("GenerateDocNumber(%s) = %q, want match for %s", c.kind, num, pattern)
		}
	}
}

func TestDocKind_Valid(t *testing.T) {
	for _, k := range []core.DocKind{core.DocInvoice, core.DocQuotation, core.DocProforma} {
		if !k.Valid() {
			t.Errorf("%s should be valid", k)
		}
	}
	if core.DocKind("receipt").Valid() {
		t.Error("unknown kind must not be valid")
	}
}

func TestDocKind_StatusVocabulary(t *testing.T) {
	cases := []struct {
		kind         core.DocKind
		defaultState string
		accepted     string
		rejected     string
	}{
		{core.DocInvoice, "pending", "paid", "sent"},
		{core.DocQuotation, "draft", "accepted", "paid"},
		{core.DocProforma, "draft", "converted", "paid"},
	}
	for _, c := range cases {
		if got := c.kind.DefaultStatus(); got != c.defaultState {
			t.Errorf("%s default status = %q, want %q", c.kind, got, c.defaultState)
		}
		if !c.kind.ValidStatus(c.accepted) {
			t.Errorf("%s should accept status %q", c.kind, c.accepted)
		}
		if c.kind.ValidStatus(c.rejected) {
			t.Errorf("%s should reject status %q", c.kind, c.rejected)
		}
	}
}

func TestInsufficientStockError_Message(t *testing.T) {
	err := &core.InsufficientStockError{
		ItemID:    "item-1",
		Name:      "Paracetamol",
		Unit:      "kg",
		Available: core.ParseAmount("200"),
		Required:  core.ParseAmount("210"),
	}
	want := "insufficient stock for Paracetamol: available 200.000 kg, required 210.000 kg"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
