package core

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// DocKind identifies one of the three sales-document variants. The records
// are structurally identical; the kind only selects the number prefix and the
// status vocabulary. All three consume stock at creation.
type DocKind string

const (
	DocInvoice   DocKind = "invoice"
	DocQuotation DocKind = "quotation"
	DocProforma  DocKind = "proforma"
)

// Valid reports whether k is one of the known document kinds.
func (k DocKind) Valid() bool {
	switch k {
	case DocInvoice, DocQuotation, DocProforma:
		return true
	}
	return false
}

// Prefix is the short code used in generated document numbers.
func (k DocKind) Prefix() string {
	switch k {
	case DocInvoice:
		return "INV"
	case DocQuotation:
		return "QT"
	case DocProforma:
		return "PI"
	}
	return ""
}

var docStatuses = map[DocKind][]string{
	DocInvoice:   {"pending", "paid", "partial", "cancelled"},
	DocQuotation: {"draft", "sent", "accepted", "rejected", "expired"},
	DocProforma:  {"draft", "sent", "converted", "cancelled"},
}

// Statuses returns the status vocabulary for this document kind.
func (k DocKind) Statuses() []string {
	return docStatuses[k]
}

// DefaultStatus is the status a freshly created document starts in.
func (k DocKind) DefaultStatus() string {
	if s := docStatuses[k]; len(s) > 0 {
		return s[0]
	}
	return ""
}

// ValidStatus reports whether status belongs to this kind's vocabulary.
func (k DocKind) ValidStatus(status string) bool {
	for _, s := range docStatuses[k] {
		if s == status {
			return true
		}
	}
	return false
}

// GenerateDocNumber builds a document number: prefix, issue date, and a
// 4-digit random suffix, e.g. "PI-20260831-0417". Uniqueness is enforced by
// the database; a collision simply fails the insert and the transaction is
// retried with a fresh suffix.
func GenerateDocNumber(kind DocKind, t time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", kind.Prefix(), t.Format("20060102"), rand.IntN(10000))
}

// LineItem is one persisted row of a sales document, with the name/unit
// snapshot taken from the catalog item at creation time.
type LineItem struct {
	LineNumber    int             `json:"line_number"`
	CatalogItemID string          `json:"catalog_item_id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	Rate          decimal.Decimal `json:"rate"`
	TaxType       TaxType         `json:"tax_type"`
	TaxPercent    decimal.Decimal `json:"tax_percent"`
	Tax           decimal.Decimal `json:"tax"`
}

// SalesDocument is an invoice, quotation or proforma invoice.
type SalesDocument struct {
	ID           string          `json:"id"`
	Kind         DocKind         `json:"doc_kind"`
	Number       string          `json:"doc_number"`
	ManualNumber string          `json:"manual_number,omitempty"`
	PartyType    PartyType       `json:"party_type"`
	PartyID      string          `json:"party_id"`
	Party        PartySnapshot   `json:"party"`
	IssueDate    string          `json:"issue_date"` // YYYY-MM-DD
	Lines        []LineItem      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateDocumentRequest is the form state submitted to create a sales
// document. Lines carry free-form numeric text; ManualSubtotal and
// ManualTaxPercent are only honored when Lines is empty (manual mode and
// itemized mode are mutually exclusive).
type CreateDocumentRequest struct {
	PartyType        PartyType       `json:"party_type"`
	PartyID          string          `json:"party_id"`
	ManualNumber     string          `json:"manual_number"`
	IssueDate        string          `json:"issue_date"` // YYYY-MM-DD, empty = today
	Lines            []LineItemInput `json:"items"`
	ManualSubtotal   string          `json:"manual_subtotal"`
	ManualTaxPercent string          `json:"manual_tax_percent"`
	Status           string          `json:"status"` // empty = kind default
	Notes            string          `json:"notes"`
}

// UpdateDocumentRequest is a partial edit of an existing document. Edits are
// direct field writes: stock is affected at creation only, so line items and
// totals are not editable here.
type UpdateDocumentRequest struct {
	Status       *string `json:"status,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	ManualNumber *string `json:"manual_number,omitempty"`
	IssueDate    *string `json:"issue_date,omitempty"`
}
