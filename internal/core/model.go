package core

import "time"

// PartyType distinguishes the two registries a sales document can bill against.
type PartyType string

const (
	PartyCustomer PartyType = "customer"
	PartySupplier PartyType = "supplier"
)

// Valid reports whether t is one of the known party types.
func (t PartyType) Valid() bool {
	return t == PartyCustomer || t == PartySupplier
}

// TaxType is the Indian GST classification of a line item. The classification
// only changes how the percentage is displayed (split evenly for CGST/SGST,
// single component for IGST); the computed tax amount is identical.
type TaxType string

const (
	TaxCGSTSGST TaxType = "CGST/SGST"
	TaxIGST     TaxType = "IGST"
)

// Valid reports whether t is one of the known tax types.
func (t TaxType) Valid() bool {
	return t == TaxCGSTSGST || t == TaxIGST
}

// Party is a customer or supplier master record. Sales documents and payments
// reference parties by id but carry their own snapshot of the display fields,
// so editing a party never rewrites history.
type Party struct {
	ID        string    `json:"id"`
	Type      PartyType `json:"party_type"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	TaxID     string    `json:"tax_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PartySnapshot is the denormalized copy of a party's display fields captured
// at document-creation time. A zero value is valid: when the party id cannot
// be resolved the snapshot fields stay empty rather than blocking creation.
type PartySnapshot struct {
	Name    string `json:"party_name"`
	Address string `json:"party_address"`
	Phone   string `json:"party_phone"`
	Email   string `json:"party_email"`
	TaxID   string `json:"party_tax_id"`
}
