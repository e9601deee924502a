package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItem is a processed-inventory record: something the distributor can
// sell. Quantity is the on-hand stock and must never go negative; it is only
// ever decremented through the sales-document creation transaction and only
// ever incremented through ReceiveStock.
type CatalogItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	LastUpdated string          `json:"last_updated"` // YYYY-MM-DD
	CreatedAt   time.Time       `json:"created_at"`
}

// StockMovement is an audit row recording one change to a catalog item's
// on-hand quantity. Deductions carry a negative quantity and the id of the
// sales document that consumed the stock.
type StockMovement struct {
	ID            int64           `json:"id"`
	CatalogItemID string          `json:"catalog_item_id"`
	MovementType  string          `json:"movement_type"` // RECEIPT or DEDUCTION
	Quantity      decimal.Decimal `json:"quantity"`
	DocumentID    *string         `json:"document_id,omitempty"`
	MovementDate  string          `json:"movement_date"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
}

const (
	MovementReceipt   = "RECEIPT"
	MovementDeduction = "DEDUCTION"
)
