package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrTransientConflict is returned when the deduction transaction lost to a
// concurrent writer more times than the retry limit allows. The caller's
// document was not created and no stock changed, so the whole action is safe
// to resubmit.
var ErrTransientConflict = errors.New("could not save: concurrent update conflict, please retry")

// ValidationError reports a bad or missing field in a submitted form. It is
// raised before any database write, so nothing needs to be rolled back.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports that a referenced record does not exist.
type NotFoundError struct {
	Entity string // "catalog item", "party", ...
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Ref)
}

// InsufficientStockError reports that deducting the required quantity would
// drive a catalog item's on-hand quantity negative. Available and Required
// are the pre-transaction stock and the summed demand across all line items
// referencing the item.
type InsufficientStockError struct {
	ItemID    string
	Name      string
	Unit      string
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ItemID
	}
	return fmt.Sprintf("insufficient stock for %s: available %s %s, required %s %s",
		name, e.Available.StringFixed(3), e.Unit, e.Required.StringFixed(3), e.Unit)
}
