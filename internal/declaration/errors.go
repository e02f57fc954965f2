package declaration

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("declaration item not found")

	ErrInvalidItem      = errors.New("invalid declaration item")
	ErrNegativeCost     = fmt.Errorf("%w: negative unit cost", ErrInvalidItem)
	ErrNegativeQuantity = fmt.Errorf("%w: negative quantity", ErrInvalidItem)
)

// ValidationError reports a line item that cannot be reported.
type ValidationError struct {
	Item LineItem
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("line item %s (declaration %q, nature code %q): %v",
		e.Item.ID, e.Item.DeclarationNumber, e.Item.NatureCode, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate returns a *ValidationError when the item is structurally invalid.
func Validate(item LineItem) error {
	if v := Check(item); v != nil {
		return v
	}

	return nil
}

// Check is Validate with a concrete return type, for callers that collect rejections.
func Check(item LineItem) *ValidationError {
	if item.UnitCost.IsNegative() {
		return &ValidationError{Item: item, Err: ErrNegativeCost}
	}

	if item.Quantity.IsNegative() {
		return &ValidationError{Item: item, Err: ErrNegativeQuantity}
	}

	return nil
}
