package declaration

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one line of an import/export declaration.
type LineItem struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	NatureCode        string
	Description       string
	HSCode            string
	Unit              string
	UnitCost          decimal.Decimal
	Quantity          decimal.Decimal
	VAT               *decimal.Decimal // nil when the declaration carries no VAT amount
	DeclarationNumber string
	DeclarationDate   time.Time
	ReceiptNumber     string // optional link to the receipt bundle the line was entered from
	CreatedAt         time.Time
}

// Cost returns UnitCost × Quantity without rounding.
func (li LineItem) Cost() decimal.Decimal {
	return li.UnitCost.Mul(li.Quantity)
}

// HasVAT reports whether the item carries a strictly positive VAT amount.
func (li LineItem) HasVAT() bool {
	return li.VAT != nil && li.VAT.IsPositive()
}
