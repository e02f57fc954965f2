package vat

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
)

// BucketID is a return line number, or Unclassified.
type BucketID string

// Unclassified collects items whose nature code is missing from the table.
const Unclassified BucketID = "unclassified"

var ErrOverflow = errors.New("amount does not fit in int64 cents")

type Bucket struct {
	ID         BucketID
	Label      string
	LocalLabel string
	Section    Section
	VatType    VatType
	Count      int
	TotalCost  decimal.Decimal
	TotalVAT   decimal.Decimal
	Items      []declaration.LineItem
}

func (b *Bucket) add(item declaration.LineItem) {
	b.Count++
	b.TotalCost = b.TotalCost.Add(item.Cost())
	b.TotalVAT = b.TotalVAT.Add(*item.VAT)
	b.Items = append(b.Items, item)
}

// UnclassifiedItemWarning flags an item routed to the Unclassified bucket.
type UnclassifiedItemWarning struct {
	Item       declaration.LineItem
	NatureCode string
}

func (w UnclassifiedItemWarning) Error() string {
	return fmt.Sprintf("line item %s (declaration %q): nature code %q not in table",
		w.Item.ID, w.Item.DeclarationNumber, w.NatureCode)
}

type Report struct {
	TableVersion string
	Buckets      map[BucketID]*Bucket
	Warnings     []UnclassifiedItemWarning
	Rejected     []*declaration.ValidationError

	order []BucketID
}

func newReport(table *Table) *Report {
	lines := table.Lines()

	rep := &Report{
		TableVersion: table.Version(),
		Buckets:      make(map[BucketID]*Bucket, len(lines)+1),
		order:        make([]BucketID, 0, len(lines)+1),
	}

	for _, l := range lines {
		id := BucketID(l.Number)
		rep.Buckets[id] = &Bucket{
			ID:         id,
			Label:      l.Label,
			LocalLabel: l.LocalLabel,
			Section:    l.Section,
			VatType:    l.VatType,
			TotalCost:  decimal.Zero,
			TotalVAT:   decimal.Zero,
		}
		rep.order = append(rep.order, id)
	}

	rep.Buckets[Unclassified] = &Bucket{
		ID:        Unclassified,
		Label:     "Unclassified",
		TotalCost: decimal.Zero,
		TotalVAT:  decimal.Zero,
	}
	rep.order = append(rep.order, Unclassified)

	return rep
}

// Classify keeps the items carrying a positive VAT amount and sums them into
// the buckets of the table. Every table line gets a bucket even when empty.
// Structurally invalid items are reported in Rejected and left out of the sums.
func Classify(items []declaration.LineItem, table *Table) *Report {
	rep := newReport(table)

	for _, item := range items {
		if !item.HasVAT() {
			continue
		}

		if v := declaration.Check(item); v != nil {
			rep.Rejected = append(rep.Rejected, v)
			continue
		}

		id := Unclassified

		if e, ok := table.Lookup(item.NatureCode); ok {
			id = BucketID(e.LineNumber)
		} else {
			rep.Warnings = append(rep.Warnings, UnclassifiedItemWarning{Item: item, NatureCode: item.NatureCode})
		}

		rep.Buckets[id].add(item)
	}

	return rep
}

// Ordered returns the buckets in return-line order with Unclassified last.
func (r *Report) Ordered() []*Bucket {
	out := make([]*Bucket, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.Buckets[id])
	}

	return out
}

// Totals sums every bucket, Unclassified included.
func (r *Report) Totals() (cost, vat decimal.Decimal) {
	cost, vat = decimal.Zero, decimal.Zero

	for _, b := range r.Buckets {
		cost = cost.Add(b.TotalCost)
		vat = vat.Add(b.TotalVAT)
	}

	return cost, vat
}

// Balance is output VAT minus deductible input VAT. A positive value is owed
// to the tax authority. Unclassified items are not counted.
func (r *Report) Balance() decimal.Decimal {
	balance := decimal.Zero

	for _, b := range r.Buckets {
		switch b.VatType {
		case VatTypeOutput:
			balance = balance.Add(b.TotalVAT)
		case VatTypeInput:
			balance = balance.Sub(b.TotalVAT)
		}
	}

	return balance
}

// ItemCount is the number of items that landed in a bucket.
func (r *Report) ItemCount() int {
	n := 0
	for _, b := range r.Buckets {
		n += b.Count
	}

	return n
}

// Sections groups the ordered buckets by section, keeping line order.
func (r *Report) Sections() map[Section][]*Bucket {
	out := make(map[Section][]*Bucket)

	for _, b := range r.Ordered() {
		if b.ID == Unclassified {
			continue
		}

		out[b.Section] = append(out[b.Section], b)
	}

	return out
}

// Cents converts an amount to integer cents, rounding half away from zero.
func Cents(d decimal.Decimal) (int64, error) {
	c := d.Round(2).Shift(2).BigInt()
	if !c.IsInt64() {
		return 0, ErrOverflow
	}

	return c.Int64(), nil
}

// UnknownCodes lists the distinct nature codes routed to Unclassified.
func (r *Report) UnknownCodes() []string {
	var codes []string

	for _, w := range r.Warnings {
		if !slices.Contains(codes, w.NatureCode) {
			codes = append(codes, w.NatureCode)
		}
	}

	slices.Sort(codes)

	return codes
}
