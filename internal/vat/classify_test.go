package vat_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(code, unitCost, quantity string, vatAmount *string) declaration.LineItem {
	li := declaration.LineItem{
		ID:                uuid.New(),
		NatureCode:        code,
		Description:       "line " + code,
		UnitCost:          dec(unitCost),
		Quantity:          dec(quantity),
		DeclarationNumber: "D-1",
		DeclarationDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	if vatAmount != nil {
		li.VAT = new(dec(*vatAmount))
	}

	return li
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestClassify_SumsExactly(t *testing.T) {
	items := []declaration.LineItem{
		item("201", "100.00", "1", new("15.00")),
		item("202", "125.25", "2", new("37.58")),
	}

	rep := vat.Classify(items, vat.DefaultTable())

	b := rep.Buckets["20"]
	require.NotNil(t, b)
	assert.Equal(t, 2, b.Count)
	assertDecimal(t, "350.50", b.TotalCost)
	assertDecimal(t, "52.58", b.TotalVAT)
	assert.Equal(t, "350.50", b.TotalCost.StringFixed(2))
	assert.Equal(t, vat.SectionCapital, b.Section)
	assert.Equal(t, vat.VatTypeInput, b.VatType)
	assert.Len(t, b.Items, 2)
}

func TestClassify_FiltersItemsWithoutPositiveVAT(t *testing.T) {
	items := []declaration.LineItem{
		item("401", "10", "1", nil),
		item("401", "10", "1", new("0")),
		item("401", "10", "1", new("0.00")),
		item("401", "10", "1", new("-2.30")),
		item("401", "10", "1", new("2.30")),
	}

	rep := vat.Classify(items, vat.DefaultTable())

	assert.Equal(t, 1, rep.ItemCount())
	assert.Equal(t, 1, rep.Buckets["24"].Count)
	assertDecimal(t, "2.30", rep.Buckets["24"].TotalVAT)
	assert.Empty(t, rep.Warnings)
	assert.Empty(t, rep.Rejected)
}

func TestClassify_UnknownCodeGoesToUnclassified(t *testing.T) {
	unknown := item("999", "40", "1", new("9.20"))

	rep := vat.Classify([]declaration.LineItem{unknown, item("101", "5", "1", new("1.15"))}, vat.DefaultTable())

	b := rep.Buckets[vat.Unclassified]
	require.NotNil(t, b)
	assert.Equal(t, 1, b.Count)
	assertDecimal(t, "9.20", b.TotalVAT)
	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, "999", rep.Warnings[0].NatureCode)
	assert.Equal(t, unknown.ID, rep.Warnings[0].Item.ID)
	assert.Equal(t, []string{"999"}, rep.UnknownCodes())
	assert.Equal(t, 2, rep.ItemCount())
}

func TestClassify_EmptyInputEmitsEveryBucket(t *testing.T) {
	table := vat.DefaultTable()

	rep := vat.Classify(nil, table)

	assert.Len(t, rep.Buckets, len(table.Lines())+1)
	assert.Equal(t, table.Version(), rep.TableVersion)

	for _, b := range rep.Ordered() {
		assert.Zero(t, b.Count, b.ID)
		assert.True(t, b.TotalCost.IsZero(), b.ID)
		assert.True(t, b.TotalVAT.IsZero(), b.ID)
		assert.Equal(t, "0.00", b.TotalVAT.StringFixed(2))
	}
}

func TestClassify_RejectsInvalidItems(t *testing.T) {
	rep := vat.Classify([]declaration.LineItem{
		item("101", "-10", "1", new("2.30")),
		item("101", "10", "1", new("2.30")),
	}, vat.DefaultTable())

	require.Len(t, rep.Rejected, 1)
	assert.ErrorIs(t, rep.Rejected[0], declaration.ErrNegativeCost)
	assert.Equal(t, 1, rep.Buckets["1"].Count)
}

func TestClassify_Idempotent(t *testing.T) {
	items := []declaration.LineItem{
		item("101", "100", "3", new("69.00")),
		item("301", "12.5", "4", new("11.50")),
		item("999", "1", "1", new("0.23")),
	}

	first := vat.Classify(items, vat.DefaultTable())
	second := vat.Classify(items, vat.DefaultTable())

	a, b := first.Ordered(), second.Ordered()
	require.Len(t, b, len(a))

	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.Equal(t, a[i].Count, b[i].Count)
		assert.True(t, a[i].TotalCost.Equal(b[i].TotalCost))
		assert.True(t, a[i].TotalVAT.Equal(b[i].TotalVAT))
	}
}

func TestClassify_CountsAddUp(t *testing.T) {
	items := []declaration.LineItem{
		item("101", "1", "1", new("0.23")),
		item("102", "1", "1", new("0.23")),
		item("150", "1", "1", nil),
		item("403", "1", "1", new("0.23")),
		item("abc", "1", "1", new("0.23")),
	}

	rep := vat.Classify(items, vat.DefaultTable())

	sum := 0
	for _, b := range rep.Ordered() {
		sum += b.Count
	}

	assert.Equal(t, 4, sum)
	assert.Equal(t, 2, rep.Buckets["1"].Count)
}

func TestReport_OrderedAndBalance(t *testing.T) {
	rep := vat.Classify([]declaration.LineItem{
		item("101", "100", "1", new("23.00")),
		item("201", "50", "1", new("11.50")),
		item("401", "10", "1", new("2.30")),
		item("999", "10", "1", new("100")),
	}, vat.DefaultTable())

	var ids []vat.BucketID
	for _, b := range rep.Ordered() {
		ids = append(ids, b.ID)
	}

	assert.Equal(t, []vat.BucketID{"1", "3", "20", "21", "24", vat.Unclassified}, ids)
	assertDecimal(t, "9.20", rep.Balance())

	cost, total := rep.Totals()
	assertDecimal(t, "170", cost)
	assertDecimal(t, "136.80", total)

	sections := rep.Sections()
	assert.Len(t, sections[vat.SectionOutput], 2)
	assert.Len(t, sections[vat.SectionCapital], 1)
	assert.Len(t, sections[vat.SectionNonCapital], 2)
}

func TestCents(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr error
	}{
		{name: "Exact", in: "52.58", want: 5258},
		{name: "RoundsHalfUp", in: "0.005", want: 1},
		{name: "Negative", in: "-10.10", want: -1010},
		{name: "Overflow", in: "100000000000000000000", wantErr: vat.ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := vat.Cents(dec(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
