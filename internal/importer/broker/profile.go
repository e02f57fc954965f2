package broker

// Profile describes the column layout of one broker export format.
// Supporting a new layout means adding a Profile to profiles.
type Profile struct {
	Name        string
	NumberCol   string
	DateCol     string
	NatureCol   string
	DescCol     string
	UnitCostCol string
	QuantityCol string // empty when every row is a single unit
	VATCol      string
	HSCodeCol   string // optional
	UnitCol     string // optional
	ReceiptCol  string // optional
}

func (p Profile) requiredCols() []string {
	cols := []string{p.NumberCol, p.DateCol, p.NatureCol, p.DescCol, p.UnitCostCol, p.VATCol}
	if p.QuantityCol != "" {
		cols = append(cols, p.QuantityCol)
	}

	return cols
}

// profiles is tried in order; the more specific layout comes first.
var profiles = []Profile{
	{
		Name:        "dau",
		NumberCol:   "N.º DAU",
		DateCol:     "Data",
		NatureCol:   "Natureza",
		DescCol:     "Descrição",
		UnitCostCol: "Valor Unitário",
		QuantityCol: "Quantidade",
		VATCol:      "IVA",
		HSCodeCol:   "Código Pautal",
		UnitCol:     "Unidade",
		ReceiptCol:  "Recibo",
	},
	{
		Name:        "simplificada",
		NumberCol:   "Declaração",
		DateCol:     "Data",
		NatureCol:   "Natureza",
		DescCol:     "Descrição",
		UnitCostCol: "Valor",
		VATCol:      "IVA",
		ReceiptCol:  "Recibo",
	},
}
