package broker_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/despacho/internal/importer"
	"github.com/MrJamesThe3rd/despacho/internal/importer/broker"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestParser_DAU(t *testing.T) {
	csv := `Exportação de declarações - 31-03-2025
Despachante;ACME DESPACHOS LDA
NIF;500000000

N.º DAU;Data;Natureza;Descrição;Código Pautal;Unidade;Valor Unitário;Quantidade;IVA;Recibo
2025PT000123;04-03-2025;201;Empilhador elétrico;8427101000;UN;12.500,00;1;2.875,00;R-77
2025PT000123;04-03-2025;401;Frete marítimo;;;850,50;1;;R-77
2025PT000124;10-03-2025;301;Parafusos M8;7318150000;KG;2,35;1.200;648,60;
;;;;;;Total;;3.523,60;
`

	batch, err := broker.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 3)
	assert.Equal(t, "dau", batch.Profile)
	assert.Equal(t, "UTF-8", batch.Charset)
	assert.Empty(t, batch.Skipped)

	first := batch.Params[0]
	assert.Equal(t, "2025PT000123", first.DeclarationNumber)
	assert.Equal(t, date(2025, 3, 4), first.DeclarationDate)
	assert.Equal(t, "201", first.NatureCode)
	assert.Equal(t, "Empilhador elétrico", first.Description)
	assert.Equal(t, "8427101000", first.HSCode)
	assert.Equal(t, "UN", first.Unit)
	assert.Equal(t, "R-77", first.ReceiptNumber)
	assertDecimal(t, "12500", first.UnitCost)
	assertDecimal(t, "1", first.Quantity)
	require.NotNil(t, first.VAT)
	assertDecimal(t, "2875", *first.VAT)

	assert.Nil(t, batch.Params[1].VAT, "empty VAT cell is absent, not zero")
	assertDecimal(t, "850.50", batch.Params[1].UnitCost)

	third := batch.Params[2]
	assertDecimal(t, "1200", third.Quantity)
	assertDecimal(t, "2.35", third.UnitCost)
	assert.Empty(t, third.ReceiptNumber)
}

func TestParser_Simplificada(t *testing.T) {
	csv := `Declaração;Data;Natureza;Descrição;Valor;IVA
DS-9;15-01-2025;110;Honorários;150,00;34,50
`

	batch, err := broker.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 1)
	assert.Equal(t, "simplificada", batch.Profile)

	p := batch.Params[0]
	assertDecimal(t, "1", p.Quantity)
	assertDecimal(t, "150", p.UnitCost)
	assertDecimal(t, "34.50", *p.VAT)
	assert.Empty(t, p.HSCode)
}

func TestParser_Windows1252(t *testing.T) {
	csv := "Declaração;Data;Natureza;Descrição;Valor;IVA\nDS-1;02-01-2025;402;Armazenagem pôrto;10,00;2,30\n"

	encoded, err := charmap.Windows1252.NewEncoder().Bytes([]byte(csv))
	require.NoError(t, err)

	batch, err := broker.NewParser().Parse(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, batch.Params, 1)
	assert.Equal(t, "Armazenagem pôrto", batch.Params[0].Description)
	assert.Equal(t, "windows-1252", batch.Charset)
}

func TestParser_RowErrors(t *testing.T) {
	csv := `Declaração;Data;Natureza;Descrição;Valor;IVA
DS-1;02-01-2025;402;Armazenagem;abc;2,30
DS-1;02-01-2025;402;;10,00;2,30
;02-01-2025;402;Armazenagem;10,00;2,30
DS-1;02-01-2025;402;Armazenagem;10,00;x
DS-1;02-01-2025;402;Armazenagem;10,00;2,30
`

	batch, err := broker.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 1)
	require.Len(t, batch.Skipped, 4)

	rows := make([]int, 0, len(batch.Skipped))
	for _, s := range batch.Skipped {
		rows = append(rows, s.Row)
	}

	assert.Equal(t, []int{2, 3, 4, 5}, rows)
	assert.Contains(t, batch.Skipped[0].Error(), "unit cost")
	assert.Contains(t, batch.Skipped[1].Error(), "missing description")
	assert.Contains(t, batch.Skipped[2].Error(), "missing declaration number")
	assert.Contains(t, batch.Skipped[3].Error(), "vat")
}

func TestParser_NegativeAmountsAreKept(t *testing.T) {
	csv := `Declaração;Data;Natureza;Descrição;Valor;IVA
DS-1;02-01-2025;403;Nota de crédito;-1.000,00;-230,00
`

	batch, err := broker.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Params, 1)
	assertDecimal(t, "-1000", batch.Params[0].UnitCost)
	assertDecimal(t, "-230", *batch.Params[0].VAT)
}

func TestParser_UnknownFormat(t *testing.T) {
	_, err := broker.NewParser().Parse(strings.NewReader("Data;Descrição;Montante\n01-01-2025;x;1,00\n"))
	assert.ErrorIs(t, err, broker.ErrNoProfile)
}

func TestService_Import(t *testing.T) {
	svc := importer.NewService(map[importer.Format]importer.Importer{
		importer.FormatBroker: broker.NewParser(),
	})

	assert.Equal(t, []importer.Format{importer.FormatBroker}, svc.Formats())

	batch, err := svc.Import(importer.FormatBroker, strings.NewReader("Declaração;Data;Natureza;Descrição;Valor;IVA\nDS-1;02-01-2025;402;x;1,00;0,23\n"))
	require.NoError(t, err)
	assert.Len(t, batch.Params, 1)

	_, err = svc.Import("cgd", strings.NewReader(""))
	assert.ErrorIs(t, err, importer.ErrUnknownFormat)
}
