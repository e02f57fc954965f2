// Package report renders VAT reports for people: a workbook for the
// accountant and a plain table for terminals.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

const (
	SheetSummary  = "IVA"
	SheetItems    = "Linhas"
	SheetWarnings = "Avisos"

	// numFmtAmount is the built-in "#,##0.00" format.
	numFmtAmount = 4
	dateLayout   = "2006-01-02"
)

// maxExactCents bounds the amounts a spreadsheet cell holds without float rounding.
const maxExactCents = 1 << 53

var ErrAmountTooLarge = errors.New("amount too large for a spreadsheet cell")

// Meta describes the query a report was built for.
type Meta struct {
	Tenant      string
	StartDate   *time.Time
	EndDate     *time.Time
	GeneratedAt time.Time
}

// Period renders the date range, open ends shown as "…".
func (m Meta) Period() string {
	start, end := "…", "…"
	if m.StartDate != nil {
		start = m.StartDate.Format(dateLayout)
	}

	if m.EndDate != nil {
		end = m.EndDate.Format(dateLayout)
	}

	return start + " – " + end
}

// WriteXLSX writes rep as a workbook with a summary sheet, an item sheet and,
// when some items were unclassified, a warnings sheet.
func WriteXLSX(w io.Writer, rep *vat.Report, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	x := &xlsxWriter{f: f}

	if err := x.init(); err != nil {
		return err
	}

	if err := x.summary(rep, meta); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}

	if err := x.items(rep); err != nil {
		return fmt.Errorf("items sheet: %w", err)
	}

	if len(rep.Warnings) > 0 {
		if err := x.warnings(rep); err != nil {
			return fmt.Errorf("warnings sheet: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

type xlsxWriter struct {
	f      *excelize.File
	bold   int
	amount int
	total  int
}

func (x *xlsxWriter) init() error {
	if err := x.f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	var err error

	if x.bold, err = x.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return fmt.Errorf("bold style: %w", err)
	}

	if x.amount, err = x.f.NewStyle(&excelize.Style{NumFmt: numFmtAmount}); err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	if x.total, err = x.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: numFmtAmount}); err != nil {
		return fmt.Errorf("total style: %w", err)
	}

	return nil
}

func (x *xlsxWriter) summary(rep *vat.Report, meta Meta) error {
	sheet := SheetSummary

	header := [][]any{
		{"Tenant", meta.Tenant},
		{"Período", meta.Period()},
		{"Versão da tabela", rep.TableVersion},
		{"Gerado em", meta.GeneratedAt.Format(time.RFC3339)},
	}

	for i, row := range header {
		if err := x.f.SetSheetRow(sheet, cell(1, i+1), &row); err != nil {
			return err
		}
	}

	const tableRow = 6

	columns := []any{"Linha", "Descrição", "Description", "Secção", "Tipo", "N.º itens", "Custo total", "IVA total"}
	if err := x.headerRow(sheet, tableRow, columns); err != nil {
		return err
	}

	row := tableRow + 1

	for _, b := range rep.Ordered() {
		values := []any{string(b.ID), b.LocalLabel, b.Label, string(b.Section), string(b.VatType), b.Count}
		if err := x.f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
			return err
		}

		if err := x.amounts(sheet, 7, row, x.amount, b.TotalCost, b.TotalVAT); err != nil {
			return fmt.Errorf("line %s: %w", b.ID, err)
		}

		row++
	}

	cost, total := rep.Totals()

	if err := x.f.SetCellValue(sheet, cell(1, row), "Total"); err != nil {
		return err
	}

	if err := x.f.SetCellInt(sheet, cell(6, row), int64(rep.ItemCount())); err != nil {
		return err
	}

	if err := x.amounts(sheet, 7, row, x.total, cost, total); err != nil {
		return fmt.Errorf("totals: %w", err)
	}

	if err := x.f.SetCellStyle(sheet, cell(1, row), cell(6, row), x.bold); err != nil {
		return err
	}

	row += 2

	if err := x.f.SetCellValue(sheet, cell(1, row), "Saldo (IVA a pagar)"); err != nil {
		return err
	}

	if err := x.f.SetCellStyle(sheet, cell(1, row), cell(1, row), x.bold); err != nil {
		return err
	}

	if err := x.amounts(sheet, 8, row, x.total, rep.Balance()); err != nil {
		return fmt.Errorf("balance: %w", err)
	}

	if err := x.f.SetColWidth(sheet, "B", "C", 48); err != nil {
		return err
	}

	return x.f.SetColWidth(sheet, "G", "H", 16)
}

func (x *xlsxWriter) items(rep *vat.Report) error {
	sheet := SheetItems
	if _, err := x.f.NewSheet(sheet); err != nil {
		return err
	}

	columns := []any{"Linha", "Declaração", "Data", "Natureza", "Descrição", "Código pautal", "Custo unitário", "Quantidade", "Custo", "IVA", "Recibo"}
	if err := x.headerRow(sheet, 1, columns); err != nil {
		return err
	}

	row := 2

	for _, b := range rep.Ordered() {
		for _, item := range b.Items {
			values := []any{
				string(b.ID),
				item.DeclarationNumber,
				item.DeclarationDate.Format(dateLayout),
				item.NatureCode,
				item.Description,
				item.HSCode,
				item.UnitCost.String(),
				item.Quantity.String(),
			}
			if err := x.f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
				return err
			}

			if err := x.amounts(sheet, 9, row, x.amount, item.Cost(), *item.VAT); err != nil {
				return fmt.Errorf("item %s: %w", item.ID, err)
			}

			if err := x.f.SetCellValue(sheet, cell(11, row), item.ReceiptNumber); err != nil {
				return err
			}

			row++
		}
	}

	return x.f.SetColWidth(sheet, "E", "E", 40)
}

func (x *xlsxWriter) warnings(rep *vat.Report) error {
	sheet := SheetWarnings
	if _, err := x.f.NewSheet(sheet); err != nil {
		return err
	}

	columns := []any{"Declaração", "Data", "Natureza desconhecida", "Descrição", "IVA"}
	if err := x.headerRow(sheet, 1, columns); err != nil {
		return err
	}

	for i, w := range rep.Warnings {
		row := i + 2

		values := []any{w.Item.DeclarationNumber, w.Item.DeclarationDate.Format(dateLayout), w.NatureCode, w.Item.Description}
		if err := x.f.SetSheetRow(sheet, cell(1, row), &values); err != nil {
			return err
		}

		if err := x.amounts(sheet, 5, row, x.amount, *w.Item.VAT); err != nil {
			return err
		}
	}

	return nil
}

func (x *xlsxWriter) headerRow(sheet string, row int, columns []any) error {
	if err := x.f.SetSheetRow(sheet, cell(1, row), &columns); err != nil {
		return err
	}

	return x.f.SetCellStyle(sheet, cell(1, row), cell(len(columns), row), x.bold)
}

// amounts writes consecutive amount cells starting at column col.
func (x *xlsxWriter) amounts(sheet string, col, row, style int, values ...decimal.Decimal) error {
	for i, v := range values {
		c := cell(col+i, row)

		f, err := cellAmount(v)
		if err != nil {
			return err
		}

		if err := x.f.SetCellFloat(sheet, c, f, 2, 64); err != nil {
			return err
		}

		if err := x.f.SetCellStyle(sheet, c, c, style); err != nil {
			return err
		}
	}

	return nil
}

// cellAmount rounds to cents and refuses values a float64 cannot hold exactly.
func cellAmount(d decimal.Decimal) (float64, error) {
	cents, err := vat.Cents(d)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrAmountTooLarge, d, err)
	}

	if cents >= maxExactCents || cents <= -maxExactCents {
		return 0, fmt.Errorf("%w: %s", ErrAmountTooLarge, d)
	}

	return float64(cents) / 100, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
