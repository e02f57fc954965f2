// Package broker parses the semicolon separated declaration exports produced
// by customs broker software.
package broker

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	enc "github.com/MrJamesThe3rd/despacho/internal/encoding"
	"github.com/MrJamesThe3rd/despacho/internal/importer"
)

const dateLayout = "02-01-2006"

var ErrNoProfile = errors.New("no matching broker export format")

// Parser auto-detects the export layout by matching the header row against
// the known profiles. Preamble rows before the header are ignored.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) (*importer.Batch, error) {
	utf8r, charset, err := enc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("%w: expected columns for dau or simplificada", ErrNoProfile)
	}

	batch := &importer.Batch{
		Profile: profile.Name,
		Charset: string(charset),
	}

	parseRows(batch, profile, cols, rows[headerIdx+1:], headerIdx+1)

	return batch, nil
}

type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows fills the batch. Rows without a parseable date are footers and
// are skipped silently; rows with a date but bad content become RowErrors.
func parseRows(batch *importer.Batch, p *Profile, cols colIndex, rows [][]string, headerRowNum int) {
	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		date, ok := parseDate(cellValue(row, cols[p.DateCol]))
		if !ok {
			continue
		}

		params, err := parseRow(p, cols, row)
		if err != nil {
			batch.Skipped = append(batch.Skipped, importer.RowError{Row: rowNum, Err: err})
			continue
		}

		params.DeclarationDate = date
		batch.Params = append(batch.Params, params)
	}
}

func parseRow(p *Profile, cols colIndex, row []string) (declaration.CreateParams, error) {
	params := declaration.CreateParams{
		DeclarationNumber: cellValue(row, cols[p.NumberCol]),
		NatureCode:        cellValue(row, cols[p.NatureCol]),
		Description:       cellValue(row, cols[p.DescCol]),
		HSCode:            optionalCell(row, cols, p.HSCodeCol),
		Unit:              optionalCell(row, cols, p.UnitCol),
		ReceiptNumber:     optionalCell(row, cols, p.ReceiptCol),
		Quantity:          decimal.NewFromInt(1),
	}

	if params.DeclarationNumber == "" {
		return params, errors.New("missing declaration number")
	}

	if params.Description == "" {
		return params, errors.New("missing description")
	}

	unitCost, err := parseEuropeanAmount(cellValue(row, cols[p.UnitCostCol]))
	if err != nil {
		return params, fmt.Errorf("unit cost: %w", err)
	}

	params.UnitCost = unitCost

	if p.QuantityCol != "" {
		qty, err := parseEuropeanAmount(cellValue(row, cols[p.QuantityCol]))
		if err != nil {
			return params, fmt.Errorf("quantity: %w", err)
		}

		params.Quantity = qty
	}

	if s := cellValue(row, cols[p.VATCol]); s != "" {
		v, err := parseEuropeanAmount(s)
		if err != nil {
			return params, fmt.Errorf("vat: %w", err)
		}

		params.VAT = &v
	}

	return params, nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

func optionalCell(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok {
		return ""
	}

	return cellValue(row, idx)
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
