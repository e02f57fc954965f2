package declaration

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/importer"
)

type itemResponse struct {
	ID                uuid.UUID        `json:"id"`
	NatureCode        string           `json:"nature_code"`
	Description       string           `json:"description"`
	HSCode            string           `json:"hs_code,omitempty"`
	Unit              string           `json:"unit,omitempty"`
	UnitCost          decimal.Decimal  `json:"unit_cost"`
	Quantity          decimal.Decimal  `json:"quantity"`
	Cost              decimal.Decimal  `json:"cost"`
	VAT               *decimal.Decimal `json:"vat"`
	DeclarationNumber string           `json:"declaration_number"`
	DeclarationDate   string           `json:"declaration_date"`
	ReceiptNumber     string           `json:"receipt_number,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// paramsDTO is both the create request body and the echo of a parsed import line.
type paramsDTO struct {
	NatureCode        string           `json:"nature_code"`
	Description       string           `json:"description"`
	HSCode            string           `json:"hs_code,omitempty"`
	Unit              string           `json:"unit,omitempty"`
	UnitCost          decimal.Decimal  `json:"unit_cost"`
	Quantity          decimal.Decimal  `json:"quantity"`
	VAT               *decimal.Decimal `json:"vat"`
	DeclarationNumber string           `json:"declaration_number"`
	DeclarationDate   string           `json:"declaration_date"`
	ReceiptNumber     string           `json:"receipt_number,omitempty"`
}

type conflictDTO struct {
	Incoming paramsDTO    `json:"incoming"`
	Existing itemResponse `json:"existing"`
}

type rowErrorDTO struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type importResponse struct {
	Profile   string         `json:"profile"`
	Charset   string         `json:"charset"`
	Hinted    int            `json:"hinted"`
	Imported  []itemResponse `json:"imported"`
	New       []paramsDTO    `json:"new,omitempty"`
	Conflicts []conflictDTO  `json:"conflicts,omitempty"`
	Skipped   []rowErrorDTO  `json:"skipped,omitempty"`
	Rejected  []rowErrorDTO  `json:"rejected,omitempty"`
}

type confirmRequest struct {
	Params []paramsDTO `json:"params"`
}

func toResponse(item *declaration.LineItem) itemResponse {
	return itemResponse{
		ID:                item.ID,
		NatureCode:        item.NatureCode,
		Description:       item.Description,
		HSCode:            item.HSCode,
		Unit:              item.Unit,
		UnitCost:          item.UnitCost,
		Quantity:          item.Quantity,
		Cost:              item.Cost(),
		VAT:               item.VAT,
		DeclarationNumber: item.DeclarationNumber,
		DeclarationDate:   item.DeclarationDate.Format(time.DateOnly),
		ReceiptNumber:     item.ReceiptNumber,
		CreatedAt:         item.CreatedAt,
	}
}

func toResponseList(items []*declaration.LineItem) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = toResponse(item)
	}

	return resp
}

func toParamsDTO(p declaration.CreateParams) paramsDTO {
	return paramsDTO{
		NatureCode:        p.NatureCode,
		Description:       p.Description,
		HSCode:            p.HSCode,
		Unit:              p.Unit,
		UnitCost:          p.UnitCost,
		Quantity:          p.Quantity,
		VAT:               p.VAT,
		DeclarationNumber: p.DeclarationNumber,
		DeclarationDate:   p.DeclarationDate.Format(time.DateOnly),
		ReceiptNumber:     p.ReceiptNumber,
	}
}

func (d paramsDTO) params() (declaration.CreateParams, error) {
	date, err := time.Parse(time.DateOnly, d.DeclarationDate)
	if err != nil {
		return declaration.CreateParams{}, err
	}

	return declaration.CreateParams{
		NatureCode:        d.NatureCode,
		Description:       d.Description,
		HSCode:            d.HSCode,
		Unit:              d.Unit,
		UnitCost:          d.UnitCost,
		Quantity:          d.Quantity,
		VAT:               d.VAT,
		DeclarationNumber: d.DeclarationNumber,
		DeclarationDate:   date,
		ReceiptNumber:     d.ReceiptNumber,
	}, nil
}

func toImportResponse(batch *importer.Batch, hinted int, result *declaration.ImportResult) importResponse {
	resp := importResponse{
		Profile:  batch.Profile,
		Charset:  batch.Charset,
		Hinted:   hinted,
		Imported: toResponseList(result.Imported),
	}

	for _, p := range result.New {
		resp.New = append(resp.New, toParamsDTO(p))
	}

	for _, c := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, conflictDTO{
			Incoming: toParamsDTO(c.Incoming),
			Existing: toResponse(c.Existing),
		})
	}

	for _, s := range batch.Skipped {
		resp.Skipped = append(resp.Skipped, rowErrorDTO{Row: s.Row, Error: s.Err.Error()})
	}

	for _, v := range result.Rejected {
		resp.Rejected = append(resp.Rejected, rowErrorDTO{Error: v.Error()})
	}

	return resp
}
