package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

type documentInput struct {
	ID            uuid.UUID    `json:"id"`
	Role          receipt.Role `json:"role"`
	ReceiptNumber string       `json:"receipt_number"`
	FileURL       string       `json:"file_url"`
	Status        string       `json:"status"`
	Checksum      string       `json:"checksum"`
	UploadedAt    time.Time    `json:"uploaded_at"`
}

type itemInput struct {
	ID                uuid.UUID        `json:"id"`
	NatureCode        string           `json:"nature_code"`
	Description       string           `json:"description"`
	HSCode            string           `json:"hs_code"`
	Unit              string           `json:"unit"`
	UnitCost          decimal.Decimal  `json:"unit_cost"`
	Quantity          decimal.Decimal  `json:"quantity"`
	VAT               *decimal.Decimal `json:"vat"`
	DeclarationNumber string           `json:"declaration_number"`
	DeclarationDate   string           `json:"declaration_date"`
	ReceiptNumber     string           `json:"receipt_number"`
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	return nil
}

func readDocuments(path string) ([]receipt.Document, error) {
	var in []documentInput
	if err := readJSON(path, &in); err != nil {
		return nil, err
	}

	docs := make([]receipt.Document, len(in))
	for i, d := range in {
		docs[i] = receipt.Document{
			ID:            d.ID,
			Role:          d.Role,
			ReceiptNumber: d.ReceiptNumber,
			FileURL:       d.FileURL,
			Status:        d.Status,
			Checksum:      d.Checksum,
			UploadedAt:    d.UploadedAt,
		}
	}

	return docs, nil
}

func readItems(path string) ([]declaration.LineItem, error) {
	var in []itemInput
	if err := readJSON(path, &in); err != nil {
		return nil, err
	}

	items := make([]declaration.LineItem, len(in))

	for i, it := range in {
		var date time.Time

		if it.DeclarationDate != "" {
			d, err := time.Parse(time.DateOnly, it.DeclarationDate)
			if err != nil {
				return nil, fmt.Errorf("item %d: invalid declaration_date: %w", i, err)
			}

			date = d
		}

		items[i] = declaration.LineItem{
			ID:                it.ID,
			NatureCode:        it.NatureCode,
			Description:       it.Description,
			HSCode:            it.HSCode,
			Unit:              it.Unit,
			UnitCost:          it.UnitCost,
			Quantity:          it.Quantity,
			VAT:               it.VAT,
			DeclarationNumber: it.DeclarationNumber,
			DeclarationDate:   date,
			ReceiptNumber:     it.ReceiptNumber,
		}
	}

	return items, nil
}
