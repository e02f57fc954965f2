package receipt

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

type documentResponse struct {
	ID            uuid.UUID    `json:"id"`
	Role          receipt.Role `json:"role"`
	ReceiptNumber string       `json:"receipt_number"`
	FileURL       string       `json:"file_url"`
	Status        string       `json:"status,omitempty"`
	Checksum      string       `json:"checksum,omitempty"`
	UploadedAt    time.Time    `json:"uploaded_at"`
}

type bundleResponse struct {
	ReceiptNumber    string            `json:"receipt_number"`
	Main             *documentResponse `json:"main"`
	Withholding      *documentResponse `json:"withholding"`
	Attachment       *documentResponse `json:"attachment"`
	HasWithholding   bool              `json:"has_withholding"`
	MostRecentUpload time.Time         `json:"most_recent_upload"`
}

type rejectedResponse struct {
	DocumentID    uuid.UUID    `json:"document_id"`
	ReceiptNumber string       `json:"receipt_number"`
	Role          receipt.Role `json:"role"`
	Error         string       `json:"error"`
}

type groupingResponse struct {
	Bundles  []bundleResponse   `json:"bundles"`
	Rejected []rejectedResponse `json:"rejected"`
}

func toResponse(doc *receipt.Document) *documentResponse {
	if doc == nil {
		return nil
	}

	return &documentResponse{
		ID:            doc.ID,
		Role:          doc.Role,
		ReceiptNumber: doc.ReceiptNumber,
		FileURL:       doc.FileURL,
		Status:        doc.Status,
		Checksum:      doc.Checksum,
		UploadedAt:    doc.UploadedAt,
	}
}

func toResponseList(docs []*receipt.Document) []*documentResponse {
	resp := make([]*documentResponse, len(docs))
	for i, doc := range docs {
		resp[i] = toResponse(doc)
	}

	return resp
}

func toBundleResponse(b *receipt.Bundle) bundleResponse {
	return bundleResponse{
		ReceiptNumber:    b.ReceiptNumber,
		Main:             toResponse(b.Main),
		Withholding:      toResponse(b.Withholding),
		Attachment:       toResponse(b.Attachment),
		HasWithholding:   b.HasWithholding,
		MostRecentUpload: b.MostRecentUpload,
	}
}

func toGroupingResponse(g receipt.Grouping) groupingResponse {
	resp := groupingResponse{
		Bundles:  make([]bundleResponse, len(g.Bundles)),
		Rejected: make([]rejectedResponse, len(g.Rejected)),
	}

	for i := range g.Bundles {
		resp.Bundles[i] = toBundleResponse(&g.Bundles[i])
	}

	for i, r := range g.Rejected {
		resp.Rejected[i] = rejectedResponse{
			DocumentID:    r.Document.ID,
			ReceiptNumber: r.Document.ReceiptNumber,
			Role:          r.Document.Role,
			Error:         r.Err.Error(),
		}
	}

	return resp
}
