package receipt_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func doc(receiptNumber string, role receipt.Role, offset time.Duration) receipt.Document {
	return receipt.Document{
		ID:            uuid.New(),
		Role:          role,
		ReceiptNumber: receiptNumber,
		FileURL:       "https://files.example.com/" + uuid.NewString() + ".pdf",
		Status:        "uploaded",
		UploadedAt:    t0.Add(offset),
	}
}

func TestGroup_Empty(t *testing.T) {
	g := receipt.Group(nil)

	assert.NotNil(t, g.Bundles)
	assert.Empty(t, g.Bundles)
	assert.Empty(t, g.Rejected)
	assert.NoError(t, g.Err())
}

func TestGroup_MainAndWithholding(t *testing.T) {
	d1 := doc("R1", receipt.RoleMain, 0)
	d2 := doc("R1", receipt.RoleWithholding, time.Hour)

	g := receipt.Group([]receipt.Document{d1, d2})
	require.Len(t, g.Bundles, 1)

	b := g.Bundles[0]
	assert.Equal(t, "R1", b.ReceiptNumber)
	require.NotNil(t, b.Main)
	require.NotNil(t, b.Withholding)
	assert.Nil(t, b.Attachment)
	assert.Equal(t, d1, *b.Main)
	assert.Equal(t, d2, *b.Withholding)
	assert.True(t, b.HasWithholding)
	assert.Equal(t, d2.UploadedAt, b.MostRecentUpload)
}

func TestGroup_LastWriteWins(t *testing.T) {
	a := doc("R1", receipt.RoleMain, time.Hour)
	b := doc("R1", receipt.RoleMain, 0)

	g := receipt.Group([]receipt.Document{a, b})
	require.Len(t, g.Bundles, 1)

	assert.Equal(t, b.ID, g.Bundles[0].Main.ID)
	// The replaced document still counts toward the most recent upload.
	assert.Equal(t, a.UploadedAt, g.Bundles[0].MostRecentUpload)
}

func TestGroup_OrderedByMostRecentUpload(t *testing.T) {
	docs := []receipt.Document{
		doc("R1", receipt.RoleMain, 0),
		doc("R2", receipt.RoleMain, 2*time.Hour),
		doc("R3", receipt.RoleMain, time.Hour),
		doc("R1", receipt.RoleAttachment, 3*time.Hour),
		doc("R4", receipt.RoleMain, time.Hour),
	}

	g := receipt.Group(docs)
	require.Len(t, g.Bundles, 4)

	got := make([]string, len(g.Bundles))
	for i, b := range g.Bundles {
		got[i] = b.ReceiptNumber
	}

	// R3 and R4 tie and keep their first-seen order.
	assert.Equal(t, []string{"R1", "R2", "R3", "R4"}, got)
}

func TestGroup_RejectsInvalidDocuments(t *testing.T) {
	valid := doc("R1", receipt.RoleMain, 0)
	noReceipt := doc("  ", receipt.RoleMain, 0)
	badRole := doc("R1", receipt.Role("invoice"), 0)

	g := receipt.Group([]receipt.Document{noReceipt, valid, badRole})

	require.Len(t, g.Bundles, 1)
	assert.Equal(t, valid.ID, g.Bundles[0].Main.ID)

	require.Len(t, g.Rejected, 2)
	assert.Equal(t, noReceipt.ID, g.Rejected[0].Document.ID)
	assert.ErrorIs(t, g.Rejected[0], receipt.ErrMissingReceiptNumber)
	assert.Equal(t, badRole.ID, g.Rejected[1].Document.ID)
	assert.ErrorIs(t, g.Rejected[1], receipt.ErrUnknownRole)

	err := g.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, receipt.ErrInvalidDocument)

	var vErr *receipt.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestGroup_Completeness(t *testing.T) {
	roles := []receipt.Role{receipt.RoleMain, receipt.RoleWithholding, receipt.RoleAttachment}
	receipts := []string{"A", "B", "C", "D"}

	var docs []receipt.Document

	for i, r := range receipts {
		for j, role := range roles[:1+i%3] {
			docs = append(docs, doc(r, role, time.Duration(i*3+j)*time.Minute))
		}
	}

	g := receipt.Group(docs)
	require.Empty(t, g.Rejected)
	require.Len(t, g.Bundles, len(receipts))

	seen := make(map[uuid.UUID]int)
	for _, b := range g.Bundles {
		for _, d := range b.Documents() {
			assert.Equal(t, b.ReceiptNumber, d.ReceiptNumber)
			seen[d.ID]++
		}
	}

	for _, d := range docs {
		assert.Equal(t, 1, seen[d.ID], "document %s must appear exactly once", d.ID)
	}
}

func TestGroup_Idempotent(t *testing.T) {
	docs := []receipt.Document{
		doc("R1", receipt.RoleMain, 0),
		doc("R2", receipt.RoleWithholding, time.Minute),
		doc("R1", receipt.RoleAttachment, 2*time.Minute),
		doc("", receipt.RoleMain, 3*time.Minute),
	}

	first := receipt.Group(docs)
	second := receipt.Group(docs)

	assert.Equal(t, first, second)
}

func TestGroup_TrimsReceiptNumber(t *testing.T) {
	mainDoc := doc("R1", receipt.RoleMain, 0)
	withholding := doc(" R1 ", receipt.RoleWithholding, time.Hour)

	g := receipt.Group([]receipt.Document{mainDoc, withholding})
	require.Len(t, g.Bundles, 1)

	b := g.Bundles[0]
	assert.Equal(t, "R1", b.ReceiptNumber)
	require.NotNil(t, b.Main)
	require.NotNil(t, b.Withholding)
	assert.True(t, b.HasWithholding)
}

func TestGroup_DoesNotAliasInput(t *testing.T) {
	docs := []receipt.Document{doc("R1", receipt.RoleMain, 0)}

	g := receipt.Group(docs)
	docs[0].Status = "changed"

	assert.Equal(t, "uploaded", g.Bundles[0].Main.Status)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     receipt.Document
		wantErr error
	}{
		{"valid main", receipt.Document{ReceiptNumber: "R1", Role: receipt.RoleMain}, nil},
		{"valid attachment", receipt.Document{ReceiptNumber: "R1", Role: receipt.RoleAttachment}, nil},
		{"empty receipt", receipt.Document{Role: receipt.RoleMain}, receipt.ErrMissingReceiptNumber},
		{"empty role", receipt.Document{ReceiptNumber: "R1"}, receipt.ErrUnknownRole},
		{"unknown role", receipt.Document{ReceiptNumber: "R1", Role: "cover"}, receipt.ErrUnknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := receipt.Validate(tt.doc)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, receipt.ErrInvalidDocument)
		})
	}
}
