package receipt

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the part a document plays inside a receipt bundle.
type Role string

const (
	RoleMain        Role = "main"
	RoleWithholding Role = "withholding"
	RoleAttachment  Role = "attachment"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMain, RoleWithholding, RoleAttachment:
		return true
	}

	return false
}

// Document is an uploaded receipt file as registered by the document store.
type Document struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Role          Role
	ReceiptNumber string
	FileURL       string
	Status        string
	Checksum      string
	UploadedAt    time.Time
}

// Bundle groups the documents sharing one receipt number, at most one per role.
type Bundle struct {
	ReceiptNumber    string
	Main             *Document
	Withholding      *Document
	Attachment       *Document
	HasWithholding   bool
	MostRecentUpload time.Time
}

// Documents returns the documents held by the bundle in role order.
func (b Bundle) Documents() []*Document {
	docs := make([]*Document, 0, 3)

	for _, d := range []*Document{b.Main, b.Withholding, b.Attachment} {
		if d != nil {
			docs = append(docs, d)
		}
	}

	return docs
}

func (b *Bundle) assign(doc Document) {
	d := doc

	switch doc.Role {
	case RoleMain:
		b.Main = &d
	case RoleWithholding:
		b.Withholding = &d
		b.HasWithholding = true
	case RoleAttachment:
		b.Attachment = &d
	}
}
