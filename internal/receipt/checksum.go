package receipt

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Checksum fingerprints a document registration so the same file cannot be
// attached twice to one receipt slot of a tenant.
func Checksum(doc Document) string {
	h := xxhash.New()
	_, _ = h.WriteString(doc.TenantID.String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(doc.ReceiptNumber)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(string(doc.Role))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(doc.FileURL)

	return strconv.FormatUint(h.Sum64(), 16)
}
