// Package importer turns uploaded declaration exports into line item params.
package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
)

type Format string

const (
	FormatBroker Format = "broker"
)

type Importer interface {
	Parse(r io.Reader) (*Batch, error)
}

// Batch is the result of parsing one file.
type Batch struct {
	Params  []declaration.CreateParams
	Skipped []RowError
	Profile string
	Charset string
}

// RowError is a data row that could not be read. Row is 1-based.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}
