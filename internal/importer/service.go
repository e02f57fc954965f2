package importer

import (
	"errors"
	"fmt"
	"io"
	"slices"
)

var ErrUnknownFormat = errors.New("unknown import format")

type Service struct {
	importers map[Format]Importer
}

func NewService(importers map[Format]Importer) *Service {
	return &Service{importers: importers}
}

func (s *Service) Import(format Format, r io.Reader) (*Batch, error) {
	imp, ok := s.importers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	return imp.Parse(r)
}

// Formats lists the registered formats, sorted.
func (s *Service) Formats() []Format {
	out := make([]Format, 0, len(s.importers))
	for f := range s.importers {
		out = append(out, f)
	}

	slices.Sort(out)

	return out
}
