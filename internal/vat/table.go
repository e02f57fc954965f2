// Package vat classifies declaration line items into the lines of the periodic
// VAT return and aggregates their cost and VAT.
package vat

import (
	"bytes"
	"cmp"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Section groups return lines the way the official form does.
type Section string

const (
	SectionOutput     Section = "output"
	SectionCapital    Section = "capital"
	SectionNonCapital Section = "nonCapital"
)

// VatType tells whether a line collects VAT owed or VAT deductible.
type VatType string

const (
	VatTypeOutput VatType = "output"
	VatTypeInput  VatType = "input"
)

var ErrInvalidTable = errors.New("invalid nature code table")

// Line is one official line of the VAT return.
type Line struct {
	Number     string
	Section    Section
	VatType    VatType
	Label      string
	LocalLabel string
}

// Entry is the classification of one nature code.
type Entry struct {
	Code       string
	Label      string
	LocalLabel string
	Section    Section
	LineNumber string
	VatType    VatType
}

// Table maps nature codes to return lines. It is immutable once loaded and
// safe to share between goroutines.
type Table struct {
	version string
	lines   []Line
	entries map[string]Entry
}

type tableFile struct {
	Version string `yaml:"version"`
	Lines   []struct {
		Number     string  `yaml:"number"`
		Section    Section `yaml:"section"`
		VatType    VatType `yaml:"vat_type"`
		Label      string  `yaml:"label"`
		LocalLabel string  `yaml:"local_label"`
	} `yaml:"lines"`
	Codes []struct {
		Code       string `yaml:"code"`
		Line       string `yaml:"line"`
		Label      string `yaml:"label"`
		LocalLabel string `yaml:"local_label"`
	} `yaml:"codes"`
}

//go:embed table.yaml
var defaultTableYAML []byte

var defaultTable = sync.OnceValue(func() *Table {
	t, err := LoadTable(bytes.NewReader(defaultTableYAML))
	if err != nil {
		panic(fmt.Sprintf("vat: embedded table: %v", err))
	}

	return t
})

// DefaultTable returns the table compiled into the binary.
func DefaultTable() *Table {
	return defaultTable()
}

// LoadTableFile reads a table from a YAML file. An empty path yields the default table.
func LoadTableFile(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close()

	return LoadTable(f)
}

// LoadTable decodes and validates a YAML table.
func LoadTable(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file tableFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decoding yaml: %w", ErrInvalidTable, err)
	}

	t := &Table{
		version: file.Version,
		lines:   make([]Line, 0, len(file.Lines)),
		entries: make(map[string]Entry, len(file.Codes)),
	}

	byNumber := make(map[string]Line, len(file.Lines))

	for _, l := range file.Lines {
		number := strings.TrimSpace(l.Number)
		if number == "" {
			return nil, fmt.Errorf("%w: line without number", ErrInvalidTable)
		}

		if _, dup := byNumber[number]; dup {
			return nil, fmt.Errorf("%w: line %s declared twice", ErrInvalidTable, number)
		}

		if number == string(Unclassified) {
			return nil, fmt.Errorf("%w: line number %q is reserved", ErrInvalidTable, number)
		}

		switch l.Section {
		case SectionOutput, SectionCapital, SectionNonCapital:
		default:
			return nil, fmt.Errorf("%w: line %s: unknown section %q", ErrInvalidTable, number, l.Section)
		}

		switch l.VatType {
		case VatTypeOutput, VatTypeInput:
		default:
			return nil, fmt.Errorf("%w: line %s: unknown vat type %q", ErrInvalidTable, number, l.VatType)
		}

		line := Line{
			Number:     number,
			Section:    l.Section,
			VatType:    l.VatType,
			Label:      l.Label,
			LocalLabel: l.LocalLabel,
		}
		byNumber[number] = line
		t.lines = append(t.lines, line)
	}

	for _, c := range file.Codes {
		code := strings.TrimSpace(c.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: nature code without value", ErrInvalidTable)
		}

		if _, dup := t.entries[code]; dup {
			return nil, fmt.Errorf("%w: nature code %s declared twice", ErrInvalidTable, code)
		}

		line, ok := byNumber[strings.TrimSpace(c.Line)]
		if !ok {
			return nil, fmt.Errorf("%w: nature code %s: unknown line %q", ErrInvalidTable, code, c.Line)
		}

		t.entries[code] = Entry{
			Code:       code,
			Label:      c.Label,
			LocalLabel: c.LocalLabel,
			Section:    line.Section,
			LineNumber: line.Number,
			VatType:    line.VatType,
		}
	}

	slices.SortStableFunc(t.lines, func(a, b Line) int {
		return compareLineNumbers(a.Number, b.Number)
	})

	return t, nil
}

func (t *Table) Version() string {
	return t.version
}

// Lookup resolves a nature code. Surrounding whitespace is ignored.
func (t *Table) Lookup(code string) (Entry, bool) {
	e, ok := t.entries[strings.TrimSpace(code)]
	return e, ok
}

// Lines returns the return lines in official order.
func (t *Table) Lines() []Line {
	return slices.Clone(t.lines)
}

// Entries returns every nature code ordered by line, then by code.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}

	slices.SortFunc(out, func(a, b Entry) int {
		if c := compareLineNumbers(a.LineNumber, b.LineNumber); c != 0 {
			return c
		}

		return compareLineNumbers(a.Code, b.Code)
	})

	return out
}

// compareLineNumbers orders numeric line numbers numerically and anything else lexically after them.
func compareLineNumbers(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)

	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(ai, bi)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}

	return strings.Compare(a, b)
}
