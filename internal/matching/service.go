// Package matching remembers which nature code a tenant uses for a given
// description so imported lines without a code can be filled in.
package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

var (
	ErrEmptyPattern = errors.New("empty description pattern")
	ErrUnknownCode  = errors.New("nature code not in table")
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	FindCode(ctx context.Context, tenantID uuid.UUID, description string) (string, error)
	CreateHint(ctx context.Context, tenantID uuid.UUID, pattern, natureCode string) error
}

type Service struct {
	repo  Repository
	table *vat.Table
}

func NewService(repo Repository, table *vat.Table) *Service {
	return &Service{repo: repo, table: table}
}

// Suggest returns the nature code learned for a description, or "" when none matches.
func (s *Service) Suggest(ctx context.Context, tenantID uuid.UUID, description string) (string, error) {
	return s.repo.FindCode(ctx, tenantID, description)
}

// Learn remembers that descriptions containing pattern use natureCode.
func (s *Service) Learn(ctx context.Context, tenantID uuid.UUID, pattern, natureCode string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return ErrEmptyPattern
	}

	natureCode = strings.TrimSpace(natureCode)
	if _, ok := s.table.Lookup(natureCode); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCode, natureCode)
	}

	return s.repo.CreateHint(ctx, tenantID, pattern, natureCode)
}

// Fill sets the nature code of every param that has none and whose
// description matches a learned hint. It returns how many were filled.
func (s *Service) Fill(ctx context.Context, tenantID uuid.UUID, params []declaration.CreateParams) (int, error) {
	filled := 0

	for i := range params {
		if strings.TrimSpace(params[i].NatureCode) != "" {
			continue
		}

		code, err := s.repo.FindCode(ctx, tenantID, params[i].Description)
		if err != nil {
			return filled, fmt.Errorf("matching %q: %w", params[i].Description, err)
		}

		if code == "" {
			continue
		}

		params[i].NatureCode = code
		filled++
	}

	return filled, nil
}
