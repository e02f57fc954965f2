package vat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
)

// Service builds VAT reports from the stored declaration items of a tenant.
type Service struct {
	items  *declaration.Service
	table  *Table
	logger *slog.Logger
}

func NewService(items *declaration.Service, table *Table, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		items:  items,
		table:  table,
		logger: logger.With("service", "vat"),
	}
}

func (s *Service) Table() *Table {
	return s.table
}

func (s *Service) Report(ctx context.Context, filter declaration.ListFilter) (*Report, error) {
	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing declaration items: %w", err)
	}

	values := make([]declaration.LineItem, len(items))
	for i, item := range items {
		values[i] = *item
	}

	rep := Classify(values, s.table)

	if codes := rep.UnknownCodes(); len(codes) > 0 {
		s.logger.Warn("unclassified nature codes",
			"tenant_id", filter.TenantID,
			"codes", codes,
			"items", len(rep.Warnings),
			"table_version", rep.TableVersion,
		)
	}

	for _, v := range rep.Rejected {
		s.logger.Warn("skipping invalid declaration item", "tenant_id", filter.TenantID, "item_id", v.Item.ID, "error", v.Err)
	}

	return rep, nil
}
