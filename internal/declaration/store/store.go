package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanItem reads a declaration_items row.
// Expected column order: id, tenant_id, nature_code, description, hs_code, unit, unit_cost, quantity,
// vat_amount, declaration_number, declaration_date, receipt_number, created_at
func scanItem(s scanner) (*declaration.LineItem, error) {
	var item declaration.LineItem

	var vat decimal.NullDecimal

	var hsCode, unit, receiptNumber sql.NullString

	if err := s.Scan(
		&item.ID, &item.TenantID, &item.NatureCode, &item.Description, &hsCode, &unit,
		&item.UnitCost, &item.Quantity, &vat,
		&item.DeclarationNumber, &item.DeclarationDate, &receiptNumber, &item.CreatedAt,
	); err != nil {
		return nil, err
	}

	item.HSCode = hsCode.String
	item.Unit = unit.String
	item.ReceiptNumber = receiptNumber.String

	if vat.Valid {
		item.VAT = &vat.Decimal
	}

	return &item, nil
}

const selectItemColumns = `
	li.id, li.tenant_id, li.nature_code, li.description, li.hs_code, li.unit, li.unit_cost, li.quantity,
	li.vat_amount, li.declaration_number, li.declaration_date, li.receipt_number, li.created_at
`

const insertItem = `
	INSERT INTO declaration_items (
		tenant_id, nature_code, description, hs_code, unit, unit_cost, quantity,
		vat_amount, declaration_number, declaration_date, receipt_number, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	RETURNING id, created_at
`

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insert(ctx context.Context, q queryRower, item *declaration.LineItem) error {
	var vat decimal.NullDecimal
	if item.VAT != nil {
		vat = decimal.NewNullDecimal(*item.VAT)
	}

	err := q.QueryRowContext(ctx, insertItem,
		item.TenantID,
		item.NatureCode,
		item.Description,
		item.HSCode,
		item.Unit,
		item.UnitCost,
		item.Quantity,
		vat,
		item.DeclarationNumber,
		item.DeclarationDate,
		item.ReceiptNumber,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating declaration item: %w", err)
	}

	return nil
}

func (s *Store) CreateItem(ctx context.Context, item *declaration.LineItem) error {
	return insert(ctx, s.db, item)
}

func (s *Store) GetItem(ctx context.Context, tenantID, id uuid.UUID) (*declaration.LineItem, error) {
	query := `SELECT ` + selectItemColumns + `
		FROM declaration_items li
		WHERE li.tenant_id = $1 AND li.id = $2 AND li.deleted_at IS NULL`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, declaration.ErrNotFound
		}

		return nil, fmt.Errorf("getting declaration item: %w", err)
	}

	return item, nil
}

func (s *Store) ListItems(ctx context.Context, filter declaration.ListFilter) ([]*declaration.LineItem, error) {
	query := `SELECT ` + selectItemColumns + `
		FROM declaration_items li
		WHERE li.deleted_at IS NULL AND li.tenant_id = $1`

	args := []any{filter.TenantID}
	argIdx := 2

	if filter.NatureCode != nil {
		query += fmt.Sprintf(" AND li.nature_code = $%d", argIdx)

		args = append(args, *filter.NatureCode)
		argIdx++
	}

	if filter.ReceiptNumber != nil {
		query += fmt.Sprintf(" AND li.receipt_number = $%d", argIdx)

		args = append(args, *filter.ReceiptNumber)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND li.declaration_date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND li.declaration_date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY li.declaration_date ASC, li.declaration_number ASC, li.created_at ASC"

	return queryItems(ctx, s.db, query, args...)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryItems(ctx context.Context, q querier, query string, args ...any) ([]*declaration.LineItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing declaration items: %w", err)
	}
	defer rows.Close()

	var items []*declaration.LineItem

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning declaration item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating declaration rows: %w", err)
	}

	return items, nil
}

func (s *Store) DeleteItem(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `
		UPDATE declaration_items
		SET deleted_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting declaration item: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return declaration.ErrNotFound
	}

	return nil
}

func importLockKey(tenantID uuid.UUID, minDate, maxDate time.Time) int64 {
	h := fnv.New64a()
	h.Write(tenantID[:])
	h.Write([]byte(minDate.Format(time.DateOnly)))
	h.Write([]byte{0})
	h.Write([]byte(maxDate.Format(time.DateOnly)))

	return int64(h.Sum64())
}

type importTx struct {
	tx       *sql.Tx
	tenantID uuid.UUID
}

func (s *Store) BeginImport(ctx context.Context, tenantID uuid.UUID, minDate, maxDate time.Time) (declaration.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(tenantID, minDate, maxDate)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx, tenantID: tenantID}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindDuplicates(ctx context.Context, params []declaration.CreateParams) ([]*declaration.LineItem, error) {
	if len(params) == 0 {
		return nil, nil
	}

	minDate := params[0].DeclarationDate
	maxDate := params[0].DeclarationDate
	keySet := make(map[string]struct{}, len(params))

	for _, p := range params {
		if p.DeclarationDate.Before(minDate) {
			minDate = p.DeclarationDate
		}

		if p.DeclarationDate.After(maxDate) {
			maxDate = p.DeclarationDate
		}

		keySet[declaration.DuplicateKey(p.Item())] = struct{}{}
	}

	query := `SELECT ` + selectItemColumns + `
		FROM declaration_items li
		WHERE li.deleted_at IS NULL AND li.tenant_id = $1
		  AND li.declaration_date >= $2 AND li.declaration_date <= $3
		ORDER BY li.declaration_date ASC`

	candidates, err := queryItems(ctx, itx.tx, query, itx.tenantID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}

	var duplicates []*declaration.LineItem

	for _, item := range candidates {
		if _, found := keySet[declaration.DuplicateKey(*item)]; found {
			duplicates = append(duplicates, item)
		}
	}

	return duplicates, nil
}

func (itx *importTx) CreateItems(ctx context.Context, items []*declaration.LineItem) error {
	for _, item := range items {
		if err := insert(ctx, itx.tx, item); err != nil {
			return err
		}
	}

	return nil
}
