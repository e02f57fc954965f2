package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

const uniqueViolation = "23505"

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

// Expected column order: id, tenant_id, role, receipt_number, file_url, status, checksum, uploaded_at
func scanDocument(s scanner) (*receipt.Document, error) {
	var doc receipt.Document

	var role string

	var status sql.NullString

	if err := s.Scan(
		&doc.ID, &doc.TenantID, &role, &doc.ReceiptNumber, &doc.FileURL,
		&status, &doc.Checksum, &doc.UploadedAt,
	); err != nil {
		return nil, err
	}

	doc.Role = receipt.Role(role)
	doc.Status = status.String

	return &doc, nil
}

const selectDocumentColumns = `
	d.id, d.tenant_id, d.role, d.receipt_number, d.file_url, d.status, d.checksum, d.uploaded_at
`

func (s *Store) CreateDocument(ctx context.Context, doc *receipt.Document) error {
	query := `
		INSERT INTO documents (tenant_id, role, receipt_number, file_url, status, checksum, uploaded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		doc.TenantID,
		doc.Role,
		doc.ReceiptNumber,
		doc.FileURL,
		doc.Status,
		doc.Checksum,
		doc.UploadedAt,
	).Scan(&doc.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return receipt.ErrDuplicate
		}

		return fmt.Errorf("creating document: %w", err)
	}

	return nil
}

func (s *Store) GetDocument(ctx context.Context, tenantID, id uuid.UUID) (*receipt.Document, error) {
	query := `SELECT ` + selectDocumentColumns + `
		FROM documents d
		WHERE d.tenant_id = $1 AND d.id = $2 AND d.deleted_at IS NULL`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, receipt.ErrNotFound
		}

		return nil, fmt.Errorf("getting document: %w", err)
	}

	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, filter receipt.ListFilter) ([]*receipt.Document, error) {
	query := `SELECT ` + selectDocumentColumns + `
		FROM documents d
		WHERE d.deleted_at IS NULL AND d.tenant_id = $1`

	args := []any{filter.TenantID}
	argIdx := 2

	if filter.ReceiptNumber != nil {
		query += fmt.Sprintf(" AND d.receipt_number = $%d", argIdx)

		args = append(args, *filter.ReceiptNumber)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND d.uploaded_at >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if before := filter.UploadedBefore(); before != nil {
		query += fmt.Sprintf(" AND d.uploaded_at < $%d", argIdx)

		args = append(args, *before)
	}

	// Upload order matters: grouping lets the later document win a role slot.
	query += " ORDER BY d.uploaded_at ASC, d.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*receipt.Document

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}

	return docs, nil
}

func (s *Store) DeleteDocument(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `
		UPDATE documents
		SET deleted_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	if n == 0 {
		return receipt.ErrNotFound
	}

	return nil
}
