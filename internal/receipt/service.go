package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=receipt
type Repository interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, filter ListFilter) ([]*Document, error)
	DeleteDocument(ctx context.Context, tenantID, id uuid.UUID) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{repo: repo, logger: logger.With("service", "receipt")}
}

type CreateParams struct {
	TenantID      uuid.UUID
	Role          Role
	ReceiptNumber string
	FileURL       string
	Status        string
	UploadedAt    time.Time
}

// ListFilter narrows the documents of one tenant. Documents are always
// returned oldest upload first so that grouping sees them in upload order.
type ListFilter struct {
	TenantID      uuid.UUID
	ReceiptNumber *string
	StartDate     *time.Time
	EndDate       *time.Time
}

// UploadedBefore returns the exclusive upper bound on upload time: midnight
// after EndDate's calendar day, so uploads made on the end day still match.
func (f ListFilter) UploadedBefore() *time.Time {
	if f.EndDate == nil {
		return nil
	}

	y, m, d := f.EndDate.Date()

	return new(time.Date(y, m, d+1, 0, 0, 0, 0, f.EndDate.Location()))
}

func (s *Service) Register(ctx context.Context, params CreateParams) (*Document, error) {
	doc := &Document{
		TenantID:      params.TenantID,
		Role:          params.Role,
		ReceiptNumber: strings.TrimSpace(params.ReceiptNumber),
		FileURL:       params.FileURL,
		Status:        params.Status,
		UploadedAt:    params.UploadedAt,
	}

	if err := Validate(*doc); err != nil {
		return nil, err
	}

	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	doc.Checksum = Checksum(*doc)

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Document, error) {
	return s.repo.GetDocument(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	return s.repo.ListDocuments(ctx, filter)
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.DeleteDocument(ctx, tenantID, id)
}

// Bundles groups every document matching the filter. Rejected documents are
// logged and returned alongside the bundles; they never fail the call.
func (s *Service) Bundles(ctx context.Context, filter ListFilter) (Grouping, error) {
	docs, err := s.repo.ListDocuments(ctx, filter)
	if err != nil {
		return Grouping{}, fmt.Errorf("listing documents: %w", err)
	}

	g := Group(deref(docs))

	for _, r := range g.Rejected {
		s.logger.Warn("document rejected from grouping",
			"tenant_id", filter.TenantID,
			"document_id", r.Document.ID,
			"error", r.Err,
		)
	}

	return g, nil
}

// Bundle returns the bundle for a single receipt number.
func (s *Service) Bundle(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (*Bundle, error) {
	receiptNumber = strings.TrimSpace(receiptNumber)

	g, err := s.Bundles(ctx, ListFilter{TenantID: tenantID, ReceiptNumber: &receiptNumber})
	if err != nil {
		return nil, err
	}

	for i := range g.Bundles {
		if g.Bundles[i].ReceiptNumber == receiptNumber {
			return &g.Bundles[i], nil
		}
	}

	return nil, ErrNotFound
}

func deref(docs []*Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			out = append(out, *d)
		}
	}

	return out
}
