package declaration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=declaration
type Repository interface {
	CreateItem(ctx context.Context, item *LineItem) error
	GetItem(ctx context.Context, tenantID, id uuid.UUID) (*LineItem, error)
	ListItems(ctx context.Context, filter ListFilter) ([]*LineItem, error)
	DeleteItem(ctx context.Context, tenantID, id uuid.UUID) error

	BeginImport(ctx context.Context, tenantID uuid.UUID, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*LineItem, error)
	CreateItems(ctx context.Context, items []*LineItem) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	TenantID          uuid.UUID
	NatureCode        string
	Description       string
	HSCode            string
	Unit              string
	UnitCost          decimal.Decimal
	Quantity          decimal.Decimal
	VAT               *decimal.Decimal
	DeclarationNumber string
	DeclarationDate   time.Time
	ReceiptNumber     string
}

// ListFilter narrows the line items of one tenant by declaration date.
type ListFilter struct {
	TenantID      uuid.UUID
	NatureCode    *string
	ReceiptNumber *string
	StartDate     *time.Time
	EndDate       *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*LineItem, error) {
	item := paramsToItem(params)

	if err := Validate(*item); err != nil {
		return nil, err
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*LineItem, error) {
	return s.repo.GetItem(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*LineItem, error) {
	return s.repo.ListItems(ctx, filter)
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repo.DeleteItem(ctx, tenantID, id)
}

type ImportResult struct {
	Imported  []*LineItem
	New       []CreateParams
	Conflicts []Conflict
	Rejected  []*ValidationError
}

type Conflict struct {
	Incoming CreateParams
	Existing *LineItem
}

// ImportBatch stores a parsed declaration export for one tenant. Invalid lines
// are rejected individually. When any line already exists, nothing is written
// and the conflicts are returned for review.
func (s *Service) ImportBatch(ctx context.Context, tenantID uuid.UUID, params []CreateParams) (*ImportResult, error) {
	result := &ImportResult{}

	var valid []CreateParams

	for _, p := range params {
		p.TenantID = tenantID

		if v := Check(*paramsToItem(p)); v != nil {
			result.Rejected = append(result.Rejected, v)
			continue
		}

		valid = append(valid, p)
	}

	if len(valid) == 0 {
		return result, nil
	}

	minDate, maxDate := dateRange(valid)

	itx, err := s.repo.BeginImport(ctx, tenantID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[dupKey]*LineItem, len(duplicates))
	for _, d := range duplicates {
		lookup[keyOf(*d)] = d
	}

	var newParams []CreateParams

	for _, p := range valid {
		existing, found := lookup[keyOf(*paramsToItem(p))]
		if found {
			result.Conflicts = append(result.Conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(result.Conflicts) > 0 {
		result.New = newParams
		return result, nil
	}

	items := make([]*LineItem, len(newParams))
	for i, p := range newParams {
		items[i] = paramsToItem(p)
	}

	if err := itx.CreateItems(ctx, items); err != nil {
		return nil, fmt.Errorf("create items: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	result.Imported = items

	return result, nil
}

// CreateBatch stores params the user confirmed after an import reported
// conflicts. Duplicates are not checked again.
func (s *Service) CreateBatch(ctx context.Context, tenantID uuid.UUID, params []CreateParams) ([]*LineItem, error) {
	if len(params) == 0 {
		return nil, nil
	}

	items := make([]*LineItem, len(params))

	for i, p := range params {
		p.TenantID = tenantID
		items[i] = paramsToItem(p)

		if err := Validate(*items[i]); err != nil {
			return nil, err
		}
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, tenantID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	if err := itx.CreateItems(ctx, items); err != nil {
		return nil, fmt.Errorf("create items: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return items, nil
}

type dupKey struct {
	DeclarationNumber string
	Date              string
	NatureCode        string
	Description       string
	UnitCost          string
	Quantity          string
}

// DuplicateKey identifies a line item across imports. Amounts are normalized
// so "10.00" and "10" compare equal.
func DuplicateKey(item LineItem) string {
	k := keyOf(item)
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		k.DeclarationNumber, k.Date, k.NatureCode, k.Description, k.UnitCost, k.Quantity)
}

func keyOf(item LineItem) dupKey {
	return dupKey{
		DeclarationNumber: item.DeclarationNumber,
		Date:              item.DeclarationDate.Format(time.DateOnly),
		NatureCode:        item.NatureCode,
		Description:       item.Description,
		UnitCost:          item.UnitCost.String(),
		Quantity:          item.Quantity.String(),
	}
}

func dateRange(params []CreateParams) (time.Time, time.Time) {
	minDate := params[0].DeclarationDate
	maxDate := params[0].DeclarationDate

	for _, p := range params[1:] {
		if p.DeclarationDate.Before(minDate) {
			minDate = p.DeclarationDate
		}

		if p.DeclarationDate.After(maxDate) {
			maxDate = p.DeclarationDate
		}
	}

	return minDate, maxDate
}

// Item returns the line item the params would create, without an ID.
func (p CreateParams) Item() LineItem {
	return *paramsToItem(p)
}

func paramsToItem(p CreateParams) *LineItem {
	return &LineItem{
		TenantID:          p.TenantID,
		NatureCode:        p.NatureCode,
		Description:       p.Description,
		HSCode:            p.HSCode,
		Unit:              p.Unit,
		UnitCost:          p.UnitCost,
		Quantity:          p.Quantity,
		VAT:               p.VAT,
		DeclarationNumber: p.DeclarationNumber,
		DeclarationDate:   p.DeclarationDate,
		ReceiptNumber:     p.ReceiptNumber,
	}
}
