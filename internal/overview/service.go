// Package overview assembles the dashboard landing page of a tenant.
package overview

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

type Filter struct {
	TenantID  uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

type Dashboard struct {
	Bundles           int
	WithWithholding   int
	MissingMain       int
	RejectedDocuments int
	LatestUpload      *time.Time
	RecentBundles     []receipt.Bundle

	Items             int
	TotalVAT          decimal.Decimal
	Balance           decimal.Decimal
	UnclassifiedCodes []string
	TableVersion      string
}

const recentBundles = 5

type Service struct {
	receipts *receipt.Service
	vat      *vat.Service
}

func NewService(receipts *receipt.Service, vatService *vat.Service) *Service {
	return &Service{receipts: receipts, vat: vatService}
}

// Dashboard loads the receipt bundles and the VAT report concurrently.
func (s *Service) Dashboard(ctx context.Context, filter Filter) (*Dashboard, error) {
	var (
		grouping receipt.Grouping
		rep      *vat.Report
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		grouping, err = s.receipts.Bundles(gctx, receipt.ListFilter{
			TenantID:  filter.TenantID,
			StartDate: filter.StartDate,
			EndDate:   filter.EndDate,
		})
		if err != nil {
			return fmt.Errorf("bundles: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		var err error

		rep, err = s.vat.Report(gctx, declaration.ListFilter{
			TenantID:  filter.TenantID,
			StartDate: filter.StartDate,
			EndDate:   filter.EndDate,
		})
		if err != nil {
			return fmt.Errorf("vat report: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		Bundles:           len(grouping.Bundles),
		RejectedDocuments: len(grouping.Rejected),
		RecentBundles:     grouping.Bundles[:min(recentBundles, len(grouping.Bundles))],
		Items:             rep.ItemCount(),
		Balance:           rep.Balance(),
		UnclassifiedCodes: rep.UnknownCodes(),
		TableVersion:      rep.TableVersion,
	}

	_, d.TotalVAT = rep.Totals()

	for _, b := range grouping.Bundles {
		if b.HasWithholding {
			d.WithWithholding++
		}

		if b.Main == nil {
			d.MissingMain++
		}
	}

	if len(grouping.Bundles) > 0 {
		latest := grouping.Bundles[0].MostRecentUpload
		d.LatestUpload = &latest
	}

	return d, nil
}
