package overview_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/overview"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

func newService(ctrl *gomock.Controller) (*overview.Service, *receipt.MockRepository, *declaration.MockRepository) {
	docs := receipt.NewMockRepository(ctrl)
	items := declaration.NewMockRepository(ctrl)

	vatService := vat.NewService(declaration.NewService(items), vat.DefaultTable(), nil)
	svc := overview.NewService(receipt.NewService(docs, nil), vatService)

	return svc, docs, items
}

func TestService_Dashboard(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, docs, items := newService(ctrl)
	tenant := uuid.New()
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	docs.EXPECT().ListDocuments(gomock.Any(), gomock.Any()).Return([]*receipt.Document{
		{ID: uuid.New(), TenantID: tenant, Role: receipt.RoleMain, ReceiptNumber: "R1", UploadedAt: t0},
		{ID: uuid.New(), TenantID: tenant, Role: receipt.RoleWithholding, ReceiptNumber: "R1", UploadedAt: t0.Add(time.Hour)},
		{ID: uuid.New(), TenantID: tenant, Role: receipt.RoleAttachment, ReceiptNumber: "R2", UploadedAt: t0.Add(2 * time.Hour)},
		{ID: uuid.New(), TenantID: tenant, Role: receipt.RoleMain, ReceiptNumber: ""},
	}, nil)

	vatOut := decimal.RequireFromString("23.00")
	vatIn := decimal.RequireFromString("4.60")
	items.EXPECT().ListItems(gomock.Any(), declaration.ListFilter{TenantID: tenant}).Return([]*declaration.LineItem{
		{NatureCode: "101", UnitCost: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(1), VAT: &vatOut},
		{NatureCode: "401", UnitCost: decimal.NewFromInt(20), Quantity: decimal.NewFromInt(1), VAT: &vatIn},
		{NatureCode: "999", UnitCost: decimal.NewFromInt(1), Quantity: decimal.NewFromInt(1), VAT: &vatIn},
	}, nil)

	d, err := svc.Dashboard(context.Background(), overview.Filter{TenantID: tenant})
	require.NoError(t, err)

	assert.Equal(t, 2, d.Bundles)
	assert.Equal(t, 1, d.WithWithholding)
	assert.Equal(t, 1, d.MissingMain)
	assert.Equal(t, 1, d.RejectedDocuments)
	require.NotNil(t, d.LatestUpload)
	assert.Equal(t, t0.Add(2*time.Hour), *d.LatestUpload)
	require.Len(t, d.RecentBundles, 2)
	assert.Equal(t, "R2", d.RecentBundles[0].ReceiptNumber)

	assert.Equal(t, 3, d.Items)
	assert.True(t, decimal.RequireFromString("32.20").Equal(d.TotalVAT))
	assert.True(t, decimal.RequireFromString("18.40").Equal(d.Balance))
	assert.Equal(t, []string{"999"}, d.UnclassifiedCodes)
	assert.NotEmpty(t, d.TableVersion)
}

func TestService_Dashboard_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, docs, items := newService(ctrl)

	docs.EXPECT().ListDocuments(gomock.Any(), gomock.Any()).Return(nil, nil)
	items.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(nil, nil)

	d, err := svc.Dashboard(context.Background(), overview.Filter{TenantID: uuid.New()})
	require.NoError(t, err)
	assert.Zero(t, d.Bundles)
	assert.Nil(t, d.LatestUpload)
	assert.Empty(t, d.RecentBundles)
	assert.True(t, d.TotalVAT.IsZero())
}

func TestService_Dashboard_PropagatesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, docs, items := newService(ctrl)

	docs.EXPECT().ListDocuments(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down")).AnyTimes()
	items.EXPECT().ListItems(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	_, err := svc.Dashboard(context.Background(), overview.Filter{TenantID: uuid.New()})
	assert.ErrorContains(t, err, "db down")
}
