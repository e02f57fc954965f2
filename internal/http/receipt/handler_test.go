package receipt_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/despacho/internal/http/auth"
	receipthttp "github.com/MrJamesThe3rd/despacho/internal/http/receipt"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

func newRouter(t *testing.T, tenant uuid.UUID) (http.Handler, *receipt.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := receipt.NewMockRepository(ctrl)
	h := receipthttp.NewHandler(receipt.NewService(repo, nil))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithTenant(req.Context(), tenant)))
		})
	})
	r.Route("/documents", h.DocumentRoutes)
	r.Route("/bundles", h.BundleRoutes)

	return r, repo
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Create(t *testing.T) {
	tenant := uuid.New()

	type testCase struct {
		name       string
		body       string
		setupMock  func(m *receipt.MockRepository)
		wantStatus int
	}

	tests := []testCase{
		{
			name: "Created",
			body: `{"role":"main","receipt_number":"R1","file_url":"s3://bucket/r1.pdf"}`,
			setupMock: func(m *receipt.MockRepository) {
				m.EXPECT().CreateDocument(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, doc *receipt.Document) error {
					assert.Equal(t, tenant, doc.TenantID)
					doc.ID = uuid.New()

					return nil
				})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "UnknownRole",
			body:       `{"role":"cover","receipt_number":"R1"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "MissingReceipt",
			body:       `{"role":"main","receipt_number":"  "}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "Duplicate",
			body: `{"role":"main","receipt_number":"R1","file_url":"x"}`,
			setupMock: func(m *receipt.MockRepository) {
				m.EXPECT().CreateDocument(gomock.Any(), gomock.Any()).Return(receipt.ErrDuplicate)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "BadJSON",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, repo := newRouter(t, tenant)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			rec := serve(router, httptest.NewRequest(http.MethodPost, "/documents/", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_GetNotFound(t *testing.T) {
	tenant := uuid.New()
	router, repo := newRouter(t, tenant)

	id := uuid.New()
	repo.EXPECT().GetDocument(gomock.Any(), tenant, id).Return(nil, receipt.ErrNotFound)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/documents/"+id.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Bundles_ETag(t *testing.T) {
	tenant := uuid.New()
	router, repo := newRouter(t, tenant)
	t0 := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	docs := []*receipt.Document{
		{ID: uuid.New(), TenantID: tenant, Role: receipt.RoleMain, ReceiptNumber: "R1", UploadedAt: t0},
		{ID: uuid.New(), TenantID: tenant, Role: receipt.RoleWithholding, ReceiptNumber: "R1", UploadedAt: t0.Add(time.Hour)},
		{ID: uuid.New(), TenantID: tenant, Role: "cover", ReceiptNumber: "R2", UploadedAt: t0},
	}
	repo.EXPECT().ListDocuments(gomock.Any(), receipt.ListFilter{TenantID: tenant}).Return(docs, nil).Times(3)

	first := serve(router, httptest.NewRequest(http.MethodGet, "/bundles/", nil))
	require.Equal(t, http.StatusOK, first.Code)

	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var body struct {
		Bundles []struct {
			ReceiptNumber  string `json:"receipt_number"`
			HasWithholding bool   `json:"has_withholding"`
		} `json:"bundles"`
		Rejected []struct {
			Error string `json:"error"`
		} `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &body))
	require.Len(t, body.Bundles, 1)
	assert.Equal(t, "R1", body.Bundles[0].ReceiptNumber)
	assert.True(t, body.Bundles[0].HasWithholding)
	require.Len(t, body.Rejected, 1)
	assert.Contains(t, body.Rejected[0].Error, "unknown role")

	second := serve(router, httptest.NewRequest(http.MethodGet, "/bundles/", nil))
	assert.Equal(t, etag, second.Header().Get("ETag"))

	req := httptest.NewRequest(http.MethodGet, "/bundles/", nil)
	req.Header.Set("If-None-Match", etag)

	third := serve(router, req)
	assert.Equal(t, http.StatusNotModified, third.Code)
	assert.Empty(t, third.Body.Bytes())
}

func TestHandler_Bundles_IfNoneMatch(t *testing.T) {
	tenant := uuid.New()
	router, repo := newRouter(t, tenant)

	docs := []*receipt.Document{
		{ID: uuid.New(), TenantID: tenant, Role: receipt.RoleMain, ReceiptNumber: "R1", UploadedAt: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)},
	}
	repo.EXPECT().ListDocuments(gomock.Any(), gomock.Any()).Return(docs, nil).AnyTimes()

	first := serve(router, httptest.NewRequest(http.MethodGet, "/bundles/", nil))
	require.Equal(t, http.StatusOK, first.Code)

	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "Exact", header: etag, want: http.StatusNotModified},
		{name: "Weak", header: "W/" + etag, want: http.StatusNotModified},
		{name: "List", header: `"stale", ` + etag, want: http.StatusNotModified},
		{name: "WeakInList", header: `"stale",W/` + etag, want: http.StatusNotModified},
		{name: "Wildcard", header: "*", want: http.StatusNotModified},
		{name: "Stale", header: `"stale", W/"older"`, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/bundles/", nil)
			req.Header.Set("If-None-Match", tt.header)

			rec := serve(router, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandler_Bundles_EndDateIncludesWholeDay(t *testing.T) {
	tenant := uuid.New()
	router, repo := newRouter(t, tenant)

	var got receipt.ListFilter
	repo.EXPECT().
		ListDocuments(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f receipt.ListFilter) ([]*receipt.Document, error) {
			got = f
			return nil, nil
		})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/bundles/?start_date=2025-03-01&end_date=2025-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	before := got.UploadedBefore()
	require.NotNil(t, before)

	lastDay := time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC)
	nextDay := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, lastDay.Before(*before))
	assert.False(t, nextDay.Before(*before))
	assert.False(t, lastDay.Before(*got.StartDate))
}

func TestHandler_Bundles_BadDate(t *testing.T) {
	router, _ := newRouter(t, uuid.New())

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/bundles/?start_date=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Bundle(t *testing.T) {
	tenant := uuid.New()
	router, repo := newRouter(t, tenant)

	repo.EXPECT().ListDocuments(gomock.Any(), gomock.Any()).Return([]*receipt.Document{
		{ID: uuid.New(), Role: receipt.RoleMain, ReceiptNumber: "R1", UploadedAt: time.Now()},
	}, nil)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/bundles/R1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	repo.EXPECT().ListDocuments(gomock.Any(), gomock.Any()).Return(nil, nil)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/bundles/R9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
