package declaration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/http/auth"
	declarationhttp "github.com/MrJamesThe3rd/despacho/internal/http/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/importer"
	"github.com/MrJamesThe3rd/despacho/internal/importer/broker"
	"github.com/MrJamesThe3rd/despacho/internal/matching"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

type mocks struct {
	repo  *declaration.MockRepository
	itx   *declaration.MockImportTx
	hints *matching.MockRepository
}

func newRouter(t *testing.T, tenant uuid.UUID) (http.Handler, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := mocks{
		repo:  declaration.NewMockRepository(ctrl),
		itx:   declaration.NewMockImportTx(ctrl),
		hints: matching.NewMockRepository(ctrl),
	}

	h := declarationhttp.NewHandler(
		declaration.NewService(m.repo),
		importer.NewService(map[importer.Format]importer.Importer{importer.FormatBroker: broker.NewParser()}),
		matching.NewService(m.hints, vat.DefaultTable()),
	)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithTenant(req.Context(), tenant)))
		})
	})
	r.Route("/declarations", h.Routes)

	return r, m
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func upload(t *testing.T, url, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "export.csv")
	require.NoError(t, err)

	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestHandler_Create(t *testing.T) {
	tenant := uuid.New()

	tests := []struct {
		name       string
		body       string
		setupMock  func(m mocks)
		wantStatus int
	}{
		{
			name: "Created",
			body: `{"nature_code":"201","description":"Forklift","unit_cost":"12500.00","quantity":"1","vat":"2875.00","declaration_number":"D-1","declaration_date":"2025-03-04"}`,
			setupMock: func(m mocks) {
				m.repo.EXPECT().CreateItem(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, item *declaration.LineItem) error {
					assert.Equal(t, tenant, item.TenantID)
					require.NotNil(t, item.VAT)
					assert.True(t, decimal.RequireFromString("2875").Equal(*item.VAT))

					return nil
				})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "NegativeCost",
			body:       `{"unit_cost":"-1","quantity":"1","declaration_date":"2025-03-04"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "BadDate",
			body:       `{"unit_cost":"1","quantity":"1","declaration_date":"04/03/2025"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newRouter(t, tenant)
			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			rec := serve(router, httptest.NewRequest(http.MethodPost, "/declarations/", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

const exportCSV = `Declaração;Data;Natureza;Descrição;Valor;IVA
DS-1;02-01-2025;;Frete marítimo;100,00;23,00
DS-1;02-01-2025;402;Armazenagem;abc;2,30
`

func TestHandler_Import(t *testing.T) {
	tenant := uuid.New()
	router, m := newRouter(t, tenant)
	date := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	m.hints.EXPECT().FindCode(gomock.Any(), tenant, "Frete marítimo").Return("401", nil)
	m.repo.EXPECT().BeginImport(gomock.Any(), tenant, date, date).Return(m.itx, nil)
	m.itx.EXPECT().FindDuplicates(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.itx.EXPECT().CreateItems(gomock.Any(), gomock.Len(1)).Return(nil)
	m.itx.EXPECT().Commit().Return(nil)
	m.itx.EXPECT().Rollback().Return(nil)

	rec := serve(router, upload(t, "/declarations/import?format=broker", exportCSV))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Profile  string `json:"profile"`
		Hinted   int    `json:"hinted"`
		Imported []struct {
			NatureCode string `json:"nature_code"`
		} `json:"imported"`
		Skipped []struct {
			Row int `json:"row"`
		} `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "simplificada", resp.Profile)
	assert.Equal(t, 1, resp.Hinted)
	require.Len(t, resp.Imported, 1)
	assert.Equal(t, "401", resp.Imported[0].NatureCode)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, 3, resp.Skipped[0].Row)
}

func TestHandler_Import_Conflict(t *testing.T) {
	tenant := uuid.New()
	router, m := newRouter(t, tenant)

	m.hints.EXPECT().FindCode(gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil)
	m.repo.EXPECT().BeginImport(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(m.itx, nil)
	m.itx.EXPECT().FindDuplicates(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params []declaration.CreateParams) ([]*declaration.LineItem, error) {
			existing := params[0].Item()
			existing.ID = uuid.New()

			return []*declaration.LineItem{&existing}, nil
		})
	m.itx.EXPECT().Rollback().Return(nil)

	rec := serve(router, upload(t, "/declarations/import", exportCSV))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conflicts"`)
}

func TestHandler_Import_UnknownFormat(t *testing.T) {
	router, _ := newRouter(t, uuid.New())

	rec := serve(router, upload(t, "/declarations/import?format=cgd", exportCSV))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Import_MissingFile(t *testing.T) {
	router, _ := newRouter(t, uuid.New())

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/declarations/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := serve(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Learn(t *testing.T) {
	tenant := uuid.New()
	router, m := newRouter(t, tenant)

	m.hints.EXPECT().CreateHint(gomock.Any(), tenant, "frete", "401").Return(nil)

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/declarations/hints", strings.NewReader(`{"pattern":"frete","nature_code":"401"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodPost, "/declarations/hints", strings.NewReader(`{"pattern":"frete","nature_code":"999"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Delete_NotFound(t *testing.T) {
	tenant := uuid.New()
	router, m := newRouter(t, tenant)
	id := uuid.New()

	m.repo.EXPECT().DeleteItem(gomock.Any(), tenant, id).Return(declaration.ErrNotFound)

	rec := serve(router, httptest.NewRequest(http.MethodDelete, "/declarations/"+id.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
