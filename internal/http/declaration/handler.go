package declaration

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/http/api"
	"github.com/MrJamesThe3rd/despacho/internal/http/auth"
	"github.com/MrJamesThe3rd/despacho/internal/importer"
	"github.com/MrJamesThe3rd/despacho/internal/matching"
)

const maxUploadSize = 10 << 20

type Handler struct {
	svc       *declaration.Service
	importSvc *importer.Service
	matchSvc  *matching.Service
}

func NewHandler(svc *declaration.Service, importSvc *importer.Service, matchSvc *matching.Service) *Handler {
	return &Handler{
		svc:       svc,
		importSvc: importSvc,
		matchSvc:  matchSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/import", h.importFile)
	r.Post("/import/confirm", h.confirmImport)
	r.Get("/hints", h.suggest)
	r.Post("/hints", h.learn)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req paramsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params, err := req.params()
	if err != nil {
		http.Error(w, "invalid declaration_date", http.StatusBadRequest)
		return
	}

	params.TenantID = auth.Tenant(r.Context())

	item, err := h.svc.Create(r.Context(), params)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toResponse(item))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	start, end, err := api.DateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter := declaration.ListFilter{
		TenantID:  auth.Tenant(r.Context()),
		StartDate: start,
		EndDate:   end,
	}

	if s := r.URL.Query().Get("nature_code"); s != "" {
		filter.NatureCode = new(s)
	}

	if s := r.URL.Query().Get("receipt_number"); s != "" {
		filter.ReceiptNumber = new(s)
	}

	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponseList(items))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := h.svc.Get(r.Context(), auth.Tenant(r.Context()), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponse(item))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), auth.Tenant(r.Context()), id); err != nil {
		api.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// importFile parses an uploaded export, fills missing nature codes from the
// tenant's hints and stores the batch. Conflicts with stored lines answer 409
// and nothing is written.
func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	format := importer.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = importer.FormatBroker
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	batch, err := h.importSvc.Import(format, file)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	tenantID := auth.Tenant(r.Context())

	hinted, err := h.matchSvc.Fill(r.Context(), tenantID, batch.Params)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	result, err := h.svc.ImportBatch(r.Context(), tenantID, batch.Params)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	status := http.StatusCreated
	if len(result.Conflicts) > 0 {
		status = http.StatusConflict
	}

	api.JSON(w, status, toImportResponse(batch, hinted, result))
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	params := make([]declaration.CreateParams, 0, len(req.Params))

	for _, dto := range req.Params {
		p, err := dto.params()
		if err != nil {
			http.Error(w, "invalid declaration_date", http.StatusBadRequest)
			return
		}

		params = append(params, p)
	}

	items, err := h.svc.CreateBatch(r.Context(), auth.Tenant(r.Context()), params)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toResponseList(items))
}

type hintResponse struct {
	Description string `json:"description"`
	NatureCode  string `json:"nature_code"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	desc := strings.TrimSpace(r.URL.Query().Get("description"))
	if desc == "" {
		http.Error(w, "description query parameter is required", http.StatusBadRequest)
		return
	}

	code, err := h.matchSvc.Suggest(r.Context(), auth.Tenant(r.Context()), desc)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, hintResponse{Description: desc, NatureCode: code})
}

type learnRequest struct {
	Pattern    string `json:"pattern"`
	NatureCode string `json:"nature_code"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.matchSvc.Learn(r.Context(), auth.Tenant(r.Context()), req.Pattern, req.NatureCode); err != nil {
		api.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
