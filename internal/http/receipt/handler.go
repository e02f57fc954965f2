package receipt

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/despacho/internal/http/api"
	"github.com/MrJamesThe3rd/despacho/internal/http/auth"
	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

type Handler struct {
	svc *receipt.Service
}

func NewHandler(svc *receipt.Service) *Handler {
	return &Handler{svc: svc}
}

// DocumentRoutes mounts the document endpoints.
func (h *Handler) DocumentRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

// BundleRoutes mounts the grouped view of the documents.
func (h *Handler) BundleRoutes(r chi.Router) {
	r.Get("/", h.bundles)
	r.Get("/{receipt}", h.bundle)
}

type createDocumentRequest struct {
	Role          receipt.Role `json:"role"`
	ReceiptNumber string       `json:"receipt_number"`
	FileURL       string       `json:"file_url"`
	Status        string       `json:"status"`
	UploadedAt    *time.Time   `json:"uploaded_at,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := receipt.CreateParams{
		TenantID:      auth.Tenant(r.Context()),
		Role:          req.Role,
		ReceiptNumber: req.ReceiptNumber,
		FileURL:       req.FileURL,
		Status:        req.Status,
	}

	if req.UploadedAt != nil {
		params.UploadedAt = *req.UploadedAt
	}

	doc, err := h.svc.Register(r.Context(), params)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	docs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponseList(docs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	doc, err := h.svc.Get(r.Context(), auth.Tenant(r.Context()), id)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toResponse(doc))
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

// bundles answers with an ETag derived from the body, so an unchanged set of
// documents yields the same tag and a conditional request gets a 304.
func (h *Handler) bundles(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	grouping, err := h.svc.Bundles(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(toGroupingResponse(grouping)); err != nil {
		slog.Error("failed to encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(buf.Bytes()), 16) + `"`
	w.Header().Set("ETag", etag)

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// etagMatches applies the weak comparison If-None-Match calls for.
func etagMatches(header, etag string) bool {
	for tag := range strings.SplitSeq(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == etag {
			return true
		}
	}

	return false
}

func (h *Handler) bundle(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Bundle(r.Context(), auth.Tenant(r.Context()), chi.URLParam(r, "receipt"))
	if err != nil {
		api.Error(w, r, err)
		return
	}

	api.JSON(w, http.StatusOK, toBundleResponse(b))
}

func listFilter(r *http.Request) (receipt.ListFilter, error) {
	start, end, err := api.DateRange(r)
	if err != nil {
		return receipt.ListFilter{}, err
	}

	filter := receipt.ListFilter{
		TenantID:  auth.Tenant(r.Context()),
		StartDate: start,
		EndDate:   end,
	}

	if s := r.URL.Query().Get("receipt_number"); s != "" {
		filter.ReceiptNumber = new(s)
	}

	return filter, nil
}
