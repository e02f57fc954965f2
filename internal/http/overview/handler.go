package overview

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/despacho/internal/http/api"
	"github.com/MrJamesThe3rd/despacho/internal/http/auth"
	"github.com/MrJamesThe3rd/despacho/internal/overview"
)

type Handler struct {
	svc *overview.Service
}

func NewHandler(svc *overview.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.dashboard)
}

type recentBundle struct {
	ReceiptNumber    string    `json:"receipt_number"`
	HasMain          bool      `json:"has_main"`
	HasWithholding   bool      `json:"has_withholding"`
	HasAttachment    bool      `json:"has_attachment"`
	MostRecentUpload time.Time `json:"most_recent_upload"`
}

type dashboardResponse struct {
	Bundles           int            `json:"bundles"`
	WithWithholding   int            `json:"with_withholding"`
	MissingMain       int            `json:"missing_main"`
	RejectedDocuments int            `json:"rejected_documents"`
	LatestUpload      *time.Time     `json:"latest_upload"`
	RecentBundles     []recentBundle `json:"recent_bundles"`
	Items             int            `json:"items"`
	TotalVAT          string         `json:"total_vat"`
	Balance           string         `json:"balance"`
	UnclassifiedCodes []string       `json:"unclassified_codes"`
	TableVersion      string         `json:"table_version"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	start, end, err := api.DateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := h.svc.Dashboard(r.Context(), overview.Filter{
		TenantID:  auth.Tenant(r.Context()),
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		api.Error(w, r, err)
		return
	}

	resp := dashboardResponse{
		Bundles:           d.Bundles,
		WithWithholding:   d.WithWithholding,
		MissingMain:       d.MissingMain,
		RejectedDocuments: d.RejectedDocuments,
		LatestUpload:      d.LatestUpload,
		RecentBundles:     make([]recentBundle, len(d.RecentBundles)),
		Items:             d.Items,
		TotalVAT:          d.TotalVAT.StringFixed(2),
		Balance:           d.Balance.StringFixed(2),
		UnclassifiedCodes: d.UnclassifiedCodes,
		TableVersion:      d.TableVersion,
	}

	if resp.UnclassifiedCodes == nil {
		resp.UnclassifiedCodes = []string{}
	}

	for i, b := range d.RecentBundles {
		resp.RecentBundles[i] = recentBundle{
			ReceiptNumber:    b.ReceiptNumber,
			HasMain:          b.Main != nil,
			HasWithholding:   b.HasWithholding,
			HasAttachment:    b.Attachment != nil,
			MostRecentUpload: b.MostRecentUpload,
		}
	}

	api.JSON(w, http.StatusOK, resp)
}
