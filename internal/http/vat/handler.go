package vat

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/despacho/internal/declaration"
	"github.com/MrJamesThe3rd/despacho/internal/http/api"
	"github.com/MrJamesThe3rd/despacho/internal/http/auth"
	"github.com/MrJamesThe3rd/despacho/internal/report"
	"github.com/MrJamesThe3rd/despacho/internal/vat"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *vat.Service
}

func NewHandler(svc *vat.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/report", h.report)
	r.Get("/report.xlsx", h.reportXLSX)
	r.Get("/table", h.table)
}

type bucketResponse struct {
	ID         vat.BucketID `json:"id"`
	Label      string       `json:"label"`
	LocalLabel string       `json:"local_label,omitempty"`
	Section    vat.Section  `json:"section,omitempty"`
	VatType    vat.VatType  `json:"vat_type,omitempty"`
	Count      int          `json:"count"`
	TotalCost  string       `json:"total_cost"`
	TotalVAT   string       `json:"total_vat"`
	Items      []itemRef    `json:"items,omitempty"`
}

type itemRef struct {
	ID                string `json:"id"`
	DeclarationNumber string `json:"declaration_number"`
	NatureCode        string `json:"nature_code"`
	Description       string `json:"description"`
	Cost              string `json:"cost"`
	VAT               string `json:"vat"`
}

type warningResponse struct {
	ItemID            string `json:"item_id"`
	DeclarationNumber string `json:"declaration_number"`
	NatureCode        string `json:"nature_code"`
}

type rejectedResponse struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}

type reportResponse struct {
	TableVersion string             `json:"table_version"`
	Buckets      []bucketResponse   `json:"buckets"`
	Warnings     []warningResponse  `json:"warnings"`
	Rejected     []rejectedResponse `json:"rejected"`
	TotalCost    string             `json:"total_cost"`
	TotalVAT     string             `json:"total_vat"`
	Balance      string             `json:"balance"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toReportResponse(rep *vat.Report, withItems bool) reportResponse {
	cost, total := rep.Totals()

	resp := reportResponse{
		TableVersion: rep.TableVersion,
		Buckets:      make([]bucketResponse, 0, len(rep.Buckets)),
		Warnings:     make([]warningResponse, 0, len(rep.Warnings)),
		Rejected:     make([]rejectedResponse, 0, len(rep.Rejected)),
		TotalCost:    money(cost),
		TotalVAT:     money(total),
		Balance:      money(rep.Balance()),
	}

	for _, b := range rep.Ordered() {
		br := bucketResponse{
			ID:         b.ID,
			Label:      b.Label,
			LocalLabel: b.LocalLabel,
			Section:    b.Section,
			VatType:    b.VatType,
			Count:      b.Count,
			TotalCost:  money(b.TotalCost),
			TotalVAT:   money(b.TotalVAT),
		}

		if withItems {
			for _, item := range b.Items {
				br.Items = append(br.Items, itemRef{
					ID:                item.ID.String(),
					DeclarationNumber: item.DeclarationNumber,
					NatureCode:        item.NatureCode,
					Description:       item.Description,
					Cost:              money(item.Cost()),
					VAT:               money(*item.VAT),
				})
			}
		}

		resp.Buckets = append(resp.Buckets, br)
	}

	for _, w := range rep.Warnings {
		resp.Warnings = append(resp.Warnings, warningResponse{
			ItemID:            w.Item.ID.String(),
			DeclarationNumber: w.Item.DeclarationNumber,
			NatureCode:        w.NatureCode,
		})
	}

	for _, v := range rep.Rejected {
		resp.Rejected = append(resp.Rejected, rejectedResponse{ItemID: v.Item.ID.String(), Error: v.Err.Error()})
	}

	return resp
}

func filterFrom(r *http.Request) (declaration.ListFilter, error) {
	start, end, err := api.DateRange(r)
	if err != nil {
		return declaration.ListFilter{}, err
	}

	return declaration.ListFilter{
		TenantID:  auth.Tenant(r.Context()),
		StartDate: start,
		EndDate:   end,
	}, nil
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := h.svc.Report(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	withItems, _ := strconv.ParseBool(r.URL.Query().Get("items"))

	api.JSON(w, http.StatusOK, toReportResponse(rep, withItems))
}

func (h *Handler) reportXLSX(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := h.svc.Report(r.Context(), filter)
	if err != nil {
		api.Error(w, r, err)
		return
	}

	meta := report.Meta{
		Tenant:      filter.TenantID.String(),
		StartDate:   filter.StartDate,
		EndDate:     filter.EndDate,
		GeneratedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rep, meta); err != nil {
		api.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename(filter)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func filename(filter declaration.ListFilter) string {
	name := "iva"
	if filter.StartDate != nil {
		name += "_" + filter.StartDate.Format(time.DateOnly)
	}

	if filter.EndDate != nil {
		name += "_" + filter.EndDate.Format(time.DateOnly)
	}

	return name + ".xlsx"
}

type lineResponse struct {
	Number     string      `json:"number"`
	Section    vat.Section `json:"section"`
	VatType    vat.VatType `json:"vat_type"`
	Label      string      `json:"label"`
	LocalLabel string      `json:"local_label"`
	Codes      []codeEntry `json:"codes"`
}

type codeEntry struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	LocalLabel string `json:"local_label"`
}

type tableResponse struct {
	Version string         `json:"version"`
	Lines   []lineResponse `json:"lines"`
}

func (h *Handler) table(w http.ResponseWriter, r *http.Request) {
	t := h.svc.Table()

	byLine := make(map[string][]codeEntry)
	for _, e := range t.Entries() {
		byLine[e.LineNumber] = append(byLine[e.LineNumber], codeEntry{Code: e.Code, Label: e.Label, LocalLabel: e.LocalLabel})
	}

	resp := tableResponse{Version: t.Version()}

	for _, l := range t.Lines() {
		resp.Lines = append(resp.Lines, lineResponse{
			Number:     l.Number,
			Section:    l.Section,
			VatType:    l.VatType,
			Label:      l.Label,
			LocalLabel: l.LocalLabel,
			Codes:      byLine[l.Number],
		})
	}

	api.JSON(w, http.StatusOK, resp)
}
