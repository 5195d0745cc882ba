package httpapi

import (
	"net/http"
	"time"

	"github.com/kartixk/sweet-shop-management-system/internal/sales"
)

type ReportHandler struct {
	repo sales.Repository
	loc  *time.Location
}

func NewReportHandler(repo sales.Repository, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{repo: repo, loc: loc}
}

type salesReport struct {
	Count       int          `json:"count"`
	TotalAmount float64      `json:"totalAmount"`
	Sales       []sales.Sale `json:"sales"`
}

func (h *ReportHandler) Sales(w http.ResponseWriter, r *http.Request) {
	window, err := sales.WindowFor(r.URL.Query().Get("type"), time.Now(), h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := sales.Filter{From: window.From, To: window.To}
	list, err := h.repo.Query(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	summary, err := h.repo.Summarize(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []sales.Sale{}
	}

	writeJSON(w, http.StatusOK, salesReport{
		Count:       summary.Count,
		TotalAmount: summary.TotalAmount,
		Sales:       list,
	})
}
