package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/export"
)

func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	d, err := h.Schools.Dashboard(r.Context(), sid)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, d)
}

// dueQuery reads ?window=all|week|month|overdue|incoming&from=&to=.
func dueQuery(r *http.Request) (billing.DueQuery, error) {
	q := r.URL.Query()
	out := billing.DueQuery{Window: billing.DueWindow(q.Get("window"))}
	switch out.Window {
	case "":
		out.Window = billing.DueAll
	case billing.DueAll, billing.DueWeek, billing.DueMonth, billing.DueOverdue, billing.DueIncoming:
	default:
		return out, fmt.Errorf("%w: unknown window %q", errBadRequest, out.Window)
	}
	for _, f := range []struct {
		name string
		dst  *calendar.Date
	}{{"from", &out.From}, {"to", &out.To}} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		d, err := calendar.ParseDate(v)
		if err != nil {
			return out, err
		}
		*f.dst = d
	}
	return out, nil
}

func (h *Handlers) DueDates(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	q, err := dueQuery(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	rep, err := h.Schools.DueDates(r.Context(), sid, q)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if rep.Items == nil {
		rep.Items = []models.FlatInstallment{}
	}
	h.JSON(w, http.StatusOK, rep)
}

func (h *Handlers) ExportDueDates(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	q, err := dueQuery(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	data, name, err := h.Exports.DueDates(r.Context(), sid, q)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
