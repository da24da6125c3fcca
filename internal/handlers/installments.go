package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

type paymentRequest struct {
	// Paid false reverts a paid installment to pending.
	Paid        bool                 `json:"paid"`
	Amount      float64              `json:"amount" validate:"gte=0"`
	PaidDate    calendar.Date        `json:"paidDate"`
	Method      models.PaymentMethod `json:"paymentMethod"`
	Observation string               `json:"observation"`
}

type editRequest struct {
	DueDate        *calendar.Date `json:"dueDate"`
	Amount         *float64       `json:"amount" validate:"omitempty,gte=0"`
	History        *string        `json:"history"`
	DocumentNumber *string        `json:"documentNumber"`
}

type adHocRequest struct {
	Amount         float64       `json:"amount" validate:"gt=0"`
	DueDate        calendar.Date `json:"dueDate"`
	History        string        `json:"history"`
	DocumentNumber string        `json:"documentNumber"`
	Course         string        `json:"course"`
}

type cardRequest struct {
	IDs              []string `json:"ids" validate:"required,min=1,dive,required"`
	CardInstallments int      `json:"cardInstallments" validate:"min=1,max=24"`
}

// TogglePayment pays an installment or reverts it. A payment without date is
// dated today and one without amount pays the calculator total on the paid
// date, the same price the payment import charges.
func (h *Handlers) TogglePayment(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req paymentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	vars := mux.Vars(r)

	var p billing.Payment
	if req.Paid {
		p = billing.Payment{Amount: req.Amount, PaidDate: req.PaidDate, Method: req.Method, Observation: req.Observation}
		if p.PaidDate.IsZero() {
			p.PaidDate = h.Schools.Today()
		}
		if p.Amount == 0 {
			b, err := h.Schools.BreakdownAt(r.Context(), sid, vars["id"], vars["iid"], p.PaidDate)
			if err != nil {
				h.Error(w, r, err)
				return
			}
			p.Amount = b.Total
		}
	}

	st, err := h.Schools.TogglePayment(r.Context(), sid, vars["id"], vars["iid"], p)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

func (h *Handlers) EditInstallment(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req editRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	vars := mux.Vars(r)
	st, err := h.Schools.EditInstallment(r.Context(), sid, vars["id"], vars["iid"], billing.InstallmentEdit{
		DueDate:        req.DueDate,
		Amount:         req.Amount,
		History:        req.History,
		DocumentNumber: req.DocumentNumber,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

func (h *Handlers) DeleteInstallments(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req idsRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	st, err := h.Schools.DeleteInstallments(r.Context(), sid, mux.Vars(r)["id"], req.IDs...)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

func (h *Handlers) InsertInstallment(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req adHocRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if req.DueDate.IsZero() {
		h.JSON(w, http.StatusBadRequest, map[string]string{"error": "dueDate is required"})
		return
	}
	st, err := h.Schools.InsertInstallment(r.Context(), sid, mux.Vars(r)["id"], billing.AdHoc{
		Amount:         req.Amount,
		DueDate:        req.DueDate,
		History:        req.History,
		DocumentNumber: req.DocumentNumber,
		Course:         req.Course,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, st)
}

func (h *Handlers) PayWithCard(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req cardRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	st, err := h.Schools.PayWithCard(r.Context(), sid, mux.Vars(r)["id"], req.IDs, req.CardInstallments)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

func (h *Handlers) Breakdown(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	vars := mux.Vars(r)
	b, err := h.Schools.Breakdown(r.Context(), sid, vars["id"], vars["iid"])
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, b)
}
