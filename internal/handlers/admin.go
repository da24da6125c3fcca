package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/account"
)

type expenseRequest struct {
	Description   string                 `json:"description" validate:"required"`
	Category      models.ExpenseCategory `json:"category" validate:"required"`
	Amount        float64                `json:"amount" validate:"gt=0"`
	Date          calendar.Date          `json:"date"`
	Beneficiary   string                 `json:"beneficiary"`
	PaymentMethod string                 `json:"paymentMethod"`
	Notes         string                 `json:"notes"`
	ProofURL      string                 `json:"proofUrl" validate:"omitempty,url"`
}

type settingsRequest struct {
	FineAmount        float64 `json:"fineAmount" validate:"gte=0"`
	DailyInterestRate float64 `json:"dailyInterestRate" validate:"gte=0"`
	GracePeriodDays   int     `json:"gracePeriodDays" validate:"gte=0"`
}

type userRequest struct {
	Name     string      `json:"name" validate:"required"`
	Username string      `json:"username" validate:"required,max=64"`
	Password string      `json:"password" validate:"required,min=4"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=ADMIN COORDINATOR SCHOOL_ADMIN"`
}

type tenantRequest struct {
	Name          string `json:"name" validate:"required"`
	AdminName     string `json:"adminName"`
	AdminPassword string `json:"adminPassword" validate:"required,min=4"`
}

func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	sc, err := h.Schools.Get(r.Context(), sid)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	out := sc.Expenses
	if out == nil {
		out = []models.Expense{}
	}
	h.JSON(w, http.StatusOK, out)
}

func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req expenseRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	e, err := h.Schools.AddExpense(r.Context(), sid, models.Expense{
		Description:   req.Description,
		Category:      req.Category,
		Amount:        req.Amount,
		Date:          req.Date,
		Beneficiary:   req.Beneficiary,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		ProofURL:      req.ProofURL,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, e)
}

func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if err := h.Schools.DeleteExpense(r.Context(), sid, mux.Vars(r)["id"]); err != nil {
		h.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	cfg, err := h.Schools.Settings(r.Context(), sid)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, cfg)
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req settingsRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	cfg, err := h.Schools.UpdateSettings(r.Context(), sid, models.FinancialConfig{
		FineAmount:        req.FineAmount,
		DailyInterestRate: req.DailyInterestRate,
		GracePeriodDays:   req.GracePeriodDays,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, cfg)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	users, err := h.Accounts.Users(r.Context(), sid)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, users)
}

func (h *Handlers) AddUser(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req userRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	u, err := h.Accounts.AddUser(r.Context(), sid, models.User{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, u)
}

func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	list, err := h.Accounts.Schools(r.Context())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, list)
}

// CreateTenant answers with the new school id; the admin logs in with it and
// the "admin" username.
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req tenantRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	sc, err := h.Accounts.CreateSchool(r.Context(), account.NewSchool{
		Name:          req.Name,
		AdminName:     req.AdminName,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, account.SchoolSummary{ID: sc.ID, Name: sc.Name, Users: len(sc.Users)})
}
