package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

type planRequest struct {
	CourseClass          string        `json:"courseClass" validate:"required"`
	PackageValue         float64       `json:"packageValue" validate:"gt=0"`
	InstallmentsCount    int           `json:"installmentsCount" validate:"min=1,max=120"`
	DueDay               int           `json:"dueDay" validate:"min=1,max=31"`
	FirstDueDate         calendar.Date `json:"firstDueDate"`
	RegistrationFee      float64       `json:"registrationFee" validate:"gte=0"`
	MaterialFee          float64       `json:"materialFee" validate:"gte=0"`
	DiscountValue        float64       `json:"discountValue" validate:"gte=0"`
	DiscountPercent      float64       `json:"discountPercent" validate:"gte=0,lte=100"`
	EarlyPaymentDiscount float64       `json:"earlyPaymentDiscount" validate:"gte=0"`
}

func (p planRequest) plan() billing.Plan {
	return billing.Plan{
		CourseClass:          p.CourseClass,
		PackageValue:         p.PackageValue,
		InstallmentsCount:    p.InstallmentsCount,
		DueDay:               p.DueDay,
		FirstDueDate:         p.FirstDueDate,
		RegistrationFee:      p.RegistrationFee,
		MaterialFee:          p.MaterialFee,
		DiscountValue:        p.DiscountValue,
		DiscountPercent:      p.DiscountPercent,
		EarlyPaymentDiscount: p.EarlyPaymentDiscount,
	}
}

type enrollRequest struct {
	Student models.Student `json:"student"`
	Plan    planRequest    `json:"plan"`
}

type regenerateRequest struct {
	Mode billing.RegenerateMode `json:"mode" validate:"required,oneof=replace add"`
	Plan planRequest            `json:"plan"`
}

type idsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type statusRequest struct {
	Status models.StudentStatus `json:"status" validate:"required"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handlers) ListStudents(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	list, err := h.Schools.Students(r.Context(), sid)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, list)
}

func (h *Handlers) GetStudent(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	st, err := h.Schools.Student(r.Context(), sid, mux.Vars(r)["id"])
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

func (h *Handlers) Enroll(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req enrollRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	st, warnings, err := h.Schools.Enroll(r.Context(), sid, req.Student, req.Plan.plan())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	h.JSON(w, http.StatusCreated, map[string]any{"student": st, "warnings": warnings})
}

func (h *Handlers) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var profile models.Student
	if err := h.decode(w, r, &profile); err != nil {
		h.Error(w, r, err)
		return
	}
	profile.ID = mux.Vars(r)["id"]
	st, err := h.Schools.UpdateProfile(r.Context(), sid, profile)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

// DeleteStudents takes the ids from the path or, for bulk deletes, from the
// body.
func (h *Handlers) DeleteStudents(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	ids := []string{mux.Vars(r)["id"]}
	if ids[0] == "" {
		var req idsRequest
		if err := h.decode(w, r, &req); err != nil {
			h.Error(w, r, err)
			return
		}
		ids = req.IDs
	}
	n, err := h.Schools.DeleteStudents(r.Context(), sid, ids...)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (h *Handlers) SetStudentStatus(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req statusRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	st, err := h.Schools.SetStatus(r.Context(), sid, mux.Vars(r)["id"], req.Status)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

func (h *Handlers) CancelCourse(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req cancelRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	st, err := h.Schools.CancelCourse(r.Context(), sid, mux.Vars(r)["id"], req.Reason)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

func (h *Handlers) ToggleRecurring(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	st, err := h.Schools.ToggleRecurring(r.Context(), sid, mux.Vars(r)["id"])
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

// Regenerate replaces the unpaid plan of a student or adds a new one.
func (h *Handlers) Regenerate(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	var req regenerateRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	st, err := h.Schools.UpdateEnrollment(r.Context(), sid, mux.Vars(r)["id"], req.Mode, req.Plan.plan())
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}

// Statement accepts ?course= and ?filter=open|settled.
func (h *Handlers) Statement(w http.ResponseWriter, r *http.Request) {
	sid, err := schoolOf(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := billing.StatusFilter(q.Get("filter"))
	switch filter {
	case billing.FilterAll, billing.FilterOpen, billing.FilterSettled:
	default:
		h.JSON(w, http.StatusBadRequest, map[string]string{"error": "filter must be open or settled"})
		return
	}
	st, err := h.Schools.Statement(r.Context(), sid, mux.Vars(r)["id"], q.Get("course"), filter)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, st)
}
