package handlers

import (
	"net/http"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/transport/auth"
)

type loginRequest struct {
	SchoolID string `json:"schoolId" validate:"omitempty,len=4,numeric"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login issues a token for a school user, or for the master user when no
// school id is sent.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	sess, err := h.Accounts.Login(r.Context(), req.SchoolID, req.Username, req.Password)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, sess)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())
	h.JSON(w, http.StatusOK, map[string]any{
		"user":         p,
		"capabilities": p.Capabilities(),
	})
}
