package auth

import (
	"errors"
	"net/http"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

var ErrForbidden = errors.New("forbidden")

type Capability string

const (
	ViewBilling    Capability = "view_billing"
	ManageBilling  Capability = "manage_billing"
	ManageStudents Capability = "manage_students"
	DeleteStudents Capability = "delete_students"
	ManageExpenses Capability = "manage_expenses"
	ManageSettings Capability = "manage_settings"
	ManageBackups  Capability = "manage_backups"
	ManageUsers    Capability = "manage_users"
	ImportData     Capability = "import_data"
	ManageTenants  Capability = "manage_tenants"
)

var schoolAdmin = []Capability{
	ViewBilling, ManageBilling, ManageStudents, DeleteStudents,
	ManageExpenses, ManageSettings, ManageBackups, ManageUsers, ImportData,
}

var roleCapabilities = map[models.Role][]Capability{
	models.RoleAdmin:       schoolAdmin,
	models.RoleSchoolAdmin: schoolAdmin,
	models.RoleCoordinator: {ViewBilling, ManageBilling},
	models.RoleCoordenator: {ViewBilling, ManageBilling},
	models.RoleMasterAdmin: {ManageTenants},
	models.RoleSuperAdmin:  {ManageTenants},
}

// Can reports whether role grants c. Unknown roles grant nothing.
func Can(role models.Role, c Capability) bool {
	for _, have := range roleCapabilities[role] {
		if have == c {
			return true
		}
	}
	return false
}

func (p Principal) Can(c Capability) bool { return Can(p.Role, c) }

func (p Principal) Capabilities() []Capability {
	return append([]Capability(nil), roleCapabilities[p.Role]...)
}

// Require lets the request through only if the principal holds every cap.
// It must run after Middleware.
func Require(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, c := range caps {
				if !p.Can(c) {
					writeError(w, http.StatusForbidden, ErrForbidden.Error())
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
