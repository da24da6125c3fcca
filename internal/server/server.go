package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/handlers"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/transport/auth"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(port string, h *handlers.Handlers, parser auth.TokenParser, log logrus.FieldLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      Router(h, parser, log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Router mounts the public routes and the /api tree behind the token
// middleware. Every /api route names the capabilities it needs.
func Router(h *handlers.Handlers, parser auth.TokenParser, log logrus.FieldLogger) http.Handler {
	r := mux.NewRouter()
	r.Use(cors)

	// preflight for every path; cors writes the answer
	r.Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(parser, log))

	route := func(path string, fn http.HandlerFunc, method string, caps ...auth.Capability) {
		api.Handle(path, auth.Require(caps...)(fn)).Methods(method)
	}

	route("/me", h.Me, http.MethodGet)

	route("/students", h.ListStudents, http.MethodGet, auth.ViewBilling)
	route("/students", h.Enroll, http.MethodPost, auth.ManageStudents)
	route("/students", h.DeleteStudents, http.MethodDelete, auth.DeleteStudents)
	route("/students/{id}", h.GetStudent, http.MethodGet, auth.ViewBilling)
	route("/students/{id}", h.UpdateStudent, http.MethodPut, auth.ManageStudents)
	route("/students/{id}", h.DeleteStudents, http.MethodDelete, auth.DeleteStudents)
	route("/students/{id}/status", h.SetStudentStatus, http.MethodPut, auth.ManageStudents)
	route("/students/{id}/cancel", h.CancelCourse, http.MethodPost, auth.ManageStudents)
	route("/students/{id}/recurring", h.ToggleRecurring, http.MethodPost, auth.ManageStudents)
	route("/students/{id}/enrollment", h.Regenerate, http.MethodPost, auth.ManageStudents)
	route("/students/{id}/statement", h.Statement, http.MethodGet, auth.ViewBilling)

	route("/students/{id}/installments", h.InsertInstallment, http.MethodPost, auth.ManageBilling)
	route("/students/{id}/installments", h.DeleteInstallments, http.MethodDelete, auth.ManageBilling)
	route("/students/{id}/installments/card", h.PayWithCard, http.MethodPost, auth.ManageBilling)
	route("/students/{id}/installments/{iid}", h.EditInstallment, http.MethodPut, auth.ManageBilling)
	route("/students/{id}/installments/{iid}/payment", h.TogglePayment, http.MethodPost, auth.ManageBilling)
	route("/students/{id}/installments/{iid}/breakdown", h.Breakdown, http.MethodGet, auth.ViewBilling)

	route("/reports/dashboard", h.Dashboard, http.MethodGet, auth.ViewBilling)
	route("/reports/due-dates", h.DueDates, http.MethodGet, auth.ViewBilling)
	route("/reports/due-dates.xlsx", h.ExportDueDates, http.MethodGet, auth.ViewBilling)

	route("/expenses", h.ListExpenses, http.MethodGet, auth.ManageExpenses)
	route("/expenses", h.AddExpense, http.MethodPost, auth.ManageExpenses)
	route("/expenses/{id}", h.DeleteExpense, http.MethodDelete, auth.ManageExpenses)

	route("/settings", h.GetSettings, http.MethodGet, auth.ViewBilling)
	route("/settings", h.UpdateSettings, http.MethodPut, auth.ManageSettings)

	route("/users", h.ListUsers, http.MethodGet, auth.ManageUsers)
	route("/users", h.AddUser, http.MethodPost, auth.ManageUsers)

	route("/tenants", h.ListTenants, http.MethodGet, auth.ManageTenants)
	route("/tenants", h.CreateTenant, http.MethodPost, auth.ManageTenants)

	route("/backups", h.BackupLogs, http.MethodGet, auth.ManageBackups)
	route("/backups", h.RunBackup, http.MethodPost, auth.ManageBackups)
	route("/backups/download", h.DownloadBackup, http.MethodGet, auth.ManageBackups)
	route("/backups/restore", h.Restore, http.MethodPost, auth.ManageBackups)

	route("/imports", h.ListImports, http.MethodGet, auth.ImportData)
	route("/imports", h.Import, http.MethodPost, auth.ImportData)
	route("/imports/upload", h.Upload, http.MethodPost, auth.ImportData)
	route("/imports/{id}", h.GetImport, http.MethodGet, auth.ImportData)

	return r
}

// cors answers preflight requests and lets browsers read every response.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
