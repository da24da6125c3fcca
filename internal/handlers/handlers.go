package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
	importitems "github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/imports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/account"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/backup"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/export"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/importer"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/school"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/transport/auth"
)

const maxJSONBody = 1 << 20

var errBadRequest = errors.New("bad request")

type Importer interface {
	Import(ctx context.Context, req importer.Request) (importer.Result, error)
}

// ImportRecords is the import audit trail; nil when Mongo is not wired.
type ImportRecords interface {
	Create(ctx context.Context, rec importitems.Record) (string, error)
	Get(ctx context.Context, id string) (importitems.Record, error)
	List(ctx context.Context, schoolID string, limit, skip int64) ([]importitems.Record, int64, error)
}

// FileStore receives uploaded import files.
type FileStore interface {
	Name() string
	PutStream(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error)
}

type Deps struct {
	Schools  *school.Service
	Accounts *account.Service
	Backups  *backup.Service
	Exports  *export.Service
	Importer Importer
	Records  ImportRecords
	Files    FileStore

	// Check reports the state of the external connections for /health.
	Check func(ctx context.Context) error

	ImportTimeout time.Duration
	Logger        logrus.FieldLogger
}

type Handlers struct {
	Deps

	validate *validator.Validate
}

func New(d Deps) *Handlers {
	if d.ImportTimeout <= 0 {
		d.ImportTimeout = 15 * time.Minute
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	return &Handlers{Deps: d, validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (h *Handlers) JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps err to a status code and writes {"error": "..."}.
func (h *Handlers) Error(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.Logger.WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("[HTTP][ERR]")
	}
	h.JSON(w, code, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr),
		errors.Is(err, errBadRequest),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, billing.ErrEmptySelection),
		errors.Is(err, billing.ErrIncompletePlan),
		errors.Is(err, school.ErrInvalidSettings),
		errors.Is(err, school.ErrInvalidStatus),
		errors.Is(err, backup.ErrInvalidBackup),
		errors.Is(err, school.ErrMatchNeedsStudent),
		errors.Is(err, importer.ErrNoProcessor),
		errors.Is(err, importer.ErrFileTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrSchoolNotFound),
		errors.Is(err, school.ErrStudentNotFound),
		errors.Is(err, school.ErrExpenseNotFound),
		errors.Is(err, billing.ErrInstallmentNotFound),
		errors.Is(err, importitems.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, billing.ErrAlreadyPaid),
		errors.Is(err, school.ErrAmbiguousMatch),
		errors.Is(err, account.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v and validates it.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: bad JSON: %v", errBadRequest, err)
	}
	return h.validate.Struct(v)
}

// schoolOf is the tenant the caller is logged into. Master users have none.
func schoolOf(r *http.Request) (string, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok || p.SchoolID == "" {
		return "", fmt.Errorf("%w: no school in session", auth.ErrForbidden)
	}
	return p.SchoolID, nil
}
