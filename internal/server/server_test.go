package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/config"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/handlers"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/backups"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/snapshot"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/account"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/backup"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/export"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/importer"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/school"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/transport/auth"
)

type memSink struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memSink) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memSink) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.objects[key]; ok {
		return data, nil
	}
	return nil, errors.New("no such key")
}

type fakeImporter struct {
	jobs chan importer.Request
}

func (f *fakeImporter) Import(_ context.Context, req importer.Request) (importer.Result, error) {
	f.jobs <- req
	return importer.Result{Format: "csv"}, nil
}

type env struct {
	handler  http.Handler
	importer *fakeImporter
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log, _ := test.NewNullLogger()

	adminHash, err := account.HashPassword("secret")
	require.NoError(t, err)
	masterHash, err := account.HashPassword("master-pass")
	require.NoError(t, err)

	store := snapshot.NewMemoryStore(models.School{
		ID:   "1234",
		Name: "Centro",
		Users: []models.User{
			{ID: "u1", Name: "Admin", Username: "admin", Password: adminHash, Role: models.RoleAdmin},
			{ID: "u2", Name: "Coord", Username: "coord", Password: "plain", Role: models.RoleCoordinator},
		},
		Students: []models.Student{},
	})
	clock := func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local) }
	schools := school.NewService(store, log, models.FinancialConfig{FineAmount: 10, DailyInterestRate: 0.33, GracePeriodDays: 3}, school.WithClock(clock))
	issuer := auth.NewIssuer("test-secret", time.Hour)
	imp := &fakeImporter{jobs: make(chan importer.Request, 1)}

	h := handlers.New(handlers.Deps{
		Schools:  schools,
		Accounts: account.NewService(schools, issuer, config.Master{Username: "master", PasswordHash: masterHash}, log),
		Backups:  backup.NewService(schools, &memSink{objects: map[string][]byte{}}, backups.NewMemoryLog(), log),
		Exports:  export.NewService(schools),
		Importer: imp,
		Logger:   log,
	})
	return &env{handler: Router(h, issuer, log), importer: imp}
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *env) login(t *testing.T, schoolID, username, password string) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"schoolId": schoolID, "username": username, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sess))
	return sess.Token
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndPreflight(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodOptions, "/api/students", "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestLogin(t *testing.T) {
	e := newEnv(t)

	assert.NotEmpty(t, e.login(t, "1234", "admin", "secret"))
	assert.NotEmpty(t, e.login(t, "1234", "COORD", "plain"))

	rr := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"schoolId": "1234", "username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"schoolId": "12", "username": "admin", "password": "secret"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/students", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestEnrollAndPay(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "1234", "admin", "secret")

	rr := e.do(t, http.MethodPost, "/api/students", admin, map[string]any{
		"student": map[string]any{"fullName": "Ana Silva", "cpf": "111.111.111-11", "email": "ana@x"},
		"plan":    map[string]any{"courseClass": "Inglês", "packageValue": 1200, "installmentsCount": 3, "dueDay": 10},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[struct {
		Student  models.Student `json:"student"`
		Warnings []string       `json:"warnings"`
	}](t, rr)
	assert.Equal(t, []string{"invalid cpf"}, created.Warnings)
	require.Len(t, created.Student.Installments, 3)

	st := created.Student
	first := st.Installments[0]
	path := "/api/students/" + st.ID + "/installments/" + first.ID + "/payment"

	rr = e.do(t, http.MethodPost, path, admin, map[string]any{"paid": true, "amount": 400, "paymentMethod": "Pix"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	paid := decode[models.Student](t, rr)
	assert.Equal(t, models.PaymentPaid, paid.Installments[0].Status)
	assert.Equal(t, "2024-03-15", paid.Installments[0].PaidDate.String())

	rr = e.do(t, http.MethodPost, path, admin, map[string]any{"paid": true, "amount": 400})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/students/"+st.ID+"/statement?filter=settled", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 400.0, decode[struct {
		TotalReceived float64 `json:"totalReceived"`
	}](t, rr).TotalReceived)

	rr = e.do(t, http.MethodGet, "/api/students/nope", admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/students", admin, map[string]any{
		"student": map[string]any{"fullName": "Bruno"},
		"plan":    map[string]any{"courseClass": "Inglês", "packageValue": 100, "installmentsCount": 1, "dueDay": 40},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCapabilities(t *testing.T) {
	e := newEnv(t)
	coord := e.login(t, "1234", "coord", "plain")
	master := e.login(t, "", "master", "master-pass")

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/reports/dashboard", coord, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/api/students", coord, map[string]any{}).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodDelete, "/api/students/x", coord, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPut, "/api/settings", coord, map[string]any{}).Code)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/api/students", master, nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/tenants", master, nil).Code)

	rr := e.do(t, http.MethodPost, "/api/tenants", master, map[string]string{"name": "Norte", "adminPassword": "1234abc"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tenant := decode[account.SchoolSummary](t, rr)
	assert.Len(t, tenant.ID, 4)
	assert.NotEmpty(t, e.login(t, tenant.ID, "admin", "1234abc"))
}

func TestReportsAndSettings(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "1234", "admin", "secret")

	rr := e.do(t, http.MethodPut, "/api/settings", admin, map[string]any{"fineAmount": 5, "dailyInterestRate": 0.1, "gracePeriodDays": 0})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 5.0, decode[models.FinancialConfig](t, rr).FineAmount)

	rr = e.do(t, http.MethodPut, "/api/settings", admin, map[string]any{"fineAmount": -1})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/reports/due-dates?window=overdue", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"items":[],"total":0}`, rr.Body.String())

	rr = e.do(t, http.MethodGet, "/api/reports/due-dates?window=someday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/reports/due-dates.xlsx", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.ContentTypeXLSX, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "vencimentos-all-2024-03-15.xlsx")

	rr = e.do(t, http.MethodPost, "/api/expenses", admin, map[string]any{"description": "Aluguel", "category": "Infraestrutura", "amount": 900})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	exp := decode[models.Expense](t, rr)
	assert.Equal(t, "2024-03-15", exp.Date.String())

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/api/expenses/"+exp.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodDelete, "/api/expenses/"+exp.ID, admin, nil).Code)
}

func TestBackups(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "1234", "admin", "secret")

	rr := e.do(t, http.MethodPost, "/api/backups", admin, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodGet, "/api/backups", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]map[string]any](t, rr), 1)

	rr = e.do(t, http.MethodGet, "/api/backups/download", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	snap := rr.Body.Bytes()

	req := httptest.NewRequest(http.MethodPost, "/api/backups/restore", bytes.NewReader(snap))
	req.Header.Set("Authorization", "Bearer "+admin)
	rr = httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodPost, "/api/backups/restore", admin, map[string]any{"id": "9999", "students": []any{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestImportStartsInBackground(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, "1234", "admin", "secret")

	rr := e.do(t, http.MethodPost, "/api/imports", admin, map[string]any{"type": "debts", "file_path": "x.csv"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/imports", admin, map[string]any{"type": "payments", "file_path": " s3://b/pagamentos.csv "})
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	select {
	case job := <-e.importer.jobs:
		assert.Equal(t, "1234", job.SchoolID)
		assert.Equal(t, "s3://b/pagamentos.csv", job.FilePath)
		assert.Equal(t, 1000, job.BatchSize)
	case <-time.After(2 * time.Second):
		t.Fatal("import did not start")
	}

	rr = e.do(t, http.MethodGet, "/api/imports", admin, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
