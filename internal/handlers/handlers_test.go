package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/billing"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/calendar"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
	importitems "github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/imports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/snapshot"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/account"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/school"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/transport/auth"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("pay: %w", billing.ErrAlreadyPaid), http.StatusConflict},
		{fmt.Errorf("%w: 42", billing.ErrInstallmentNotFound), http.StatusNotFound},
		{ports.ErrSchoolNotFound, http.StatusNotFound},
		{school.ErrStudentNotFound, http.StatusNotFound},
		{school.ErrMatchNeedsStudent, http.StatusBadRequest},
		{fmt.Errorf("%w: DOC-1", school.ErrAmbiguousMatch), http.StatusConflict},
		{billing.ErrEmptySelection, http.StatusBadRequest},
		{validator.New().Struct(struct {
			N int `validate:"min=1"`
		}{}), http.StatusBadRequest},
		{account.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w: master", auth.ErrForbidden), http.StatusForbidden},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

type fakeFiles struct {
	key  string
	body []byte
}

func (f *fakeFiles) Name() string { return "imports-bucket" }

func (f *fakeFiles) PutStream(_ context.Context, key string, r io.Reader, _ int64, _ string) (int64, error) {
	b, err := io.ReadAll(r)
	f.key, f.body = key, b
	return int64(len(b)), err
}

type fakeRecords struct {
	created []importitems.Record
	byID    map[string]importitems.Record
}

func (f *fakeRecords) Create(_ context.Context, rec importitems.Record) (string, error) {
	f.created = append(f.created, rec)
	return "rec-1", nil
}

func (f *fakeRecords) Get(_ context.Context, id string) (importitems.Record, error) {
	rec, ok := f.byID[id]
	if !ok {
		return rec, importitems.ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeRecords) List(context.Context, string, int64, int64) ([]importitems.Record, int64, error) {
	return nil, 0, nil
}

func multipartBody(t *testing.T, action, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("action", action))
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func withPrincipal(r *http.Request, schoolID string) *http.Request {
	return r.WithContext(auth.WithPrincipal(r.Context(), auth.Principal{UserID: "u1", SchoolID: schoolID, Role: models.RoleAdmin}))
}

func TestUpload(t *testing.T) {
	log, _ := test.NewNullLogger()
	files, recs := &fakeFiles{}, &fakeRecords{}
	h := New(Deps{Files: files, Records: recs, Logger: log})

	body, ct := multipartBody(t, "Students", "alunos.csv", "Nome;CPF\nAna;1\n")
	req := httptest.NewRequest(http.MethodPost, "/api/imports/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.Upload(rr, withPrincipal(req, "1234"))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Regexp(t, `^imports/1234/\d+-alunos\.csv$`, files.key)
	assert.Equal(t, "Nome;CPF\nAna;1\n", string(files.body))

	require.Len(t, recs.created, 1)
	rec := recs.created[0]
	assert.Equal(t, "1234", rec.SchoolID)
	assert.Equal(t, "students", rec.Type)
	assert.Equal(t, "u1", *rec.UserID)
	assert.Equal(t, int64(15), *rec.SizeBytes)
	assert.Contains(t, rr.Body.String(), `"id":"rec-1"`)
	assert.Contains(t, rr.Body.String(), "s3://imports-bucket/imports/1234/")
}

func TestUploadRejectsUnknownAction(t *testing.T) {
	log, _ := test.NewNullLogger()
	h := New(Deps{Files: &fakeFiles{}, Logger: log})

	body, ct := multipartBody(t, "debts", "x.csv", "a\n")
	req := httptest.NewRequest(http.MethodPost, "/api/imports/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	h.Upload(rr, withPrincipal(req, "1234"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestImportChecksRecordOwner(t *testing.T) {
	log, _ := test.NewNullLogger()
	recs := &fakeRecords{byID: map[string]importitems.Record{"r9": {SchoolID: "9999"}}}
	h := New(Deps{Records: recs, Logger: log})

	req := httptest.NewRequest(http.MethodPost, "/api/imports",
		bytes.NewBufferString(`{"type":"students","file_path":"x.csv","import_record_id":"r9"}`))
	rr := httptest.NewRecorder()
	h.Import(rr, withPrincipal(req, "1234"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSchoolOfNeedsTenant(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := schoolOf(withPrincipal(req, ""))
	assert.ErrorIs(t, err, auth.ErrForbidden)

	sid, err := schoolOf(withPrincipal(req, "1234"))
	require.NoError(t, err)
	assert.Equal(t, "1234", sid)
}

func TestTogglePaymentPricesAtPaidDate(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := snapshot.NewMemoryStore(models.School{ID: "1234", Students: []models.Student{{
		ID:       "s1",
		FullName: "Ana",
		Status:   models.StudentActive,
		Installments: []models.Installment{{
			ID:             "i1",
			DueDate:        calendar.MustParse("2024-03-01"),
			Amount:         100,
			OriginalAmount: 100,
			Status:         models.PaymentOverdue,
		}},
	}}})
	clock := func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local) }
	schools := school.NewService(store, log, models.FinancialConfig{FineAmount: 10, DailyInterestRate: 0.33, GracePeriodDays: 3}, school.WithClock(clock))
	h := New(Deps{Schools: schools, Logger: log})

	req := httptest.NewRequest(http.MethodPost, "/api/students/s1/installments/i1/payment",
		bytes.NewBufferString(`{"paid":true,"paidDate":"2024-03-01"}`))
	req = mux.SetURLVars(withPrincipal(req, "1234"), map[string]string{"id": "s1", "iid": "i1"})
	rr := httptest.NewRecorder()
	h.TogglePayment(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	sc, err := store.Load(context.Background(), "1234")
	require.NoError(t, err)
	got := sc.Students[0].Installments[0]
	assert.Equal(t, models.PaymentPaid, got.Status)
	assert.Equal(t, 100.0, got.Amount)
	assert.Equal(t, "2024-03-01", got.PaidDate.String())
}
