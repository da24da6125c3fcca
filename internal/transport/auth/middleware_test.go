package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
)

type fakeParser struct {
	p   Principal
	err error
	got string
}

func (f *fakeParser) Parse(raw string) (Principal, error) {
	f.got = raw
	return f.p, f.err
}

func TestMiddleware_setsPrincipal(t *testing.T) {
	fp := &fakeParser{p: Principal{UserID: "u1", SchoolID: "1234", Role: models.RoleAdmin}}
	log, _ := test.NewNullLogger()

	got := ""
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, err := GetUserID(r.Context())
		if err != nil {
			t.Fatalf("expected user id present, got err: %v", err)
		}
		got = uid
		w.WriteHeader(http.StatusOK)
	})

	srv := Middleware(fp, log)(handler)

	req := httptest.NewRequest("POST", "/api/students", nil)
	req.Header.Set("Authorization", "Bearer mytoken")
	rr := httptest.NewRecorder()

	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rr.Code)
	}
	if got != "u1" || fp.got != "mytoken" {
		t.Fatalf("expected principal u1 from mytoken, got %q from %q", got, fp.got)
	}
}

func TestMiddleware_queryToken(t *testing.T) {
	fp := &fakeParser{p: Principal{UserID: "u1"}}
	log, _ := test.NewNullLogger()
	srv := Middleware(fp, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/reports/due-dates.xlsx?token=qtok", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || fp.got != "qtok" {
		t.Fatalf("expected query token accepted, got %d %q", rr.Code, fp.got)
	}
}

func TestMiddleware_blockWhenMissingOrInvalid(t *testing.T) {
	log, _ := test.NewNullLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("should not reach handler")
	})

	srv := Middleware(&fakeParser{}, log)(handler)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest("POST", "/api/students", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", rr.Code)
	}

	srv = Middleware(&fakeParser{err: errors.New("bad")}, log)(handler)
	req := httptest.NewRequest("POST", "/api/students", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", rr.Code)
	}
}

func TestMiddleware_allowsOptions(t *testing.T) {
	log, _ := test.NewNullLogger()
	reached := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})
	srv := Middleware(&fakeParser{}, log)(handler)

	req := httptest.NewRequest("OPTIONS", "/api/students", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 No Content, got %d", rr.Code)
	}
	if !reached {
		t.Fatalf("expected handler to be reached on OPTIONS")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	cases := []struct {
		name string
		role models.Role
		cap  Capability
		want int
	}{
		{"admin deletes", models.RoleAdmin, DeleteStudents, http.StatusOK},
		{"coordinator bills", models.RoleCoordinator, ManageBilling, http.StatusOK},
		{"legacy coordinator spelling", models.RoleCoordenator, ViewBilling, http.StatusOK},
		{"coordinator cannot delete", models.RoleCoordinator, DeleteStudents, http.StatusForbidden},
		{"master manages tenants", models.RoleMasterAdmin, ManageTenants, http.StatusOK},
		{"master has no school billing", models.RoleSuperAdmin, ManageBilling, http.StatusForbidden},
		{"unknown role", "GUEST", ViewBilling, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req = req.WithContext(WithPrincipal(req.Context(), Principal{Role: tc.role}))
			rr := httptest.NewRecorder()
			Require(tc.cap)(ok).ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
		})
	}

	rr := httptest.NewRecorder()
	Require(ViewBilling)(ok).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rr.Code)
	}
}

func TestIssuerRoundTrip(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	tok, exp, err := iss.Issue(Principal{UserID: "u1", Username: "ana", SchoolID: "1234", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry in the past: %v", exp)
	}

	p, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.UserID != "u1" || p.SchoolID != "1234" || p.Role != models.RoleAdmin || p.Username != "ana" {
		t.Fatalf("unexpected principal %+v", p)
	}

	if _, err := NewIssuer("other", time.Hour).Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	past := NewIssuer("secret", time.Hour)
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := past.Issue(Principal{UserID: "u1"})
	if _, err := iss.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}
