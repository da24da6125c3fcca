package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const principalKey ctxKey = "principal"

type TokenParser interface {
	Parse(raw string) (Principal, error)
}

// Middleware authenticates with a Bearer header or a token query parameter,
// the latter for download links. OPTIONS requests pass untouched.
func Middleware(parser TokenParser, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw := ""
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				raw = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			}
			if raw == "" {
				raw = strings.TrimSpace(r.URL.Query().Get("token"))
			}
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			p, err := parser.Parse(raw)
			if err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Warn("[AUTH] token rejected")
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func GetUserID(ctx context.Context) (string, error) {
	p, ok := FromContext(ctx)
	if !ok || p.UserID == "" {
		return "", errors.New("userID not found in context")
	}
	return p.UserID, nil
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
