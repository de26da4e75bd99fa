package auth

import (
	"context"
	"net/http"
	"strings"

	"safetap/internal/models"
)

type ctxKey string

const subjectKey ctxKey = "auth.subject"

// Subject — аутентифицированный субъект запроса.
type Subject struct {
	AccountID uint
	Role      string
}

// Middleware требует валидный Bearer-токен и кладёт субъекта в контекст.
func Middleware(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token", nil)
				return
			}
			id, role, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token", nil)
				return
			}
			ctx := context.WithValue(r.Context(), subjectKey, Subject{AccountID: id, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только перечисленные роли (поверх Middleware).
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, ok := FromContext(r.Context())
			if !ok {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "no authenticated subject", nil)
				return
			}
			for _, role := range roles {
				if sub.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			models.WriteProblem(w, http.StatusForbidden, "Forbidden", "insufficient role", nil)
		})
	}
}

func FromContext(ctx context.Context) (Subject, bool) {
	sub, ok := ctx.Value(subjectKey).(Subject)
	return sub, ok
}
