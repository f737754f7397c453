package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authsvc "cotizador/internal/service/auth"

	"github.com/go-chi/render"
)

type TokenParser interface {
	ParseToken(token string) (*authsvc.Claims, error)
}

type ctxKey struct{}

// BearerToken достаёт токен из заголовка Authorization.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Bearer пропускает запрос только с валидным JWT и кладёт claims в контекст.
func Bearer(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := parser.ParseToken(BearerToken(r))
			if err != nil {
				code := authsvc.ErrInvalidToken.Error()
				if errors.Is(err, authsvc.ErrMissingToken) {
					code = authsvc.ErrMissingToken.Error()
				}
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, map[string]string{"error": code})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, claims *authsvc.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

func ClaimsFrom(ctx context.Context) (*authsvc.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*authsvc.Claims)
	return claims, ok
}
