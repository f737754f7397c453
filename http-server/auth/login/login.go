package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cotizador/internal/middleware/auth"
	authsvc "cotizador/internal/service/auth"

	"github.com/go-chi/render"
)

type Authenticator interface {
	Login(ctx context.Context, req authsvc.LoginRequest) (authsvc.LoginResult, error)
	TokenInfo(token string) (authsvc.TokenInfo, error)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

var loginErrors = []struct {
	err  error
	code int
}{
	{authsvc.ErrMissingCredentials, http.StatusBadRequest},
	{authsvc.ErrInvalidUser, http.StatusUnauthorized},
	{authsvc.ErrLicenseRevoked, http.StatusForbidden},
	{authsvc.ErrWrongPassword, http.StatusUnauthorized},
}

func Login(log *slog.Logger, authenticator Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.auth.Login"

		var req authsvc.LoginRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: authsvc.ErrMissingCredentials.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := authenticator.Login(ctx, req)
		if err != nil {
			for _, le := range loginErrors {
				if errors.Is(err, le.err) {
					log.With(slog.String("op", op), slog.String("username", req.Username), slog.String("reason", le.err.Error())).Warn("Login rejected")
					render.Status(r, le.code)
					render.JSON(w, r, ErrorResponse{Error: le.err.Error()})
					return
				}
			}

			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Login failed")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "internal_error"})
			return
		}

		log.With(slog.String("op", op), slog.String("username", res.Username)).Info("User logged in")
		render.JSON(w, r, res)
	}
}

func Token(log *slog.Logger, authenticator Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := authenticator.TokenInfo(auth.BearerToken(r))
		if err != nil {
			code := authsvc.ErrInvalidToken
			if errors.Is(err, authsvc.ErrMissingToken) {
				code = authsvc.ErrMissingToken
			}
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{Error: code.Error()})
			return
		}

		render.JSON(w, r, info)
	}
}
