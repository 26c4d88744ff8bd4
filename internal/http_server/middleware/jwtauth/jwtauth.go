package jwtauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"identity_service/internal/auth"
	resp "identity_service/internal/lib/api/response"
	sl "identity_service/internal/lib/logger"
	"identity_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ctxKey struct{}

type Authenticator interface {
	Authenticate(ctx context.Context, kind auth.TokenKind, bearer string) (*models.Session, error)
}

// * New пропускает запрос дальше только с живой сессией, сессия кладется в контекст
func New(log *slog.Logger, authenticator Authenticator, kind auth.TokenKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.jwtauth"

			log := log.With(
				slog.String("op", op),
				slog.String("kind", kind.String()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			s, err := authenticator.Authenticate(r.Context(), kind, BearerToken(r))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrUnauthorized):
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, resp.Error(resp.MsgUnauthorized))
				case errors.Is(err, auth.ErrInvalidSession):
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, resp.Error(resp.MsgInvalidSession))
				default:
					log.Error("failed to authenticate", sl.Err(err))

					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, resp.Error(resp.MsgInternal))
				}

				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), *s)))
		}

		return http.HandlerFunc(fn)
	}
}

func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func WithSession(ctx context.Context, s models.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(models.Session)
	return s, ok
}
