package passwordChangeConfirm

import (
	"context"
	"log/slog"
	"net/http"

	"identity_service/internal/http_server/handlers"
	resp "identity_service/internal/lib/api/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Confirmer interface {
	PasswordChangeConfirm(ctx context.Context, token string) error
}

// New godoc
// @Summary      Подтверждение смены пароля
// @Description  Применяет сохраненный пароль и завершает все сессии пользователя.
// @Tags         auth
// @Produce      json
// @Param        token  query  string  true  "Код из письма"
// @Success      200  {object}  object{status=string}
// @Failure      404  {object}  object{status=string,error=string}  "Errors.OperationNotFound"
// @Router       /v1/auth/password-change/confirm [put]
// @x-order      9
func New(log *slog.Logger, confirmer Confirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.passwordChangeConfirm.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token, ok := handlers.QueryToken(w, r, log)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlers.RequestTimeout)
		defer cancel()

		if err := confirmer.PasswordChangeConfirm(ctx, token); err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		log.Info("Password changed")

		render.JSON(w, r, resp.OK())
	}
}
