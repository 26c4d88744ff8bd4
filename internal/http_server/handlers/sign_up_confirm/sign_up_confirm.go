package signUpConfirm

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
	SignUpConfirm(ctx context.Context, token string) error
}

// New godoc
// @Summary      Подтверждение email после регистрации
// @Description  Применяет операцию SIGN_UP по коду из письма и помечает email подтвержденным.
// @Description  Просроченный, чужой или уже замененный код дает 404.
// @Tags         auth
// @Produce      json
// @Param        token  query  string  true  "Код подтверждения"
// @Success      200  {object}  object{status=string}
// @Failure      400  {object}  object{status=string,error=string}  "Errors.BadRequest"
// @Failure      404  {object}  object{status=string,error=string}  "Errors.OperationNotFound"
// @Router       /v1/auth/sign-up/confirm [get]
// @x-order      2
func New(log *slog.Logger, confirmer Confirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signUpConfirm.New"

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

		if err := confirmer.SignUpConfirm(ctx, token); err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		log.Info("email verified successfully")

		render.JSON(w, r, resp.OK())
	}
}
