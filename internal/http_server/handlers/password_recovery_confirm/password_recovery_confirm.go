package passwordRecoveryConfirm

import (
	"context"
	"log/slog"
	"net/http"

	"identity_service/internal/http_server/handlers"
	resp "identity_service/internal/lib/api/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Password string `json:"password" validate:"required,password"`
}

type Confirmer interface {
	PasswordRecoveryConfirm(ctx context.Context, token, password string) error
}

// New godoc
// @Summary      Новый пароль по коду восстановления
// @Description  Устанавливает новый пароль и завершает все сессии пользователя.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token    query  string   true  "Код из письма"
// @Param        request  body   Request  true  "Новый пароль"
// @Success      200  {object}  object{status=string}
// @Failure      400  {object}  object{status=string,error=string}  "Ошибка валидации"
// @Failure      404  {object}  object{status=string,error=string}  "Errors.OperationNotFound"
// @Router       /v1/auth/password-recovery/confirm [put]
// @x-order      7
func New(log *slog.Logger, validate *validator.Validate, confirmer Confirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.passwordRecoveryConfirm.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token, ok := handlers.QueryToken(w, r, log)
		if !ok {
			return
		}

		var req Request
		if !handlers.DecodeRequest(w, r, log, validate, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlers.RequestTimeout)
		defer cancel()

		if err := confirmer.PasswordRecoveryConfirm(ctx, token, req.Password); err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		log.Info("Password recovered")

		render.JSON(w, r, resp.OK())
	}
}
