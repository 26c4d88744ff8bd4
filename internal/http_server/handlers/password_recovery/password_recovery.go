package passwordRecovery

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
	Email string `json:"email" validate:"required,email"`
}

type Recoverer interface {
	PasswordRecovery(ctx context.Context, email string) error
}

// New godoc
// @Summary      Восстановление пароля
// @Description  ## Описание
// @Description  Отправляет письмо со ссылкой на смену пароля, если пользователь существует и email подтвержден.
// @Description
// @Description  ### Безопасность:
// @Description  - всегда 200 OK, существование пользователя не раскрывается
// @Description  - не больше 1 запроса в минуту с одного ip
// @Description
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  Request  true  "Email пользователя"
// @Success      200  {object}  object{status=string}
// @Failure      400  {object}  object{status=string,error=string}  "Ошибка валидации"
// @Failure      429  {object}  object{status=string,error=string}  "Errors.TooManyRequests"
// @Router       /v1/auth/password-recovery [post]
// @x-order      6
func New(log *slog.Logger, validate *validator.Validate, recoverer Recoverer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.passwordRecovery.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if !handlers.DecodeRequest(w, r, log, validate, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlers.RequestTimeout)
		defer cancel()

		if err := recoverer.PasswordRecovery(ctx, req.Email); err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		render.JSON(w, r, resp.OK())
	}
}
