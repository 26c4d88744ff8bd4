package signUpResend

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

type Resender interface {
	SignUpResend(ctx context.Context, email string) error
}

// New godoc
// @Summary      Повторная отправка письма подтверждения
// @Description  ## Описание
// @Description  Создает новую операцию SIGN_UP, предыдущий код перестает работать.
// @Description
// @Description  ### Безопасность:
// @Description  - всегда 200 OK, даже если пользователя нет или email уже подтвержден
// @Description  - не раскрывает существование пользователя
// @Description  - не больше 1 запроса в минуту с одного ip
// @Description
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  Request  true  "Email пользователя"  example({"email": "user@example.com"})
// @Success      200  {object}  object{status=string}
// @Failure      400  {object}  object{status=string,error=string}  "Ошибка валидации"
// @Failure      429  {object}  object{status=string,error=string}  "Errors.TooManyRequests"
// @Router       /v1/auth/sign-up/resend [post]
// @x-order      3
func New(log *slog.Logger, validate *validator.Validate, resender Resender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signUpResend.New"

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

		if err := resender.SignUpResend(ctx, req.Email); err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		render.JSON(w, r, resp.OK())
	}
}
