package passwordChange

import (
	"context"
	"log/slog"
	"net/http"

	"identity_service/internal/http_server/handlers"
	resp "identity_service/internal/lib/api/response"
	"identity_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Password string `json:"password" validate:"required,password"`
}

type Changer interface {
	PasswordChange(ctx context.Context, s models.Session, password string) error
}

// New godoc
// @Summary      Смена пароля
// @Description  ## Описание
// @Description  Сохраняет хеш нового пароля в операции PASSWORD_CHANGE и отправляет письмо с подтверждением.
// @Description  Пароль меняется только после перехода по ссылке из письма.
// @Description
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  Request  true  "Новый пароль"
// @Success      200  {object}  object{status=string}
// @Failure      400  {object}  object{status=string,error=string}  "Ошибка валидации"
// @Failure      401  {object}  object{status=string,error=string}  "Errors.Unauthorized или Errors.InvalidSession"
// @Router       /v1/auth/password-change [post]
// @x-order      8
func New(log *slog.Logger, validate *validator.Validate, changer Changer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.passwordChange.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		s, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		var req Request
		if !handlers.DecodeRequest(w, r, log, validate, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlers.RequestTimeout)
		defer cancel()

		if err := changer.PasswordChange(ctx, s, req.Password); err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		render.JSON(w, r, resp.OK())
	}
}
