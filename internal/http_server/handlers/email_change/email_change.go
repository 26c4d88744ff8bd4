package emailChange

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
	Email string `json:"email" validate:"required,email"`
}

type Changer interface {
	EmailChange(ctx context.Context, s models.Session, email string) error
}

// New godoc
// @Summary      Смена email
// @Description  ## Описание
// @Description  Создает операцию EMAIL_CHANGE и отправляет письмо с кодом на новый адрес.
// @Description
// @Description  ### Ограничения:
// @Description  - доступно только пользователям с паролем
// @Description  - занятый email дает Errors.UserAlreadyExists
// @Description
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  Request  true  "Новый email"
// @Success      200  {object}  object{status=string}
// @Failure      400  {object}  object{status=string,error=string}  "Ошибка валидации или Errors.UserAlreadyExists"
// @Failure      401  {object}  object{status=string,error=string}  "Errors.Unauthorized или Errors.InvalidSession"
// @Router       /v1/auth/email-change [post]
// @x-order      10
func New(log *slog.Logger, validate *validator.Validate, changer Changer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.emailChange.New"

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

		if err := changer.EmailChange(ctx, s, req.Email); err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		render.JSON(w, r, resp.OK())
	}
}
