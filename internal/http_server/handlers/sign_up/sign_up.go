package signUp

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
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type Response struct {
	resp.Response
}

type SignUper interface {
	SignUp(ctx context.Context, email, password string) error
}

// New godoc
// @Summary      Регистрация пользователя
// @Description  ## Описание
// @Description  Создает пользователя и операцию подтверждения email в одной транзакции.
// @Description  Письмо с кодом подтверждения отправляется только после commit.
// @Description
// @Description  ### Требования к паролю:
// @Description  - минимум 8 символов
// @Description  - строчная и заглавная буква, цифра и спецсимвол
// @Description
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  Request  true  "Email и пароль"
// @Success      201  {object}  object{status=string}
// @Failure      400  {object}  object{status=string,error=string}  "Ошибка валидации или Errors.UserAlreadyExists"
// @Failure      429  {object}  object{status=string,error=string}  "Errors.TooManyRequests"
// @Failure      500  {object}  object{status=string,error=string}  "Errors.Internal"
// @Router       /v1/auth/sign-up [post]
// @x-order      1
func New(log *slog.Logger, validate *validator.Validate, signUper SignUper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signUp.New"

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

		if err := signUper.SignUp(ctx, req.Email, req.Password); err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		log.Info("User signed up")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Response: resp.OK()})
	}
}
