package signIn

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
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	models.Tokens
}

type SignIner interface {
	SignIn(ctx context.Context, email, password string) (models.Tokens, error)
}

// New godoc
// @Summary      Вход в систему
// @Description  ## Описание
// @Description  Проверяет email и пароль, создает новую сессию и возвращает пару токенов.
// @Description
// @Description  ### Ответы:
// @Description  - неизвестный email и неверный пароль дают одну и ту же ошибку Errors.WrongPassword
// @Description  - верный пароль при неподтвержденном email дает Errors.NotVerify
// @Description  - access токен живет 24 часа, refresh 30 дней
// @Description
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  Request  true  "Email и пароль"
// @Success      200  {object}  Response
// @Failure      400  {object}  object{status=string,error=string}  "Ошибка валидации"
// @Failure      403  {object}  object{status=string,error=string}  "Errors.WrongPassword или Errors.NotVerify"
// @Failure      500  {object}  object{status=string,error=string}  "Errors.Internal"
// @Router       /v1/auth/sign-in [post]
// @x-order      4
func New(log *slog.Logger, validate *validator.Validate, signIner SignIner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signIn.New"

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

		tokens, err := signIner.SignIn(ctx, req.Email, req.Password)
		if err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		log.Info("User logged in successfully")

		ResponseOK(w, r, tokens)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, tokens models.Tokens) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Tokens:   tokens,
	})
}
