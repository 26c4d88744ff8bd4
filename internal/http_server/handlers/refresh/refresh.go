package refresh

import (
	"context"
	"log/slog"
	"net/http"

	"identity_service/internal/http_server/handlers"
	resp "identity_service/internal/lib/api/response"
	"identity_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	models.Tokens
}

type Refresher interface {
	Refresh(ctx context.Context, s models.Session) (models.Tokens, error)
}

// New godoc
// @Summary      Обновление токенов
// @Description  Refresh токен передается в заголовке Authorization: Bearer <token>.
// @Description  Всегда создается новая сессия, старая доживает до своего ttl.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response
// @Failure      401  {object}  object{status=string,error=string}  "Errors.Unauthorized или Errors.InvalidSession"
// @Failure      500  {object}  object{status=string,error=string}  "Errors.Internal"
// @Router       /v1/auth/refresh [get]
// @x-order      5
func New(log *slog.Logger, refresher Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		s, ok := handlers.Session(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), handlers.RequestTimeout)
		defer cancel()

		tokens, err := refresher.Refresh(ctx, s)
		if err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		log.Info("Tokens refreshed successfully", slog.Int64("uid", s.UserID))

		ResponseOK(w, r, tokens)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, tokens models.Tokens) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Tokens:   tokens,
	})
}
