package logout

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

type Logouter interface {
	Logout(ctx context.Context, s models.Session) error
}

// New godoc
// @Summary      Выход из системы
// @Description  Удаляет текущую сессию. Токены этой сессии перестают работать сразу.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  object{status=string}
// @Failure      401  {object}  object{status=string,error=string}  "Errors.Unauthorized или Errors.InvalidSession"
// @Router       /v1/auth/logout [post]
// @x-order      12
func New(log *slog.Logger, logouter Logouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

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

		if err := logouter.Logout(ctx, s); err != nil {
			handlers.RenderError(w, r, log, err)

			return
		}

		log.Info("User logged out", slog.Int64("uid", s.UserID))

		render.JSON(w, r, resp.OK())
	}
}
