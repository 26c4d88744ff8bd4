package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "identity_service/internal/lib/api/response"

	"github.com/go-chi/render"
)

type Checks struct {
	Postgres func(ctx context.Context) error
	Sessions func(ctx context.Context) bool
	Broker   func() bool
}

type Response struct {
	resp.Response
	Postgres bool `json:"postgres"`
	Redis    bool `json:"redis"`
	RabbitMQ bool `json:"rabbitmq"`
}

// New godoc
// @Summary      Проверка состояния сервиса
// @Tags         health
// @Produce      json
// @Success      200  {object}  Response
// @Failure      503  {object}  Response
// @Router       /health [get]
func New(log *slog.Logger, checks Checks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.health.New"

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		res := Response{
			Postgres: checks.Postgres(ctx) == nil,
			Redis:    checks.Sessions(ctx),
			RabbitMQ: checks.Broker(),
		}

		if res.Postgres && res.Redis && res.RabbitMQ {
			res.Response = resp.OK()
			render.JSON(w, r, res)

			return
		}

		log.Warn("service is not healthy",
			slog.String("op", op),
			slog.Bool("postgres", res.Postgres),
			slog.Bool("redis", res.Redis),
			slog.Bool("rabbitmq", res.RabbitMQ),
		)

		res.Response = resp.Error(resp.MsgInternal)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, res)
	}
}
