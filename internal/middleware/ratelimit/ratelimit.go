package rateLimit

import (
	"net/http"
	"time"

	resp "identity_service/internal/lib/api/response"

	httprate "github.com/go-chi/httprate"
	"github.com/go-chi/render"
)

// * ByIP лимит запросов с одного ip за окно, сверх лимита 429
func ByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusTooManyRequests)
	render.JSON(w, r, resp.Error(resp.MsgTooManyRequests))
}
