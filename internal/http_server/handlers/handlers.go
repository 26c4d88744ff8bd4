package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"identity_service/internal/auth"
	"identity_service/internal/http_server/middleware/jwtauth"
	resp "identity_service/internal/lib/api/response"
	sl "identity_service/internal/lib/logger"
	"identity_service/internal/models"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const RequestTimeout = 5 * time.Second

// * DecodeRequest декодирует и валидирует тело запроса, при ошибке сам отвечает 400
func DecodeRequest(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, req any) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil {
		log.Error("Failed to decode request body", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error(resp.MsgBadRequest))

		return false
	}

	log.Info("Request body decoded")

	if err := validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		if !errors.As(err, &validateErr) {
			log.Error("Failed to validate request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(resp.MsgBadRequest))

			return false
		}

		log.Info("Invalid request", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ValidationError(validateErr))

		return false
	}

	return true
}

// * QueryToken достает ?token= из запроса
func QueryToken(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	token := r.URL.Query().Get("token")
	if token == "" {
		log.Info("missing token")

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error(resp.MsgBadRequest))

		return "", false
	}

	return token, true
}

// * Session сессия, которую положил jwtauth
func Session(w http.ResponseWriter, r *http.Request) (models.Session, bool) {
	s, ok := jwtauth.SessionFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error(resp.MsgUnauthorized))

		return models.Session{}, false
	}

	return s, true
}

// * RenderError переводит ошибки auth в статус и сообщение для клиента
func RenderError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error(resp.MsgUserAlreadyExists))
	case errors.Is(err, auth.ErrWrongPassword):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error(resp.MsgWrongPassword))
	case errors.Is(err, auth.ErrNotVerified):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, resp.Error(resp.MsgNotVerify))
	case errors.Is(err, auth.ErrOperationNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error(resp.MsgOperationNotFound))
	case errors.Is(err, auth.ErrInvalidSession):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error(resp.MsgInvalidSession))
	case errors.Is(err, auth.ErrUnauthorized):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error(resp.MsgUnauthorized))
	default:
		log.Error("Internal error", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error(resp.MsgInternal))
	}
}
