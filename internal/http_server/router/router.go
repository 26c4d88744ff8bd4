package router

import (
	"context"
	"log/slog"
	"net/http"

	"identity_service/internal/auth"
	"identity_service/internal/config"
	emailChange "identity_service/internal/http_server/handlers/email_change"
	emailChangeConfirm "identity_service/internal/http_server/handlers/email_change_confirm"
	"identity_service/internal/http_server/handlers/health"
	"identity_service/internal/http_server/handlers/logout"
	logoutAll "identity_service/internal/http_server/handlers/logout_all"
	passwordChange "identity_service/internal/http_server/handlers/password_change"
	passwordChangeConfirm "identity_service/internal/http_server/handlers/password_change_confirm"
	passwordRecovery "identity_service/internal/http_server/handlers/password_recovery"
	passwordRecoveryConfirm "identity_service/internal/http_server/handlers/password_recovery_confirm"
	"identity_service/internal/http_server/handlers/refresh"
	signIn "identity_service/internal/http_server/handlers/sign_in"
	signUp "identity_service/internal/http_server/handlers/sign_up"
	signUpConfirm "identity_service/internal/http_server/handlers/sign_up_confirm"
	signUpResend "identity_service/internal/http_server/handlers/sign_up_resend"
	"identity_service/internal/http_server/middleware/jwtauth"
	rateLimit "identity_service/internal/middleware/ratelimit"
	"identity_service/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
)

// * Service все, что ручкам нужно от auth.Auth
type Service interface {
	jwtauth.Authenticator
	SignUp(ctx context.Context, email, password string) error
	SignUpConfirm(ctx context.Context, token string) error
	SignUpResend(ctx context.Context, email string) error
	SignIn(ctx context.Context, email, password string) (models.Tokens, error)
	Refresh(ctx context.Context, s models.Session) (models.Tokens, error)
	PasswordRecovery(ctx context.Context, email string) error
	PasswordRecoveryConfirm(ctx context.Context, token, password string) error
	PasswordChange(ctx context.Context, s models.Session, password string) error
	PasswordChangeConfirm(ctx context.Context, token string) error
	EmailChange(ctx context.Context, s models.Session, email string) error
	EmailChangeConfirm(ctx context.Context, token string) error
	Logout(ctx context.Context, s models.Session) error
	LogoutAll(ctx context.Context, s models.Session) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	svc Service,
	checks health.Checks,
	limits config.RateLimit,
	origins []string,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", health.New(log, checks))

	access := jwtauth.New(log, svc, auth.AccessToken)
	refreshGuard := jwtauth.New(log, svc, auth.RefreshToken)
	// у каждой ручки свой счетчик
	strict := func() func(http.Handler) http.Handler {
		return rateLimit.ByIP(limits.ResendLimit, limits.Window)
	}

	r.Route("/v1/auth", func(r chi.Router) {
		r.Use(rateLimit.ByIP(limits.Limit, limits.Window))

		r.Post("/sign-up", signUp.New(log, validate, svc))
		r.Get("/sign-up/confirm", signUpConfirm.New(log, svc))
		r.With(strict()).Post("/sign-up/resend", signUpResend.New(log, validate, svc))
		r.Post("/sign-in", signIn.New(log, validate, svc))
		r.With(refreshGuard).Get("/refresh", refresh.New(log, svc))

		r.With(strict()).Post("/password-recovery", passwordRecovery.New(log, validate, svc))
		r.Put("/password-recovery/confirm", passwordRecoveryConfirm.New(log, validate, svc))
		r.With(access).Post("/password-change", passwordChange.New(log, validate, svc))
		r.Put("/password-change/confirm", passwordChangeConfirm.New(log, svc))

		r.With(access).Post("/email-change", emailChange.New(log, validate, svc))
		r.Put("/email-change/confirm", emailChangeConfirm.New(log, svc))

		r.With(access).Post("/logout", logout.New(log, svc))
		r.With(access).Post("/logout-all", logoutAll.New(log, svc))
	})

	if len(origins) == 0 {
		return r
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
